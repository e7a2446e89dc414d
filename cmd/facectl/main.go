package main

import (
	"os"

	"github.com/ndn-facesys/facesys/cmd/facectl/cmd"
)

func main() {
	if err := cmd.CmdFacectl.Execute(); err != nil {
		os.Exit(1)
	}
}
