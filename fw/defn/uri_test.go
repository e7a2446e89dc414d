package defn_test

import (
	"testing"

	defn "github.com/ndn-facesys/facesys/fw/defn"
	"github.com/stretchr/testify/require"
)

func TestURICanonicalIPv4(t *testing.T) {
	u := defn.DecodeURIString("tcp4://127.0.0.1:20070")
	require.True(t, u.IsCanonical())
	require.Equal(t, "tcp4", u.Scheme())
	require.Equal(t, "127.0.0.1", u.PathHost())
	require.EqualValues(t, 20070, u.Port())
	require.Equal(t, "tcp4://127.0.0.1:20070", u.String())
}

func TestURINonCanonicalHostname(t *testing.T) {
	u := defn.DecodeURIString("tcp4://localhost:6363")
	require.False(t, u.IsCanonical())
}

func TestURIUnixPath(t *testing.T) {
	u := defn.DecodeURIString("unix:///run/ndn.sock")
	require.True(t, u.IsCanonical())
	require.Equal(t, "/run/ndn.sock", u.Path())
}

func TestEndpointEquality(t *testing.T) {
	a := defn.EndpointFromURI(defn.DecodeURIString("tcp4://127.0.0.1:20070"))
	b := defn.EndpointFromURI(defn.DecodeURIString("tcp4://127.0.0.1:20070"))
	c := defn.EndpointFromURI(defn.DecodeURIString("tcp4://127.0.0.1:20071"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
