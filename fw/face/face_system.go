package face

import (
	"fmt"
	"sync"

	"github.com/ndn-facesys/facesys/fw/core"
)

// FaceSystem is the singleton entry point of spec §4.6: it owns the set
// of ProtocolFactories, dispatches the top-level face_system config
// section to each, and maintains a scheme → factory lookup index.
type FaceSystem struct {
	mu         sync.RWMutex
	factories  map[string]ProtocolFactory // by id
	byScheme   map[string]ProtocolFactory
	netdev     *NetdevBoundManager
}

// NewFaceSystem constructs a FaceSystem with the standard factory set
// registered (spec §4.6: "Factories are registered at system startup by
// a compile-time or runtime registry").
func NewFaceSystem() *FaceSystem {
	s := &FaceSystem{
		factories: make(map[string]ProtocolFactory),
		byScheme:  make(map[string]ProtocolFactory),
	}
	s.Register(NewTCPFactory())
	s.Register(NewUDPFactory())
	s.Register(NewUnixFactory())
	s.Register(NewWebSocketFactory())
	s.Register(NewHTTP3Factory())
	s.Register(NewEtherFactory())
	s.netdev = NewNetdevBoundManager(s)
	return s
}

// Register adds f to the registry, keyed by f.ID(). Intended for startup
// wiring and tests; not part of spec §4.6's operation set itself.
func (s *FaceSystem) Register(f ProtocolFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[f.ID()] = f
}

func (s *FaceSystem) String() string { return "face-system" }

// ProcessConfig dispatches face_system_section's children to the
// matching registered factory by name. An unrecognised or duplicate
// child name never reaches this method: the YAML and INFO config readers
// reject it when the file is parsed. After every factory has processed,
// the scheme → factory index is rebuilt from each factory's advertised
// provided schemes, and then the netdev-bound rules are applied.
func (s *FaceSystem) ProcessConfig(cfg *core.FaceSystemConfig, isDryRun bool) error {
	ctx := ProcessConfigContext{IsDryRun: isDryRun}

	sections := map[string]any{
		"tcp":       cfg.Tcp,
		"udp":       cfg.Udp,
		"unix":      cfg.Unix,
		"websocket": cfg.WebSocket,
		"http3":     cfg.HTTP3,
		"ether":     cfg.Ether,
	}

	s.mu.Lock()
	for name, section := range sections {
		factory, ok := s.factories[name]
		if !ok {
			continue // no registered factory for this id: not a config error by itself
		}
		if err := factory.ProcessConfig(section, ctx); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("face_system.%s: %w", name, err)
		}
	}

	if !isDryRun {
		s.byScheme = make(map[string]ProtocolFactory)
		for _, factory := range s.factories {
			for _, scheme := range factory.ProvidedSchemes() {
				s.byScheme[scheme] = factory
			}
		}
	}
	s.mu.Unlock()

	// The netdev-bound manager looks factories up through GetFactoryByScheme,
	// so it runs after the index is rebuilt and without s.mu held.
	if err := s.netdev.ProcessConfig(cfg.NetdevBound, ctx); err != nil {
		return fmt.Errorf("face_system.netdev_bound: %w", err)
	}
	return nil
}

// GetFactoryByID returns the registered factory named name, or nil.
func (s *FaceSystem) GetFactoryByID(name string) ProtocolFactory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.factories[name]
}

// GetFactoryByScheme returns the factory currently advertising scheme, or nil.
func (s *FaceSystem) GetFactoryByScheme(scheme string) ProtocolFactory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byScheme[scheme]
}

// ListProtocolFactories enumerates all registered factories.
func (s *FaceSystem) ListProtocolFactories() []ProtocolFactory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ProtocolFactory, 0, len(s.factories))
	for _, f := range s.factories {
		out = append(out, f)
	}
	return out
}

// CreateFace routes to the factory that owns req.RemoteURI's scheme, the
// convenience wrapper a management protocol (or facectl) calls instead of
// looking the factory up itself.
func (s *FaceSystem) CreateFace(req CreateFaceRequest, onCreated func(*Face), onFailed func(code int, reason string)) {
	factory := s.GetFactoryByScheme(req.RemoteURI.Scheme())
	if factory == nil {
		onFailed(406, fmt.Sprintf("no protocol factory provides scheme %q", req.RemoteURI.Scheme()))
		return
	}
	factory.CreateFace(req, onCreated, onFailed)
}
