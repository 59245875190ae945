// Package zeroconf advertises the fwecd control API as an mDNS/DNS-SD
// service so management tooling can find it on the local network.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/framework-community/fwecd/internal/identity"
	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type fwecd registers under.
const ServiceType = "_fwec._tcp"

// Service manages mDNS service registration.
type Service struct {
	name   string // instance name / hostname, e.g. "framework"
	port   int
	fans   int
	server *zeroconf.Server
}

// New creates a new zeroconf Service that will advertise on the given port.
// name should be the hostname; fans is the discovered fan channel count.
func New(name string, port, fans int) *Service {
	return &Service{
		name: name,
		port: port,
		fans: fans,
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at
// which point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	txt := []string{
		"version=" + identity.Version,
		fmt.Sprintf("fans=%d", s.fans),
	}

	server, err := zeroconf.Register(
		s.name,      // instance name
		ServiceType, // service type
		"local.",    // domain
		s.port,      // port
		txt,         // TXT records
		nil,         // ifaces — nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	s.server = server
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"port", s.port,
		"txt", txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
