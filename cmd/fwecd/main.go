// Command fwecd is the Framework Laptop EC bridge daemon. It exposes the
// EC's battery charge limit, keyboard backlight, and fan controls as a
// dynamically-sized control surface over HTTP.
// Run with --mock to use a simulated EC (no /dev/cros_ec required).
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/framework-community/fwecd/internal/api"
	"github.com/framework-community/fwecd/internal/auth"
	"github.com/framework-community/fwecd/internal/bridge"
	"github.com/framework-community/fwecd/internal/config"
	"github.com/framework-community/fwecd/internal/ec"
	"github.com/framework-community/fwecd/internal/events"
	"github.com/framework-community/fwecd/internal/health"
	"github.com/framework-community/fwecd/internal/identity"
	"github.com/framework-community/fwecd/internal/models"
	"github.com/framework-community/fwecd/internal/power"
	"github.com/framework-community/fwecd/internal/surface"
	"github.com/framework-community/fwecd/internal/zeroconf"
)

func main() {
	var (
		mock    = flag.Bool("mock", false, "use mock EC (no /dev/cros_ec required)")
		addr    = flag.String("addr", ":8675", "HTTP listen address")
		devPath = flag.String("device", ec.DevicePath, "EC character device path")
		cfgDir  = flag.String("config-dir", "", "config directory (default: /etc/fwecd)")
		mdns    = flag.Bool("mdns", true, "advertise the control API via mDNS")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Resolve config directory
	if *cfgDir == "" {
		*cfgDir = "/etc/fwecd"
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Platform identity check. Registering charge-limit controls against an
	// EC that doesn't speak this command set could misbehave, so refuse to
	// start on unsupported hardware.
	var platform identity.Platform
	if *mock {
		platform = identity.Platform{Vendor: identity.SupportedVendor, Product: "Laptop (mock)"}
	} else {
		p, err := identity.Detect()
		if err != nil {
			slog.Error("platform identity detection failed", "err", err)
			os.Exit(1)
		}
		if !p.Supported() {
			slog.Error("unsupported system", "vendor", p.Vendor, "product", p.Product)
			os.Exit(1)
		}
		platform = p
	}

	// EC endpoint
	var dev ec.Device
	if *mock {
		slog.Info("using mock EC device")
		dev = ec.NewMock()
	} else {
		d, err := ec.OpenCros(*devPath)
		if err != nil {
			slog.Error("failed to locate EC endpoint", "err", err)
			os.Exit(1)
		}
		dev = d
	}
	defer dev.Close()

	// Fan discovery. Runs exactly once; a failure here only drops the fan
	// controls — battery and backlight still register.
	fans, err := ec.DiscoverFans(ctx, dev)
	if err != nil {
		slog.Warn("fan discovery failed, fan controls disabled", "err", err)
		fans = 0
	}

	br := bridge.New(dev, fans)

	// Persisted settings: apply at boot, re-apply on file edits and resume.
	store := config.NewJSONStore(*cfgDir)
	settings, err := store.Load()
	if err != nil {
		slog.Warn("failed to load settings", "err", err)
		settings = &models.Settings{}
	}
	br.ApplySettings(ctx, settings)

	watcher, err := config.NewWatcher(store, func(s *models.Settings) {
		br.ApplySettings(ctx, s)
	})
	if err != nil {
		slog.Warn("settings watcher unavailable", "err", err)
	} else {
		defer watcher.Close()
	}

	resume, err := power.NewResumeListener(func() {
		s, err := store.Load()
		if err != nil {
			slog.Warn("failed to reload settings after resume", "err", err)
			return
		}
		br.ApplySettings(ctx, s)
	})
	if err != nil {
		slog.Warn("suspend/resume listener unavailable", "err", err)
	} else {
		go resume.Run(ctx)
	}

	// Event bus
	bus := events.NewBus()

	// Persist user-facing singleton writes so they survive reboot.
	go persistWrites(ctx, bus, store)

	// Background fan health monitor: stall and presence transitions become
	// log lines and SSE events.
	go health.NewMonitor(br, bus).Start(ctx)

	// Control surface
	groups := surface.Build(br)
	srv := api.NewServer(br, bus, func() models.Info {
		return models.Info{
			Vendor:   platform.Vendor,
			Product:  platform.Product,
			Hostname: identity.GetHostname(),
			Version:  identity.Version,
			Fans:     fans,
			Controls: surface.Count(groups),
			Mock:     *mock,
		}
	})
	if err := srv.Register(groups); err != nil {
		slog.Error("control surface registration failed", "err", err)
		os.Exit(1)
	}
	defer srv.Unregister()

	// Zeroconf mDNS registration
	if *mdns {
		port := 8675
		if parts := strings.SplitN(*addr, ":", 2); len(parts) == 2 && parts[1] != "" {
			if p, err := strconv.Atoi(parts[1]); err == nil {
				port = p
			}
		}
		zc := zeroconf.New(identity.GetHostname(), port, fans)
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	// Token auth: open mode unless a token file exists in the config dir.
	authSvc, err := auth.NewService(*cfgDir)
	if err != nil {
		slog.Error("auth service failed", "err", err)
		os.Exit(1)
	}
	defer authSvc.Close()
	if !authSvc.IsOpenMode() {
		slog.Info("API token auth enabled")
	}

	// HTTP server
	httpSrv := &http.Server{
		Addr:         *addr,
		Handler:      authSvc.Middleware(api.NewRouter(srv)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("fwecd listening", "addr", *addr, "mock", *mock, "fans", fans, "config", *cfgDir)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()

	// Flush pending settings writes
	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush settings", "err", err)
	}

	// Graceful HTTP shutdown
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}

// persistWrites mirrors successful writes of the two singleton controls into
// the settings store so they can be re-applied at boot and after resume.
func persistWrites(ctx context.Context, bus *events.Bus, store config.Store) {
	ch := bus.Subscribe("persist")
	defer bus.Unsubscribe("persist")
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Control != "charge_control_end_threshold" && ev.Control != "kbd_backlight" {
				continue
			}
			settings, err := store.Load()
			if err != nil {
				slog.Warn("persist: load settings", "err", err)
				continue
			}
			v := ev.Value
			switch ev.Control {
			case "charge_control_end_threshold":
				settings.ChargeLimit = &v
			case "kbd_backlight":
				settings.KbdBacklight = &v
			}
			if err := store.Save(settings); err != nil {
				slog.Warn("persist: save settings", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
