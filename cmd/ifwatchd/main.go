package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/ifwatchd/internal/api"
	"github.com/dmdmdm-nz/ifwatchd/internal/metrics"
	"github.com/dmdmdm-nz/ifwatchd/internal/netmon"
	"github.com/dmdmdm-nz/ifwatchd/internal/operstate"
	"github.com/dmdmdm-nz/ifwatchd/internal/runtime"
	"github.com/dmdmdm-nz/ifwatchd/pkg/cli"
	"github.com/dmdmdm-nz/ifwatchd/pkg/version"
)

func main() {
	// Parse command line flags
	cfg := cli.ParseFlags()

	// Configure logging
	setLogLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FullTimestamp:   true,
	})

	log.Info(version.String())
	log.Infof("Config: %s", cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		log.WithError(err).Fatal("Failed to register metrics")
	}

	netmonSvc := netmon.NewService(netmon.DefaultSource, cfg.QueueLimit, m)
	apiSvc := api.NewService(cfg.Host, cfg.Port, reg)
	apiSvc.AttachMonitor(netmonSvc)

	if probe, err := operstate.NewProbe(cfg.SysfsPath); err != nil {
		log.WithError(err).Warn("Operstate probe disabled")
	} else {
		apiSvc.AttachProbe(probe)
	}

	// Start in dependency order: netmon → api
	super := runtime.NewSupervisor()
	super.AddWithRestart("netmon", netmonSvc.Start, netmonSvc.Close, runtime.RestartPolicy{
		Delay:       time.Duration(cfg.RestartDelay),
		MaxRestarts: cfg.MaxRestarts,
		Retry:       netmon.Restartable,
		OnRestart: func(name string, attempt int, err error) {
			m.Restarts.WithLabelValues(name).Inc()
		},
	})
	super.Add("api", apiSvc.Start, apiSvc.Close)

	if err := super.Start(ctx); err != nil {
		log.WithError(err).Error("Supervisor start failed")
		os.Exit(1)
	}
	if err := super.Wait(ctx); err != nil {
		log.WithError(err).Error("Supervisor wait failed")
		os.Exit(1)
	}
}

func setLogLevel(level string) {
	switch level {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
