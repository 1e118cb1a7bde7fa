package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anicoll/bytewatt-integration/internal/pkg/bytewatt"
	"github.com/anicoll/bytewatt-integration/internal/pkg/config"
	"github.com/anicoll/bytewatt-integration/internal/pkg/contxt"
	"github.com/anicoll/bytewatt-integration/internal/pkg/metrics"
	"github.com/anicoll/bytewatt-integration/internal/pkg/model"
	"github.com/anicoll/bytewatt-integration/internal/pkg/mqtt"
	"github.com/anicoll/bytewatt-integration/internal/pkg/projection"
	"github.com/anicoll/bytewatt-integration/internal/pkg/publisher"
	"github.com/anicoll/bytewatt-integration/internal/pkg/refresher"
	"github.com/anicoll/bytewatt-integration/internal/pkg/server"
	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func BytewattCommand(ctx *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if v := ctx.String("bytewatt-username"); v != "" {
		cfg.ByteWattCfg.Username = v
	}
	if v := ctx.String("bytewatt-password"); v != "" {
		cfg.ByteWattCfg.Password = v
	}
	if ctx.IsSet("poll-interval") {
		cfg.ByteWattCfg.PollInterval = ctx.Duration("poll-interval")
	}
	if v := ctx.String("mqtt-host"); v != "" {
		cfg.MqttCfg.Host = v
	}
	if v := ctx.String("mqtt-user"); v != "" {
		cfg.MqttCfg.Username = v
	}
	if v := ctx.String("mqtt-pass"); v != "" {
		cfg.MqttCfg.Password = v
	}
	if v := ctx.String("listen-addr"); v != "" {
		cfg.ListenAddr = v
	}
	if v := ctx.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return run(ctx.Context, cfg, bytewatt.New(cfg.ByteWattCfg))
}

func run(ctx context.Context, cfg *config.Config, monitor BatteryMonitor) error {
	var err error

	eg, ctx := errgroup.WithContext(ctx)
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	sensors := projection.DefaultSensors()
	device := &model.Device{
		ID:           cfg.ByteWattCfg.Username,
		Name:         fmt.Sprintf("Neovolt Home Battery (%s)", cfg.ByteWattCfg.Username),
		Model:        "Battery System",
		Manufacturer: "Neovolt",
	}

	if cfg.MqttCfg != nil && cfg.MqttCfg.Host != "" {
		opts := paho_mqtt.NewClientOptions().
			AddBroker(cfg.MqttCfg.Host).
			SetUsername(cfg.MqttCfg.Username).
			SetPassword(cfg.MqttCfg.Password).
			SetClientID("bytewatt-integration").
			SetAutoReconnect(true)
		mqttSvc := mqtt.New(paho_mqtt.NewClient(opts), sensors)
		if err := mqttSvc.Connect(); err != nil {
			return err
		}
		if err := publisher.RegisterPublisher("mqtt", mqttSvc); err != nil {
			return err
		}
		if err := publisher.RegisterDevice(device); err != nil {
			return err
		}
	}

	refr := refresher.New(monitor)

	publish := func(snapshot model.Snapshot) {
		readings := projection.Readings(sensors, snapshot)
		if err := publisher.PublishReadings(contxt.NewContext(time.Second*5), device, readings); err != nil {
			logger.Error("failed to publish readings", zap.Error(err))
		}
	}

	// Eager first refresh: refuse to start against an unreachable or
	// misconfigured account.
	snapshot, err := refr.Refresh(ctx)
	if err != nil {
		return err
	}
	publish(snapshot)

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.ByteWattCfg.PollInterval), func() {
		snapshot, err := refr.Refresh(context.Background())
		if err != nil {
			// Keep serving the stale snapshot; the next tick retries
			// with a fresh budget.
			logger.Warn("scheduled refresh failed", zap.Error(err))
			return
		}
		publish(snapshot)
	}); err != nil {
		return err
	}

	eg.Go(func() error {
		c.Run()
		return nil
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(refr, sensors))

	srv := &http.Server{
		Handler:      server.New(refr).Routes(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		Addr:         cfg.ListenAddr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("context done, shutting down")
		c.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	})

	return eg.Wait()
}
