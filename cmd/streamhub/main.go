// Command streamhub runs the real-time event distribution service: the
// event bus, the streaming connection registry, and the HTTP surface that
// clients and collaborators talk to.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/skillsenselab/streamhub/auth"
	"github.com/skillsenselab/streamhub/bus"
	"github.com/skillsenselab/streamhub/component"
	"github.com/skillsenselab/streamhub/config"
	"github.com/skillsenselab/streamhub/event"
	"github.com/skillsenselab/streamhub/logger"
	"github.com/skillsenselab/streamhub/notify"
	"github.com/skillsenselab/streamhub/observability"
	"github.com/skillsenselab/streamhub/relay"
	"github.com/skillsenselab/streamhub/server"
	"github.com/skillsenselab/streamhub/server/endpoint"
	"github.com/skillsenselab/streamhub/stream"
)

func main() {
	var cfg AppConfig
	if err := config.Load("streamhub", &cfg); err != nil {
		logger.Error("Failed to load configuration", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	logger.Init(cfg.Logging, cfg.Name)
	log := logger.GetGlobalLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional OTLP export. The pipeline keeps its in-process counters
	// for /stats either way.
	var metrics *observability.Metrics
	var providers *observability.Providers
	if cfg.Observability.Enabled {
		var err error
		providers, err = observability.Init(ctx, cfg.Observability)
		if err != nil {
			log.Fatal("Failed to initialize observability", map[string]interface{}{
				"error": err.Error(),
			})
		}
		metrics, err = observability.NewMetrics()
		if err != nil {
			log.Fatal("Failed to create metric instruments", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// One registry instance per process, shared by every component.
	eventBus := bus.New(log, bus.WithMetrics(metrics))
	registry := stream.NewRegistry(cfg.Stream, auth.NewOwnerAuthorizer(), log, stream.WithMetrics(metrics))
	monitor := stream.NewMonitor(registry, log)
	streamComponent := stream.NewComponent(registry, monitor)

	coordinatorOpts := []notify.CoordinatorOption{}
	var eventRelay *relay.Relay
	if cfg.Relay.Enabled {
		var err error
		eventRelay, err = relay.New(cfg.Relay, registry, log)
		if err != nil {
			log.Fatal("Failed to create relay", map[string]interface{}{
				"error": err.Error(),
			})
		}
		coordinatorOpts = append(coordinatorOpts, notify.WithRelay(eventRelay))
	}
	coordinator := notify.NewCoordinator(eventBus, registry, log, coordinatorOpts...)

	// Audit trail: every published event, regardless of topic.
	auditLog := log.WithComponent("audit")
	if _, err := eventBus.Subscribe("*", func(ev event.Event) {
		auditLog.Debug("Event published", map[string]interface{}{
			logger.FieldTopic:   ev.Topic,
			logger.FieldTraceID: ev.TraceID,
			"source":            ev.Source,
		})
	}); err != nil {
		log.Fatal("Failed to register audit subscription", map[string]interface{}{
			"error": err.Error(),
		})
	}

	verifier, err := auth.NewTokenVerifier(cfg.Auth)
	if err != nil {
		log.Fatal("Failed to create token verifier", map[string]interface{}{
			"error": err.Error(),
		})
	}

	components := component.NewRegistry()
	if eventRelay != nil {
		if err := components.Register(eventRelay); err != nil {
			log.Fatal("Failed to register relay component", map[string]interface{}{"error": err.Error()})
		}
	}
	if err := components.Register(streamComponent); err != nil {
		log.Fatal("Failed to register stream component", map[string]interface{}{"error": err.Error()})
	}

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	engine := srv.GinEngine()
	engine.GET("/health", endpoint.Health(cfg.Name, components.HealthAll))
	engine.GET("/stats", endpoint.Stats(eventBus, registry))
	engine.GET("/events/:channel_type/:resource_id", auth.Middleware(verifier), stream.Handler(registry))
	engine.POST("/internal/notify", auth.Middleware(verifier), endpoint.Notify(coordinator))

	if err := components.Register(server.NewComponent(srv)); err != nil {
		log.Fatal("Failed to register server component", map[string]interface{}{"error": err.Error()})
	}

	if err := components.StartAll(ctx); err != nil {
		_ = components.StopAll(context.Background())
		log.Fatal("Startup failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("streamhub running", map[string]interface{}{
		"addr":    srv.Addr(),
		"env":     cfg.Environment,
		"version": cfg.Version,
	})

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx := context.Background()
	if err := components.StopAll(shutdownCtx); err != nil {
		log.Error("Shutdown finished with errors", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Observability shutdown failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
