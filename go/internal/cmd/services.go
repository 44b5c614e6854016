package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draftroom"
	"github.com/mcdev12/draftroom/go/internal/draftroom/engine"
	"github.com/mcdev12/draftroom/go/internal/draftroom/gateway"
	"github.com/mcdev12/draftroom/go/internal/draftroom/outbox"
	"github.com/mcdev12/draftroom/go/internal/draftroom/persist"
	"github.com/mcdev12/draftroom/go/internal/draftroom/store"
)

// Services holds the wired application. Recorder, Outbox, store, and
// publisher are nil in standalone mode.
type Services struct {
	Engine  *engine.Engine
	Room    *draftroom.Service
	Gateway *gateway.Gateway

	recorder  *persist.Recorder
	outbox    *outbox.Worker
	store     *store.Store
	publisher *outbox.JetStreamPublisher
}

func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Store layer → durability pipeline → engine → RPC/WebSocket surface

	services := &Services{}

	var sink engine.EventSink
	if cfg.Standalone {
		log.Warn().Msg("standalone mode: rooms are not persisted")
	} else {
		st, err := setupStore(ctx)
		if err != nil {
			return nil, err
		}
		services.store = st

		slogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		recorder := persist.NewRecorder(st, persist.DefaultConfig(),
			slogger.With(slog.String("component", "persist")))
		services.recorder = recorder
		sink = recorder

		jsCfg := outbox.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		jsCfg.StreamName = cfg.NATS.Stream
		jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		publisher, err := outbox.NewJetStreamPublisher(jsCfg)
		if err != nil {
			st.Close()
			return nil, err
		}
		services.publisher = publisher

		workerCfg := outbox.DefaultConfig()
		workerCfg.PollInterval = time.Duration(cfg.Outbox.PollIntervalSec) * time.Second
		workerCfg.BatchSize = cfg.Outbox.BatchSize
		services.outbox = outbox.NewWorker(st, publisher, workerCfg,
			slogger.With(slog.String("component", "outbox")))
	}

	eng := engine.NewEngine(
		clockwork.NewRealClock(),
		engine.QueuePreferredStrategy{},
		sink,
		log.With().Str("component", "engine").Logger(),
		engine.Config{SubscriberBuffer: cfg.Engine.SubscriberBuffer},
	)
	services.Engine = eng

	var archive draftroom.Archive
	var items draftroom.ItemSource
	if services.store != nil {
		archive = services.store
		items = services.store
	}
	services.Room = draftroom.NewService(eng, archive, items,
		log.With().Str("component", "room_service").Logger())

	gwCfg := gateway.DefaultConfig()
	gwCfg.SendBufferSize = cfg.Gateway.SendBufferSize
	gwCfg.PingInterval = time.Duration(cfg.Gateway.PingIntervalSec) * time.Second
	services.Gateway = gateway.New(eng, gwCfg,
		log.With().Str("component", "gateway").Logger())

	return services, nil
}

// Start launches the durability pipeline.
func (s *Services) Start(ctx context.Context) error {
	if s.recorder != nil {
		if err := s.recorder.Start(ctx); err != nil {
			return err
		}
	}
	if s.outbox != nil {
		if err := s.outbox.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop tears everything down. The engine closes first so no new events
// enter the pipeline, then the recorder flushes, then the relay stops.
func (s *Services) Stop() {
	s.Engine.Close()

	if s.recorder != nil {
		if err := s.recorder.Stop(); err != nil {
			log.Error().Err(err).Msg("stop recorder")
		}
	}
	if s.outbox != nil {
		if err := s.outbox.Stop(); err != nil {
			log.Error().Err(err).Msg("stop outbox worker")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("close publisher")
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}
}
