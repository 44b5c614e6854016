package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
)

// events_tail follows the room event stream and prints one line per
// envelope. FROM=all replays the stream from the beginning; ROOM_ID narrows
// the output to a single room.

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	natsURL := getEnv("NATS_URL", nats.DefaultURL)
	streamName := getEnv("STREAM", "ROOM_EVENTS")
	subjectPrefix := getEnv("SUBJECT_PREFIX", "room.events")

	var roomFilter uuid.UUID
	if raw := os.Getenv("ROOM_ID"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid ROOM_ID %q: %v\n", raw, err)
			os.Exit(1)
		}
		roomFilter = id
	}

	deliver := jetstream.DeliverNewPolicy
	if os.Getenv("FROM") == "all" {
		deliver = jetstream.DeliverAllPolicy
	}

	nc, js, err := setupNATSConnection(natsURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer nc.Close()

	stream, err := js.Stream(ctx, streamName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get stream %s: %v\n", streamName, err)
		os.Exit(1)
	}

	// Ephemeral consumer so concurrent tails never fight over state.
	consumer, err := stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
		Description:   "room event tail",
		FilterSubject: fmt.Sprintf("%s.>", subjectPrefix),
		DeliverPolicy: deliver,
		AckPolicy:     jetstream.AckExplicitPolicy,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create consumer: %v\n", err)
		os.Exit(1)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		defer msg.Ack()

		env, err := events.Decode(msg.Data())
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping message on %s: %v\n", msg.Subject(), err)
			return
		}
		if roomFilter != uuid.Nil && env.RoomID != roomFilter {
			return
		}

		fmt.Printf("%s  room=%s seq=%-4d %-18s %s\n",
			env.Timestamp.Format(time.RFC3339),
			env.RoomID, env.Seq, env.Type, summarize(env))
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start consumer: %v\n", err)
		os.Exit(1)
	}
	defer consumeCtx.Stop()

	fmt.Fprintf(os.Stderr, "tailing %s (%s.>) from %s\n",
		streamName, subjectPrefix, natsURL)
	<-ctx.Done()
}

// summarize condenses the payloads an operator actually scans for; anything
// else prints as raw JSON.
func summarize(env events.Envelope) string {
	payload, err := env.DecodePayload()
	if err != nil {
		return string(env.Payload)
	}
	switch p := payload.(type) {
	case events.PickStartedPayload:
		return fmt.Sprintf("pick=%d round=%d seat=%d deadline=%s",
			p.PickNumber, p.Round, p.SeatIndex, p.Deadline.Format(time.RFC3339))
	case events.GraceStartedPayload:
		return fmt.Sprintf("pick=%d autopick_at=%s",
			p.PickNumber, p.AutopickAt.Format(time.RFC3339))
	case events.PickMadePayload:
		return fmt.Sprintf("pick=%d seat=%d item=%q auto=%t",
			p.PickNumber, p.SeatIndex, p.ItemName, p.WasAuto)
	case events.RoomErrorPayload:
		return fmt.Sprintf("pick=%d code=%s %s", p.PickNumber, p.Code, p.Message)
	case events.DraftCompletedPayload:
		return fmt.Sprintf("picks=%d duration=%s", p.TotalPicks, p.Duration)
	default:
		return string(env.Payload)
	}
}

func setupNATSConnection(natsURL string) (*nats.Conn, jetstream.JetStream, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return nc, js, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
