package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// NATSSubscriber subscribes to the upstream chain-log subjects and feeds
// raw events into the projection shell via eventChan. Each contract
// family (factory, market, vesting) has its own stream so retention and
// scaling can be tuned independently.
type NATSSubscriber struct {
	js        jetstream.JetStream
	eventChan chan<- RawEvent
	log       zerolog.Logger
	consumers []jetstream.ConsumeContext
}

// RawEvent is the undecoded message from NATS, ready for the shell to
// parse into a typed event.Event before handing to the core.
type RawEvent struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	AckFunc   func() // ACK after the event is accepted by the shell
	NakFunc   func() // NAK on transient failure (redelivered)
}

// SubjectConfig maps a NATS subject to an event type.
type SubjectConfig struct {
	Subject      string
	EventType    string
	ConsumerName string
	StreamName   string
}

// DefaultSubjects returns the standard subject layout: one subject per
// event type, grouped into one stream per emitting contract family.
func DefaultSubjects() []SubjectConfig {
	return []SubjectConfig{
		{Subject: "pmkt.factory.init.>", EventType: "Init", ConsumerName: "graph-factory-init", StreamName: "PMKT_FACTORY"},
		{Subject: "pmkt.factory.asset.>", EventType: "AddAsset", ConsumerName: "graph-factory-asset", StreamName: "PMKT_FACTORY"},
		{Subject: "pmkt.factory.token.>", EventType: "AddMarketToken", ConsumerName: "graph-factory-token", StreamName: "PMKT_FACTORY"},
		{Subject: "pmkt.factory.market.>", EventType: "CreateMarket", ConsumerName: "graph-factory-market", StreamName: "PMKT_FACTORY"},
		{Subject: "pmkt.factory.liquidity.>", EventType: "UpdateMinMarketLiquidity", ConsumerName: "graph-factory-liquidity", StreamName: "PMKT_FACTORY"},
		{Subject: "pmkt.factory.loss.>", EventType: "UpdateLossConstant", ConsumerName: "graph-factory-loss", StreamName: "PMKT_FACTORY"},
		{Subject: "pmkt.factory.windows.>", EventType: "UpdateMarketWindowParams", ConsumerName: "graph-factory-windows", StreamName: "PMKT_FACTORY"},
		{Subject: "pmkt.factory.durations.>", EventType: "UpdateMarketDurationParams", ConsumerName: "graph-factory-durations", StreamName: "PMKT_FACTORY"},
		{Subject: "pmkt.factory.fees.>", EventType: "UpdateMarketFeesPercentage", ConsumerName: "graph-factory-fees", StreamName: "PMKT_FACTORY"},
		{Subject: "pmkt.market.prediction.>", EventType: "PlacePrediction", ConsumerName: "graph-market-prediction", StreamName: "PMKT_MARKET"},
		{Subject: "pmkt.market.settle.>", EventType: "SettleMarket", ConsumerName: "graph-market-settle", StreamName: "PMKT_MARKET"},
		{Subject: "pmkt.market.fee.>", EventType: "DistributeMarketFee", ConsumerName: "graph-market-fee", StreamName: "PMKT_MARKET"},
		{Subject: "pmkt.market.claim.>", EventType: "ClaimReturns", ConsumerName: "graph-market-claim", StreamName: "PMKT_MARKET"},
		{Subject: "pmkt.vesting.schedule.>", EventType: "AddVestingSchedule", ConsumerName: "graph-vesting-schedule", StreamName: "PMKT_VESTING"},
		{Subject: "pmkt.vesting.release.>", EventType: "ReleaseVestedToken", ConsumerName: "graph-vesting-release", StreamName: "PMKT_VESTING"},
		{Subject: "pmkt.vesting.upfront.>", EventType: "UpfrontTokenTransfer", ConsumerName: "graph-vesting-upfront", StreamName: "PMKT_VESTING"},
	}
}

func NewNATSSubscriber(js jetstream.JetStream, eventChan chan<- RawEvent, log zerolog.Logger) *NATSSubscriber {
	return &NATSSubscriber{
		js:        js,
		eventChan: eventChan,
		log:       log.With().Str("component", "nats_subscriber").Logger(),
	}
}

// Subscribe creates JetStream consumers for all configured subjects.
// Consumers use explicit ACK, max_deliver=5, ack_wait=30s.
func (ns *NATSSubscriber) Subscribe(ctx context.Context, subjects []SubjectConfig) error {
	for _, cfg := range subjects {
		consumer, err := ns.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
			Durable:       cfg.ConsumerName,
			FilterSubject: cfg.Subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       30 * time.Second,
			MaxDeliver:    5,
			DeliverPolicy: jetstream.DeliverAllPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
		}

		consumerContext, err := consumer.Consume(func(msg jetstream.Msg) {
			raw := RawEvent{
				Subject:   msg.Subject(),
				Data:      msg.Data(),
				Timestamp: time.Now(),
				AckFunc:   func() { msg.Ack() },
				NakFunc:   func() { msg.Nak() },
			}

			select {
			case ns.eventChan <- raw:
			case <-ctx.Done():
				msg.Nak()
			}
		})
		if err != nil {
			return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
		}

		ns.consumers = append(ns.consumers, consumerContext)
		ns.log.Info().Str("subject", cfg.Subject).Str("consumer", cfg.ConsumerName).Msg("subscribed")
	}

	return nil
}

// EnsureStreams creates the required JetStream streams if they don't
// exist. Streams use FileStorage, retention=Limits, max_age=72h.
func EnsureStreams(ctx context.Context, js jetstream.JetStream, log zerolog.Logger) error {
	streams := []jetstream.StreamConfig{
		{
			Name:      "PMKT_FACTORY",
			Subjects:  []string{"pmkt.factory.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "PMKT_MARKET",
			Subjects:  []string{"pmkt.market.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "PMKT_VESTING",
			Subjects:  []string{"pmkt.vesting.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
	}

	for _, cfg := range streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		log.Info().Str("stream", cfg.Name).Msg("ensured stream")
	}

	return nil
}

// Stop gracefully stops all consumers.
func (ns *NATSSubscriber) Stop() {
	for _, cc := range ns.consumers {
		cc.Stop()
	}
	ns.log.Info().Msg("NATS subscribers stopped")
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string, log zerolog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
