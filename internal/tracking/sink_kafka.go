package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink produces events onto a Kafka topic. The client is dialed
// lazily in Load, mirroring the consent-gated "script injection" contract:
// nothing touches the network until the gate opens.
type KafkaSink struct {
	brokers []string
	topic   string
	logger  *slog.Logger

	mu     sync.Mutex
	client *kgo.Client
}

type KafkaSinkOption func(*KafkaSink)

func WithKafkaLogger(logger *slog.Logger) KafkaSinkOption {
	return func(s *KafkaSink) { s.logger = logger }
}

func NewKafkaSink(brokers []string, topic string, opts ...KafkaSinkOption) *KafkaSink {
	s := &KafkaSink{
		brokers: brokers,
		topic:   topic,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load dials the brokers and ensures the topic exists. Loading twice is a
// no-op.
func (s *KafkaSink) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.DefaultProduceTopic(s.topic),
	)
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}

	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, s.topic); err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		client.Close()
		return fmt.Errorf("ensure topic %q: %w", s.topic, err)
	}

	s.client = client
	s.logger.Info("kafka sink loaded", "topic", s.topic)
	return nil
}

// Forward produces one event synchronously. Keyed by event name so
// consumers see per-event-type ordering.
func (s *KafkaSink) Forward(ctx context.Context, event Event) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return errors.New("kafka sink not loaded")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %q: %w", event.Name, err)
	}
	record := &kgo.Record{Topic: s.topic, Key: []byte(event.Name), Value: payload}
	if err := client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event %q: %w", event.Name, err)
	}
	return nil
}

// Close releases the client if Load ever ran.
func (s *KafkaSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}
