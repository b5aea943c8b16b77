// Package kafka publishes committed ledger entries to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// partitionKey routes every entry to the same partition so consumers see
// entries in sequence order.
var partitionKey = []byte("schnl-ledger")

// Header keys carried on every record.
const (
	HeaderSeq           = "seq"
	HeaderOperation     = "operation"
	HeaderSchemaVersion = "schema_version"
)

// Config holds producer configuration.
type Config struct {
	Brokers         string // comma separated
	Topic           string
	Acks            string // "0", "1" or "all"
	Retries         int
	DeliveryTimeout time.Duration
}

// recordProducer is the subset of *kgo.Client the publisher uses.
type recordProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Ping(ctx context.Context) error
	Flush(ctx context.Context) error
	Close()
}

// Publisher implements ports.EventPublisher and ports.HealthChecker.
type Publisher struct {
	client recordProducer
	topic  string
	log    zerolog.Logger
	mu     sync.RWMutex
	closed bool
}

var (
	_ ports.EventPublisher = (*Publisher)(nil)
	_ ports.HealthChecker  = (*Publisher)(nil)
)

// New creates a publisher connected to cfg.Brokers.
func New(cfg Config, log zerolog.Logger) (*Publisher, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic not configured")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(strings.Split(cfg.Brokers, ",")...),
		kgo.RequiredAcks(requiredAcks(cfg.Acks)),
		kgo.RecordRetries(cfg.Retries),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.DefaultProduceTopic(cfg.Topic),
	}
	if cfg.Acks == "0" || cfg.Acks == "1" {
		// Idempotent writes require acks=all.
		opts = append(opts, kgo.DisableIdempotentWrite())
	}
	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newPublisher(client, cfg.Topic, log), nil
}

func newPublisher(client recordProducer, topic string, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, topic: topic, log: log}
}

func requiredAcks(acks string) kgo.Acks {
	switch acks {
	case "0":
		return kgo.NoAck()
	case "1":
		return kgo.LeaderAck()
	default:
		return kgo.AllISRAcks()
	}
}

// Publish writes entry as one JSON record and waits for the broker ack.
func (p *Publisher) Publish(ctx context.Context, entry *domain.JournalEntry) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("kafka publisher is closed")
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   partitionKey,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderSeq, Value: []byte(strconv.FormatUint(entry.Seq, 10))},
			{Key: HeaderOperation, Value: []byte(entry.Operation)},
			{Key: HeaderSchemaVersion, Value: []byte(strconv.Itoa(entry.SchemaVersion))},
		},
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce seq %d: %w", entry.Seq, err)
	}
	p.log.Debug().Uint64("seq", entry.Seq).Str("topic", p.topic).Msg("journal entry published")
	return nil
}

// Ping checks broker connectivity.
func (p *Publisher) Ping(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("kafka publisher is closed")
	}
	return p.client.Ping(ctx)
}

func (p *Publisher) Name() string { return "kafka" }

// Close flushes buffered records and shuts the client down.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.log.Warn().Err(err).Msg("kafka publisher closed with unflushed records")
	}
	p.client.Close()
	return nil
}
