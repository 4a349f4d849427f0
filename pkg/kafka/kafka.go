package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Astemirdum/elibrary-service/pkg/circuit_breaker"
	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

const CirculationTopic = "elibrary.circulation"

type Config struct {
	Addrs  []string `yaml:"addrs" envconfig:"KAFKA_ADDRS"`
	Topic  string   `yaml:"topic" envconfig:"KAFKA_TOPIC" default:"elibrary.circulation"`
	Enable bool     `yaml:"enable" envconfig:"KAFKA_ENABLE"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Retry.Max = 3

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

// EventCirculation mirrors one appended circulation transaction.
type EventCirculation struct {
	EventID       string    `json:"eventId"`
	TransactionID string    `json:"transactionId"`
	Type          string    `json:"type"`
	LoanID        string    `json:"loanId"`
	MemberID      string    `json:"memberId"`
	CopyID        string    `json:"copyId,omitempty"`
	BranchID      string    `json:"branchId"`
	Amount        int64     `json:"amount,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, events ...EventCirculation) error
	Close() error
}

type publisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       circuit_breaker.CircuitBreaker
}

func NewPublisher(producer sarama.SyncProducer, topic string, cb circuit_breaker.CircuitBreaker) Publisher {
	if topic == "" {
		topic = CirculationTopic
	}
	return &publisher{
		producer: producer,
		topic:    topic,
		cb:       cb,
	}
}

// Publish sends the events keyed by loan id, so one loan's history stays on one partition.
func (p *publisher) Publish(ctx context.Context, events ...EventCirculation) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msgs := make([]*sarama.ProducerMessage, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return errors.Wrap(err, "marshal event")
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic:     p.topic,
			Key:       sarama.StringEncoder(ev.LoanID),
			Value:     sarama.ByteEncoder(data),
			Timestamp: ev.Timestamp,
		})
	}
	return p.cb.Call(func() error {
		return p.producer.SendMessages(msgs)
	})
}

func (p *publisher) Close() error {
	return p.producer.Close()
}

type nopPublisher struct{}

// NewNopPublisher is used when kafka is disabled.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, ...EventCirculation) error { return nil }
func (nopPublisher) Close() error                                       { return nil }
