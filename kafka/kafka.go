package kafka

import (
	"encoding/json"

	"income-bridge/api/config"
	"income-bridge/api/logger"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
)

// Event types published to the onboarding topic.
const (
	EventAuthFailure         = "auth_failure"
	EventIdentityProvisioned = "identity_provisioned"
	EventAccountLinked       = "account_linked"
	EventIncomeDecision      = "income_decision"
)

// Event is an onboarding lifecycle notification for downstream consumers.
// Credentials never appear here.
type Event struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	FirebaseID string   `json:"firebase_id,omitempty"`
	ItemID     string   `json:"item_id,omitempty"`
	Route      string   `json:"route,omitempty"`
	Approved   *bool    `json:"approved,omitempty"`
	Income     *float64 `json:"income,omitempty"`
	OccurredAt int64    `json:"occurred_at"`
}

// Producer publishes onboarding events.
type Producer struct {
	producer *kafka.Producer
	topic    string
}

func NewProducer(cfg *config.Config) (*Producer, error) {
	kafkaConfig := &kafka.ConfigMap{
		"bootstrap.servers": cfg.KafkaBootstrapServers,
		"sasl.username":     cfg.KafkaAPIKey,
		"sasl.password":     cfg.KafkaAPISecret,
		"security.protocol": "SASL_SSL",
		"sasl.mechanism":    "PLAIN",
	}

	producer, err := kafka.NewProducer(kafkaConfig)
	if err != nil {
		logger.Get().Error("failed to initialize Kafka producer",
			zap.String("bootstrap_servers", cfg.KafkaBootstrapServers),
			zap.Error(err))
		return nil, err
	}

	logger.Get().Info("Kafka producer initialized successfully",
		zap.String("bootstrap_servers", cfg.KafkaBootstrapServers))
	return &Producer{producer: producer, topic: cfg.KafkaTopic}, nil
}

// Publish produces an event to the onboarding topic, fire and forget.
func (p *Producer) Publish(event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Value:          value,
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		logger.Get().Error("failed to produce event",
			zap.String("topic", p.topic),
			zap.String("type", event.Type),
			zap.Error(err))
		return err
	}

	logger.Get().Debug("event produced",
		zap.String("topic", p.topic),
		zap.String("type", event.Type))
	return nil
}

// Close flushes and shuts down the producer.
func (p *Producer) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
