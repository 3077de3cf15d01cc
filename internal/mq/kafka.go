// Package mq wraps the Kafka producer used to publish reconciliation events
// to the operator queue.
package mq

import (
	"fmt"

	"fundlink/internal/config"

	"github.com/IBM/sarama"
)

// Producer publishes messages to a single topic.
type Producer interface {
	Send(key, value string) error
	Close() error
}

type kafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a synchronous producer. Sends wait for all in-sync
// replicas so a reconciliation event is never silently lost.
func NewProducer(cfg config.KafkaConfig) (Producer, error) {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &kafkaProducer{producer: producer, topic: cfg.Topic}, nil
}

func (p *kafkaProducer) Send(key, value string) error {
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("failed to send kafka message: %w", err)
	}
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.producer.Close()
}
