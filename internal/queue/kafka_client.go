package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
)

// KafkaClient publishes queue messages to a Kafka topic.
type KafkaClient struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaClient connects a synchronous producer to brokers.
func NewKafkaClient(brokers []string, topic string) (*KafkaClient, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	producer, err := sarama.NewSyncProducer(brokers, ProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewKafkaClientWithProducer(producer, topic), nil
}

func NewKafkaClientWithProducer(producer sarama.SyncProducer, topic string) *KafkaClient {
	return &KafkaClient{producer: producer, topic: topic}
}

// ProducerConfig is the sarama configuration used for publishing.
func ProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	return cfg
}

// Send delivers a message to the configured topic.
func (k *KafkaClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode kafka message: %w", err)
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(msg.Key()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte(msg.Event)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka send message: %w", err)
	}
	return nil
}

func (k *KafkaClient) Close() error {
	return k.producer.Close()
}

var _ Client = (*KafkaClient)(nil)
