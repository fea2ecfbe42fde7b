package mq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rabbitmq/rabbitmq-stream-go-client/pkg/amqp"
	"github.com/rabbitmq/rabbitmq-stream-go-client/pkg/message"
	"github.com/rabbitmq/rabbitmq-stream-go-client/pkg/stream"

	"github.com/omniquote-labs/omniquote/config"
)

const streamPartitions = 3

// Publisher pushes quote events onto a RabbitMQ super stream so downstream
// consumers (analytics, alerting) see every served quote without sitting on
// the request path.
type Publisher struct {
	env      *stream.Environment
	stream   string
	producer *stream.SuperStreamProducer
	mu       sync.Mutex
}

func NewPublisher(cfg *config.RabbitMQConfig) (*Publisher, error) {
	env, err := stream.NewEnvironment(stream.NewEnvironmentOptions().
		SetHost(cfg.Host).
		SetPort(cfg.Port).
		SetVHost(cfg.VHost).
		SetUser(cfg.User).
		SetPassword(cfg.Password))
	if err != nil {
		return nil, fmt.Errorf("failed to create stream environment: %w", err)
	}

	p := &Publisher{env: env, stream: cfg.Stream}
	if err := p.declareStream(); err != nil {
		_ = env.Close()
		return nil, err
	}
	return p, nil
}

func (p *Publisher) declareStream() error {
	err := p.env.DeclareSuperStream(p.stream,
		stream.NewPartitionsOptions(streamPartitions).
			SetMaxLengthBytes(stream.ByteCapacity{}.GB(2)))
	if err != nil && !errors.Is(err, stream.StreamAlreadyExists) {
		return fmt.Errorf("failed to declare stream: %w", err)
	}
	return nil
}

// Publish sends one quote event. Events are routed to a partition by a hash
// of their message id, spreading load evenly across partitions.
func (p *Publisher) Publish(event *QuoteEvent) error {
	producer, err := p.getProducer()
	if err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal quote event: %w", err)
	}
	msg := amqp.NewMessage(data)
	msg.Properties = &amqp.MessageProperties{
		MessageID: uuid.New().String(),
	}
	return producer.Send(msg)
}

func (p *Publisher) getProducer() (*stream.SuperStreamProducer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.producer != nil {
		return p.producer, nil
	}

	producer, err := p.env.NewSuperStreamProducer(p.stream,
		stream.NewSuperStreamProducerOptions(
			stream.NewHashRoutingStrategy(func(msg message.StreamMessage) string {
				return msg.GetMessageProperties().MessageID.(string)
			}),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream producer: %w", err)
	}
	p.producer = producer
	return producer, nil
}

// Close shuts down the producer and the stream environment.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			firstErr = err
		}
		p.producer = nil
	}
	if err := p.env.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
