package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"farmart/internal/model"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Event types published on the order topic.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// Envelope is the JSON value of every order event.
type Envelope struct {
	Type           string          `json:"type"`
	OrderID        string          `json:"orderId"`
	CustomerID     string          `json:"customerId"`
	SellerIDs      []string        `json:"sellerIds"`
	Status         model.Status    `json:"status"`
	PreviousStatus model.Status    `json:"previousStatus,omitempty"`
	ActorID        string          `json:"actorId,omitempty"`
	ActorRole      model.Role      `json:"actorRole,omitempty"`
	PaymentMethod  string          `json:"paymentMethod"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Currency       string          `json:"currency"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

// Publisher emits order events. Publishing is best-effort: failures are
// logged and never returned to the workflow.
type Publisher interface {
	OrderCreated(ctx context.Context, order *model.Order)
	StatusChanged(ctx context.Context, order *model.Order, change model.StatusChange)
	Close() error
}

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaPublisher implements Publisher on a Kafka topic keyed by order id.
type kafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// NewKafkaPublisher creates a publisher writing to topic.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w messageWriter, logger zerolog.Logger) *kafkaPublisher {
	return &kafkaPublisher{
		writer:  w,
		timeout: 5 * time.Second,
		logger:  logger.With().Str("component", "order-events").Logger(),
		now:     time.Now,
	}
}

func (p *kafkaPublisher) envelope(eventType string, order *model.Order) Envelope {
	sellers := make([]string, 0, 1)
	for _, g := range model.GroupBySeller(order.Items) {
		sellers = append(sellers, g.SellerID)
	}
	return Envelope{
		Type:          eventType,
		OrderID:       order.ID.String(),
		CustomerID:    order.CustomerID,
		SellerIDs:     sellers,
		Status:        order.Status,
		PaymentMethod: string(order.PaymentMethod),
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		OccurredAt:    p.now().UTC(),
	}
}

// OrderCreated publishes order.created.
func (p *kafkaPublisher) OrderCreated(ctx context.Context, order *model.Order) {
	p.publish(ctx, p.envelope(TypeOrderCreated, order))
}

// StatusChanged publishes order.status_changed.
func (p *kafkaPublisher) StatusChanged(ctx context.Context, order *model.Order, change model.StatusChange) {
	env := p.envelope(TypeOrderStatusChanged, order)
	env.Status = change.To
	env.PreviousStatus = change.From
	env.ActorID = change.ActorID
	env.ActorRole = change.ActorRole
	p.publish(ctx, env)
}

func (p *kafkaPublisher) publish(ctx context.Context, env Envelope) {
	if err := p.write(ctx, env); err != nil {
		p.logger.Error().
			Err(err).
			Str("type", env.Type).
			Str("order_id", env.OrderID).
			Msg("failed to publish order event")
		return
	}
	p.logger.Debug().Str("type", env.Type).Str("order_id", env.OrderID).Msg("order event published")
}

func (p *kafkaPublisher) write(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.OrderID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(env.Type)},
		},
	})
}

// Close flushes and closes the writer.
func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop discards events. It is used when Kafka is disabled.
type Noop struct{}

func (Noop) OrderCreated(context.Context, *model.Order)                      {}
func (Noop) StatusChanged(context.Context, *model.Order, model.StatusChange) {}
func (Noop) Close() error                                                    { return nil }
