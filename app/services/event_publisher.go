package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/p57/feedback-hub/config"
	"github.com/segmentio/kafka-go"
)

// Ticket event types
const (
	EventTicketCreated         = "ticket.created"
	EventTicketStatusChanged   = "ticket.status_changed"
	EventTicketPriorityChanged = "ticket.priority_changed"
	EventTicketAssigneeChanged = "ticket.assignee_changed"
	EventTicketDeleted         = "ticket.deleted"
)

// TicketEvent is the envelope written to the ticket stream
type TicketEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	OccurredAt   time.Time `json:"occurred_at"`
	TicketID     uint      `json:"ticket_id"`
	TicketNumber string    `json:"ticket_number"`
	ActorID      *uint     `json:"actor_id,omitempty"`
	Data         any       `json:"data,omitempty"`
}

// NewTicketEvent stamps a fresh id and time on an event
func NewTicketEvent(eventType string, ticketID uint, ticketNumber string, actorID *uint, data any) TicketEvent {
	return TicketEvent{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		OccurredAt:   time.Now().UTC(),
		TicketID:     ticketID,
		TicketNumber: ticketNumber,
		ActorID:      actorID,
		Data:         data,
	}
}

// EventPublisher emits ticket lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, event TicketEvent) error
	Close() error
}

// KafkaEventPublisher writes events to a single topic keyed by ticket id,
// so every event of one ticket lands on the same partition
type KafkaEventPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaEventPublisher creates a publisher for the configured brokers
func NewKafkaEventPublisher(cfg config.EventsConfig) (*KafkaEventPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	return &KafkaEventPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
			WriteTimeout: cfg.WriteTimeout,
		},
		topic: cfg.Topic,
	}, nil
}

// Publish writes one event
func (p *KafkaEventPublisher) Publish(ctx context.Context, event TicketEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.TicketID), 10)),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
}

// Close flushes and closes the writer
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// NoopEventPublisher drops every event; used when the stream is disabled
type NoopEventPublisher struct{}

func NewNoopEventPublisher() EventPublisher { return NoopEventPublisher{} }

func (NoopEventPublisher) Publish(context.Context, TicketEvent) error { return nil }
func (NoopEventPublisher) Close() error                               { return nil }
