package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("wedding-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject)

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	return n.conn.Drain()
}

// NopPublisher is used when no NATS URL is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, subject string, _ interface{}) error {
	logger.DebugContext(ctx, "Event bus disabled, dropping event", "subject", subject)
	return nil
}

func (NopPublisher) Close() error { return nil }

const (
	AccessRequestSubmitted = "access_request.submitted"
	AccessRequestApproved  = "access_request.approved"
	AccessRequestDenied    = "access_request.denied"
	RSVPSubmitted          = "rsvp.submitted"
)

type AccessRequestSubmittedEvent struct {
	RequestID string    `json:"request_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type AccessRequestDecidedEvent struct {
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	GuestID   string    `json:"guest_id,omitempty"`
	DecidedBy string    `json:"decided_by"`
	DecidedAt time.Time `json:"decided_at"`
}

type RSVPSubmittedEvent struct {
	GuestID     string    `json:"guest_id"`
	Status      string    `json:"status"`
	PlusOne     bool      `json:"plus_one"`
	SubmittedAt time.Time `json:"submitted_at"`
}
