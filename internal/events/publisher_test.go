package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

type fakeChannel struct {
	declareErr error
	publishErr error
	kind       string
	exchange   string
	key        string
	published  []amqp091.Publishing
	closed     bool
	deadline   bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	f.kind = kind
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	_, f.deadline = ctx.Deadline()
	f.exchange = exchange
	f.key = key
	f.published = append(f.published, msg)
	return f.publishErr
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "ledger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.kind != "topic" {
		t.Fatalf("expected topic exchange, got %q", ch.kind)
	}

	occurred := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	event := models.Event{
		Type:         models.EventExpenseCreated,
		ActorID:      "alice",
		SubjectID:    "e1",
		Participants: []string{"alice", "bob"},
		OccurredAt:   occurred,
	}
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ch.exchange != "ledger" || ch.key != "expense.created" {
		t.Fatalf("unexpected routing: exchange=%q key=%q", ch.exchange, ch.key)
	}
	if !ch.deadline {
		t.Fatal("expected publish to carry a deadline")
	}
	msg := ch.published[0]
	if msg.DeliveryMode != amqp091.Persistent || msg.ContentType != "application/json" {
		t.Fatalf("unexpected publishing: %+v", msg)
	}

	decoded, err := MessageFromJSON(msg.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.MessageID.String() != msg.MessageId {
		t.Fatalf("message id mismatch: %s vs %s", decoded.MessageID, msg.MessageId)
	}
	if decoded.Type != event.Type || decoded.SubjectID != "e1" || len(decoded.Participants) != 2 {
		t.Fatalf("unexpected decoded event: %+v", decoded)
	}
	if !decoded.OccurredAt.Equal(occurred) {
		t.Fatalf("unexpected timestamp: %v", decoded.OccurredAt)
	}
}

func TestPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, _ := newPublisher(ch, "ledger")

	err := p.Publish(context.Background(), models.Event{Type: models.EventExpenseDeleted})
	if err == nil || !errors.Is(err, ch.publishErr) {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}
}

func TestNewPublisher_DeclareErrorClosesChannel(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	if _, err := newPublisher(ch, "ledger"); err == nil {
		t.Fatal("expected error")
	}
	if !ch.closed {
		t.Fatal("expected channel to be closed")
	}
}

func TestPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p, _ := newPublisher(ch, "ledger")
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ch.closed {
		t.Fatal("expected channel closed")
	}
}
