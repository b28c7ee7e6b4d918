package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

var (
	_ domain.Notifier = (*NATS)(nil)
	_ domain.Notifier = (*Log)(nil)
	_ domain.Notifier = Multi(nil)
)

// publisher is the part of *nats.Conn the notifier uses.
type publisher interface {
	Publish(subj string, data []byte) error
}

// NATS publishes every event as JSON on subject.<kind>.
type NATS struct {
	conn    *nats.Conn
	pub     publisher
	subject string
	log     *zap.Logger
}

// Message is the JSON payload published per event.
type Message struct {
	Kind    domain.EventKind `json:"kind"`
	ID      domain.ID        `json:"id,omitempty"`
	Count   int              `json:"count,omitempty"`
	Op      string           `json:"op,omitempty"`
	Message string           `json:"message,omitempty"`
	At      time.Time        `json:"at"`
}

// ConnectNATS dials url and returns a notifier publishing under subject.
func ConnectNATS(url, subject string, log *zap.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("repair-analysis"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	n := newNATS(nc, subject, log)
	n.conn = nc
	return n, nil
}

func newNATS(pub publisher, subject string, log *zap.Logger) *NATS {
	if log == nil {
		log = zap.NewNop()
	}
	return &NATS{pub: pub, subject: subject, log: log.Named("events")}
}

// Notify never blocks the caller on delivery failures; they are logged.
func (n *NATS) Notify(_ context.Context, e domain.Event) {
	data, err := json.Marshal(Message{
		Kind: e.Kind, ID: e.ID, Count: e.Count, Op: e.Op, Message: e.Message,
		At: time.Now().UTC(),
	})
	if err != nil {
		n.log.Error("encode event", zap.Error(err))
		return
	}
	subj := n.subject + "." + string(e.Kind)
	if err := n.pub.Publish(subj, data); err != nil {
		n.log.Warn("publish event failed", zap.String("subject", subj), zap.Error(err))
	}
}

// Close drains the connection.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}

// Log writes events to a zap logger. Used when no broker is configured.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log.Named("events")}
}

func (l *Log) Notify(_ context.Context, e domain.Event) {
	fields := []zap.Field{zap.String("kind", string(e.Kind))}
	if e.ID != "" {
		fields = append(fields, zap.String("id", string(e.ID)))
	}
	if e.Kind == domain.EventRefreshed {
		fields = append(fields, zap.Int("count", e.Count))
	}
	if e.Kind == domain.EventFailure {
		fields = append(fields, zap.String("op", e.Op), zap.String("error", e.Message))
		l.log.Warn("analysis event", fields...)
		return
	}
	l.log.Debug("analysis event", fields...)
}

// Multi fans an event out to every notifier in order.
type Multi []domain.Notifier

func (m Multi) Notify(ctx context.Context, e domain.Event) {
	for _, n := range m {
		n.Notify(ctx, e)
	}
}
