package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ActivityLog appends one JSON line per event to a file.
type ActivityLog struct {
	out *logrus.Logger
	f   *os.File
}

// OpenActivityLog creates path's directory if needed and opens path for
// appending.
func OpenActivityLog(path string) (*ActivityLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir activity log: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	out := logrus.New()
	out.SetOutput(f)
	out.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
	return &ActivityLog{out: out, f: f}, nil
}

func (a *ActivityLog) Close() error { return a.f.Close() }

// Handle decodes one message body and appends it to the log.
func (a *ActivityLog) Handle(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	fields := logrus.Fields{
		"occurred_at": ev.OccurredAt,
		"actor_id":    ev.ActorID,
	}
	switch ev.Type {
	case TypeAssetAssigned:
		fields["asset_id"] = ev.AssetID
		fields["asset_name"] = ev.AssetName
		fields["user_id"] = ev.UserID
		if ev.PreviousUserID != nil {
			fields["previous_user_id"] = *ev.PreviousUserID
		}
	case TypeMaintenanceLogged:
		fields["asset_id"] = ev.AssetID
		fields["record_id"] = ev.RecordID
		fields["maintenance_type"] = ev.MaintenanceType
		fields["maintenance_date"] = ev.MaintenanceDate
		fields["status"] = ev.Status
	case TypeServiceRequested:
		fields["user_id"] = ev.UserID
		fields["request_id"] = ev.RequestID
		fields["service_id"] = ev.ServiceID
		fields["service_name"] = ev.ServiceName
	}
	a.out.WithFields(fields).Info(ev.Type)
	return nil
}

// Consumer reads ActivityQueue and hands every delivery to a handler.
type Consumer struct {
	url    string
	handle func([]byte) error
	log    *logrus.Logger
}

func NewConsumer(url string, handle func([]byte) error, log *logrus.Logger) *Consumer {
	return &Consumer{url: url, handle: handle, log: log}
}

// Run keeps a connection to the broker until ctx is done, reconnecting
// with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).Warnf("dial broker failed, retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warn("consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("set qos failed")
	}
	if _, err := ch.QueueDeclare(ActivityQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ActivityQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.log.WithError(err).Error("handle message failed")
				// Dropped rather than requeued so a bad message cannot loop.
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
