package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/resilience"
)

// Signal fans confirmed presence changes out to every subscribed viewer.
// Each event gets its own subject, "<subject>.<event token>".
type Signal struct {
	conn     *nats.Conn
	subject  string
	eventID  string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject, eventID string) (*Signal, error) {
	return NewWithOptions(url, subject, eventID, Options{})
}

func NewWithOptions(url, subject, eventID string, options Options) (*Signal, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("attendee-presence"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Signal{
		conn:     conn,
		subject:  subject,
		eventID:  eventID,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (s *Signal) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Signal) PublishPresenceChanged(ctx context.Context, change domain.PresenceChange) error {
	eventID := change.Record.EventID
	if eventID == "" {
		eventID = s.eventID
	}
	payload, err := encodeChange(change)
	if err != nil {
		return err
	}
	subject := subjectFor(s.subject, eventID)

	call := func(_ context.Context) error {
		if err := s.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if s.executor != nil {
		err = s.executor.Execute(ctx, "nats.publish", call, classifySignalError)
	} else {
		err = call(ctx)
	}
	return wrapPublishError(subject, err)
}

// SubscribePresenceChanged delivers every change for the signal's event
// until ctx is done. Malformed messages are logged and skipped.
func (s *Signal) SubscribePresenceChanged(ctx context.Context, handler func(context.Context, domain.PresenceChange) error) error {
	subject := subjectFor(s.subject, s.eventID)
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		change, err := decodeChange(msg.Data)
		if err != nil {
			s.logger.Warn("presence_signal_malformed", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, change); err != nil {
			s.logger.Error("presence_signal_handler_failed", "attendee_id", change.Record.AttendeeID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := s.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := s.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeChange(change domain.PresenceChange) ([]byte, error) {
	payload, err := json.Marshal(change)
	if err != nil {
		return nil, fmt.Errorf("marshal presence change: %w", err)
	}
	return payload, nil
}

func decodeChange(data []byte) (domain.PresenceChange, error) {
	var change domain.PresenceChange
	if err := json.Unmarshal(data, &change); err != nil {
		return domain.PresenceChange{}, fmt.Errorf("unmarshal presence change: %w", err)
	}
	if change.Record.AttendeeID == "" {
		return domain.PresenceChange{}, fmt.Errorf("presence change without attendee id")
	}
	return change, nil
}

// subjectFor appends the event as a single subject token. Characters NATS
// treats as separators or wildcards become '_'.
func subjectFor(base, eventID string) string {
	base = strings.TrimSuffix(strings.TrimSpace(base), ".")
	if base == "" {
		base = "presence.changed"
	}
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, strings.TrimSpace(eventID))
	if token == "" {
		return base
	}
	return base + "." + token
}
