package natsadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
)

// Subscriber implements ports.CommandSubscriber. Every message on the
// command subject carries one or more command lines.
type Subscriber struct {
	conn    *nats.Conn
	subject string
	subs    []*nats.Subscription
}

// NewSubscriber creates a subscriber sharing a NATS connection.
func NewSubscriber(conn *nats.Conn, subject string) *Subscriber {
	return &Subscriber{conn: conn, subject: subject}
}

// SubscribeCommands hands each line of each message to handler. A message
// with a reply subject is answered with "ok" or the handler's error.
func (s *Subscriber) SubscribeCommands(ctx context.Context, handler func(ctx context.Context, line string) error) error {
	sub, err := s.conn.Subscribe(s.subject, func(msg *nats.Msg) {
		var failed []string
		for _, line := range SplitLines(msg.Data) {
			if err := handler(ctx, line); err != nil {
				failed = append(failed, err.Error())
			}
		}
		if msg.Reply == "" {
			return
		}
		reply := "ok"
		if len(failed) > 0 {
			reply = strings.Join(failed, "; ")
		}
		if err := msg.Respond([]byte(reply)); err != nil {
			slog.Warn("command reply failed", "subject", msg.Reply, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SplitLines splits a message payload into lines, dropping trailing
// carriage returns.
func SplitLines(data []byte) []string {
	lines := strings.Split(string(data), "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Close unsubscribes. The shared connection is drained by its owner.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}
