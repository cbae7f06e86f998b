package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utafrali/MicroblogGo/internal/sender"
	"github.com/utafrali/MicroblogGo/pkg/logger"
)

// LogSender logs emails instead of delivering them and keeps a copy of
// each one. It is meant for local development and tests.
type LogSender struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []sender.Message
}

// NewLogSender creates a logging sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name returns the name of this sender.
func (s *LogSender) Name() string {
	return "log"
}

// Send records msg and logs it. The body is logged so codes can be read
// off the console in development.
func (s *LogSender) Send(ctx context.Context, msg sender.Message) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "log sender: email sent",
		slog.String("to", logger.MaskEmail(msg.To)),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)

	return nil
}

// Sent returns a copy of every message sent so far.
func (s *LogSender) Sent() []sender.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sender.Message(nil), s.sent...)
}

// Last returns the most recent message sent to address.
func (s *LogSender) Last(address string) (sender.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sent) - 1; i >= 0; i-- {
		if s.sent[i].To == address {
			return s.sent[i], true
		}
	}
	return sender.Message{}, false
}
