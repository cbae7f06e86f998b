package sender

import (
	"context"
)

// Message is a single outgoing email.
type Message struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers email through a specific transport.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage builds the email carrying a confirmation code.
func VerificationMessage(from, to, code string) Message {
	return Message{
		To:      to,
		From:    from,
		Subject: "Confirm your Microblog account",
		Text:    "Confirmation code: " + code,
		HTML:    "Confirmation code: <strong>" + code + "</strong>",
	}
}
