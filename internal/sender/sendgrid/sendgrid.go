package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/utafrali/MicroblogGo/internal/sender"
	"github.com/utafrali/MicroblogGo/pkg/httpclient"
)

// DefaultBaseURL is the public SendGrid API.
const DefaultBaseURL = "https://api.sendgrid.com"

// Config holds SendGrid credentials.
type Config struct {
	APIKey  string
	BaseURL string
}

// Sender delivers email with the SendGrid v3 mail send API.
type Sender struct {
	client  httpclient.Doer
	apiKey  string
	baseURL string
}

// NewSender creates a sender that issues requests through client.
func NewSender(client httpclient.Doer, cfg Config) *Sender {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Sender{client: client, apiKey: cfg.APIKey, baseURL: base}
}

// Name returns the name of this sender.
func (s *Sender) Name() string {
	return "sendgrid"
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Send posts msg to /v3/mail/send. Any non-2xx response is an error.
func (s *Sender) Send(ctx context.Context, msg sender.Message) error {
	payload := mailSendRequest{
		Personalizations: []personalization{{To: []address{{Email: msg.To}}}},
		From:             address{Email: msg.From},
		Subject:          msg.Subject,
	}
	if msg.Text != "" {
		payload.Content = append(payload.Content, content{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		payload.Content = append(payload.Content, content{Type: "text/html", Value: msg.HTML})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create mail send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid mail send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("sendgrid mail send: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
