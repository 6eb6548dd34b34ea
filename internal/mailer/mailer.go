package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"repairshop-backend/internal/config"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the HTTP mailer when an API URL is configured, otherwise the
// console mock.
func New(cfg *config.Config) Mailer {
	if cfg.Mail.APIURL == "" {
		log.Println("[Mail] No mail API configured, emails are printed to the log")
		return NewMockMailer()
	}
	return NewHTTPMailer(cfg.Mail.APIURL, cfg.Mail.APIKey, cfg.Mail.From)
}

// HTTPMailer posts messages as JSON to a transactional mail API.
type HTTPMailer struct {
	APIURL string
	APIKey string
	From   string
	client *http.Client
}

func NewHTTPMailer(apiURL, apiKey, from string) *HTTPMailer {
	return &HTTPMailer{
		APIURL: apiURL,
		APIKey: apiKey,
		From:   from,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(map[string]string{
		"from":    m.From,
		"to":      msg.To,
		"subject": msg.Subject,
		"text":    msg.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.APIKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail API HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	log.Printf("[Mail] Sent %q to %s", msg.Subject, msg.To)
	return nil
}

// MockMailer prints messages instead of sending them and remembers them.
type MockMailer struct {
	mu   sync.Mutex
	sent []Message
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(ctx context.Context, msg Message) error {
	fmt.Printf("\n========== MOCK EMAIL ==========\n")
	fmt.Printf("To: %s\n", msg.To)
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("%s\n", msg.Text)
	fmt.Printf("================================\n\n")

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of every message sent so far.
func (m *MockMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
