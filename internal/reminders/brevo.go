package reminders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	BrevoEndpoint       = "https://api.brevo.com/v3/smtp/email"
	DefaultSendAttempts = 3
	DefaultSendBackoff  = time.Second
	defaultSendTimeout  = 10 * time.Second
	maxErrorBodyBytes   = 500
	minSendBackoff      = 100 * time.Millisecond
)

var ErrMissingBrevoConfig = errors.New("reminders: BREVO_API_KEY and BREVO_SENDER are required")

// NotificationError is returned once every delivery attempt has failed.
type NotificationError struct {
	Attempts int
	Status   int
	Err      error
}

func (e *NotificationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("reminders: delivery failed after %d attempts (status %d): %v", e.Attempts, e.Status, e.Err)
	}
	return fmt.Sprintf("reminders: delivery failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers one message or returns an error after its own retries.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type BrevoConfig struct {
	APIKey      string
	Sender      string
	SenderName  string
	Endpoint    string
	MaxAttempts int
	Backoff     time.Duration
}

// BrevoConfigFromEnv reads BREVO_API_KEY, BREVO_SENDER and BREVO_SENDER_NAME.
func BrevoConfigFromEnv(getenv func(string) string) (BrevoConfig, error) {
	cfg := BrevoConfig{
		APIKey:     strings.TrimSpace(getenv("BREVO_API_KEY")),
		Sender:     strings.TrimSpace(getenv("BREVO_SENDER")),
		SenderName: strings.TrimSpace(getenv("BREVO_SENDER_NAME")),
	}
	if cfg.APIKey == "" || cfg.Sender == "" {
		return cfg, ErrMissingBrevoConfig
	}
	return cfg, nil
}

type BrevoSender struct {
	cfg    BrevoConfig
	http   *http.Client
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

func NewBrevoSender(cfg BrevoConfig, httpClient *http.Client, logger *slog.Logger) (*BrevoSender, error) {
	if cfg.APIKey == "" || cfg.Sender == "" {
		return nil, ErrMissingBrevoConfig
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = BrevoEndpoint
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultSendAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultSendBackoff
	}
	if cfg.Backoff < minSendBackoff {
		cfg.Backoff = minSendBackoff
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultSendTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrevoSender{cfg: cfg, http: httpClient, logger: logger, sleep: sleepContext}, nil
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoPayload struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// Send posts msg to Brevo, retrying with backoff doubling after each failed
// attempt.
func (s *BrevoSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(brevoPayload{
		Sender:      brevoAddress{Email: s.cfg.Sender, Name: s.cfg.SenderName},
		To:          []brevoAddress{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
	if err != nil {
		return err
	}

	var (
		lastErr    error
		lastStatus int
	)
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		lastStatus, lastErr = s.post(ctx, body)
		if lastErr == nil {
			return nil
		}
		if attempt == s.cfg.MaxAttempts || ctx.Err() != nil {
			break
		}
		delay := s.cfg.Backoff * time.Duration(1<<(attempt-1))
		s.logger.Warn("brevo send failed, retrying", "attempt", attempt, "delay", delay, "error", lastErr)
		if err := s.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}
	return &NotificationError{Attempts: s.cfg.MaxAttempts, Status: lastStatus, Err: lastErr}
}

func (s *BrevoSender) post(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("api-key", s.cfg.APIKey)
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
