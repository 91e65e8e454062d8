// Package notifier delivers notifications outside the application: email
// through Postmark and browser push through the Web Push protocol.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrDisabled is returned by a sender whose credentials are not configured.
var ErrDisabled = errors.New("notifier: channel not configured")

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

type postmarkResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
	MessageID string `json:"MessageID"`
}

// PostmarkSender sends plain text email through the Postmark API.
type PostmarkSender struct {
	client *resty.Client
	token  string
	from   string
	logger *zap.Logger
}

// NewPostmarkSender creates a PostmarkSender. An empty token disables sending.
func NewPostmarkSender(token, from, baseURL string, logger *zap.Logger) *PostmarkSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Postmark-Server-Token", token)

	return &PostmarkSender{
		client: client,
		token:  token,
		from:   from,
		logger: logger,
	}
}

// Configured reports whether a server token is set.
func (p *PostmarkSender) Configured() bool {
	return p.token != ""
}

// SendEmail delivers one message.
func (p *PostmarkSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if !p.Configured() {
		return ErrDisabled
	}

	var result postmarkResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(postmarkEmail{From: p.from, To: to, Subject: subject, TextBody: body}).
		SetResult(&result).
		SetError(&result).
		Post("/email")
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.IsError() || result.ErrorCode != 0 {
		p.logger.Warn("postmark rejected email",
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("error_code", result.ErrorCode),
			zap.String("message", result.Message),
		)
		return fmt.Errorf("postmark API error: status %d, code %d: %s", resp.StatusCode(), result.ErrorCode, result.Message)
	}

	p.logger.Debug("email sent", zap.String("message_id", result.MessageID))
	return nil
}
