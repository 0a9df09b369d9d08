package notification

import (
	"context"
	"fmt"

	"github.com/keighl/postmark"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender is the From identity of outgoing mail.
type Sender struct {
	Name    string
	Address string
}

// sendGridTransport delivers through the SendGrid v3 API.
type sendGridTransport struct {
	client *sendgrid.Client
	from   Sender
}

// NewSendGridTransport creates a SendGrid transport. host overrides the API
// host and is empty in production.
func NewSendGridTransport(apiKey, host string, from Sender) Transport {
	client := sendgrid.NewSendClient(apiKey)
	if host != "" {
		req := sendgrid.GetRequest(apiKey, "/v3/mail/send", host)
		req.Method = "POST"
		client = &sendgrid.Client{Request: req}
	}
	return &sendGridTransport{client: client, from: from}
}

func (t *sendGridTransport) Send(ctx context.Context, email Email) error {
	to := mail.NewPersonalization()
	to.AddTos(mail.NewEmail("", email.To))

	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail(t.from.Name, t.from.Address))
	msg.Subject = email.Subject
	msg.AddPersonalizations(to)
	msg.AddContent(mail.NewContent("text/html", email.HTMLBody))

	resp, err := t.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send via sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// postmarkTransport delivers through Postmark.
type postmarkTransport struct {
	client *postmark.Client
	from   Sender
}

// NewPostmarkTransport creates a Postmark transport. baseURL overrides the API
// endpoint and is empty in production.
func NewPostmarkTransport(serverToken, baseURL string, from Sender) Transport {
	client := postmark.NewClient(serverToken, "")
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	return &postmarkTransport{client: client, from: from}
}

func (t *postmarkTransport) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := t.from.Address
	if t.from.Name != "" {
		from = fmt.Sprintf("%s <%s>", t.from.Name, t.from.Address)
	}

	_, err := t.client.SendEmail(postmark.Email{
		From:     from,
		To:       email.To,
		Subject:  email.Subject,
		HtmlBody: email.HTMLBody,
	})
	if err != nil {
		return fmt.Errorf("failed to send via postmark: %w", err)
	}
	return nil
}

// logTransport only logs messages. It is the default for local development.
type logTransport struct {
	logger zerolog.Logger
}

// NewLogTransport creates a transport that writes emails to the log.
func NewLogTransport(logger zerolog.Logger) Transport {
	return &logTransport{logger: logger.With().Str("transport", "log").Logger()}
}

func (t *logTransport) Send(_ context.Context, email Email) error {
	t.logger.Info().
		Str("to", email.To).
		Str("subject", email.Subject).
		Int("body_bytes", len(email.HTMLBody)).
		Msg("email")
	return nil
}
