package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is one outbound email. Every address in To sees the others.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

type sendgridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Client delivers mail through SendGrid. Without an API key it only logs.
type Client struct {
	api      sendgridAPI
	fromName string
	from     string
	logg     *logger.Logger
}

// NewClient builds a SendGrid mailer from config.
func NewClient(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, errors.New("sendgrid from email required")
	}
	client := &Client{
		fromName: strings.TrimSpace(cfg.FromName),
		from:     from,
		logg:     logg,
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		client.api = sendgrid.NewSendClient(key)
	}
	return client, nil
}

// Enabled reports whether messages leave the process.
func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

// Send delivers msg. Non-2xx responses are returned as dependency errors.
func (c *Client) Send(ctx context.Context, msg Message) error {
	recipients := cleanRecipients(msg.To)
	if len(recipients) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "email recipients required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email subject required")
	}

	if !c.Enabled() {
		c.log(ctx, recipients, msg.Subject, "email delivery disabled; message dropped")
		return nil
	}

	resp, err := c.api.SendWithContext(ctx, c.build(recipients, msg))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sendgrid send failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("sendgrid returned %d", resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode, "body": resp.Body})
	}
	c.log(ctx, recipients, msg.Subject, "email sent")
	return nil
}

func (c *Client) build(recipients []string, msg Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(c.fromName, c.from))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, addr := range recipients {
		p.AddTos(mail.NewEmail("", addr))
	}
	m.AddPersonalizations(p)

	if reply := strings.TrimSpace(msg.ReplyTo); reply != "" {
		m.SetReplyTo(mail.NewEmail("", reply))
	}
	// SendGrid requires text/plain ahead of text/html.
	if msg.Text != "" {
		m.AddContent(mail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	return m
}

func (c *Client) log(ctx context.Context, to []string, subject, msg string) {
	if c.logg == nil {
		return
	}
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"to":      strings.Join(to, ","),
		"subject": subject,
	})
	c.logg.Info(logCtx, msg)
}

func cleanRecipients(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, addr := range in {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}
