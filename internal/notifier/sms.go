package notifier

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/pfrederiksen/citycast-digest/internal/config"
	"github.com/pfrederiksen/citycast-digest/internal/digest"
	"github.com/pfrederiksen/citycast-digest/internal/logger"
	"github.com/pfrederiksen/citycast-digest/internal/metrics"
)

// SendFunc matches smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMSNotifier texts digest messages through an email-to-SMS gateway
type SMSNotifier struct {
	addr    string
	auth    smtp.Auth
	from    string
	to      string
	send    SendFunc
	log     *logger.Logger
	metrics *metrics.Metrics
}

// SMSOption configures an SMSNotifier
type SMSOption func(*SMSNotifier)

// WithSendFunc replaces smtp.SendMail, mainly for tests
func WithSendFunc(send SendFunc) SMSOption {
	return func(n *SMSNotifier) {
		n.send = send
	}
}

// WithSMSLogger sets the logger for delivery progress
func WithSMSLogger(l *logger.Logger) SMSOption {
	return func(n *SMSNotifier) {
		n.log = l
	}
}

// WithSMSMetrics sets the run metrics updated per sent message
func WithSMSMetrics(m *metrics.Metrics) SMSOption {
	return func(n *SMSNotifier) {
		n.metrics = m
	}
}

// NewSMSNotifier creates an SMS notifier from validated mail settings.
// The relay must offer STARTTLS; net/smtp refuses plain auth otherwise.
func NewSMSNotifier(cfg *config.Config, opts ...SMSOption) (*SMSNotifier, error) {
	if cfg.SMTP.Host == "" || cfg.SMTP.Username == "" || cfg.SMS.To == "" {
		return nil, fmt.Errorf("missing SMTP host, sender or SMS recipient")
	}

	n := &SMSNotifier{
		addr: cfg.SMTPAddr(),
		auth: smtp.PlainAuth("", cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Host),
		from: cfg.SMTP.Username,
		to:   cfg.SMS.To,
		send: smtp.SendMail,
		log:  logger.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify sends one email per message
func (n *SMSNotifier) Notify(ctx context.Context, messages []digest.Message) error {
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := n.send(n.addr, n.auth, n.from, []string{n.to}, n.compose(msg)); err != nil {
			return fmt.Errorf("sending SMS part %d/%d: %w", msg.Index, msg.Total, err)
		}

		n.metrics.MessageSent()
		n.log.Info("SMS part sent", logger.Fields{
			"part":  msg.Index,
			"total": msg.Total,
			"chars": len([]rune(msg.Body)),
		})
	}
	return nil
}

// compose builds the RFC 5322 message for one chunk
func (n *SMSNotifier) compose(msg digest.Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + n.from + "\r\n")
	b.WriteString("To: " + n.to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
