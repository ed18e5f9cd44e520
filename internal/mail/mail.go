// Package mail delivers verification and password reset codes.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/moody/internal/shared"
)

// Message is a plain text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a [Message].
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage builds the e-mail carrying a new account's verification code.
func VerificationMessage(to, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Email Verification",
		Body: fmt.Sprintf(
			"Only one step to take full advantage of Moody.\n\nYour verification code is %s.\nIt expires in %d minutes.\n",
			code, int(ttl.Minutes()),
		),
	}
}

// PasswordResetMessage builds the e-mail carrying a password reset code.
func PasswordResetMessage(to, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Password Reset",
		Body: fmt.Sprintf(
			"Someone asked to reset the password of your Moody account.\n\nYour reset code is %s.\nIt expires in %d minutes. If this wasn't you, ignore this e-mail.\n",
			code, int(ttl.Minutes()),
		),
	}
}

// New returns an [SMTPSender] when mail is enabled and a [LogSender] otherwise.
func New(cfg shared.MailConfig, logger *log.Logger) Sender {
	if !cfg.Enabled {
		return &LogSender{logger: logger}
	}
	return NewSMTPSender(cfg, logger)
}

// SendFunc matches [smtp.SendMail].
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends mail through an SMTP relay, retrying transient failures.
type SMTPSender struct {
	addr     string
	auth     smtp.Auth
	from     string
	attempts uint
	delay    time.Duration
	send     SendFunc
	logger   *log.Logger
}

// NewSMTPSender creates an [SMTPSender] from cfg.
func NewSMTPSender(cfg shared.MailConfig, logger *log.Logger) *SMTPSender {
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 1
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		addr:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		auth:     smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		from:     from,
		attempts: attempts,
		delay:    500 * time.Millisecond,
		send:     smtp.SendMail,
		logger:   logger,
	}
}

// WithSendFunc replaces the transport, for tests.
func (s *SMTPSender) WithSendFunc(fn SendFunc) *SMTPSender {
	s.send = fn
	s.delay = time.Millisecond
	return s
}

// Send delivers msg, retrying with backoff until the configured attempts are used up.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	body := s.format(msg)
	err := retry.Do(
		func() error { return s.send(s.addr, s.auth, s.from, []string{msg.To}, body) },
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("mail delivery failed, retrying", "attempt", n+1, "to", msg.To, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: send mail: %v", shared.ErrServiceUnavailable, err)
	}
	s.logger.Debug("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (s *SMTPSender) format(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogSender writes mail to the logger instead of delivering it.
type LogSender struct {
	logger *log.Logger
}

// NewLogSender creates a [LogSender].
func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail disabled, not sending", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
