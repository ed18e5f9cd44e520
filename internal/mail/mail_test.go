package mail

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/moody/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smtpConfig() shared.MailConfig {
	return shared.MailConfig{
		Enabled:  true,
		Host:     "smtp.example.com",
		Port:     587,
		Username: "moody@example.com",
		Password: "pw",
		Attempts: 3,
	}
}

func TestMessages(t *testing.T) {
	v := VerificationMessage("ada@example.com", "12345", 10*time.Minute)
	assert.Equal(t, "Email Verification", v.Subject)
	assert.Contains(t, v.Body, "Only one step to take full advantage of Moody")
	assert.Contains(t, v.Body, "12345")
	assert.Contains(t, v.Body, "10 minutes")

	r := PasswordResetMessage("ada@example.com", "54321", 10*time.Minute)
	assert.Equal(t, "Password Reset", r.Subject)
	assert.Contains(t, r.Body, "54321")
}

func TestSMTPSender(t *testing.T) {
	logger := shared.NewLogger(&bytes.Buffer{})
	msg := VerificationMessage("ada@example.com", "12345", 10*time.Minute)

	t.Run("sends a formatted message", func(t *testing.T) {
		var gotAddr, gotFrom string
		var gotTo []string
		var gotBody []byte
		s := NewSMTPSender(smtpConfig(), logger).WithSendFunc(func(addr string, _ smtp.Auth, from string, to []string, body []byte) error {
			gotAddr, gotFrom, gotTo, gotBody = addr, from, to, body
			return nil
		})

		require.NoError(t, s.Send(context.Background(), msg))
		assert.Equal(t, "smtp.example.com:587", gotAddr)
		assert.Equal(t, "moody@example.com", gotFrom)
		assert.Equal(t, []string{"ada@example.com"}, gotTo)

		body := string(gotBody)
		assert.True(t, strings.HasPrefix(body, "From: moody@example.com\r\n"))
		assert.Contains(t, body, "Subject: Email Verification\r\n")
		assert.Contains(t, body, "\r\n\r\nOnly one step")
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		s := NewSMTPSender(smtpConfig(), logger).WithSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
			calls++
			if calls < 3 {
				return errors.New("421 try again")
			}
			return nil
		})

		require.NoError(t, s.Send(context.Background(), msg))
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		calls := 0
		s := NewSMTPSender(smtpConfig(), logger).WithSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
			calls++
			return errors.New("connection refused")
		})

		err := s.Send(context.Background(), msg)
		require.ErrorIs(t, err, shared.ErrServiceUnavailable)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, 3, calls)
	})
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := shared.NewLogger(&buf)

	cfg := smtpConfig()
	cfg.Enabled = false
	s := New(cfg, logger)
	require.IsType(t, &LogSender{}, s)

	require.NoError(t, s.Send(context.Background(), PasswordResetMessage("ada@example.com", "11111", time.Minute)))
	assert.Contains(t, buf.String(), "mail disabled")

	assert.IsType(t, &SMTPSender{}, New(smtpConfig(), logger))
}
