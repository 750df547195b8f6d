package mailer

import (
	"context"
	"io"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/internal/config"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestMailer() (*Mailer, *[]sentMail) {
	m := New(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		config.SMTPConfig{Host: "smtp.test", Port: 2525, User: "mailer@test", From: "noreply@boutique.test"},
		"https://boutique.test",
	)

	var sent []sentMail
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}

	return m, &sent
}

func TestSendVerificationEmail(t *testing.T) {
	m, sent := newTestMailer()

	err := m.SendVerificationEmail(context.Background(), "Alice", "alice@example.com", "tok-123")
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "smtp.test:2525", mail.addr)
	assert.Equal(t, "noreply@boutique.test", mail.from)
	assert.Equal(t, []string{"alice@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "https://boutique.test/verify-email?token=tok-123")
	assert.Contains(t, mail.msg, "24 heures")
	assert.Contains(t, mail.msg, "Subject: Vérifiez votre adresse email")
}

func TestSendPasswordResetEmail(t *testing.T) {
	m, sent := newTestMailer()

	err := m.SendPasswordResetEmail(context.Background(), "Alice", "alice@example.com", "tok-456")
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Contains(t, mail.msg, "https://boutique.test/reset-password?token=tok-456")
	assert.Contains(t, mail.msg, "1 heure")
}

func TestDeliver_FallsBackToUserAsFrom(t *testing.T) {
	m, sent := newTestMailer()
	m.cfg.From = ""

	err := m.SendVerificationEmail(context.Background(), "Alice", "alice@example.com", "tok")
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	assert.Equal(t, "mailer@test", (*sent)[0].from)
}
