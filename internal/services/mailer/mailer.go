package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"boutique/internal/config"
)

// Mailer delivers transactional emails over SMTP. No mail library is used;
// the messages are simple enough for the standard library client.
type Mailer struct {
	logger      *slog.Logger
	cfg         config.SMTPConfig
	frontendURL string

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(logger *slog.Logger, cfg config.SMTPConfig, frontendURL string) *Mailer {
	return &Mailer{
		logger:      logger,
		cfg:         cfg,
		frontendURL: frontendURL,
		send:        smtp.SendMail,
	}
}

// SendVerificationEmail sends the account activation link. The link expires
// after 24 hours.
func (m *Mailer) SendVerificationEmail(_ context.Context, name, email, token string) error {
	const op = "mailer.SendVerificationEmail"

	url := m.frontendURL + "/verify-email?token=" + token
	body := fmt.Sprintf(
		"Bienvenue %s !\r\n\r\n"+
			"Merci de vous être inscrit sur Fashion Store.\r\n"+
			"Pour activer votre compte, ouvrez ce lien :\r\n\r\n%s\r\n\r\n"+
			"Ce lien expire dans 24 heures.\r\n",
		name, url)

	if err := m.deliver(email, "Vérifiez votre adresse email", body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendPasswordResetEmail sends the password reset link. The link expires
// after 1 hour.
func (m *Mailer) SendPasswordResetEmail(_ context.Context, name, email, token string) error {
	const op = "mailer.SendPasswordResetEmail"

	url := m.frontendURL + "/reset-password?token=" + token
	body := fmt.Sprintf(
		"Bonjour %s,\r\n\r\n"+
			"Une réinitialisation de mot de passe a été demandée pour votre compte.\r\n"+
			"Pour choisir un nouveau mot de passe, ouvrez ce lien :\r\n\r\n%s\r\n\r\n"+
			"Ce lien expire dans 1 heure. Si vous n'êtes pas à l'origine de cette\r\n"+
			"demande, ignorez cet email.\r\n",
		name, url)

	if err := m.deliver(email, "Réinitialisation du mot de passe", body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (m *Mailer) deliver(to, subject, body string) error {
	from := m.cfg.From
	if from == "" {
		from = m.cfg.User
	}

	var msg strings.Builder
	msg.WriteString("From: Fashion Store <" + from + ">\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)

	if err := m.send(addr, auth, from, []string{to}, []byte(msg.String())); err != nil {
		return err
	}

	m.logger.Info("email sent",
		slog.String("to", to),
		slog.String("subject", subject))

	return nil
}
