package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/config"

	"gopkg.in/gomail.v2"
)

// EmailNotifier sends account emails over SMTP.
type EmailNotifier struct {
	cfg         *config.SMTPConfig
	frontendURL string
	logger      *slog.Logger
}

func NewEmailNotifier(cfg *config.SMTPConfig, frontendURL string, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, frontendURL: frontendURL, logger: logger}
}

func (n *EmailNotifier) Send(ctx context.Context, msg Message) error {
	if n.cfg.Host == "" || n.cfg.FromEmail == "" {
		n.logger.Warn("smtp config missing, skipping email", slog.String("kind", string(msg.Kind)))
		return nil
	}
	if strings.TrimSpace(msg.Email) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", msg.Email)

	switch msg.Kind {
	case ConfirmationEmail:
		m.SetHeader("Subject", "UpTask - Confirma tu cuenta")
		m.SetBody("text/html", n.confirmationBody(msg))
	case PasswordResetEmail:
		m.SetHeader("Subject", "UpTask - Reestablece tu password")
		m.SetBody("text/html", n.passwordResetBody(msg))
	default:
		return fmt.Errorf("unknown message kind: %s", msg.Kind)
	}

	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.User, n.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("email sent",
		slog.String("kind", string(msg.Kind)),
		slog.String("to", msg.Email),
	)
	return nil
}

func (n *EmailNotifier) confirmationBody(msg Message) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Hola %s, confirma tu cuenta de UpTask</h2>
    <p>Tu cuenta ya casi esta lista, solo debes confirmarla en el siguiente enlace:</p>
    <p><a href="%s/auth/confirm-account">Confirmar cuenta</a></p>
    <p>E ingresa el codigo:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>Este codigo expira en 10 minutos.</p>
  </div>
</body>
</html>`, msg.Name, n.frontendURL, msg.Token)
}

func (n *EmailNotifier) passwordResetBody(msg Message) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Hola %s, has solicitado reestablecer tu password</h2>
    <p>Visita el siguiente enlace:</p>
    <p><a href="%s/auth/new-password">Reestablecer password</a></p>
    <p>E ingresa el codigo:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>Este codigo expira en 10 minutos.</p>
  </div>
</body>
</html>`, msg.Name, n.frontendURL, msg.Token)
}
