package email

import (
	"github.com/google/wire"

	"torilynq/config"
	"torilynq/internal/auth"
)

// ProvideMailer returns a nil mailer when SMTP is not configured; account
// emails are then skipped.
func ProvideMailer(cfg *config.Config) auth.Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
}

var Set = wire.NewSet(ProvideMailer)
