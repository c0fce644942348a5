package auth

import (
	"github.com/google/wire"

	"torilynq/config"
	"torilynq/internal/user"
	"torilynq/pkg/jwt"
)

// ProvideDenylist is a Wire provider function that picks the denylist
// backend from configuration.
func ProvideDenylist(cfg *config.Config) (Denylist, error) {
	return NewDenylist(cfg.RedisAddr)
}

func ProvideService(cfg *config.Config, users user.Repository, tokens *jwt.Service, denylist Denylist, mailer Mailer) *Service {
	return NewService(users, tokens, denylist, mailer, cfg.BcryptCost)
}

func ProvideHandler(cfg *config.Config, service *Service, tokens *jwt.Service) *Handler {
	return NewHandler(service, tokens, cfg.IsProduction())
}

var Set = wire.NewSet(ProvideDenylist, ProvideService, ProvideHandler, NewMiddleware)
