//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"torilynq/config"
	"torilynq/internal/api"
	"torilynq/internal/auth"
	"torilynq/internal/chat"
	"torilynq/internal/database"
	"torilynq/internal/email"
	"torilynq/internal/media"
	"torilynq/internal/notifications"
	"torilynq/internal/post"
	"torilynq/internal/story"
	"torilynq/internal/user"
)

var AppSet = wire.NewSet(
	ProvideTokenService,
	user.Set,
	auth.Set,
	post.Set,
	story.Set,
	chat.Set,
	notifications.Set,
	media.Set,
	email.Set,
	api.Set,
)

func InitializeServer(cfg *config.Config, db *database.Database) (*api.Server, error) {
	wire.Build(AppSet)

	return nil, nil
}
