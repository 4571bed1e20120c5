package service

import (
	"context"

	"pano-service/internal/config"
	"pano-service/internal/service/auth"
	"pano-service/internal/service/game"
	"pano-service/internal/service/lobby"
	"pano-service/internal/service/wallet"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Auth   *auth.Service
	Wallet *wallet.Service
	Lobby  *lobby.Service
	Game   *game.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	return &Container{
		Auth:   auth.NewService(db),
		Wallet: wallet.NewService(db),
		Lobby:  lobby.NewService(db),
		Game:   game.NewService(db, rdb, config.GlobalConfig.Game.TurnSeconds),
	}
}

func (c *Container) Start(ctx context.Context) error {
	return c.Lobby.EnsureFixedTables(ctx)
}
