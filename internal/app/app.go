package app

import (
	"log/slog"

	"realms_dao/internal/config"
	"realms_dao/internal/node"
)

// App holds what every cli command needs.
type App struct {
	Config   *config.RuntimeConfig
	Logger   *slog.Logger
	Node     *node.Node
	Keystore *node.Keystore
}

func NewApp(cfg *config.RuntimeConfig, logger *slog.Logger, n *node.Node, keys *node.Keystore) *App {
	return &App{
		Config:   cfg,
		Logger:   logger,
		Node:     n,
		Keystore: keys,
	}
}
