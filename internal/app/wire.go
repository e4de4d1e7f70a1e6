//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"realms_dao/internal/config"
	"realms_dao/internal/logging"
	"realms_dao/internal/node"
)

// InitApp creates a fully wired App. The cleanup closes the store.
func InitApp(v *viper.Viper) (*App, func(), error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,
		node.NodeSet,
		NewApp,
	)
	return nil, nil, nil
}
