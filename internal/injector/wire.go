//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/miau/internal/config"
	"github.com/zeusync/miau/internal/engine"
)

func InitializeEngine(cfg *config.Config) (*engine.Engine, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
