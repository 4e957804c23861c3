package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/miau/internal/config"
	"github.com/zeusync/miau/internal/core/observability/log"
	"github.com/zeusync/miau/internal/engine"
)

var ProviderSet = wire.NewSet(ProvideLogger, ProvideEngine)

func ProvideLogger(cfg *config.Config) (log.Log, error) {
	l, err := cfg.Log.Logger()
	if err != nil {
		return nil, err
	}
	return l, nil
}

func ProvideEngine(cfg *config.Config, logger log.Log) *engine.Engine {
	return engine.New(cfg, logger)
}
