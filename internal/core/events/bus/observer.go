package bus

import (
	"time"

	"github.com/zeusync/miau/internal/core/observability/log"
)

// LogObserver writes every delivery to a logger at debug level and failed
// deliveries at warn level.
type LogObserver struct {
	Log log.Log
}

func NewLogObserver(l log.Log) *LogObserver {
	return &LogObserver{Log: l.Named("bus")}
}

func (o *LogObserver) OnPublish(Event) {}

func (o *LogObserver) OnDelivered(event Event, handlers int, err error, took time.Duration) {
	fields := []log.Field{
		log.String("event", event.Type()),
		log.Int("handlers", handlers),
		log.Duration("took", took),
	}
	if err != nil {
		o.Log.Warn("event handler failed", append(fields, log.Error(err))...)
		return
	}
	o.Log.Debug("event delivered", fields...)
}
