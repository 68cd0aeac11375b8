package worker

import (
	"reflect"

	"go.uber.org/zap"
)

// Subscriber attaches its handlers to an event dispatcher.
type Subscriber interface {
	RegisterHandlers()
}

// StartSubscribers registers every non-nil subscriber and returns how many
// were attached. It must run before the service starts publishing.
func StartSubscribers(logger *zap.Logger, subscribers ...Subscriber) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	started := 0
	for _, s := range subscribers {
		if isNil(s) {
			continue
		}
		s.RegisterHandlers()
		started++
		logger.Debug("event subscriber registered", zap.String("subscriber", reflect.TypeOf(s).String()))
	}
	return started
}

func isNil(s Subscriber) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
