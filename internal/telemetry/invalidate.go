package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// invalidateTimeout bounds one cache deletion triggered by a message.
const invalidateTimeout = 5 * time.Second

// Deleter removes cache entries. Implemented by the cache backends.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// InvalidationHandler returns an MQTT message handler that deletes the
// cache entries named by each payload. The payload lists source
// identifiers separated by commas or whitespace. The next load of each
// listed source reads it afresh.
//
// A cached entry holds the fully expanded configuration of its source,
// includes and all. Invalidating an included file therefore does not
// refresh the files that include it; list those sources in the same
// payload.
func InvalidationHandler(cache Deleter, logger Logger) func(topic string, payload []byte) error {
	if logger == nil {
		logger = noopLogger{}
	}
	return func(topic string, payload []byte) error {
		sources := strings.FieldsFunc(string(payload), func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		if len(sources) == 0 {
			return fmt.Errorf("empty invalidation on %s", topic)
		}

		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		defer cancel()

		for _, sourceID := range sources {
			if err := cache.Delete(ctx, sourceID); err != nil {
				return fmt.Errorf("invalidating %s: %w", sourceID, err)
			}
			logger.Info("cache entry invalidated", "source", sourceID, "topic", topic)
		}
		return nil
	}
}
