package telemetry

import (
	"context"
	"time"

	"github.com/nerrad567/graywire/internal/buildlog"
	"github.com/nerrad567/graywire/internal/infrastructure/influxdb"
	"github.com/nerrad567/graywire/internal/infrastructure/mqtt"
	"github.com/nerrad567/graywire/internal/registry"
)

// Publisher sends JSON messages. Implemented by *mqtt.Client.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// PointWriter queues build points. Implemented by *influxdb.Client.
type PointWriter interface {
	WriteServiceBuild(b influxdb.ServiceBuild)
}

// HistoryWriter persists build entries. Implemented by
// *buildlog.SQLiteRepository.
type HistoryWriter interface {
	Create(ctx context.Context, e *buildlog.Entry) error
}

// BuildObserver counts build events. Implemented by *metrics.Metrics.
type BuildObserver interface {
	ObserveBuild(ev registry.BuildEvent)
}

// historyTimeout bounds one build log insert.
const historyTimeout = 5 * time.Second

// Logger is the logging interface used by the reporter.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// BuildMessage is the JSON payload published for each build.
type BuildMessage struct {
	Service    string  `json:"service"`
	Class      string  `json:"class"`
	Cached     bool    `json:"cached"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// Reporter fans registry build events out to MQTT, InfluxDB, the build log,
// and Prometheus. Any sink may be absent. Delivery failures are logged, never returned.
type Reporter struct {
	publisher Publisher
	topics    mqtt.Topics
	writer    PointWriter
	history   HistoryWriter
	observer  BuildObserver
	logger    Logger
	now       func() time.Time
}

// New creates a Reporter with no sinks.
func New() *Reporter {
	return &Reporter{
		logger: noopLogger{},
		now:    time.Now,
	}
}

// WithMQTT publishes each event to topics.ServiceBuilt(name).
func (r *Reporter) WithMQTT(p Publisher, topics mqtt.Topics) *Reporter {
	r.publisher = p
	r.topics = topics
	return r
}

// WithInfluxDB writes each event as a service_build point.
func (r *Reporter) WithInfluxDB(w PointWriter) *Reporter {
	r.writer = w
	return r
}

// WithHistory records each event in the build log.
func (r *Reporter) WithHistory(h HistoryWriter) *Reporter {
	r.history = h
	return r
}

// WithMetrics counts each event.
func (r *Reporter) WithMetrics(o BuildObserver) *Reporter {
	r.observer = o
	return r
}

// WithLogger sets the logger for delivery failures.
func (r *Reporter) WithLogger(l Logger) *Reporter {
	if l == nil {
		l = noopLogger{}
	}
	r.logger = l
	return r
}

// Enabled reports whether any sink is configured.
func (r *Reporter) Enabled() bool {
	return r.publisher != nil || r.writer != nil || r.history != nil || r.observer != nil
}

// Report delivers ev to every configured sink. Suitable for
// registry.SetBuildHook.
func (r *Reporter) Report(ev registry.BuildEvent) {
	at := r.now()

	if r.observer != nil {
		r.observer.ObserveBuild(ev)
	}

	if r.publisher != nil {
		msg := BuildMessage{
			Service:    ev.Name,
			Class:      ev.Class,
			Cached:     ev.Cached,
			DurationMS: float64(ev.Duration) / float64(time.Millisecond),
			Timestamp:  at.UTC().Format(time.RFC3339),
		}
		if ev.Err != nil {
			msg.Error = ev.Err.Error()
		}
		if err := r.publisher.PublishJSON(r.topics.ServiceBuilt(ev.Name), msg, false); err != nil {
			r.logger.Warn("publishing build event failed", "service", ev.Name, "error", err)
		}
	}

	if r.writer != nil {
		r.writer.WriteServiceBuild(influxdb.ServiceBuild{
			Service:  ev.Name,
			Class:    ev.Class,
			Cached:   ev.Cached,
			Failed:   ev.Err != nil,
			Duration: ev.Duration,
			At:       at,
		})
	}

	if r.history != nil {
		entry := buildlog.FromEvent(ev, at)
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := r.history.Create(ctx, &entry); err != nil {
			r.logger.Warn("recording build event failed", "service", ev.Name, "error", err)
		}
	}
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}
