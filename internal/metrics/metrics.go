package metrics

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

var (
	// EnginesLive counts engines that have been constructed and not yet fully stopped
	EnginesLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transcribebridge_engine_live",
			Help: "Number of execution engines that have not fully stopped",
		},
	)

	// EngineTasks tracks background tasks spawned on an engine that are still running
	EngineTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transcribebridge_engine_tasks",
			Help: "Number of running background tasks",
		},
	)

	// SessionsLive tracks streaming sessions between create and destroy
	SessionsLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transcribebridge_sessions_live",
			Help: "Number of streaming session handles that have not been destroyed",
		},
	)

	// RelayTasksActive tracks relay tasks forwarding frames into a read queue
	RelayTasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transcribebridge_relay_tasks_active",
			Help: "Number of active relay tasks",
		},
	)

	// QueuesLive tracks read queues whose producer has not closed them yet
	QueuesLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transcribebridge_queues_live",
			Help: "Number of open read queues",
		},
	)

	// FramesRelayed counts frames pushed from a stream into a read queue
	FramesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transcribebridge_frames_relayed_total",
			Help: "Total number of frames relayed into read queues",
		},
	)

	// BridgeCalls counts blocking calls made through the sync adapter
	BridgeCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcribebridge_bridge_calls_total",
			Help: "Total number of blocking bridge calls",
		},
		[]string{"result"},
	)

	// Exceptions counts exceptions raised at the boundary
	Exceptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcribebridge_exceptions_total",
			Help: "Total number of boundary exceptions raised",
		},
		[]string{"code"},
	)
)

// Handler returns the prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteText writes every registered metric family in the text exposition format
func WriteText(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
