package beacon

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics instruments for the beacon package. When no MeterProvider is
// configured (noop), all recording is zero-cost.
var (
	meter = otel.Meter("relaymesh.beacon")

	metricHeartbeats         metric.Int64Counter
	metricPeersActive        metric.Int64UpDownCounter
	metricListpeerDatagrams  metric.Int64Counter
	metricReaperEvictions    metric.Int64Counter
	metricMalformedDatagrams metric.Int64Counter
)

func init() {
	var err error

	metricHeartbeats, err = meter.Int64Counter("relaymesh.beacon.heartbeats",
		metric.WithDescription("HEARTBEAT datagrams processed"),
		metric.WithUnit("{datagrams}"),
	)
	if err != nil {
		panic("otel meter: " + err.Error())
	}

	metricPeersActive, err = meter.Int64UpDownCounter("relaymesh.beacon.peers_active",
		metric.WithDescription("Peers currently registered (heartbeated within the last 60s)"),
		metric.WithUnit("{peers}"),
	)
	if err != nil {
		panic("otel meter: " + err.Error())
	}

	metricListpeerDatagrams, err = meter.Int64Counter("relaymesh.beacon.listpeer_datagrams",
		metric.WithDescription("LISTPEER datagrams sent"),
		metric.WithUnit("{datagrams}"),
	)
	if err != nil {
		panic("otel meter: " + err.Error())
	}

	metricReaperEvictions, err = meter.Int64Counter("relaymesh.beacon.reaper_evictions",
		metric.WithDescription("Peers evicted by the stale-peer reaper"),
		metric.WithUnit("{peers}"),
	)
	if err != nil {
		panic("otel meter: " + err.Error())
	}

	metricMalformedDatagrams, err = meter.Int64Counter("relaymesh.beacon.malformed_datagrams",
		metric.WithDescription("Datagrams dropped for bad length or unknown/unexpected kind"),
		metric.WithUnit("{datagrams}"),
	)
	if err != nil {
		panic("otel meter: " + err.Error())
	}
}
