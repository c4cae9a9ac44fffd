package relay

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("relaymesh.relay")

	metricSolConns     metric.Int64UpDownCounter
	metricStandbyConns metric.Int64UpDownCounter
	metricChurnSwaps   metric.Int64Counter
)

func init() {
	var err error

	metricSolConns, err = meter.Int64UpDownCounter("relaymesh.relay.sol_conns",
		metric.WithDescription("Active solicited connections"),
		metric.WithUnit("{connections}"),
	)
	if err != nil {
		panic("otel meter: " + err.Error())
	}

	metricStandbyConns, err = meter.Int64UpDownCounter("relaymesh.relay.standby_conns",
		metric.WithDescription("Standby solicited connections"),
		metric.WithUnit("{connections}"),
	)
	if err != nil {
		panic("otel meter: " + err.Error())
	}

	metricChurnSwaps, err = meter.Int64Counter("relaymesh.relay.churn_swaps",
		metric.WithDescription("Times manage_subscriptions swapped the worst active for the best standby"),
		metric.WithUnit("{swaps}"),
	)
	if err != nil {
		panic("otel meter: " + err.Error())
	}
}
