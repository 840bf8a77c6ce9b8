package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_cycles_total",
		Help: "Run loop cycles by decision outcome",
	}, []string{"decision"})

	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_trades_total",
		Help: "Submitted trades by final status",
	}, []string{"status"})

	SettlementSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bot_settlement_seconds",
		Help:    "Time from order placement to settlement",
		Buckets: prometheus.LinearBuckets(10, 10, 8),
	})

	DailyProfit = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bot_daily_profit",
		Help: "Cumulative realized profit for the current day",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_total",
		Help: "Total number of active WebSocket connections",
	})
)
