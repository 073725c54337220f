package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "insiderbot"

	LabelOutcome = "outcome"
	LabelResult  = "result"
	LabelCommand = "command"
	LabelChannel = "channel"

	ResultSent    = "sent"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

var (
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_polls_total",
			Help:      "Total number of feed polls by outcome",
		},
		[]string{LabelOutcome},
	)

	AnnouncementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_total",
			Help:      "Total number of per-destination announcement attempts by result",
		},
		[]string{LabelChannel, LabelResult},
	)

	LastAnnouncement = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_announcement_timestamp_seconds",
			Help:      "Unix time of the last detected build",
		},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of handled commands by name and result",
		},
		[]string{LabelCommand, LabelResult},
	)
)
