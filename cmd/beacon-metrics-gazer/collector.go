package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dapplion/beacon-metrics-gazer/pkg/aggregate"
)

// RangeLabel carries the label of the validator range a group was built from.
const RangeLabel = "range"

// ParticipationCollector renders the latest published snapshot. It never talks to the beacon
// node: scrapes only read the store.
type ParticipationCollector struct {
	store *aggregate.Store

	ParticipatingCount  *GaugeDesc
	TotalCount          *GaugeDesc
	SourceParticipation *GaugeDesc
	TargetParticipation *GaugeDesc
	HeadParticipation   *GaugeDesc
	InactivityScores    *GaugeDesc
	Epoch               *GaugeDesc
}

func NewParticipationCollector(store *aggregate.Store) *ParticipationCollector {
	return &ParticipationCollector{
		store: store,
		ParticipatingCount: NewGaugeDesc(
			"beacon_network_participating_count",
			"Number of validators with a timely target vote in the previous epoch, grouped by range",
			RangeLabel,
		),
		TotalCount: NewGaugeDesc(
			"beacon_network_total_count",
			"Number of validators present in the beacon state, grouped by range",
			RangeLabel,
		),
		SourceParticipation: NewGaugeDesc(
			"beacon_network_source_participation",
			"Ratio of validators with a timely source vote, grouped by range",
			RangeLabel,
		),
		TargetParticipation: NewGaugeDesc(
			"beacon_network_target_participation",
			"Ratio of validators with a timely target vote, grouped by range",
			RangeLabel,
		),
		HeadParticipation: NewGaugeDesc(
			"beacon_network_head_participation",
			"Ratio of validators with a timely head vote, grouped by range",
			RangeLabel,
		),
		InactivityScores: NewGaugeDesc(
			"beacon_network_inactivity_scores",
			"Mean inactivity score of validators, grouped by range",
			RangeLabel,
		),
		Epoch: NewGaugeDesc(
			"beacon_network_participation_epoch",
			"Epoch of the currently exported participation",
		),
	}
}

func (c *ParticipationCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ParticipatingCount.Desc
	ch <- c.TotalCount.Desc
	ch <- c.SourceParticipation.Desc
	ch <- c.TargetParticipation.Desc
	ch <- c.HeadParticipation.Desc
	ch <- c.InactivityScores.Desc
	ch <- c.Epoch.Desc
}

func (c *ParticipationCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.store.Load()
	if snapshot == nil {
		// nothing polled yet
		return
	}

	ch <- c.Epoch.MustNewConstMetric(float64(snapshot.Epoch))
	for _, group := range snapshot.Groups {
		ch <- c.ParticipatingCount.MustNewConstMetric(float64(group.Participating), group.Label)
		ch <- c.TotalCount.MustNewConstMetric(float64(group.Total), group.Label)

		// ratios of an empty group are undefined
		if ratio, ok := group.Ratio(group.TimelySource); ok {
			ch <- c.SourceParticipation.MustNewConstMetric(ratio, group.Label)
		}
		if ratio, ok := group.Ratio(group.Participating); ok {
			ch <- c.TargetParticipation.MustNewConstMetric(ratio, group.Label)
		}
		if ratio, ok := group.Ratio(group.TimelyHead); ok {
			ch <- c.HeadParticipation.MustNewConstMetric(ratio, group.Label)
		}
		if mean, ok := group.Ratio(group.InactivityScoreSum); ok {
			ch <- c.InactivityScores.MustNewConstMetric(mean, group.Label)
		}
	}
}
