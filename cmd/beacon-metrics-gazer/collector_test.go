package main

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/dapplion/beacon-metrics-gazer/pkg/aggregate"
)

var testSnapshot = &aggregate.Snapshot{
	Epoch: 7,
	Slot:  250,
	Groups: []aggregate.GroupAggregate{
		{Label: "A", Participating: 1, Total: 2, TimelySource: 1, TimelyHead: 2, InactivityScoreSum: 6},
		{Label: "B", Participating: 0, Total: 0},
	},
	UpdatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
}

func TestParticipationCollector_Collect(t *testing.T) {
	store := aggregate.NewStore()
	store.Publish(testSnapshot)
	collector := NewParticipationCollector(store)
	prometheus.NewPedanticRegistry().MustRegister(collector)

	testCases := []collectionTest{
		collector.ParticipatingCount.makeCollectionTest(NewLV(1, "A"), NewLV(0, "B")),
		collector.TotalCount.makeCollectionTest(NewLV(2, "A"), NewLV(0, "B")),
		// empty groups get no ratios
		collector.SourceParticipation.makeCollectionTest(NewLV(0.5, "A")),
		collector.TargetParticipation.makeCollectionTest(NewLV(0.5, "A")),
		collector.HeadParticipation.makeCollectionTest(NewLV(1, "A")),
		collector.InactivityScores.makeCollectionTest(NewLV(3, "A")),
		collector.Epoch.makeCollectionTest(NewLV(7)),
	}

	runCollectionTests(t, collector, testCases)
}

func TestParticipationCollector_BeforeFirstPoll(t *testing.T) {
	collector := NewParticipationCollector(aggregate.NewStore())
	assert.Equal(t, 0, testutil.CollectAndCount(collector))
}

func TestParticipationCollector_FollowsStore(t *testing.T) {
	store := aggregate.NewStore()
	collector := NewParticipationCollector(store)

	store.Publish(testSnapshot)
	runCollectionTests(t, collector, []collectionTest{collector.Epoch.makeCollectionTest(NewLV(7))})

	store.Publish(&aggregate.Snapshot{
		Epoch:  8,
		Groups: []aggregate.GroupAggregate{{Label: "A", Participating: 2, Total: 2, TimelySource: 2, TimelyHead: 2}},
	})
	runCollectionTests(t, collector, []collectionTest{
		collector.Epoch.makeCollectionTest(NewLV(8)),
		collector.ParticipatingCount.makeCollectionTest(NewLV(2, "A")),
		collector.TargetParticipation.makeCollectionTest(NewLV(1, "A")),
	})
}
