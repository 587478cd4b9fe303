// Package aggregate folds validator participation into per-label counters and keeps the latest
// result readable while the next one is being computed.
package aggregate

import (
	"sync/atomic"
	"time"

	"github.com/dapplion/beacon-metrics-gazer/pkg/beacon"
	"github.com/dapplion/beacon-metrics-gazer/pkg/ranges"
)

type (
	// GroupAggregate holds the counters of every validator whose index falls in a range carrying Label.
	GroupAggregate struct {
		Label string
		// Participating counts validators with a timely target vote.
		Participating      uint64
		Total              uint64
		TimelySource       uint64
		TimelyHead         uint64
		InactivityScoreSum uint64
	}

	// Snapshot is the immutable result of one poll cycle.
	Snapshot struct {
		Epoch     uint64
		Slot      uint64
		Groups    []GroupAggregate
		UpdatedAt time.Time
	}

	// Store is the single cell through which snapshots travel from the poll loop to scrapes.
	Store struct {
		current atomic.Pointer[Snapshot]
	}

	Aggregator struct {
		table *ranges.Table
		store *Store
		now   func() time.Time
	}
)

// Aggregate counts records per label, one group per distinct label of table in table order.
// Records outside every range are dropped.
func Aggregate(records []beacon.Record, table *ranges.Table) []GroupAggregate {
	labels := table.Labels()
	groups := make([]GroupAggregate, len(labels))
	positions := make(map[string]int, len(labels))
	for i, label := range labels {
		groups[i].Label = label
		positions[label] = i
	}

	for _, record := range records {
		label, ok := table.Lookup(record.Index)
		if !ok {
			continue
		}
		group := &groups[positions[label]]
		group.Total++
		if record.Participated {
			group.Participating++
		}
		if record.Flags.Has(beacon.TimelySource) {
			group.TimelySource++
		}
		if record.Flags.Has(beacon.TimelyHead) {
			group.TimelyHead++
		}
		group.InactivityScoreSum += record.InactivityScore
	}
	return groups
}

// Ratio returns count/Total, or false for an empty group.
func (g GroupAggregate) Ratio(count uint64) (float64, bool) {
	if g.Total == 0 {
		return 0, false
	}
	return float64(count) / float64(g.Total), true
}

func NewStore() *Store {
	return &Store{}
}

// Publish replaces the current snapshot. Readers holding the previous one keep a consistent view.
func (s *Store) Publish(snapshot *Snapshot) {
	s.current.Store(snapshot)
}

// Load returns the latest published snapshot, or nil before the first publish.
func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

func NewAggregator(table *ranges.Table, store *Store) *Aggregator {
	return &Aggregator{table: table, store: store, now: time.Now}
}

// Update aggregates one poll's participation and publishes the result.
func (a *Aggregator) Update(participation *beacon.Participation) *Snapshot {
	snapshot := &Snapshot{
		Epoch:     participation.Epoch,
		Slot:      participation.Slot,
		Groups:    Aggregate(participation.Records, a.table),
		UpdatedAt: a.now(),
	}
	a.store.Publish(snapshot)
	return snapshot
}
