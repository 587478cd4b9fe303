package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/dapplion/beacon-metrics-gazer/pkg/aggregate"
)

// WriteSnapshotTable renders one row per group of snapshot.
func WriteSnapshotTable(w io.Writer, snapshot *aggregate.Snapshot) {
	_, _ = fmt.Fprintf(w, "epoch %d (slot %d)\n", snapshot.Epoch, snapshot.Slot)

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetHeader([]string{"range", "participating", "total", "source", "target", "head", "inactivity"})
	for _, group := range snapshot.Groups {
		table.Append([]string{
			group.Label,
			strconv.FormatUint(group.Participating, 10),
			strconv.FormatUint(group.Total, 10),
			formatRatio(group, group.TimelySource),
			formatRatio(group, group.Participating),
			formatRatio(group, group.TimelyHead),
			formatMean(group, group.InactivityScoreSum),
		})
	}
	table.Render()
}

func formatRatio(group aggregate.GroupAggregate, count uint64) string {
	ratio, ok := group.Ratio(count)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", ratio*100)
}

func formatMean(group aggregate.GroupAggregate, sum uint64) string {
	mean, ok := group.Ratio(sum)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", mean)
}
