package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSnapshotTable(t *testing.T) {
	var buffer bytes.Buffer
	WriteSnapshotTable(&buffer, testSnapshot)

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "epoch 7 (slot 250)", lines[0])
	assert.Contains(t, lines[1], "participating")

	output := buffer.String()
	// A: 1 of 2 target, 1 of 2 source, 2 of 2 head, mean inactivity 3
	assert.Contains(t, output, "50.00%")
	assert.Contains(t, output, "100.00%")
	assert.Contains(t, output, "3.00")

	var rowB string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "B ") {
			rowB = line
		}
	}
	require.NotEmpty(t, rowB)
	// an empty group has no ratios
	assert.Contains(t, rowB, "-")
	assert.NotContains(t, rowB, "%")
}
