// Package ranges turns human-authored range definitions into a validated table mapping
// validator indices to group labels.
package ranges

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type (
	// Range is a half-open interval of validator indices [Start, End) mapped to Label.
	Range struct {
		Start uint64
		End   uint64
		Label string
	}

	// Table is an immutable, non-overlapping set of ranges. Ranges keep their input order for
	// display; lookups go through a start-sorted copy.
	Table struct {
		ranges []Range
		sorted []Range
		labels []string
	}
)

var (
	multiRangePattern  = regexp.MustCompile(`^[\[(]?\s*(\d+)\s*(?:\.{2,3}|-)\s*(\d+)\s*[\])]?:?$`)
	singleRangePattern = regexp.MustCompile(`^(\d+):?$`)
)

func (r Range) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Contains reports whether index falls inside the range.
func (r Range) Contains(index uint64) bool {
	return index >= r.Start && index < r.End
}

// Size returns the number of indices covered by the range.
func (r Range) Size() uint64 {
	return r.End - r.Start
}

func (r Range) overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// NewTable validates ranges and builds a Table. Every range must be non-empty, carry a label
// and not overlap any range accepted before it; the first violation fails the whole table.
func NewTable(ranges []Range) (*Table, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("no ranges defined")
	}

	table := &Table{ranges: make([]Range, 0, len(ranges))}
	seenLabels := make(map[string]struct{})
	for _, r := range ranges {
		if r.Start >= r.End {
			return nil, fmt.Errorf("range %s is empty: start must be lower than end", r)
		}
		if r.Label == "" {
			return nil, fmt.Errorf("range %s has an empty label", r)
		}
		for _, accepted := range table.ranges {
			if r.overlaps(accepted) {
				return nil, fmt.Errorf(
					"range %s (%q) overlaps range %s (%q)", r, r.Label, accepted, accepted.Label,
				)
			}
		}
		table.ranges = append(table.ranges, r)
		if _, ok := seenLabels[r.Label]; !ok {
			seenLabels[r.Label] = struct{}{}
			table.labels = append(table.labels, r.Label)
		}
	}

	table.sorted = make([]Range, len(table.ranges))
	copy(table.sorted, table.ranges)
	sort.Slice(table.sorted, func(i, j int) bool { return table.sorted[i].Start < table.sorted[j].Start })
	return table, nil
}

// Ranges returns a copy of the ranges in input order.
func (t *Table) Ranges() []Range {
	out := make([]Range, len(t.ranges))
	copy(out, t.ranges)
	return out
}

// Labels returns the distinct labels in order of first appearance.
func (t *Table) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Len returns the number of ranges.
func (t *Table) Len() int {
	return len(t.ranges)
}

// Lookup returns the label of the range containing index.
func (t *Table) Lookup(index uint64) (string, bool) {
	// first range whose end lies beyond index; ranges don't overlap so it is the only candidate
	i := sort.Search(len(t.sorted), func(i int) bool { return t.sorted[i].End > index })
	if i < len(t.sorted) && t.sorted[i].Contains(index) {
		return t.sorted[i].Label, true
	}
	return "", false
}

// ParseRange parses a range written as "0..10", "0-10", "0...10", "[0..10]", "(0..10)",
// "[0-10)" or "0..10:". A single index "10" or "10:" yields 10..11.
func ParseRange(input string) (uint64, uint64, error) {
	trimmed := strings.TrimSpace(input)
	if c := multiRangePattern.FindStringSubmatch(trimmed); c != nil {
		start, err := strconv.ParseUint(c[1], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range start in %q: %w", input, err)
		}
		end, err := strconv.ParseUint(c[2], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range end in %q: %w", input, err)
		}
		return start, end, nil
	}
	if c := singleRangePattern.FindStringSubmatch(trimmed); c != nil {
		index, err := strconv.ParseUint(c[1], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid index in %q: %w", input, err)
		}
		if index == ^uint64(0) {
			return 0, 0, fmt.Errorf("index %q out of bounds", input)
		}
		return index, index + 1, nil
	}
	return 0, 0, fmt.Errorf("invalid range format: %q", input)
}

func newRange(rangeStr, label string) (Range, error) {
	start, end, err := ParseRange(rangeStr)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end, Label: strings.TrimSpace(label)}, nil
}
