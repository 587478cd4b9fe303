// Package beacon reads per-validator epoch participation from an Ethereum beacon node.
package beacon

import (
	"context"
	"fmt"
)

// ParticipationFlags holds the Altair participation bits of one validator.
type ParticipationFlags uint8

const (
	TimelySource ParticipationFlags = 1 << iota
	TimelyTarget
	TimelyHead
)

type (
	// Record is the participation of one validator in one epoch.
	Record struct {
		Index uint64
		// Participated is true when the validator's target vote was included in time.
		Participated    bool
		Flags           ParticipationFlags
		InactivityScore uint64
	}

	// Participation is the result of one poll: every validator's record for Epoch, read from
	// the state at Slot.
	Participation struct {
		Epoch   uint64
		Slot    uint64
		Records []Record
	}

	// Provider fetches the most recent epoch whose participation flags are final.
	Provider interface {
		GetParticipation(ctx context.Context) (*Participation, error)
	}

	// StatusError is returned when the beacon node answers with a non-success status.
	StatusError struct {
		Method     string
		StatusCode int
		Err        error
	}
)

// Has reports whether every bit of flag is set.
func (f ParticipationFlags) Has(flag ParticipationFlags) bool {
	return f&flag == flag
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %v", e.Method, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewRecord builds the record of validator index from its raw flags.
func NewRecord(index uint64, flags ParticipationFlags, inactivityScore uint64) Record {
	return Record{
		Index:           index,
		Participated:    flags.Has(TimelyTarget),
		Flags:           flags,
		InactivityScore: inactivityScore,
	}
}
