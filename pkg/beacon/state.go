package beacon

import (
	"errors"
	"fmt"

	"github.com/attestantio/go-eth2-client/spec"
	"github.com/attestantio/go-eth2-client/spec/altair"
	"github.com/attestantio/go-eth2-client/spec/phase0"
)

var ErrUnsupportedFork = errors.New("state fork has no participation flags")

// participationFromState reads previous_epoch_participation, the latest epoch whose flags can no
// longer change, together with the inactivity scores of the same state.
func participationFromState(state *spec.VersionedBeaconState, slotsPerEpoch uint64) (*Participation, error) {
	if state == nil {
		return nil, errors.New("empty beacon state")
	}
	if slotsPerEpoch == 0 {
		return nil, errors.New("slots per epoch must be positive")
	}

	var (
		slot   phase0.Slot
		flags  []altair.ParticipationFlags
		scores []uint64
	)
	switch state.Version {
	case spec.DataVersionAltair:
		if state.Altair == nil {
			return nil, missingState(state.Version)
		}
		slot, flags, scores = state.Altair.Slot, state.Altair.PreviousEpochParticipation, state.Altair.InactivityScores
	case spec.DataVersionBellatrix:
		if state.Bellatrix == nil {
			return nil, missingState(state.Version)
		}
		slot, flags, scores = state.Bellatrix.Slot, state.Bellatrix.PreviousEpochParticipation, state.Bellatrix.InactivityScores
	case spec.DataVersionCapella:
		if state.Capella == nil {
			return nil, missingState(state.Version)
		}
		slot, flags, scores = state.Capella.Slot, state.Capella.PreviousEpochParticipation, state.Capella.InactivityScores
	case spec.DataVersionDeneb:
		if state.Deneb == nil {
			return nil, missingState(state.Version)
		}
		slot, flags, scores = state.Deneb.Slot, state.Deneb.PreviousEpochParticipation, state.Deneb.InactivityScores
	case spec.DataVersionElectra:
		if state.Electra == nil {
			return nil, missingState(state.Version)
		}
		slot, flags, scores = state.Electra.Slot, state.Electra.PreviousEpochParticipation, state.Electra.InactivityScores
	case spec.DataVersionFulu:
		if state.Fulu == nil {
			return nil, missingState(state.Version)
		}
		slot, flags, scores = state.Fulu.Slot, state.Fulu.PreviousEpochParticipation, state.Fulu.InactivityScores
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFork, state.Version)
	}

	return buildParticipation(uint64(slot), flags, scores, slotsPerEpoch), nil
}

func buildParticipation(
	slot uint64, flags []altair.ParticipationFlags, scores []uint64, slotsPerEpoch uint64,
) *Participation {
	epoch := slot / slotsPerEpoch
	// previous epoch, which is the genesis epoch itself during the first epoch
	if epoch > 0 {
		epoch--
	}

	records := make([]Record, len(flags))
	for i, f := range flags {
		var score uint64
		if i < len(scores) {
			score = scores[i]
		}
		records[i] = NewRecord(uint64(i), ParticipationFlags(f), score)
	}
	return &Participation{Epoch: epoch, Slot: slot, Records: records}
}

func missingState(version spec.DataVersion) error {
	return fmt.Errorf("%s state announced but not present", version)
}
