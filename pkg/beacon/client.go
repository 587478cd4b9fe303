package beacon

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/attestantio/go-eth2-client/api"
	eth2http "github.com/attestantio/go-eth2-client/http"
	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/dapplion/beacon-metrics-gazer/pkg/slog"
)

const headState = "head"

type (
	Client struct {
		service       *eth2http.Service
		slotsPerEpoch uint64
		logger        *zap.SugaredLogger
	}

	ClientConfig struct {
		URL string
		// Timeout bounds every request to the beacon node.
		Timeout time.Duration
		// Headers are sent verbatim with every request, e.g. for authenticated endpoints.
		Headers map[string]string
	}
)

// NewClient connects to the beacon node and reads the chain constants needed to place a state
// in its epoch.
func NewClient(ctx context.Context, config ClientConfig) (*Client, error) {
	logger := slog.Get()

	params := []eth2http.Parameter{
		eth2http.WithAddress(config.URL),
		// go-eth2-client logs through zerolog; only its warnings are worth surfacing
		eth2http.WithLogLevel(zerolog.WarnLevel),
	}
	if config.Timeout > 0 {
		params = append(params, eth2http.WithTimeout(config.Timeout))
	}
	if len(config.Headers) > 0 {
		params = append(params, eth2http.WithExtraHeaders(config.Headers))
	}

	service, err := eth2http.New(ctx, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to beacon node: %w", err)
	}
	client := &Client{service: service.(*eth2http.Service), logger: logger}

	specResp, err := client.service.Spec(ctx, &api.SpecOpts{})
	if err != nil {
		return nil, wrapError("spec", err)
	}
	if client.slotsPerEpoch, err = slotsPerEpoch(specResp.Data); err != nil {
		return nil, err
	}

	genesis, err := client.service.Genesis(ctx, &api.GenesisOpts{})
	if err != nil {
		return nil, wrapError("genesis", err)
	}
	logger.Infof(
		"Connected to beacon node %s (genesis %s, %d slots per epoch)",
		client.service.Address(), genesis.Data.GenesisTime.UTC().Format(time.RFC3339), client.slotsPerEpoch,
	)
	return client, nil
}

// GetParticipation downloads the head state and returns its previous epoch participation.
func (c *Client) GetParticipation(ctx context.Context) (*Participation, error) {
	start := time.Now()
	resp, err := c.service.BeaconState(ctx, &api.BeaconStateOpts{State: headState})
	if err != nil {
		return nil, wrapError("beacon state", err)
	}
	c.logger.Debugf("Fetched %s state in %s", headState, time.Since(start))

	participation, err := participationFromState(resp.Data, c.slotsPerEpoch)
	if err != nil {
		return nil, fmt.Errorf("failed to read participation: %w", err)
	}
	return participation, nil
}

func slotsPerEpoch(config map[string]any) (uint64, error) {
	raw, ok := config["SLOTS_PER_EPOCH"]
	if !ok {
		return 0, errors.New("SLOTS_PER_EPOCH missing from beacon node spec")
	}

	var value uint64
	switch v := raw.(type) {
	case uint64:
		value = v
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid SLOTS_PER_EPOCH %q: %w", v, err)
		}
		value = parsed
	default:
		return 0, fmt.Errorf("unexpected SLOTS_PER_EPOCH type %T", raw)
	}
	if value == 0 {
		return 0, errors.New("SLOTS_PER_EPOCH must be positive")
	}
	return value, nil
}

func wrapError(method string, err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return &StatusError{Method: method, StatusCode: apiErr.StatusCode, Err: err}
	}
	return fmt.Errorf("%s request failed: %w", method, err)
}
