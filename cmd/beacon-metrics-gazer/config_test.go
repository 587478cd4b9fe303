package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/dapplion/beacon-metrics-gazer/pkg/ranges"
)

func TestNewExporterConfig(t *testing.T) {
	tests := []struct {
		name          string
		beaconURL     string
		inlineRanges  string
		rangesFile    string
		beaconHeaders []string
		listenAddress string
		pollInterval  time.Duration
		httpTimeout   time.Duration
		wantErr       bool
	}{
		{
			name:          "valid configuration",
			beaconURL:     "http://localhost:5052",
			inlineRanges:  "0-100 A",
			beaconHeaders: []string{"Authorization: Bearer token"},
			listenAddress: ":8080",
			pollInterval:  time.Minute,
			httpTimeout:   2 * time.Minute,
		},
		{
			name:          "ranges file",
			beaconURL:     "http://localhost:5052",
			rangesFile:    "ranges.txt",
			listenAddress: ":8080",
			pollInterval:  time.Minute,
			httpTimeout:   time.Minute,
		},
		{
			name:          "missing beacon url",
			inlineRanges:  "0-100 A",
			listenAddress: ":8080",
			pollInterval:  time.Minute,
			httpTimeout:   time.Minute,
			wantErr:       true,
		},
		{
			name:          "invalid beacon url",
			beaconURL:     "not a url",
			inlineRanges:  "0-100 A",
			listenAddress: ":8080",
			pollInterval:  time.Minute,
			httpTimeout:   time.Minute,
			wantErr:       true,
		},
		{
			name:          "zero poll interval",
			beaconURL:     "http://localhost:5052",
			inlineRanges:  "0-100 A",
			listenAddress: ":8080",
			httpTimeout:   time.Minute,
			wantErr:       true,
		},
		{
			name:          "malformed header",
			beaconURL:     "http://localhost:5052",
			inlineRanges:  "0-100 A",
			beaconHeaders: []string{"no-colon"},
			listenAddress: ":8080",
			pollInterval:  time.Minute,
			httpTimeout:   time.Minute,
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := NewExporterConfig(
				tt.beaconURL,
				tt.inlineRanges,
				tt.rangesFile,
				tt.beaconHeaders,
				tt.listenAddress,
				tt.pollInterval,
				tt.httpTimeout,
				false,
			)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.beaconURL, config.BeaconURL)
			assert.Equal(t, tt.inlineRanges, config.Ranges)
			assert.Equal(t, tt.rangesFile, config.RangesFile)
			assert.Equal(t, tt.pollInterval, config.PollInterval)
		})
	}
}

func TestNewExporterConfig_RangesSource(t *testing.T) {
	_, err := NewExporterConfig("http://localhost:5052", "", "", nil, ":8080", time.Minute, time.Minute, false)
	assert.ErrorIs(t, err, ranges.ErrNoSource)

	_, err = NewExporterConfig(
		"http://localhost:5052", "0-2 A", "ranges.txt", nil, ":8080", time.Minute, time.Minute, false,
	)
	assert.ErrorIs(t, err, ranges.ErrConflictingSources)
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"Authorization: Bearer a:b", "X-Api-Key:secret", " X-Empty : "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Authorization": "Bearer a:b",
		"X-Api-Key":     "secret",
		"X-Empty":       "",
	}, headers)

	for _, header := range []string{"no separator", ": value"} {
		_, err = parseHeaders([]string{header})
		assert.Error(t, err, header)
	}
}

func TestNewExporterConfigFromCLI(t *testing.T) {
	var config *ExporterConfig
	app := &cli.App{
		Flags:                     exporterFlags(),
		DisableSliceFlagSeparator: true,
		Action: func(c *cli.Context) error {
			var err error
			config, err = NewExporterConfigFromCLI(c)
			return err
		},
	}

	err := app.Run([]string{
		"beacon-metrics-gazer",
		"--ranges", "0-2 A\n2-4 B",
		"--beacon-header", "Authorization: Bearer a,b",
		"--beacon-header", "X-Client: gazer",
		"--dump",
		"http://localhost:5052",
	})
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "http://localhost:5052", config.BeaconURL)
	assert.Equal(t, "0-2 A\n2-4 B", config.Ranges)
	assert.Equal(t, map[string]string{"Authorization": "Bearer a,b", "X-Client": "gazer"}, config.BeaconHeaders)
	assert.Equal(t, ":8080", config.ListenAddress)
	assert.Equal(t, 60*time.Second, config.PollInterval)
	assert.Equal(t, 2*time.Minute, config.HttpTimeout)
	assert.True(t, config.Dump)
}

func TestNewExporterConfigFromCLI_FlagWinsOverArg(t *testing.T) {
	var config *ExporterConfig
	app := &cli.App{
		Flags: exporterFlags(),
		Action: func(c *cli.Context) error {
			var err error
			config, err = NewExporterConfigFromCLI(c)
			return err
		},
	}

	err := app.Run([]string{
		"beacon-metrics-gazer", "--beacon-url", "http://beacon:5052", "--ranges-file", "ranges.txt",
		"--poll-interval", "12s", "http://ignored:5052",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://beacon:5052", config.BeaconURL)
	assert.Equal(t, 12*time.Second, config.PollInterval)
}
