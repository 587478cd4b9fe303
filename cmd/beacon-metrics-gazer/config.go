package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v2"

	"github.com/dapplion/beacon-metrics-gazer/pkg/ranges"
	"github.com/dapplion/beacon-metrics-gazer/pkg/slog"
)

const (
	beaconURLFlag     = "beacon-url"
	rangesFlag        = "ranges"
	rangesFileFlag    = "ranges-file"
	beaconHeaderFlag  = "beacon-header"
	listenAddressFlag = "listen-address"
	pollIntervalFlag  = "poll-interval"
	httpTimeoutFlag   = "http-timeout"
	dumpFlag          = "dump"
)

type ExporterConfig struct {
	BeaconURL     string `validate:"required,url"`
	Ranges        string
	RangesFile    string
	BeaconHeaders map[string]string
	ListenAddress string        `validate:"required"`
	PollInterval  time.Duration `validate:"gt=0"`
	HttpTimeout   time.Duration `validate:"gt=0"`
	Dump          bool
}

func NewExporterConfig(
	beaconURL string,
	inlineRanges string,
	rangesFile string,
	beaconHeaders []string,
	listenAddress string,
	pollInterval time.Duration,
	httpTimeout time.Duration,
	dump bool,
) (*ExporterConfig, error) {
	logger := slog.Get()
	logger.Infow(
		"Setting up export config with ",
		"beaconURL", beaconURL,
		"rangesFile", rangesFile,
		"inlineRanges", inlineRanges != "",
		"beaconHeaders", len(beaconHeaders),
		"listenAddress", listenAddress,
		"pollInterval", pollInterval,
		"httpTimeout", httpTimeout,
		"dump", dump,
	)

	if err := ranges.CheckSource(inlineRanges, rangesFile); err != nil {
		return nil, fmt.Errorf("'-%s' / '-%s': %w", rangesFlag, rangesFileFlag, err)
	}
	headers, err := parseHeaders(beaconHeaders)
	if err != nil {
		return nil, err
	}

	config := ExporterConfig{
		BeaconURL:     beaconURL,
		Ranges:        inlineRanges,
		RangesFile:    rangesFile,
		BeaconHeaders: headers,
		ListenAddress: listenAddress,
		PollInterval:  pollInterval,
		HttpTimeout:   httpTimeout,
		Dump:          dump,
	}
	if err = validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// parseHeaders reads "Key: Value" pairs. Values are kept verbatim apart from surrounding spaces.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, header := range raw {
		key, value, ok := strings.Cut(header, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid '-%s' %q, expected 'Key: Value'", beaconHeaderFlag, header)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

func exporterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    beaconURLFlag,
			Usage:   "Beacon node HTTP API URL, e.g. 'http://localhost:5052'. May also be given as the first argument.",
			EnvVars: []string{"BEACON_URL"},
		},
		&cli.StringFlag{
			Name: rangesFlag,
			Usage: "Inline range definitions as JSON, YAML or '<range> <label>' lines, " +
				"e.g. '0-1000 lighthouse'. Mutually exclusive with --" + rangesFileFlag + ".",
			EnvVars: []string{"RANGES"},
		},
		&cli.StringFlag{
			Name:    rangesFileFlag,
			Usage:   "Local path or http(s) URL of a file with range definitions.",
			EnvVars: []string{"RANGES_FILE"},
		},
		&cli.StringSliceFlag{
			Name:  beaconHeaderFlag,
			Usage: "Extra 'Key: Value' header sent to the beacon node - can be set multiple times.",
		},
		&cli.StringFlag{
			Name:    listenAddressFlag,
			Usage:   "Listen address of the metrics server.",
			Value:   ":8080",
			EnvVars: []string{"LISTEN_ADDRESS"},
		},
		&cli.DurationFlag{
			Name:    pollIntervalFlag,
			Usage:   "Time between two participation polls.",
			Value:   60 * time.Second,
			EnvVars: []string{"POLL_INTERVAL"},
		},
		&cli.DurationFlag{
			Name:    httpTimeoutFlag,
			Usage:   "Timeout of every beacon node request. Beacon states are large, keep this generous.",
			Value:   2 * time.Minute,
			EnvVars: []string{"HTTP_TIMEOUT"},
		},
		&cli.BoolFlag{
			Name:    dumpFlag,
			Usage:   "Print a table of the aggregated participation to stderr after every poll.",
			EnvVars: []string{"DUMP"},
		},
	}
}

func NewExporterConfigFromCLI(c *cli.Context) (*ExporterConfig, error) {
	beaconURL := c.String(beaconURLFlag)
	if beaconURL == "" {
		beaconURL = c.Args().First()
	}
	return NewExporterConfig(
		beaconURL,
		c.String(rangesFlag),
		c.String(rangesFileFlag),
		c.StringSlice(beaconHeaderFlag),
		c.String(listenAddressFlag),
		c.Duration(pollIntervalFlag),
		c.Duration(httpTimeoutFlag),
		c.Bool(dumpFlag),
	)
}
