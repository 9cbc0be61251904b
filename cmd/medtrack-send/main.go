// Command medtrack-send replays JSON lines from stdin through the tracker.
//
// Each line is {"event": "...", "properties": {...}}. A line with a "page"
// field navigates before tracking; a line with only "page" records the route change.
package main

import (
	"errors"
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/leshachaplin/medtrack/app"
	"github.com/leshachaplin/medtrack/internal/config"
	"github.com/leshachaplin/medtrack/internal/tracker"
	"github.com/leshachaplin/medtrack/internal/worker/redpanda/producer"
)

type line struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
	Page       string         `json:"page"`
	Title      string         `json:"title"`
	UserID     string         `json:"userId"`
}

type options struct {
	configPath   string
	pageURL      string
	reportTopic  string
	reportBroker []string
	closeTimeout time.Duration
	logLevel     string
}

func main() {
	if err := run(os.Args[1:], os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader) error {
	var opts options
	flagSet := pflag.NewFlagSet("medtrack-send", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file (tracker and sender sections)")
	flagSet.StringVar(&opts.pageURL, "url", "https://example.com/", "initial page URL")
	flagSet.StringSliceVar(&opts.reportBroker, "report-brokers", nil, "brokers for the secondary report topic")
	flagSet.StringVar(&opts.reportTopic, "report-topic", "medtrack-reports", "secondary report topic")
	flagSet.DurationVar(&opts.closeTimeout, "close-timeout", 30*time.Second, "time to wait for pending deliveries on exit")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level override")
	endpoint := flagSet.String("endpoint", "", "collector endpoint override")
	threshold := flagSet.Int("threshold", 0, "flush threshold override")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if *endpoint != "" {
		cfg.Sender.Endpoint = *endpoint
	}
	if *threshold > 0 {
		cfg.Tracker.FlushThreshold = *threshold
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	logger := app.NewZeroLogger(app.Level(cfg.LogLevel))
	ctx := context.Background()

	page, err := tracker.NewPage(opts.pageURL, tracker.WithUserAgent("medtrack-send"))
	if err != nil {
		return fmt.Errorf("initial page: %w", err)
	}

	var trackerOpts []tracker.Option
	if len(opts.reportBroker) > 0 {
		reports, err := producer.NewProducer(ctx, producer.Config{
			Brokers: opts.reportBroker,
			Topic:   opts.reportTopic,
		}, logger.With().Str("producer", "report").Logger())
		if err != nil {
			return fmt.Errorf("setup report producer: %w", err)
		}
		defer reports.Close()
		trackerOpts = append(trackerOpts, tracker.WithReporter(tracker.NewPublisherReporter(reports)))
	}

	sender := tracker.NewHTTPSender(cfg.Sender, logger.With().Str("sender", "http").Logger())
	t := tracker.New(ctx, cfg.Tracker, sender, page, logger, trackerOpts...)

	if err = replay(in, t, page, logger); err != nil {
		return err
	}

	closeCtx, cancel := context.WithTimeout(ctx, opts.closeTimeout)
	defer cancel()
	return t.Close(closeCtx)
}

func replay(in io.Reader, t *tracker.Tracker, page *tracker.Page, logger zerolog.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for scanner.Scan() {
		n++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			logger.Warn().Err(err).Int("line", n).Msg("skipping malformed line")
			continue
		}
		if l.UserID != "" {
			t.SetUserID(l.UserID)
		}
		if l.Page != "" {
			if err := page.Navigate(l.Page, l.Title); err != nil {
				logger.Warn().Err(err).Int("line", n).Msg("skipping bad page")
				continue
			}
			t.RouteChanged()
		}
		if l.Event != "" {
			t.Track(l.Event, l.Properties)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	logger.Debug().Int("pending", len(t.Pending())).Msg("input drained")
	return nil
}
