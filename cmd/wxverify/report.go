package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/weather-verify-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/weather-verify-service/internal/config"
	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/couchcryptid/weather-verify-service/internal/observability"
	"github.com/couchcryptid/weather-verify-service/internal/pipeline"
	"github.com/couchcryptid/weather-verify-service/internal/render"
	"github.com/spf13/cobra"
)

type reportFlags struct {
	place   string
	date    string
	format  string
	out     string
	timeout time.Duration
}

func newReportCmd(global *globalFlags) *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Verify rainfall for a place on a past date",
		Example: `  wxverify report --place London --date 2024-05-01
  wxverify report --place Phoenix --date 2024-06-01 --format json --out ./reports/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, global, flags)
		},
	}

	cmd.Flags().StringVar(&flags.place, "place", "", "place name to verify (required)")
	cmd.Flags().StringVar(&flags.date, "date", "", "incident date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&flags.format, "format", render.FormatText, "output format: text|json")
	cmd.Flags().StringVar(&flags.out, "out", "", "write to this file, or into this directory using the suggested file name")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "overall deadline for the verification")
	_ = cmd.MarkFlagRequired("place")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func runReport(cmd *cobra.Command, global *globalFlags, flags reportFlags) error {
	renderer, err := render.For(flags.format)
	if err != nil {
		return err
	}
	date, err := domain.ParseIncidentDate(flags.date)
	if err != nil {
		return err
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), global.logLevel, global.logFormat)
	metrics := observability.NewLocalMetrics()

	geocoder := openmeteo.NewGeocodingClient(openmeteo.Settings{
		BaseURL:    cfg.GeocodingURL,
		Timeout:    cfg.UpstreamTimeout,
		RatePerSec: cfg.UpstreamRate,
	}, metrics, logger)
	archive := openmeteo.NewArchiveClient(openmeteo.Settings{
		BaseURL:    cfg.ArchiveURL,
		Timeout:    cfg.UpstreamTimeout,
		RatePerSec: cfg.UpstreamRate,
	}, metrics, logger)
	p := pipeline.New(geocoder, archive, logger, metrics, pipeline.WithHistoryDays(cfg.HistoryDays))

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()

	// The local operator always gets the full document.
	report, err := p.Verify(ctx, pipeline.Request{Place: flags.place, Date: date, Access: domain.AccessFull})
	if err != nil {
		var f *pipeline.Failure
		if errors.As(err, &f) {
			return fmt.Errorf("%s: %w", f.Kind(), f.Err)
		}
		return err
	}

	path, err := render.RenderTo(cmd.OutOrStdout(), flags.out, report, renderer)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", path)
	}
	return nil
}
