package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"refdatasync/internal/application/service/pipeline"
	"refdatasync/internal/bootstrap"
	"refdatasync/internal/config"
	domain "refdatasync/internal/domain/entity/refdata"
	"refdatasync/internal/infrastructure/exchanges"
	"refdatasync/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		logger := logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.WithError(err).Error("refdata failed")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "refdata",
		Usage: "reconcile exchange listings with the reference database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "optional config file (yaml, toml or json)",
				EnvVars: []string{"REFDATA_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			syncCommand(),
			sourcesCommand(),
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "insert new assets and symbols, or audit delisted symbols",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "exchange", Usage: "exchange to reconcile", Required: true},
			&cli.BoolFlag{Name: "check-db-instruments", Usage: "audit persisted symbols instead of inserting"},
			&cli.BoolFlag{Name: "dry-run", Usage: "print the intended changes without writing"},
			&cli.BoolFlag{Name: "download-assets", Usage: "merge and persist assets from every source first"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			logger := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})

			rt := bootstrap.New(c.Context, cfg, logger)
			defer rt.Close()
			rt.Service.SetDryRunOutput(c.App.Writer)

			report, err := rt.Service.Run(c.Context, pipeline.RunOptions{
				Exchange:       c.String("exchange"),
				Audit:          c.Bool("check-db-instruments"),
				DryRun:         c.Bool("dry-run"),
				DownloadAssets: c.Bool("download-assets"),
			})
			if err != nil {
				return err
			}
			printSummary(c.App.Writer, report)
			return nil
		},
	}
}

func sourcesCommand() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "list the configured exchange adapters in asset merge order",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			logger := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
			registry := exchanges.NewRegistry(cfg.Exchanges, exchanges.NewFetcher(cfg.HTTPTimeout), logger)
			printSources(c.App.Writer, registry.Sources())
			return nil
		},
	}
}

func printSources(w io.Writer, sources []exchanges.SourceInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXCHANGE\tID\tENDPOINTS")
	for _, s := range sources {
		id := s.ExchangeID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, id, strings.Join(s.URLs, ","))
	}
	_ = tw.Flush()
}

func printSummary(w io.Writer, report *domain.Report) {
	mode := string(report.Mode)
	if report.DryRun {
		mode += " (dry run)"
	}
	fmt.Fprintf(w, "run %s  %s  %s  %s\n", report.RunID, report.Exchange, mode, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "sources read: %s\n", strings.Join(report.SourcesRead, ", "))

	fmt.Fprintf(w, "assets inserted: %d\n", len(report.AssetsInserted))
	for _, a := range report.AssetsInserted {
		fmt.Fprintf(w, "  + %s (%s)\n", a.Code, a.Type)
	}
	printFailures(w, "asset failures", report.AssetFailures)

	fmt.Fprintf(w, "symbols inserted: %d\n", len(report.SymbolsInserted))
	for _, s := range report.SymbolsInserted {
		fmt.Fprintf(w, "  + %s %s (%s)\n", s.PairCode, s.Symbol, s.Type)
	}
	printFailures(w, "symbol failures", report.SymbolFailures)

	fmt.Fprintf(w, "symbols rejected: %d\n", len(report.Rejected))
	for _, r := range report.Rejected {
		fmt.Fprintf(w, "  - %s %s: %s [%s]\n", r.PairCode, r.Symbol, r.Reason, strings.Join(r.MissingAssets, ","))
	}

	fmt.Fprintf(w, "state transitions: %d\n", len(report.Transitions))
	for _, t := range report.Transitions {
		fmt.Fprintf(w, "  ~ %s %s: %d -> %d (%s)\n", t.InstrumentID, t.PairCode, t.From, t.To, t.Label)
	}
	printFailures(w, "transition failures", report.TransitionFailures)
}

func printFailures(w io.Writer, title string, failures []domain.Failure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "%s: %d\n", title, len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "  ! %s: %s\n", f.Key, f.Error)
	}
}
