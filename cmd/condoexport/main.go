package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/condoexport/internal/acquire"
	"github.com/mtlprog/condoexport/internal/aggregate"
	"github.com/mtlprog/condoexport/internal/cache"
	"github.com/mtlprog/condoexport/internal/condoweb"
	"github.com/mtlprog/condoexport/internal/config"
	"github.com/mtlprog/condoexport/internal/database"
	"github.com/mtlprog/condoexport/internal/export"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	if err := newApp(cfg).RunContext(ctx, os.Args); err != nil {
		var statusErr *condoweb.StatusError
		if errors.As(err, &statusErr) {
			log.Fatalf("Request failed with HTTP %d from %s: %s", statusErr.StatusCode, statusErr.Path, statusErr.Body)
		}
		log.Fatalf("Error: %v", err)
	}
}

func newApp(cfg config.Config) *cli.App {
	return &cli.App{
		Name:  "condoexport",
		Usage: "mirror CondoWeb financial data to a local cache and export it as tables",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "debug logging and one line per resource"},
			&cli.StringFlag{Name: "cache-dir", Value: cfg.CacheDir, Usage: "cache root directory"},
		},
		Before: func(cCtx *cli.Context) error {
			setupLogging(cCtx.Bool("verbose"))
			return nil
		},
		Commands: []*cli.Command{
			scrapeCommand(cfg),
			tabulateCommand(cfg),
		},
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func scrapeCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "download every reachable financial resource into the cache",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", EnvVars: []string{"CONDOWEB_TOKEN"}, Required: true, Usage: "API session token"},
			&cli.StringFlag{Name: "manager-slug", EnvVars: []string{"CONDOWEB_MANAGER_SLUG"}, Required: true, Usage: "management company subdomain"},
			&cli.StringFlag{Name: "manager-id", EnvVars: []string{"CONDOWEB_MANAGER_ID"}, Required: true, Usage: "management company id"},
			&cli.StringFlag{Name: "association-id", EnvVars: []string{"CONDOWEB_ASSOCIATION_ID"}, Required: true, Usage: "association id"},
			&cli.StringFlag{Name: "base-url", Value: cfg.BaseURLTemplate, Usage: "API base URL; %s is replaced by the manager slug"},
			&cli.DurationFlag{Name: "delay", Value: cfg.RequestDelay, Usage: "pause after each statement or transaction fetch"},
			&cli.DurationFlag{Name: "timeout", Value: cfg.HTTPTimeout, Usage: "per-request timeout"},
			&cli.BoolFlag{Name: "verbose", Usage: "debug logging and one line per resource"},
		},
		Action: func(cCtx *cli.Context) error {
			// --verbose may be given before or after the subcommand name.
			verbose := lo.ContainsBy(cCtx.Lineage(), func(c *cli.Context) bool { return c.Bool("verbose") })
			if verbose {
				setupLogging(true)
			}

			creds := condoweb.Credentials{
				Token:         cCtx.String("token"),
				ManagerSlug:   cCtx.String("manager-slug"),
				ManagerID:     cCtx.String("manager-id"),
				AssociationID: cCtx.String("association-id"),
			}
			client := condoweb.NewClient(
				condoweb.BaseURL(cCtx.String("base-url"), creds.ManagerSlug),
				creds,
				cCtx.Duration("timeout"),
			)

			var progress acquire.Progress = acquire.NewDotProgress(os.Stdout)
			if verbose {
				progress = acquire.NewLogProgress(slog.Default())
			}

			store := cache.NewFileStore(cCtx.String("cache-dir"))
			svc := acquire.NewService(client, store, cCtx.Duration("delay"), progress)

			stats, err := svc.Run(cCtx.Context)
			if err != nil {
				return err
			}
			slog.Info("scrape completed",
				"cache", store.Root(),
				"fetched", stats.Fetched,
				"cached", stats.Cached,
				"statements", stats.Statements,
				"transactions", stats.Transactions,
			)
			return nil
		},
	}
}

func tabulateCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "tabulate",
		Usage: "build CSV tables (and optional other sinks) from the cache",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out-dir", Value: cfg.ExportDir, Usage: "CSV export directory"},
			&cli.StringFlag{Name: "xlsx", Usage: "also write every table into this workbook"},
			&cli.BoolFlag{Name: "strict", Usage: "fail on any integrity anomaly before writing"},
			&cli.StringFlag{Name: "database-url", Value: cfg.DatabaseURL, Usage: "also load tables into PostgreSQL"},
			&cli.StringFlag{Name: "spreadsheet-id", Value: cfg.SpreadsheetID, Usage: "also push tables to this Google spreadsheet"},
			&cli.StringFlag{Name: "google-credentials", Value: cfg.GoogleCredentialsJSON, Usage: "service account JSON for Google Sheets"},
		},
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			store := cache.NewFileStore(cCtx.String("cache-dir"))
			result, err := aggregate.NewService(store).Aggregate()
			if err != nil {
				return err
			}
			slog.Info("cache aggregated", "cache", store.Root(), "tables", len(result.Tables()))
			if len(result.Anomalies) > 0 {
				slog.Warn("integrity anomalies found", "count", len(result.Anomalies))
				if cCtx.Bool("strict") {
					return result.Err()
				}
			}

			writers := []export.TableWriter{export.NewCSVWriter(cCtx.String("out-dir"))}

			if path := cCtx.String("xlsx"); path != "" {
				writers = append(writers, export.NewXLSXWriter(path))
			}

			if id := cCtx.String("spreadsheet-id"); id != "" {
				sw, err := export.NewSheetsWriter(ctx, id, cCtx.String("google-credentials"), cfg.SheetsMaxRows)
				if err != nil {
					return fmt.Errorf("creating sheets writer: %w", err)
				}
				writers = append(writers, sw)
			}

			if dbURL := cCtx.String("database-url"); dbURL != "" {
				pool, err := database.Connect(ctx, dbURL)
				if err != nil {
					return err
				}
				defer pool.Close()

				migrationsSub, err := fs.Sub(migrationsFS, "migrations")
				if err != nil {
					return fmt.Errorf("creating migrations sub-fs: %w", err)
				}
				if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
					return err
				}
				writers = append(writers, export.NewPgWriter(pool))
			}

			return export.NewService(writers...).Export(ctx, result.Tables())
		},
	}
}
