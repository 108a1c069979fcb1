package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/claimsimport/internal/config"
	"github.com/JonMunkholm/claimsimport/internal/core"
	"github.com/JonMunkholm/claimsimport/internal/database"
	"github.com/JonMunkholm/claimsimport/internal/export"
	"github.com/JonMunkholm/claimsimport/internal/filestore"
	"github.com/JonMunkholm/claimsimport/internal/ingest"
	"github.com/JonMunkholm/claimsimport/internal/logging"
	"github.com/JonMunkholm/claimsimport/internal/report"
	"github.com/JonMunkholm/claimsimport/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "claimsimport",
		Short:         "Healthcare claims import service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(initdbCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setup loads .env and the configuration and installs the logger.
func setup() (*config.Config, error) {
	// Overload lets .env win over the inherited environment.
	envErr := godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if envErr != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return cfg, nil
}

func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}

func newService(cfg *config.Config, pool *pgxpool.Pool) (*core.Service, *core.PgStore, error) {
	files, err := filestore.NewLocal(cfg.Storage.UploadDir)
	if err != nil {
		return nil, nil, err
	}
	store := core.NewPgStore(pool)
	svc := core.NewService(store, files, nil, serviceOptions(cfg))
	return svc, store, nil
}

func serviceOptions(cfg *config.Config) core.ServiceOptions {
	return core.ServiceOptions{
		Batch: core.BatchOptions{
			Grouping:         core.DiagnosisGrouping(strings.ToLower(cfg.Import.DiagnosisGrouping)),
			FailedSampleSize: cfg.Import.FailedSampleSize,
			SuccessThreshold: cfg.Import.SuccessThreshold,
		},
		Extract: ingest.Options{
			MaxBytes:   cfg.Upload.MaxFileSize,
			MaxColumns: cfg.Upload.MaxColumns,
		},
		SampleRows:     cfg.Upload.SampleRows,
		ProcessTimeout: cfg.Import.Timeout,
		MaxConcurrent:  cfg.Upload.MaxConcurrent,
		AcquireWait:    cfg.Upload.MaxWaitTime,
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the import API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			slog.Info("configuration loaded", "config", cfg.String())

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.EnsureSchema(ctx, pool); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}

			svc, store, err := newService(cfg, pool)
			if err != nil {
				return err
			}
			reports := report.NewBuilder(database.New(pool))
			server := web.NewServer(svc, reports, cfg.Server, cfg.Upload)

			if cfg.Sweep.Enabled {
				go core.RunStaleSweep(ctx, store, core.SweepConfig{
					Interval:   cfg.Sweep.Interval,
					StaleAfter: cfg.Sweep.StaleAfter,
				})
			}

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			slog.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if st := svc.LimiterStatus(); st.Active > 0 {
				slog.Info("waiting for batches to complete", "active", st.Active)
				if err := svc.Drain(shutdownCtx); err != nil {
					slog.Warn("batches did not complete in time", "error", err)
				}
			}
			return server.Shutdown(shutdownCtx)
		},
	}
}

func initdbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the database tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			pool, err := connect(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.EnsureSchema(cmd.Context(), pool); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			slog.Info("schema ready")
			return nil
		},
	}
}

func processCmd() *cobra.Command {
	var mappingFile string

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Upload and process a claims document",
		Long: `Upload a CSV, TSV, TXT or XLSX document and load it.

The mapping file is a JSON array of {"header", "final_mapping"} objects.
Without one the suggested mapping is used as is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			pool, err := connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc, _, err := newService(cfg, pool)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			up, err := svc.Upload(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return userError("upload", err)
			}

			mappings := suggestedMappings(up)
			if mappingFile != "" {
				if mappings, err = readMappings(mappingFile); err != nil {
					return err
				}
			}

			sum, err := svc.Process(ctx, up.ImportID, mappings, nil)
			if err != nil {
				return userError("process", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}

	cmd.Flags().StringVarP(&mappingFile, "mapping", "m", "", "JSON mapping file")
	return cmd
}

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <import-id>",
		Short: "Write the claims of an import to a Parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid import id %q: %w", args[0], err)
			}
			if output == "" {
				output = importID.String() + ".parquet"
			}

			cfg, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			pool, err := connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			f, err := os.Create(output)
			if err != nil {
				return err
			}

			n, err := export.Claims(ctx, database.New(pool), importID, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(output)
				return fmt.Errorf("export: %w", err)
			}

			slog.Info("export complete", "import_id", importID.String(), "claims", n, "path", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default <import-id>.parquet)")
	return cmd
}

// userError prefixes err with its user-facing message when one is known.
func userError(stage string, err error) error {
	if !core.IsUserFacing(err) {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return fmt.Errorf("%s: %s: %w", stage, core.FormatUserError(err), err)
}

// suggestedMappings turns upload suggestions into mapping entries.
func suggestedMappings(up *core.UploadResult) []core.MappingEntry {
	out := make([]core.MappingEntry, len(up.Suggestions))
	for i, s := range up.Suggestions {
		conf := s.Confidence
		out[i] = core.MappingEntry{
			Header:          s.Header,
			FinalMapping:    s.Target,
			Suggestion:      s.Suggested,
			ConfidenceScore: &conf,
		}
	}
	return out
}

func readMappings(path string) ([]core.MappingEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mappings []core.MappingEntry
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(mappings) == 0 {
		return nil, errors.New("mapping file has no entries")
	}
	return mappings, nil
}
