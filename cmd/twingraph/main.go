// Command twingraph is the batch-oriented front end to the extraction
// pipeline: it extracts twin packages to batch files, imports batch files
// into the graph store, and runs the fixed analytics.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/twingraph/internal/util"
	"github.com/OFFIS-RIT/twingraph/pkg/extract"
	"github.com/OFFIS-RIT/twingraph/pkg/graph"
	"github.com/OFFIS-RIT/twingraph/pkg/logger"
	"github.com/OFFIS-RIT/twingraph/pkg/logger/console"
	"github.com/OFFIS-RIT/twingraph/pkg/query"
	querypgx "github.com/OFFIS-RIT/twingraph/pkg/query/pgx"
	"github.com/OFFIS-RIT/twingraph/pkg/store"
	storepgx "github.com/OFFIS-RIT/twingraph/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(console.NewConsoleBackend(console.ConsoleBackendParams{
		Debug: debug,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "twingraph",
		Short:         "Extract digital twin packages into a property graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newExtractCmd(),
		newImportCmd(),
		newAnalyzeCmd(),
		newQueryCmd(),
		newSchemaCmd(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Fatal("Command failed", "err", err)
	}
}

func newExtractCmd() *cobra.Command {
	var out string
	var batchName string
	var parallel int

	cmd := &cobra.Command{
		Use:   "extract <package>...",
		Short: "Extract twin packages into a graph batch file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := extract.NewEngine(extract.NewEngineParams{
				ParallelContainers: parallel,
			})

			results, err := engine.ExtractAll(cmd.Context(), args)
			if err != nil {
				return err
			}

			name := batchName
			if name == "" {
				name = out
			}
			batch, diags := graph.BuildBatch(name, results)
			for _, diag := range diags {
				logger.Warn("Transform diagnostic", "code", diag.Code, "message", diag.Message)
			}

			if err := graph.WriteBatchFile(batch, out); err != nil {
				return err
			}

			logger.Info("Batch written", "file", out, "nodes", len(batch.Nodes), "edges", len(batch.Edges))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "batch.graph.json", "output batch file")
	cmd.Flags().StringVar(&batchName, "batch-name", "", "batch name (defaults to the output file)")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "containers processed concurrently")

	return cmd
}

func newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file-or-directory>",
		Short: "Import batch files into the graph store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			graphStore, pool, err := connectStore(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			importer := store.NewImporter(graphStore)

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			if info.IsDir() {
				report, err := importer.ImportDirectory(ctx, args[0], dryRun)
				if err != nil {
					return err
				}
				return printJSON(report)
			}

			if dryRun {
				return fmt.Errorf("--dry-run applies to directory imports")
			}
			stats, err := importer.ImportFile(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and count without writing")

	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var export string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the fixed analytics over the imported graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, pool, err := connectStore(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			analytics := querypgx.NewAnalyticsDBClient(pool)

			quality, err := analytics.QualityDistribution(ctx)
			if err != nil {
				return err
			}
			compliance, err := analytics.ComplianceSummary(ctx)
			if err != nil {
				return err
			}
			types, err := analytics.TypeDistribution(ctx)
			if err != nil {
				return err
			}

			report := struct {
				Quality    []query.QualityBucket    `json:"quality"`
				Compliance *query.ComplianceSummary `json:"compliance"`
				Types      []query.LabelCount       `json:"types"`
			}{quality, compliance, types}

			if export != "" {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				return os.WriteFile(export, data, 0o644)
			}
			return printJSON(report)
		},
	}

	cmd.Flags().StringVar(&export, "export", "", "write the report to a file instead of stdout")

	return cmd
}

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run one read-only query against the graph store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, pool, err := connectStore(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			analytics := querypgx.NewAnalyticsDBClient(pool)
			rows, err := analytics.Execute(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(rows)
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of batch files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(graph.BatchSchema())
		},
	}
}

func connectStore(ctx context.Context) (*storepgx.GraphDBStorage, *pgxpool.Pool, error) {
	cfg := store.Config{
		URI:         util.GetEnv("DATABASE_URL"),
		User:        util.GetEnv("DATABASE_USER"),
		Password:    util.GetEnv("DATABASE_PASSWORD"),
		ReadyWindow: util.GetEnvDuration("DATABASE_READY_WINDOW", 30*time.Second),
	}
	if cfg.URI == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, cfg.URI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to graph store: %w", err)
	}

	graphStore := storepgx.NewGraphDBStorageWithConnection(pool)
	if err := store.WaitReady(ctx, graphStore, cfg.ReadyWindow); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := storepgx.MigrateSchema(cfg); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := graphStore.EnsureIndexes(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return graphStore, pool, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
