// Command sentimentomatic is a thin CLI driver over the analysis pipeline:
// it reads lines (from a file or stdin), runs the requested analyzers
// against them, and prints the resulting matrix as a table.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sentimentomatic/engine/internal/artifactstore"
	"github.com/sentimentomatic/engine/internal/config"
	"github.com/sentimentomatic/engine/internal/domain"
	"github.com/sentimentomatic/engine/internal/logging"
	"github.com/sentimentomatic/engine/internal/neuralloader"
	"github.com/sentimentomatic/engine/internal/pipeline"
	"github.com/sentimentomatic/engine/internal/registry"
)

var log = logging.For("cmd")

type runOptions struct {
	inputPath    string
	analyzerIDs  []string
	configFile   string
	remoteHost   string
	openaiAPIKey string
	databaseDSN  string
	keepResident bool
	expandLabels bool
	verbose      bool
	fetchTimeout time.Duration
}

func main() {
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "sentimentomatic",
		Short: "Run lexicon and neural text analyzers over a batch of lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&opts.inputPath, "input", "i", "", "input file, one line per record (default: stdin)")
	rootCmd.Flags().StringSliceVarP(&opts.analyzerIDs, "analyzers", "a", []string{"vader"}, "comma-separated analyzer IDs to run, in order")
	rootCmd.Flags().StringVar(&opts.configFile, "config", "", "configuration file path (default: .sentimentomatic.yaml in CWD or $HOME)")
	rootCmd.Flags().StringVar(&opts.remoteHost, "remote-host", "", "artifact host stored in the config (artifact URLs are always built on https://huggingface.co)")
	rootCmd.Flags().StringVar(&opts.openaiAPIKey, "openai-api-key", "", "OpenAI API key, required for the moderation analyzer")
	rootCmd.Flags().StringVar(&opts.databaseDSN, "database-dsn", "", "Postgres DSN for the artifact cache (default: in-memory)")
	rootCmd.Flags().BoolVar(&opts.keepResident, "keep-resident", false, "keep a neural host loaded after its column (it is still replaced when the next neural analyzer starts)")
	rootCmd.Flags().BoolVar(&opts.expandLabels, "expand-labels", false, "signal downstream exporters to expand multi-label, multi-class and moderation cells into one column per label")
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug-level logging")
	rootCmd.Flags().DurationVar(&opts.fetchTimeout, "fetch-timeout", 60*time.Second, "per-request timeout for artifact downloads")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts *runOptions) error {
	if opts.verbose {
		logging.SetLevel(zerolog.DebugLevel)
	}

	cfg, err := loadConfig(viper.New(), opts.configFile)
	if err != nil {
		return err
	}
	if opts.remoteHost != "" {
		cfg.RemoteHost = opts.remoteHost
	}
	if opts.openaiAPIKey != "" {
		cfg.OpenAIAPIKey = opts.openaiAPIKey
	}
	if opts.databaseDSN != "" {
		cfg.DatabaseDSN = opts.databaseDSN
	}

	lines, err := readLines(opts.inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	batch := domain.NewInputBatch(lines)
	if len(batch) == 0 {
		return fmt.Errorf("no non-empty lines to analyze")
	}

	reg := registry.New()
	analyzers := make([]domain.AnalyzerDescriptor, 0, len(opts.analyzerIDs))
	for _, id := range opts.analyzerIDs {
		desc, ok := reg.Get(domain.AnalyzerID(strings.TrimSpace(id)))
		if !ok {
			return fmt.Errorf("unknown analyzer %q", id)
		}
		analyzers = append(analyzers, desc)
	}

	plan := domain.Plan{
		Batch:     batch,
		Analyzers: analyzers,
		Options: domain.PlanOptions{
			KeepArtifactsResident:   opts.keepResident,
			ClassificationExpansion: opts.expandLabels,
		},
	}

	store, err := buildArtifactStore(cfg, opts.fetchTimeout)
	if err != nil {
		return err
	}

	var openaiLoader *neuralloader.RemoteOpenAILoader
	if cfg.OpenAIAPIKey != "" {
		openaiLoader = neuralloader.NewRemoteOpenAILoader(cfg.OpenAIAPIKey)
	}

	driver, err := pipeline.NewDriver(cfg, store, openaiLoader)
	if err != nil {
		return fmt.Errorf("constructing driver: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	matrix, summary, runErr := driver.Run(ctx, plan)
	if runErr != nil && summary.Cancelled {
		log.Warn().Str("run_id", summary.RunID).Msg("run cancelled, printing partial results")
	} else if runErr != nil {
		return runErr
	}

	printMatrix(os.Stdout, plan, matrix)
	printSummary(os.Stdout, summary)
	return nil
}

func readLines(path string) ([]string, error) {
	var f *os.File
	if path == "" {
		f = os.Stdin
	} else {
		opened, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer opened.Close()
		f = opened
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func buildArtifactStore(cfg config.Config, timeout time.Duration) (artifactstore.Store, error) {
	fetcher := artifactstore.NewHTTPFetcher(timeout)
	if cfg.DatabaseDSN == "" {
		return artifactstore.NewMemoryStore(fetcher), nil
	}

	bunStore := artifactstore.NewBunStore(cfg.DatabaseDSN, fetcher)
	if err := bunStore.InitSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("initializing artifact cache schema: %w", err)
	}
	return bunStore, nil
}

func printMatrix(w io.Writer, plan domain.Plan, matrix *pipeline.ResultMatrix) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprint(tw, "line")
	for _, a := range matrix.Analyzers() {
		fmt.Fprintf(tw, "\t%s", a)
	}
	fmt.Fprintln(tw)

	for i, line := range plan.Batch {
		fmt.Fprintf(tw, "%s", truncate(line, 40))
		for col := range matrix.Analyzers() {
			cell := matrix.Get(i, col)
			fmt.Fprintf(tw, "\t%s", formatCell(cell))
		}
		fmt.Fprintln(tw)
	}
}

func formatCell(cell domain.CellResult) string {
	switch cell.State {
	case domain.CellReady:
		return fmt.Sprintf("%s (%.2f)", cell.DisplayLabel, cell.DisplayScore)
	case domain.CellFailed:
		return fmt.Sprintf("ERR:%s", cell.ErrorKind)
	default:
		return "-"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func printSummary(w io.Writer, summary domain.Summary) {
	fmt.Fprintf(w, "\nrun %s: %d ready, %d failed, %d host terminations, %.1fms\n",
		summary.RunID, summary.CompletedCells, summary.FailedCells, summary.HostTerminations,
		float64(summary.TotalElapsedMicros)/1000)
}
