package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/kozaktomas/reclaim/internal/config"
	"github.com/kozaktomas/reclaim/internal/constants"
	"github.com/kozaktomas/reclaim/internal/facematch"
	"github.com/kozaktomas/reclaim/internal/workspace"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <photo>",
	Short: "Search for images of a person and list the ones matching a reference photo",
	Long: `Run the search and match pipeline once from the command line.

The reference photo must contain exactly the face you are looking for; when
several faces are detected the first one is used.

Examples:
  # Search with the default threshold
  reclaim match me.jpg --terms "jane doe"

  # Stricter matching with more parallel workers
  reclaim match me.jpg --terms "jane doe" --threshold 0.4 --concurrency 10

  # Output as JSON
  reclaim match me.jpg --terms "@janedoe" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("terms", "", "Search terms (name, username, etc.)")
	matchCmd.Flags().Float64("threshold", 0, "Maximum embedding distance for a match (defaults to MATCH_THRESHOLD or 0.5)")
	matchCmd.Flags().Int("concurrency", 0, "Parallel candidate workers (defaults to MATCH_CONCURRENCY or 5)")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
	_ = matchCmd.MarkFlagRequired("terms")
}

// MatchOutput is the --json shape of the match command.
type MatchOutput struct {
	Photo       string                  `json:"photo"`
	SearchTerms string                  `json:"search_terms"`
	Queries     []string                `json:"queries"`
	Candidates  int                     `json:"candidates"`
	Matches     []facematch.MatchResult `json:"matches"`
	Count       int                     `json:"count"`
	Stats       facematch.Stats         `json:"stats"`
}

// applyMatchFlags lets explicit flags override the environment.
func applyMatchFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("threshold") {
		threshold := flagValue(cmd, "threshold", cmd.Flags().GetFloat64)
		if threshold <= 0 {
			return fmt.Errorf("--threshold must be greater than 0, got %v", threshold)
		}
		cfg.Match.Threshold = threshold
	}
	if cmd.Flags().Changed("concurrency") {
		if c := flagValue(cmd, "concurrency", cmd.Flags().GetInt); c > 0 {
			cfg.Match.Concurrency = c
		}
	}
	return nil
}

// loadReference copies the photo into a workspace, enforcing the upload size limit.
func loadReference(ws *workspace.Workspace, photoPath string) ([]byte, error) {
	f, err := os.Open(photoPath) //nolint:gosec // user supplied path on the CLI
	if err != nil {
		return nil, fmt.Errorf("opening photo: %w", err)
	}
	defer f.Close()

	stored, err := ws.Save(filepath.Base(photoPath), f, constants.MaxUploadSize)
	if err != nil {
		return nil, fmt.Errorf("storing photo: %w", err)
	}
	return os.ReadFile(stored) //nolint:gosec // path is inside the workspace
}

// newProgressReporter returns an OnProgress callback that draws a bar once the candidate count is known.
func newProgressReporter(w io.Writer) facematch.ProgressFunc {
	var (
		once sync.Once
		bar  *progressbar.ProgressBar
	)
	return func(done, total int) {
		once.Do(func() {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("Matching candidates"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("images"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionFullWidth(),
			)
		})
		_ = bar.Add(1)
	}
}

func runMatch(cmd *cobra.Command, args []string) error {
	photoPath := args[0]
	jsonOutput := flagValue(cmd, "json", cmd.Flags().GetBool)
	terms := strings.TrimSpace(flagValue(cmd, "terms", cmd.Flags().GetString))
	if terms == "" {
		return errors.New("--terms must not be empty")
	}

	cfg := config.Load()
	if err := applyMatchFlags(cmd, cfg); err != nil {
		return err
	}
	logger := logrus.StandardLogger()

	deps, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	if !jsonOutput {
		deps.engine.OnProgress = newProgressReporter(os.Stderr)
	}

	ws, err := (&workspace.Manager{Root: cfg.Workspace.Dir}).Acquire("match")
	if err != nil {
		return err
	}
	defer ws.Release()

	data, err := loadReference(ws, photoPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Match.PipelineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Match.PipelineTimeout)
		defer cancel()
	}

	reference, err := deps.extractor.ExtractEmbedding(ctx, data)
	if err != nil {
		if errors.Is(err, facematch.ErrNoFace) {
			return fmt.Errorf("no face detected in %s", photoPath)
		}
		return fmt.Errorf("extracting reference face: %w", err)
	}

	result, err := deps.pipeline.Run(ctx, reference, terms)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(MatchOutput{
			Photo:       photoPath,
			SearchTerms: terms,
			Queries:     result.Queries,
			Candidates:  result.Candidates,
			Matches:     result.Matches,
			Count:       len(result.Matches),
			Stats:       result.Stats,
		})
	}

	fmt.Fprintln(os.Stderr)
	printMatchTable(os.Stdout, result, terms)
	return nil
}

func printMatchTable(out io.Writer, result *facematch.PipelineResult, terms string) {
	if result.Candidates == 0 {
		fmt.Fprintf(out, "No images found for %q. Try different terms.\n", terms)
		return
	}
	if len(result.Matches) == 0 {
		fmt.Fprintf(out, "Checked %d images for %q, none matched.\n", result.Candidates, terms)
		return
	}

	fmt.Fprintf(out, "Found %d of %d images matching %q:\n\n", len(result.Matches), result.Candidates, terms)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSIMILARITY\tDISTANCE\tSOURCE\tURL")
	fmt.Fprintln(w, "----\t----------\t--------\t------\t---")
	for i, m := range result.Matches {
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%s\t%s\n", i+1, m.SimilarityScore, m.Distance, m.SourceLabel, m.Locator)
	}
	w.Flush()

	if skipped := result.Stats.Skipped; len(skipped) > 0 {
		parts := make([]string, 0, len(skipped))
		for reason, n := range skipped {
			parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
		}
		slices.Sort(parts)
		fmt.Fprintf(out, "\nSkipped: %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintln(out, "\nRun `reclaim report <url>` for removal steps.")
}
