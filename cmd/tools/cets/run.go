package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/soltixdb/cets/internal/analytics/correlation"
	"github.com/soltixdb/cets/internal/dataset"
	"github.com/soltixdb/cets/internal/scoring"
	"github.com/soltixdb/cets/internal/services"
)

type runOptions struct {
	dataset   string
	tester    string
	score     string
	output    string
	subLength int
	seed      uint64
	workers   int
}

type scoreOutput struct {
	Mode      scoring.Mode `json:"mode" yaml:"mode"`
	TP        int          `json:"tp" yaml:"tp"`
	FP        int          `json:"fp" yaml:"fp"`
	FN        int          `json:"fn" yaml:"fn"`
	Precision float64      `json:"precision" yaml:"precision"`
	Recall    float64      `json:"recall" yaml:"recall"`
	F1        float64      `json:"f1" yaml:"f1"`
}

type runOutput struct {
	Dataset string              `json:"dataset" yaml:"dataset"`
	Samples []string            `json:"samples" yaml:"samples"`
	Report  *correlation.Report `json:"report" yaml:"report"`
	Score   *scoreOutput        `json:"score,omitempty" yaml:"score,omitempty"`
}

func newRunCmd(c *cli) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a correlation analysis over a dataset directory",
		Long: `Load every sample of a dataset directory, test each (sample, dimension,
event group) triple and print the correlated ones. When the dataset carries
interpretation labels, precision, recall and F1 are reported as well.

Examples:
  cets run --dataset ./data/synthetic
  cets run --dataset ./data/synthetic --tester pearson --score effect
  cets run --dataset ./data/synthetic --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "Dataset directory (default: dataset.dir from config)")
	cmd.Flags().StringVar(&opts.tester, "tester", correlation.TesterCETS, "Correlation tester (cets|pearson)")
	cmd.Flags().StringVar(&opts.score, "score", string(scoring.ModeExist), "Scoring mode (exist|dir|effect)")
	cmd.Flags().StringVar(&opts.output, "output", formatText, "Output format (text|json|yaml)")
	cmd.Flags().IntVar(&opts.subLength, "sub-length", -1, "Fixed sub-series length; 0 estimates it (default: config)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Random seed (default: config)")
	cmd.Flags().IntVar(&opts.workers, "workers", -1, "Concurrent tests; 0 uses all CPUs (default: config)")
	return cmd
}

func (c *cli) run(cmd *cobra.Command, opts *runOptions) error {
	if err := validateFormat(opts.output); err != nil {
		return err
	}
	mode, err := scoring.ParseMode(opts.score)
	if err != nil {
		return err
	}
	if opts.tester == correlation.TesterPearson && mode == scoring.ModeDirection {
		return fmt.Errorf("the pearson tester has no direction, use --score exist or effect")
	}

	dir := opts.dataset
	if dir == "" {
		dir = c.cfg.Dataset.Dir
	}
	ds, err := dataset.NewLoader(c.fs, dir).Load()
	if err != nil {
		return fmt.Errorf("failed to load dataset %s: %w", dir, err)
	}
	c.logger.Info("Dataset loaded", "dir", dir, "samples", len(ds.Series), "labelled", ds.Labelled())

	cfg := services.AnalysisConfig(c.cfg)
	if cmd.Flags().Changed("sub-length") {
		cfg.SubLength = opts.subLength
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = opts.seed
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = opts.workers
	}

	tester, err := correlation.GetTester(opts.tester, cfg, c.logger)
	if err != nil {
		return err
	}
	engine, err := correlation.NewEngine(tester, cfg, c.logger)
	if err != nil {
		return err
	}

	report, err := engine.Run(cmd.Context(), ds.Series, ds.Events)
	if err != nil {
		return err
	}

	out := &runOutput{Dataset: dir, Samples: ds.Names, Report: report}
	if ds.Labelled() {
		score, err := scoring.Evaluate(report.Results, ds.Labels, mode, opts.tester)
		if err != nil {
			return err
		}
		out.Score = &scoreOutput{
			Mode:      mode,
			TP:        score.TruePositive,
			FP:        score.FalsePositive,
			FN:        score.FalseNegative,
			Precision: score.Precision(),
			Recall:    score.Recall(),
			F1:        score.F1(),
		}
	}

	return render(cmd.OutOrStdout(), opts.output, out)
}

func (o *runOutput) writeText(w io.Writer) error {
	for _, f := range o.Report.Findings {
		if _, err := fmt.Fprintln(w, f.Message); err != nil {
			return err
		}
	}
	for _, s := range o.Report.Skipped {
		fmt.Fprintf(w, "skipped %s: %s\n", o.sampleName(s.Sample), s.Reason)
	}
	for _, s := range o.Report.Warnings {
		fmt.Fprintf(w, "warning %s: %s\n", o.sampleName(s.Sample), s.Reason)
	}
	if o.Score != nil {
		fmt.Fprintf(w, "Precision: %.4f Recall: %.4f F1: %.4f (mode=%s tp=%d fp=%d fn=%d)\n",
			o.Score.Precision, o.Score.Recall, o.Score.F1, o.Score.Mode, o.Score.TP, o.Score.FP, o.Score.FN)
	}
	return nil
}

func (o *runOutput) sampleName(i int) string {
	if i < len(o.Samples) {
		return o.Samples[i]
	}
	return fmt.Sprintf("X%d", i+1)
}
