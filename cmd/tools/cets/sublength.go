package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/soltixdb/cets/internal/analytics/correlation"
	"github.com/soltixdb/cets/internal/dataset"
	"github.com/soltixdb/cets/internal/services"
)

type subLengthSample struct {
	Name       string `json:"name" yaml:"name"`
	SubLengths []int  `json:"sub_lengths" yaml:"sub_lengths"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

type subLengthOutput struct {
	Dataset string            `json:"dataset" yaml:"dataset"`
	Samples []subLengthSample `json:"samples" yaml:"samples"`
}

func newSubLengthCmd(c *cli) *cobra.Command {
	var dir, output string

	cmd := &cobra.Command{
		Use:   "sublength",
		Short: "Print the estimated sub-series length of every dimension",
		Long: `Normalize every sample of a dataset and estimate, per dimension, the
sub-series length used by the CETS tester. A dimension without a usable
estimate reports 0.

Example:
  cets sublength --dataset ./data/synthetic --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}
			if dir == "" {
				dir = c.cfg.Dataset.Dir
			}

			names, series, err := dataset.NewLoader(c.fs, dir).LoadSeries()
			if err != nil {
				return fmt.Errorf("failed to load dataset %s: %w", dir, err)
			}

			estimator := correlation.NewSubLengthEstimator(services.AnalysisConfig(c.cfg), c.logger)
			out := &subLengthOutput{Dataset: dir, Samples: make([]subLengthSample, len(series))}
			for i, s := range series {
				out.Samples[i].Name = names[i]

				norm, err := correlation.Normalize(s)
				if err != nil {
					out.Samples[i].Error = err.Error()
					continue
				}
				lengths, err := estimator.BuildSubLengths(cmd.Context(), norm)
				if err != nil {
					out.Samples[i].Error = err.Error()
				}
				out.Samples[i].SubLengths = lengths
			}

			return render(cmd.OutOrStdout(), output, out)
		},
	}

	cmd.Flags().StringVar(&dir, "dataset", "", "Dataset directory (default: dataset.dir from config)")
	cmd.Flags().StringVar(&output, "output", formatText, "Output format (text|json|yaml)")
	return cmd
}

func (o *subLengthOutput) writeText(w io.Writer) error {
	for _, s := range o.Samples {
		if s.Error != "" && s.SubLengths == nil {
			fmt.Fprintf(w, "%s: %s\n", s.Name, s.Error)
			continue
		}
		fmt.Fprintf(w, "%s: %v\n", s.Name, s.SubLengths)
	}
	return nil
}
