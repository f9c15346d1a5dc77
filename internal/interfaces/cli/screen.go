package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/verdantio/plotproof/internal/application/classify"
	"github.com/verdantio/plotproof/internal/application/ingest"
	"github.com/verdantio/plotproof/internal/application/selection"
	"github.com/verdantio/plotproof/internal/config"
	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/internal/infrastructure/oracles"
)

type screenOptions struct {
	csvPath string
}

// NewScreenCmd creates the screen subcommand: normalize a boundary file and
// classify every plot against the configured oracles.
func NewScreenCmd() *cobra.Command {
	opts := &screenOptions{}

	cmd := &cobra.Command{
		Use:   "screen <file>",
		Short: "Screen a boundary file against the forest-loss datasets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := requireOracles(cliCtx.Config.Classify); err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			normalizer := ingest.NewNormalizer(cliCtx.Logger)
			report, err := normalizer.NormalizeFile(filepath.Base(args[0]), raw)
			if err != nil {
				return err
			}

			service := newClassifier(cliCtx.Config.Classify, cliCtx)
			classified, summary, err := service.Classify(cmd.Context(), report.Plots, nil)
			if err != nil {
				return err
			}

			if opts.csvPath != "" {
				if err := writeCSVFile(opts.csvPath, classified); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "CSV written to %s\n", opts.csvPath)
			}

			if cliCtx.OutputFormat == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"summary": summary,
					"plots":   classified,
					"issues":  report.Issues,
				})
			}
			printScreenTable(cmd, classified, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "also write the compliance CSV to this path")
	return cmd
}

func requireOracles(cfg config.ClassifyConfig) error {
	for name, ep := range map[string]config.OracleEndpoint{
		"gfw": cfg.GFW, "jrc": cfg.JRC, "sbtn": cfg.SBTN,
		"wdpa": cfg.WDPA, "peatland": cfg.Peatland,
	} {
		if ep.BaseURL == "" {
			return fmt.Errorf("oracle %q has no base_url configured; screening needs all five endpoints", name)
		}
	}
	return nil
}

func newClassifier(cfg config.ClassifyConfig, cliCtx *CLIContext) *classify.Service {
	loss := []classify.LossOracle{
		oracles.NewGFW(cfg.GFW),
		oracles.NewJRC(cfg.JRC),
		oracles.NewSBTN(cfg.SBTN),
	}
	return classify.NewService(
		loss,
		oracles.NewWDPA(cfg.WDPA),
		oracles.NewPeatland(cfg.Peatland),
		cliCtx.Logger,
		classify.WithConcurrency(cfg.Concurrency),
	)
}

func writeCSVFile(path string, plots []plot.ClassifiedPlot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := selection.WriteCSV(f, plots); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printScreenTable(cmd *cobra.Command, classified []plot.ClassifiedPlot, summary classify.Summary) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLOT\tCOUNTRY\tAREA (HA)\tRISK\tCOMPLIANCE\tHIGH-RISK DATASETS")
	for _, p := range classified {
		high := ""
		if len(p.HighRiskDatasets) > 0 {
			high = fmt.Sprint(p.HighRiskDatasets)
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%s\t%s\t%s\n",
			p.PlotID, p.Country, p.AreaHectares.Float64(), p.OverallRisk, p.ComplianceStatus, high)
	}
	w.Flush()

	fmt.Fprintf(cmd.OutOrStdout(),
		"\n%d plots: %d high risk, %d compliant, %d non-compliant, %d unknown\n",
		summary.Total, summary.HighRisk, summary.Compliant, summary.NonCompliant, summary.Unknown)
}
