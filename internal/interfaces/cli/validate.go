package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/verdantio/plotproof/internal/application/ingest"
)

// NewValidateCmd creates the validate subcommand: normalize a boundary file
// and report what would be screened, without calling any oracle.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse and normalize a boundary file without screening it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
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

			if cliCtx.OutputFormat == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plots: %d\n", len(report.Plots))
			for _, p := range report.Plots {
				marker := ""
				if p.SynthesizedID {
					marker = " (id synthesized)"
				}
				fmt.Fprintf(out, "  %s  %s  %.4f ha%s\n", p.PlotID, p.Country, p.AreaHectares.Float64(), marker)
			}
			if len(report.Issues) > 0 {
				fmt.Fprintf(out, "Issues: %d\n", len(report.Issues))
				for _, iss := range report.Issues {
					fmt.Fprintf(out, "  feature %d [%s]: %s\n", iss.FeatureIndex, iss.Kind, iss.Message)
				}
			}
			if report.MajorityFailed {
				fmt.Fprintln(out, "Warning: more than half of the submitted features were rejected")
			}
			return nil
		},
	}
}
