package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mpylon/internal/dimensions"
	"github.com/emiliopalmerini/mpylon/internal/domain"
	"github.com/emiliopalmerini/mpylon/internal/worksheet"
)

type analyzeOptions struct {
	output string
	save   bool
}

func newAnalyzeCmd(st *state) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <workbook.yaml>",
		Short: "Run every worksheet of a workbook",
		Long: `Build the analyses described by a workbook and dispatch them.

Results are printed as JSON. A failing worksheet does not stop the others;
the command exits non-zero after printing what succeeded.

Examples:
  mpylon analyze coffee.yaml
  mpylon analyze coffee.yaml --output results.json
  mpylon analyze coffee.yaml --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.cfg.RequireCredentials(); err != nil {
				return err
			}
			return withApp(cmd.Context(), st, func(app *AppContext) error {
				return runAnalyze(cmd, app, args[0], opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Keep the results in local storage under a new run ID")
	return cmd
}

// Report is the JSON form of an analyzed workbook.
type Report struct {
	RunID       string             `json:"run_id,omitempty"`
	Title       string             `json:"title"`
	Hash        string             `json:"hash"`
	Collections []CollectionReport `json:"collections"`
}

type CollectionReport struct {
	Title    string           `json:"title"`
	Analyses []AnalysisReport `json:"analyses"`
}

type AnalysisReport struct {
	Type    domain.AnalysisType `json:"type"`
	Target  string              `json:"target"`
	Chain   []string            `json:"chain,omitempty"`
	Results any                 `json:"results"`
}

func newReport(wb *worksheet.Workbook, group *domain.AnalysisGroup) *Report {
	r := &Report{Title: group.Title, Hash: wb.Hash}
	for _, coll := range group.Collections() {
		cr := CollectionReport{Title: coll.Title}
		for _, a := range coll.Analyses() {
			ar := AnalysisReport{Type: a.Type(), Target: a.Base().Target, Results: a.Base().Results}
			for child := a.Base().Child; child != nil; child = child.Base().Child {
				ar.Chain = append(ar.Chain, child.Base().Target)
			}
			cr.Analyses = append(cr.Analyses, ar)
		}
		r.Collections = append(r.Collections, cr)
	}
	return r
}

func runAnalyze(cmd *cobra.Command, app *AppContext, path string, opts *analyzeOptions) error {
	ctx := cmd.Context()

	if err := app.RequireSchemas(); err != nil {
		return err
	}

	wb, err := worksheet.LoadFile(path)
	if err != nil {
		return err
	}

	builder := worksheet.NewBuilder(dimensions.NewFactory(app.Schemas, app.Logger))
	group, err := builder.BuildGroup(ctx, wb)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}

	// results of the collections that succeeded are still reported
	dispatchErr := app.Client.AnalyzeGroup(ctx, group)

	report := newReport(wb, group)
	if opts.save {
		report.RunID = uuid.NewString()
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if opts.save {
		stored, err := app.Results.Store(ctx, report.RunID, data)
		if err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
		app.Logger.WithField("run_id", report.RunID).WithField("path", stored).Info("results saved")
	}

	if err := writeOutput(cmd.OutOrStdout(), opts.output, data); err != nil {
		return err
	}
	return dispatchErr
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	data = append(data, '\n')
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
