package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/talentrag/internal/domain/document"
	batchuc "github.com/kailas-cloud/talentrag/internal/usecase/batch"
	ingestuc "github.com/kailas-cloud/talentrag/internal/usecase/ingest"
)

var (
	ingestUploadedBy string
	ingestLocation   string
	ingestYears      float64
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest plain-text résumés; \"-\" reads standard input",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs := make([]ingestuc.Input, 0, len(args))
		for _, path := range args {
			text, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			inputs = append(inputs, ingestuc.Input{
				ID:                idFromPath(path),
				Text:              text,
				UploadedBy:        ingestUploadedBy,
				Location:          ingestLocation,
				YearsOfExperience: ingestYears,
			})
		}
		return withApplication(cmd, func(ctx context.Context, a *application) error {
			results := ingestChunked(ctx, a.batch, inputs)
			summaries := make([]ingestSummary, len(results))
			for i, r := range results {
				summaries[i] = summarize(args[i], r)
			}
			if err := printJSON(cmd.OutOrStdout(), summaries); err != nil {
				return err
			}
			if sum := batchuc.Summarize(results); sum.Failed > 0 {
				return fmt.Errorf("%d of %d résumés failed", sum.Failed, len(results))
			}
			return nil
		})
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestUploadedBy, "uploaded-by", "", "uploader user id")
	ingestCmd.Flags().StringVar(&ingestLocation, "location", "", "location, defaults to the extracted address")
	ingestCmd.Flags().Float64Var(&ingestYears, "years", 0, "years of experience, derived from the résumé when 0")
	rootCmd.AddCommand(ingestCmd)
}

// ingestSummary is one line of ingest output.
type ingestSummary struct {
	Source   string          `json:"source"`
	ID       string          `json:"id,omitempty"`
	Status   document.Status `json:"status,omitempty"`
	Skills   int             `json:"skills"`
	Years    float64         `json:"yearsOfExperience"`
	Fallback bool            `json:"fallbackExtraction"`
	Error    string          `json:"error,omitempty"`
}

func summarize(source string, r batchuc.Result) ingestSummary {
	if r.Status != batchuc.StatusOK {
		return ingestSummary{Source: source, ID: r.ID, Error: r.Err.Error()}
	}
	d := r.Ingested.Document
	return ingestSummary{
		Source:   source,
		ID:       d.ID,
		Status:   d.Status,
		Skills:   len(d.Structured.Skills),
		Years:    d.YearsOfExperience,
		Fallback: r.Ingested.Fallback,
	}
}

// ingestChunked splits inputs into batches the service accepts. Results keep input order.
func ingestChunked(ctx context.Context, svc *batchuc.Service, inputs []ingestuc.Input) []batchuc.Result {
	results := make([]batchuc.Result, 0, len(inputs))
	size := svc.MaxBatchSize()
	for start := 0; start < len(inputs); start += size {
		end := min(start+size, len(inputs))
		results = append(results, svc.Ingest(ctx, inputs[start:end])...)
	}
	return results
}

func readInput(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// idFromPath derives a stable id from the file name so re-ingesting replaces the record.
// Standard input gets a generated id.
func idFromPath(path string) string {
	if path == "-" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
