package orchestrator

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Yates-Labs/talecraft/internal/evaluation"
	"github.com/Yates-Labs/talecraft/internal/notify"
)

// ExportFormat represents supported export formats
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
)

// RunExport is the exported record of one pipeline run
type RunExport struct {
	RunID        string                           `json:"run_id"`
	StartedAt    time.Time                        `json:"started_at"`
	FinishedAt   time.Time                        `json:"finished_at"`
	Duration     string                           `json:"duration"`
	Content      string                           `json:"content"`
	Revised      bool                             `json:"revised"`
	MinScore     float64                          `json:"min_score"`
	AverageScore float64                          `json:"average_score"`
	LowScoring   []string                         `json:"low_scoring"`
	Evaluations  []evaluation.CharacterEvaluation `json:"evaluations"`
	Delivery     notify.Result                    `json:"delivery"`
	Stages       []StageExport                    `json:"stages"`
}

// StageExport is a stage name with its wall time
type StageExport struct {
	Stage    string `json:"stage"`
	Duration string `json:"duration"`
}

// ExportResult exports a run result in the given format
func ExportResult(result *Result, format string, writer io.Writer) error {
	exportFormat := ExportFormat(strings.ToLower(format))
	if exportFormat != FormatJSON {
		return fmt.Errorf("unsupported export format: %s (supported: json)", format)
	}
	if result == nil {
		return fmt.Errorf("no result to export")
	}

	return exportJSON(enrichResult(result), writer)
}

// enrichResult flattens a Result into its export form
func enrichResult(r *Result) RunExport {
	low := make([]string, len(r.Decision.Low))
	for i, ev := range r.Decision.Low {
		low[i] = ev.CharacterName
	}

	stages := make([]StageExport, len(r.Timings))
	for i, t := range r.Timings {
		stages[i] = StageExport{Stage: t.Stage, Duration: t.Duration.String()}
	}

	evals := r.Evaluations
	if evals == nil {
		evals = []evaluation.CharacterEvaluation{}
	}

	return RunExport{
		RunID:        r.RunID,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Duration:     r.FinishedAt.Sub(r.StartedAt).String(),
		Content:      r.Content,
		Revised:      r.Revised,
		MinScore:     r.Decision.MinScore,
		AverageScore: r.Decision.AverageScore,
		LowScoring:   low,
		Evaluations:  evals,
		Delivery:     r.Delivery,
		Stages:       stages,
	}
}

// exportJSON writes the export as indented JSON
func exportJSON(export RunExport, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
