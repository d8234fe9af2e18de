// Package artifacts persists run outputs to the data directory. Each run
// gets its own directory holding the machine-readable JSON artifacts and
// the rendered markdown documents.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bidscout/bidscout/internal/model"
)

// Artifact file names within a run directory.
const (
	InputsFile     = "inputs.json"
	FindingsFile   = "findings.json"
	ValidationFile = "validation.json"
	OutlineFile    = "outline.md"
	SummaryFile    = "summary.json"
	BidDocFile     = "bid_document.md"
)

// Inputs records what a run was started with.
type Inputs struct {
	RFPPath       string `json:"rfp_path"`
	Company       string `json:"company"`
	MaxIterations int    `json:"max_iterations"`
	StartedAt     string `json:"started_at"`
}

// Summary is the compact run result written alongside the full findings.
type Summary struct {
	RunID             string   `json:"run_id"`
	Iterations        int      `json:"iterations"`
	IsComplete        bool     `json:"is_complete"`
	Errors            []string `json:"errors,omitempty"`
	CoverageScore     float64  `json:"coverage_score"`
	RequirementsCount int      `json:"requirements_count"`
	EvidenceCount     int      `json:"evidence_count"`
	Timestamp         string   `json:"timestamp"`
}

// Store writes and reads run artifacts under a base directory.
type Store struct {
	baseDir string
}

// NewStore constructs a store rooted at baseDir (typically
// <data_dir>/runs).
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// RunDir returns the directory for a run, creating it on first use.
func (s *Store) RunDir(runID string) (string, error) {
	dir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

// WriteInputs persists the run inputs, stamping the start time.
func (s *Store) WriteInputs(runID string, inputs Inputs) error {
	if inputs.StartedAt == "" {
		inputs.StartedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return s.writeJSON(runID, InputsFile, inputs)
}

// WriteFindings persists the research findings.
func (s *Store) WriteFindings(runID string, findings model.Findings) error {
	return s.writeJSON(runID, FindingsFile, findings)
}

// WriteValidation persists the final validation report.
func (s *Store) WriteValidation(runID string, report model.ValidationReport) error {
	return s.writeJSON(runID, ValidationFile, report)
}

// WriteOutline renders the bid outline to markdown.
func (s *Store) WriteOutline(runID string, outline model.BidOutline) error {
	return s.writeFile(runID, OutlineFile, []byte(RenderOutline(outline)))
}

// WriteSummary persists the run summary.
func (s *Store) WriteSummary(summary Summary) error {
	if summary.Timestamp == "" {
		summary.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return s.writeJSON(summary.RunID, SummaryFile, summary)
}

// WriteBidDocument renders the unified bid document: outline sections
// followed by a research appendix listing the queries that produced the
// findings.
func (s *Store) WriteBidDocument(runID string, outline model.BidOutline, findings model.Findings, summary Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Bid Response: %s\n\n", findings.RFPMeta.Title)
	fmt.Fprintf(&b, "Prepared for %s by %s\n\n", findings.RFPMeta.Organization, findings.CompanyProfile.Name)
	b.WriteString(RenderOutline(outline))

	b.WriteString("\n## Research Appendix\n\n")
	fmt.Fprintf(&b, "Run %s completed after %d refinement iteration(s) with coverage score %.2f.\n\n",
		summary.RunID, summary.Iterations, summary.CoverageScore)
	if len(findings.QueriesRun) > 0 {
		b.WriteString("Search queries executed:\n\n")
		for _, query := range findings.QueriesRun {
			fmt.Fprintf(&b, "- %s\n", query)
		}
	}
	return s.writeFile(runID, BidDocFile, []byte(b.String()))
}

// ReadSummary loads a run's summary.
func (s *Store) ReadSummary(runID string) (Summary, error) {
	var summary Summary
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, SummaryFile))
	if err != nil {
		return summary, fmt.Errorf("read summary: %w", err)
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		return summary, fmt.Errorf("decode summary: %w", err)
	}
	return summary, nil
}

// ReadOutline loads a run's rendered outline markdown.
func (s *Store) ReadOutline(runID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, OutlineFile))
	if err != nil {
		return "", fmt.Errorf("read outline: %w", err)
	}
	return string(data), nil
}

// Remove deletes a run's artifact directory.
func (s *Store) Remove(runID string) error {
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id is empty")
	}
	return os.RemoveAll(filepath.Join(s.baseDir, runID))
}

// RenderOutline joins outline sections into a single markdown document.
func RenderOutline(outline model.BidOutline) string {
	var b strings.Builder
	for _, section := range outline.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.Title, section.Markdown)
	}
	return b.String()
}

func (s *Store) writeJSON(runID, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return s.writeFile(runID, name, append(data, '\n'))
}

func (s *Store) writeFile(runID, name string, data []byte) error {
	dir, err := s.RunDir(runID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
