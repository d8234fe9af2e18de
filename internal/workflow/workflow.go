// Package workflow drives the research, validate, refine, write loop for
// one run.
package workflow

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bidscout/bidscout/internal/artifacts"
	"github.com/bidscout/bidscout/internal/document"
	"github.com/bidscout/bidscout/internal/model"
	"github.com/bidscout/bidscout/internal/research"
)

// Stage names used when recording faults.
const (
	stageResearch   = "Research"
	stageValidation = "Validation"
	stageWrite      = "Write"
)

// State is the root aggregate for one run. It accumulates across
// iterations: errors and evidence only grow, iteration only increments,
// and IsComplete latches true exactly once when the run ends.
type State struct {
	RunID         string                  `json:"run_id"`
	RFPPath       string                  `json:"rfp_path"`
	Company       string                  `json:"company"`
	Iteration     int                     `json:"iteration"`
	MaxIterations int                     `json:"max_iterations"`
	Errors        []string                `json:"errors,omitempty"`
	IsComplete    bool                    `json:"is_complete"`
	Findings      model.Findings          `json:"findings"`
	Report        *model.ValidationReport `json:"validation_report,omitempty"`
	Outline       *model.BidOutline       `json:"bid_outline,omitempty"`

	evidenceOffset int
	focusQueries   []string
}

// Failed reports whether the run recorded any stage faults.
func (s *State) Failed() bool {
	return len(s.Errors) > 0
}

// CoverageScore returns the final coverage score, zero when validation
// never ran.
func (s *State) CoverageScore() float64 {
	if s.Report == nil {
		return 0
	}
	return s.Report.CoverageScore
}

// Researcher runs one research pass.
type Researcher interface {
	Process(ctx context.Context, in research.PassInput) (model.Findings, error)
}

// Validator scores one pass of findings.
type Validator interface {
	Validate(ctx context.Context, findings model.Findings) (model.ValidationReport, error)
}

// Composer renders the bid outline.
type Composer interface {
	Compose(ctx context.Context, findings model.Findings, report model.ValidationReport) (model.BidOutline, error)
}

// Recorder persists run lifecycle records. Implementations must tolerate
// being called for runs they have never seen.
type Recorder interface {
	RunStarted(ctx context.Context, runID, rfpPath, company string) error
	RunEvent(ctx context.Context, runID, stage, message string) error
	RunFinished(ctx context.Context, runID string, summary artifacts.Summary) error
}

// Engine executes the state machine:
//
//	research -> validate -> refine (back to research) | write -> end
//
// Transition rules after validation, in order: a recorded fault ends the
// run; reaching the iteration budget forces the write; a missing report
// ends the run; a sufficient report proceeds to the write; anything else
// refines. Every run terminates within MaxIterations+1 passes.
type Engine struct {
	extractor     document.Extractor
	researcher    Researcher
	validator     Validator
	composer      Composer
	store         *artifacts.Store
	recorder      Recorder
	maxIterations int
	evidenceLimit int
}

// Options configures an Engine.
type Options struct {
	Extractor     document.Extractor
	Researcher    Researcher
	Validator     Validator
	Composer      Composer
	Store         *artifacts.Store
	Recorder      Recorder
	MaxIterations int
	EvidenceLimit int
}

// NewEngine constructs an engine. Store is required; Recorder is
// optional.
func NewEngine(opts Options) *Engine {
	if opts.EvidenceLimit <= 0 {
		opts.EvidenceLimit = 2
	}
	if opts.MaxIterations < 0 {
		opts.MaxIterations = 0
	}
	return &Engine{
		extractor:     opts.Extractor,
		researcher:    opts.Researcher,
		validator:     opts.Validator,
		composer:      opts.Composer,
		store:         opts.Store,
		recorder:      opts.Recorder,
		maxIterations: opts.MaxIterations,
		evidenceLimit: opts.EvidenceLimit,
	}
}

// Run executes one full run. Stage faults do not surface as errors: they
// are recorded in State.Errors in the form "<Stage> error: <message>"
// and end the run, with whatever artifacts exist persisted. The returned
// error is reserved for infrastructure failures writing artifacts.
func (e *Engine) Run(ctx context.Context, rfpPath, company string) (*State, error) {
	state := &State{
		RunID:         uuid.NewString(),
		RFPPath:       rfpPath,
		Company:       company,
		MaxIterations: e.maxIterations,
	}
	logger := log.With().Str("run_id", state.RunID).Logger()
	logger.Info().Str("rfp", rfpPath).Str("company", company).Msg("run started")

	e.record(ctx, state, "run", "started")
	if e.recorder != nil {
		if err := e.recorder.RunStarted(ctx, state.RunID, rfpPath, company); err != nil {
			logger.Warn().Err(err).Msg("record run start failed")
		}
	}
	if err := e.store.WriteInputs(state.RunID, artifacts.Inputs{
		RFPPath:       rfpPath,
		Company:       company,
		MaxIterations: e.maxIterations,
	}); err != nil {
		return state, err
	}

	docText := e.extractDocument(ctx, state)

	for !state.IsComplete {
		e.researchPass(ctx, state, docText)
		if state.Failed() {
			break
		}

		e.validatePass(ctx, state)
		next := e.decide(state)
		logger.Info().
			Int("iteration", state.Iteration).
			Float64("coverage", state.CoverageScore()).
			Str("next", next).
			Msg("validation complete")

		switch next {
		case "refine":
			state.Iteration++
			state.focusQueries = state.Report.SuggestedQueries()
			state.evidenceOffset += e.evidenceLimit
			e.record(ctx, state, stageValidation, "refining")
		case "write":
			e.writePass(ctx, state)
			state.IsComplete = true
		default:
			state.IsComplete = true
		}
	}
	state.IsComplete = true

	if err := e.persist(ctx, state); err != nil {
		return state, err
	}
	logger.Info().Bool("failed", state.Failed()).Int("iterations", state.Iteration).Msg("run finished")
	return state, nil
}

// decide applies the post-validation transition rules in order.
func (e *Engine) decide(state *State) string {
	switch {
	case state.Failed():
		return "end"
	case state.Iteration >= e.maxIterations:
		return "write"
	case state.Report == nil:
		return "end"
	case state.Report.IsSufficient:
		return "write"
	default:
		return "refine"
	}
}

// extractDocument runs document extraction once per run; the same text
// feeds every research pass. A fault here ends the run before the first
// pass.
func (e *Engine) extractDocument(ctx context.Context, state *State) string {
	if e.extractor == nil {
		e.fault(ctx, state, stageResearch, fmt.Errorf("no document extractor configured"))
		return ""
	}
	chunks, _, err := e.extractor.Extract(ctx, state.RFPPath)
	if err != nil {
		e.fault(ctx, state, stageResearch, err)
		return ""
	}
	return document.FullText(chunks)
}

func (e *Engine) researchPass(ctx context.Context, state *State, docText string) {
	findings, err := e.researcher.Process(ctx, research.PassInput{
		DocText:        docText,
		Filename:       filepath.Base(state.RFPPath),
		Company:        state.Company,
		FocusQueries:   state.focusQueries,
		EvidenceOffset: state.evidenceOffset,
		PriorEvidence:  state.Findings.Evidence,
		PriorQueries:   state.Findings.QueriesRun,
	})
	if err != nil {
		e.fault(ctx, state, stageResearch, err)
		return
	}
	state.Findings = findings
	e.record(ctx, state, stageResearch, fmt.Sprintf("pass %d: %d requirements, %d evidence items",
		state.Iteration, len(findings.Requirements), len(findings.Evidence)))
}

func (e *Engine) validatePass(ctx context.Context, state *State) {
	report, err := e.validator.Validate(ctx, state.Findings)
	if err != nil {
		e.fault(ctx, state, stageValidation, err)
		return
	}
	state.Report = &report
}

func (e *Engine) writePass(ctx context.Context, state *State) {
	report := model.ValidationReport{}
	if state.Report != nil {
		report = *state.Report
	}
	outline, err := e.composer.Compose(ctx, state.Findings, report)
	if err != nil {
		e.fault(ctx, state, stageWrite, err)
		return
	}
	state.Outline = &outline
	e.record(ctx, state, stageWrite, fmt.Sprintf("outline composed with %d sections", len(outline.Sections)))
}

// fault records a stage error and ends the run.
func (e *Engine) fault(ctx context.Context, state *State, stage string, err error) {
	msg := fmt.Sprintf("%s error: %v", stage, err)
	state.Errors = append(state.Errors, msg)
	state.IsComplete = true
	log.Error().Str("run_id", state.RunID).Str("stage", stage).Err(err).Msg("stage fault")
	e.record(ctx, state, stage, msg)
}

func (e *Engine) record(ctx context.Context, state *State, stage, message string) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RunEvent(ctx, state.RunID, stage, message); err != nil {
		log.Debug().Err(err).Msg("record run event failed")
	}
}

// persist writes every artifact the run produced. Artifacts are written
// exactly once, after the run ends.
func (e *Engine) persist(ctx context.Context, state *State) error {
	if err := e.store.WriteFindings(state.RunID, state.Findings); err != nil {
		return err
	}
	if state.Report != nil {
		if err := e.store.WriteValidation(state.RunID, *state.Report); err != nil {
			return err
		}
	}
	summary := artifacts.Summary{
		RunID:             state.RunID,
		Iterations:        state.Iteration,
		IsComplete:        state.IsComplete,
		Errors:            state.Errors,
		CoverageScore:     state.CoverageScore(),
		RequirementsCount: len(state.Findings.Requirements),
		EvidenceCount:     len(state.Findings.Evidence),
	}
	if state.Outline != nil {
		if err := e.store.WriteOutline(state.RunID, *state.Outline); err != nil {
			return err
		}
		if err := e.store.WriteBidDocument(state.RunID, *state.Outline, state.Findings, summary); err != nil {
			return err
		}
	}
	if err := e.store.WriteSummary(summary); err != nil {
		return err
	}
	if e.recorder != nil {
		if err := e.recorder.RunFinished(ctx, state.RunID, summary); err != nil {
			log.Warn().Err(err).Msg("record run finish failed")
		}
	}
	return nil
}
