// Package research implements the research pass: requirement extraction,
// company profiling, evidence gathering, and insight mapping.
package research

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/bidscout/bidscout/internal/completion"
	"github.com/bidscout/bidscout/internal/config"
	"github.com/bidscout/bidscout/internal/model"
	"github.com/bidscout/bidscout/internal/search"
)

// Agent runs one full research pass over an already-extracted RFP
// document.
type Agent struct {
	extraction *ExtractionStage
	company    *CompanyStage
	evidence   *EvidenceStage
	budgets    config.Budgets
}

// NewAgent wires the research stages from shared services.
func NewAgent(completer completion.Completer, searcher search.Provider, cfg config.Config) *Agent {
	return &Agent{
		extraction: NewExtractionStage(completer),
		company:    NewCompanyStage(completer, searcher, cfg.Budgets),
		evidence:   NewEvidenceStage(searcher, cfg.Budgets, cfg.Thresholds.Evidence),
		budgets:    cfg.Budgets,
	}
}

// PassInput carries the inputs for one research pass. On refinement
// passes FocusQueries holds the validator's follow-up queries,
// EvidenceOffset points at the next unworked requirement window, and
// PriorEvidence and PriorQueries carry the run's accumulated state
// forward.
type PassInput struct {
	DocText        string
	Filename       string
	Company        string
	FocusQueries   []string
	EvidenceOffset int
	PriorEvidence  []model.Evidence
	PriorQueries   []string
}

// Process executes extraction, company research, evidence gathering, and
// insight mapping. Metadata, requirements, and the profile are rebuilt
// from scratch each pass; evidence is appended to the prior arena and
// insights are recomputed over the whole of it. Degraded services reduce
// output rather than failing the pass; the only hard error is a
// cancelled context.
func (a *Agent) Process(ctx context.Context, in PassInput) (model.Findings, error) {
	if err := ctx.Err(); err != nil {
		return model.Findings{}, err
	}

	meta, reqs := a.extraction.Extract(ctx, in.DocText, in.Filename, in.FocusQueries)
	log.Info().Int("requirements", len(reqs)).Str("title", meta.Title).Msg("requirements extracted")

	profile, companyQueries := a.company.Research(ctx, in.Company, meta, reqs, in.FocusQueries)

	newEvidence, evidenceQueries := a.evidence.Gather(ctx, reqs, in.Company, in.EvidenceOffset, a.evidenceLimit())
	log.Info().
		Int("new_evidence", len(newEvidence)).
		Int("offset", in.EvidenceOffset).
		Msg("evidence gathered")

	arena := append(append([]model.Evidence{}, in.PriorEvidence...), newEvidence...)

	queries := append([]string{}, in.PriorQueries...)
	queries = append(queries, companyQueries...)
	queries = append(queries, evidenceQueries...)

	return model.Findings{
		RFPMeta:        meta,
		Requirements:   reqs,
		CompanyProfile: profile,
		Evidence:       arena,
		Insights:       MapInsights(reqs, arena),
		QueriesRun:     queries,
		DocumentSample: documentSample(in.DocText),
	}, nil
}

const documentSampleLimit = 2000

// documentSample keeps the head of the source text for downstream
// cross-checking against the extracted requirements.
func documentSample(docText string) string {
	if len(docText) > documentSampleLimit {
		return docText[:documentSampleLimit]
	}
	return docText
}

// EvidenceLimit is the number of requirements one pass gathers evidence
// for; the engine advances its offset by this amount on each refinement.
func (a *Agent) EvidenceLimit() int {
	return a.evidenceLimit()
}

func (a *Agent) evidenceLimit() int {
	if a.budgets.EvidenceRequirements <= 0 {
		return 2
	}
	return a.budgets.EvidenceRequirements
}
