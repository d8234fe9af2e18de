// Package validate scores research sufficiency and produces follow-up
// queries for the refinement loop.
package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bidscout/bidscout/internal/completion"
	"github.com/bidscout/bidscout/internal/jsonx"
	"github.com/bidscout/bidscout/internal/model"
)

const systemPrompt = `You are a research quality reviewer for RFP bid preparation.
Given the extracted requirements, company profile, and gathered evidence, judge whether the research is sufficient to write a credible bid.
Respond with a single JSON object:
  {"validation_score": <0.0-1.0>, "validation_notes": ["..."], "additional_search_queries": ["..."]}
The score reflects evidence coverage and quality across requirements. Suggest concrete follow-up queries for whatever is weakest.`

// Validator scores one pass of research findings against the coverage
// threshold. A single completion call is the primary path; an
// undecodable reply or a dead service falls back to a deterministic
// coverage computation.
type Validator struct {
	completer completion.Completer
	threshold float64
}

// New constructs a validator. threshold is the minimum coverage score
// for research to count as sufficient.
func New(completer completion.Completer, threshold float64) *Validator {
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Validator{completer: completer, threshold: threshold}
}

// Validate produces the validation report for findings. The report is
// sufficient exactly when its coverage score reaches the threshold. A
// completion fault falls back to the deterministic coverage computation;
// the only hard error is a cancelled context.
func (v *Validator) Validate(ctx context.Context, findings model.Findings) (model.ValidationReport, error) {
	if err := ctx.Err(); err != nil {
		return model.ValidationReport{}, err
	}
	if v.completer != nil {
		report, err := v.validateWithCompletion(ctx, findings)
		if err == nil {
			return report, nil
		}
		log.Warn().Err(err).Msg("completion validation failed, using coverage fallback")
	}
	return v.fallbackReport(findings), nil
}

func (v *Validator) validateWithCompletion(ctx context.Context, findings model.Findings) (model.ValidationReport, error) {
	reply, err := v.completer.Complete(ctx, completion.Request{
		SystemPrompt: systemPrompt,
		UserMessage:  buildPrompt(findings),
	})
	if err != nil {
		return model.ValidationReport{}, err
	}

	obj, err := jsonx.Object(reply, "validation_score")
	if err != nil {
		return model.ValidationReport{}, err
	}

	var decoded struct {
		ValidationScore   float64  `json:"validation_score"`
		ValidationNotes   []string `json:"validation_notes"`
		AdditionalQueries []string `json:"additional_search_queries"`
	}
	if err := jsonx.Decode(obj, &decoded); err != nil {
		return model.ValidationReport{}, err
	}

	score := clamp01(decoded.ValidationScore)
	return v.buildReport(score, decoded.ValidationNotes, decoded.AdditionalQueries), nil
}

// fallbackReport computes coverage deterministically: the fraction of
// requirements holding at least one mapped insight, weighted by mean
// evidence confidence (0.5 when there is no evidence at all).
func (v *Validator) fallbackReport(findings model.Findings) model.ValidationReport {
	covered := map[string]bool{}
	for _, insight := range findings.Insights {
		covered[insight.RequirementID] = true
	}

	var coverage float64
	if len(findings.Requirements) > 0 {
		count := 0
		for _, req := range findings.Requirements {
			if covered[req.ID] {
				count++
			}
		}
		coverage = float64(count) / float64(len(findings.Requirements))
	}

	quality := 0.5
	if len(findings.Evidence) > 0 {
		var total float64
		for _, ev := range findings.Evidence {
			total += ev.Confidence
		}
		quality = total / float64(len(findings.Evidence))
	}

	score := clamp01(coverage * quality)
	notes := []string{
		fmt.Sprintf("fallback validation: %d/%d requirements covered, mean evidence confidence %.2f",
			len(covered), len(findings.Requirements), quality),
	}
	return v.buildReport(score, notes, fallbackQueries(findings))
}

// buildReport assembles the report. Follow-up queries ride in a single
// synthetic gap since they are not tied to one requirement.
func (v *Validator) buildReport(score float64, notes, queries []string) model.ValidationReport {
	report := model.ValidationReport{
		CoverageScore: score,
		QualityNotes:  notes,
		IsSufficient:  score >= v.threshold,
	}
	if !report.IsSufficient && len(queries) > 0 {
		report.Gaps = []model.Gap{{
			RequirementID:    model.GapAdditionalResearch,
			Why:              fmt.Sprintf("coverage score %.2f below threshold %.2f", score, v.threshold),
			SuggestedQueries: queries,
		}}
	}
	return report
}

// fallbackQueries templates follow-ups from the company name and the
// least-covered requirement categories.
func fallbackQueries(findings model.Findings) []string {
	company := findings.CompanyProfile.Name
	covered := map[string]bool{}
	for _, insight := range findings.Insights {
		covered[insight.RequirementID] = true
	}

	queries := []string{
		fmt.Sprintf("%s customer references testimonials", company),
		fmt.Sprintf("%s implementation methodology", company),
	}
	seen := map[model.Category]bool{}
	for _, req := range findings.Requirements {
		if covered[req.ID] || seen[req.Category] {
			continue
		}
		seen[req.Category] = true
		queries = append(queries, fmt.Sprintf("%s %s experience", company, req.Category))
		if len(queries) >= 5 {
			break
		}
	}
	return queries
}

// promptRequirementCap bounds how many requirements the scoring prompt
// details individually.
const promptRequirementCap = 5

// buildPrompt summarizes the findings for the scoring call: totals, the
// first few requirements with their evidence counts and mean
// confidences, and a sample of the source document when one was
// captured.
func buildPrompt(findings model.Findings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RFP: %s\nOrganization: %s\nCompany: %s\n",
		findings.RFPMeta.Title, findings.RFPMeta.Organization, findings.CompanyProfile.Name)
	fmt.Fprintf(&b, "Total requirements: %d\nTotal evidence items: %d\n",
		len(findings.Requirements), len(findings.Evidence))

	insightByReq := map[string]model.MappedInsight{}
	for _, insight := range findings.Insights {
		insightByReq[insight.RequirementID] = insight
	}

	reqs := findings.Requirements
	if len(reqs) > promptRequirementCap {
		reqs = reqs[:promptRequirementCap]
	}
	fmt.Fprintf(&b, "\nKey requirements (%d of %d):\n", len(reqs), len(findings.Requirements))
	for _, req := range reqs {
		count, avg := evidenceStats(insightByReq[req.ID], findings.Evidence)
		text := req.Text
		if len(text) > 80 {
			text = text[:80]
		}
		fmt.Fprintf(&b, "- %s [%s/%s] %s (evidence: %d, avg confidence %.2f)\n",
			req.ID, req.Category, req.Priority, text, count, avg)
	}

	if findings.CompanyProfile.Overview != "" {
		fmt.Fprintf(&b, "\nCompany overview: %s\n", findings.CompanyProfile.Overview)
	}
	if findings.DocumentSample != "" {
		fmt.Fprintf(&b, "\nOriginal RFP text (sample):\n%s\n", findings.DocumentSample)
	}
	return b.String()
}

// evidenceStats counts the evidence items backing one requirement and
// averages their confidence. Out-of-range indices are skipped.
func evidenceStats(insight model.MappedInsight, evidence []model.Evidence) (int, float64) {
	var total float64
	count := 0
	for _, idx := range insight.SupportingEvidenceIdx {
		if idx < 0 || idx >= len(evidence) {
			continue
		}
		total += evidence[idx].Confidence
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return count, total / float64(count)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
