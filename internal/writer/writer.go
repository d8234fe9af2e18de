// Package writer renders the bid outline from validated research
// findings.
package writer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bidscout/bidscout/internal/completion"
	"github.com/bidscout/bidscout/internal/model"
)

const summarySystemPrompt = `You write executive summaries for RFP bid responses.
Write 2-3 short paragraphs of plain prose positioning the company for this RFP, grounded strictly in the supplied research. No headings, no bullet lists, no fabricated claims.`

// Writer turns findings and the final validation report into a bid
// outline. The executive summary uses the completion service when
// available; every other section is assembled deterministically, and a
// dead service degrades to a templated summary.
type Writer struct {
	completer completion.Completer
}

// New constructs a writer. completer may be nil.
func New(completer completion.Completer) *Writer {
	return &Writer{completer: completer}
}

// Compose builds the outline. Evidence indices carried by insights are
// bounds-checked against the arena before use; out-of-range references
// are skipped rather than failing the write. The only hard error is a
// cancelled context.
func (w *Writer) Compose(ctx context.Context, findings model.Findings, report model.ValidationReport) (model.BidOutline, error) {
	if err := ctx.Err(); err != nil {
		return model.BidOutline{}, err
	}
	return model.BidOutline{
		Sections: []model.BidSection{
			{Title: "Executive Summary", Markdown: w.executiveSummary(ctx, findings)},
			{Title: "Understanding of Requirements", Markdown: requirementsSection(findings)},
			{Title: "Proposed Solution Approach", Markdown: solutionSection(findings)},
			{Title: "Implementation Timeline", Markdown: timelineSection(findings)},
			{Title: "Research Coverage", Markdown: coverageSection(findings, report)},
		},
	}, nil
}

func (w *Writer) executiveSummary(ctx context.Context, findings model.Findings) string {
	if w.completer != nil {
		reply, err := w.completer.Complete(ctx, completion.Request{
			SystemPrompt: summarySystemPrompt,
			UserMessage:  summaryPrompt(findings),
		})
		if err == nil && strings.TrimSpace(reply) != "" {
			return strings.TrimSpace(reply)
		}
		if err != nil {
			log.Warn().Err(err).Msg("summary completion failed, using template")
		}
	}

	company := findings.CompanyProfile.Name
	var b strings.Builder
	fmt.Fprintf(&b, "%s responds to %q", company, findings.RFPMeta.Title)
	if findings.RFPMeta.Organization != "" {
		fmt.Fprintf(&b, " issued by %s", findings.RFPMeta.Organization)
	}
	fmt.Fprintf(&b, ". The proposal addresses %d identified requirements", len(findings.Requirements))
	if findings.CompanyProfile.Overview != "" {
		fmt.Fprintf(&b, ". %s", findings.CompanyProfile.Overview)
	}
	b.WriteString(".")
	return b.String()
}

func summaryPrompt(findings model.Findings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RFP: %s\nIssuer: %s\nPurpose: %s\nCompany: %s\n",
		findings.RFPMeta.Title, findings.RFPMeta.Organization, findings.RFPMeta.Purpose, findings.CompanyProfile.Name)
	if findings.CompanyProfile.Overview != "" {
		fmt.Fprintf(&b, "Company overview: %s\n", findings.CompanyProfile.Overview)
	}
	b.WriteString("Top requirements:\n")
	for i, req := range findings.Requirements {
		if i >= 8 {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", req.Priority, req.Text)
	}
	return b.String()
}

// requirementsSection groups requirements by category, critical first
// within each group, and cites supporting evidence where the insight map
// provides any.
func requirementsSection(findings model.Findings) string {
	insightByReq := map[string]model.MappedInsight{}
	for _, insight := range findings.Insights {
		insightByReq[insight.RequirementID] = insight
	}

	grouped := map[model.Category][]model.Requirement{}
	for _, req := range findings.Requirements {
		grouped[req.Category] = append(grouped[req.Category], req)
	}

	var b strings.Builder
	for _, category := range model.Categories {
		reqs := grouped[category]
		if len(reqs) == 0 {
			continue
		}
		sort.SliceStable(reqs, func(i, j int) bool {
			return priorityRank(reqs[i].Priority) < priorityRank(reqs[j].Priority)
		})

		fmt.Fprintf(&b, "### %s\n\n", titleCase(string(category)))
		for _, req := range reqs {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", req.ID, req.Priority, req.Text)
			if insight, ok := insightByReq[req.ID]; ok {
				for _, citation := range citations(insight, findings.Evidence) {
					fmt.Fprintf(&b, "  - %s\n", citation)
				}
			}
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "No requirements were extracted from the RFP document."
	}
	return strings.TrimSpace(b.String())
}

// citations resolves an insight's evidence indices, dropping any that
// fall outside the arena.
func citations(insight model.MappedInsight, evidence []model.Evidence) []string {
	var out []string
	for _, idx := range insight.SupportingEvidenceIdx {
		if idx < 0 || idx >= len(evidence) {
			continue
		}
		ev := evidence[idx]
		out = append(out, fmt.Sprintf("Supporting evidence (%.2f): %s (%s)", ev.Confidence, truncate(ev.Snippet, 160), ev.SourceURL))
		if len(out) >= 2 {
			break
		}
	}
	return out
}

func solutionSection(findings model.Findings) string {
	profile := findings.CompanyProfile
	var b strings.Builder
	fmt.Fprintf(&b, "%s proposes a solution aligned to the categories identified in the RFP.\n\n", profile.Name)

	if len(profile.TechnologyStack) > 0 {
		fmt.Fprintf(&b, "**Technology foundation:** %s\n\n", strings.Join(profile.TechnologyStack, ", "))
	}
	if len(profile.Certifications) > 0 {
		fmt.Fprintf(&b, "**Certifications:** %s\n\n", strings.Join(profile.Certifications, ", "))
	}
	if len(profile.RecentProjects) > 0 {
		b.WriteString("**Relevant track record:**\n")
		for _, project := range profile.RecentProjects {
			fmt.Fprintf(&b, "- %s\n", project)
		}
		b.WriteString("\n")
	}

	seen := map[model.Category]bool{}
	b.WriteString("**Focus areas:**\n")
	for _, req := range findings.Requirements {
		if seen[req.Category] {
			continue
		}
		seen[req.Category] = true
		fmt.Fprintf(&b, "- %s\n", titleCase(string(req.Category)))
	}
	return strings.TrimSpace(b.String())
}

func timelineSection(findings model.Findings) string {
	var b strings.Builder
	if deadline := findings.RFPMeta.DeadlineISO; deadline != "" {
		fmt.Fprintf(&b, "Submission deadline: %s\n\n", deadline)
	}
	if len(findings.RFPMeta.Timeline) > 0 {
		b.WriteString("| Milestone | Date |\n|---|---|\n")
		for _, item := range findings.RFPMeta.Timeline {
			fmt.Fprintf(&b, "| %s | %s |\n", item.Milestone, item.Date)
		}
		return strings.TrimSpace(b.String())
	}
	b.WriteString("The RFP specifies no detailed milestone schedule; the implementation plan will be finalized with the issuer after award.")
	return strings.TrimSpace(b.String())
}

func coverageSection(findings model.Findings, report model.ValidationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research coverage score: %.2f\n\n", report.CoverageScore)
	fmt.Fprintf(&b, "- Requirements analyzed: %d\n- Evidence items gathered: %d\n- Requirements with mapped evidence: %d\n",
		len(findings.Requirements), len(findings.Evidence), len(findings.Insights))
	for _, note := range report.QualityNotes {
		fmt.Fprintf(&b, "- %s\n", note)
	}
	return strings.TrimSpace(b.String())
}

func priorityRank(priority string) int {
	switch priority {
	case model.PriorityCritical:
		return 0
	case model.PriorityHigh:
		return 1
	case model.PriorityMedium:
		return 2
	default:
		return 3
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
