package research

import (
	"fmt"
	"strings"

	"github.com/bidscout/bidscout/internal/model"
)

const extractionSystemPrompt = `You are an RFP analyst. Extract structured metadata and discrete requirements from RFP documents.
Respond with a single JSON object with two top-level keys:
  "rfp_meta": {"title", "version", "deadline_iso", "purpose", "organization", "project_description", "budget_indication", "contract_duration", "presentation_details", "timeline", "evaluation_criteria", "contact_info", "submission_requirements", "special_conditions"}
  "requirements": [{"id", "text", "category", "priority", "business_impact", "evaluation_weight", "source_section"}]
Categories: features, integration, licensing, roi, support, timeline, presentation, evaluation, implementation, users, capabilities.
Priorities: critical, high, medium, low.
Use empty strings for unknown fields. Never invent facts that are not in the document.`

const candidateSystemPrompt = `You are an RFP analyst. List every requirement statement found in the document, one per line, as plain text. Do not number, summarize, or editorialize.`

const querySystemPrompt = `You generate targeted web search queries for researching a company in the context of an RFP.
Respond with a JSON array of query strings. Each query should be specific and self-contained.`

const profileSystemPrompt = `You are a company research analyst. Synthesize the search results into a company profile.
Respond with a single JSON object with keys: "name", "overview", "hq", "sites", "industry", "size", "leadership", "financial_info", "certifications", "technology_stack", "service_areas", "market_position", "recent_projects", "partnerships", "additional_info".
Use empty values for anything the results do not support. Never fabricate.`

const profileFreeTextPrompt = `You are a company research analyst. Write a short factual overview of the company based only on the search results provided. Plain text, no markup.`

func buildExtractionPrompt(docText string, focusQueries []string) string {
	var b strings.Builder
	if len(focusQueries) > 0 {
		b.WriteString("A prior validation pass flagged gaps. Pay extra attention to topics behind these follow-up queries:\n")
		for _, q := range focusQueries {
			fmt.Fprintf(&b, "- %s\n", q)
		}
		b.WriteString("\n")
	}
	b.WriteString("RFP document:\n\n")
	b.WriteString(docText)
	return b.String()
}

func buildQueryPrompt(company string, meta model.RFPMeta, reqs []model.Requirement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company to research: %s\n", company)
	if meta.Organization != "" {
		fmt.Fprintf(&b, "Issuing organization: %s\n", meta.Organization)
	}
	if meta.Title != "" {
		fmt.Fprintf(&b, "RFP title: %s\n", meta.Title)
	}
	if meta.Purpose != "" {
		fmt.Fprintf(&b, "RFP purpose: %s\n", meta.Purpose)
	}
	if len(reqs) > 0 {
		b.WriteString("Representative requirements:\n")
		b.WriteString(requirementDigest(reqs, 10, 2))
	}
	b.WriteString("\nGenerate 8 to 12 search queries covering company background, capabilities, track record, and fit for this RFP.")
	return b.String()
}

func buildProfilePrompt(company string, results []searchContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n\nSearch results:\n", company)
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n%s\n%s\n\n", i+1, r.Title, r.URL, r.Snippet)
	}
	return b.String()
}

// requirementDigest summarizes the first limit requirements, keeping at
// most perCategory examples per category.
func requirementDigest(reqs []model.Requirement, limit, perCategory int) string {
	seen := map[model.Category]int{}
	var b strings.Builder
	for i, req := range reqs {
		if i >= limit {
			break
		}
		if seen[req.Category] >= perCategory {
			continue
		}
		seen[req.Category]++
		fmt.Fprintf(&b, "- [%s] %s\n", req.Category, req.Text)
	}
	return b.String()
}
