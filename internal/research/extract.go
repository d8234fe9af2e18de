package research

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bidscout/bidscout/internal/completion"
	"github.com/bidscout/bidscout/internal/jsonx"
	"github.com/bidscout/bidscout/internal/model"
)

const (
	maxRequirements = 25
	// Applied when no deadline can be located in the document.
	fallbackDeadline = "2025-12-31T23:59:59"
)

// ExtractionStage turns raw RFP text into metadata and categorized
// requirements. The completion service is the primary path; when it is
// unavailable or returns an undecodable reply, a deterministic
// pattern-based fallback produces a usable (if coarser) result, so this
// stage never fails outright.
type ExtractionStage struct {
	completer completion.Completer
}

// NewExtractionStage constructs the extraction stage. completer may be
// nil, which forces the fallback path.
func NewExtractionStage(completer completion.Completer) *ExtractionStage {
	return &ExtractionStage{completer: completer}
}

// Extract analyzes docText. filename seeds the fallback title, and
// focusQueries (follow-ups from a prior validation pass) steer the
// completion prompt on refinement iterations.
func (s *ExtractionStage) Extract(ctx context.Context, docText, filename string, focusQueries []string) (model.RFPMeta, []model.Requirement) {
	if s.completer != nil {
		meta, reqs, err := s.extractWithCompletion(ctx, docText, focusQueries)
		if err == nil {
			return meta, reqs
		}
		log.Warn().Err(err).Msg("completion extraction failed, using pattern fallback")
	}

	meta := fallbackMeta(docText, filename)
	reqs := s.fallbackRequirements(ctx, docText)
	return meta, reqs
}

func (s *ExtractionStage) extractWithCompletion(ctx context.Context, docText string, focusQueries []string) (model.RFPMeta, []model.Requirement, error) {
	reply, err := s.completer.Complete(ctx, completion.Request{
		SystemPrompt: extractionSystemPrompt,
		UserMessage:  buildExtractionPrompt(docText, focusQueries),
	})
	if err != nil {
		return model.RFPMeta{}, nil, err
	}

	obj, err := jsonx.Object(reply, "rfp_meta", "requirements")
	if err != nil {
		return model.RFPMeta{}, nil, err
	}

	metaMap, ok := obj["rfp_meta"].(map[string]any)
	if !ok {
		return model.RFPMeta{}, nil, fmt.Errorf("rfp_meta is not an object")
	}
	var meta model.RFPMeta
	if err := jsonx.Decode(metaMap, &meta); err != nil {
		return model.RFPMeta{}, nil, err
	}

	rawReqs, ok := obj["requirements"].([]any)
	if !ok {
		return model.RFPMeta{}, nil, fmt.Errorf("requirements is not an array")
	}

	var reqs []model.Requirement
	for _, raw := range rawReqs {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		var req model.Requirement
		if err := jsonx.Decode(item, &req); err != nil {
			continue
		}
		req.Text = strings.TrimSpace(req.Text)
		if req.Text == "" {
			continue
		}
		normalizeRequirement(&req, len(reqs)+1)
		reqs = append(reqs, req)
		if len(reqs) >= maxRequirements {
			break
		}
	}
	if len(reqs) == 0 {
		return model.RFPMeta{}, nil, fmt.Errorf("completion returned no requirements")
	}
	return meta, reqs, nil
}

// normalizeRequirement fills in missing or unknown fields so downstream
// stages never see a blank category, priority, or id.
func normalizeRequirement(req *model.Requirement, ordinal int) {
	if req.ID == "" {
		req.ID = fmt.Sprintf("REQ-%03d", ordinal)
	}
	if !knownCategory(req.Category) {
		req.Category = categorize(req.Text)
	}
	switch req.Priority {
	case model.PriorityCritical, model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
	default:
		req.Priority = prioritize(req.Text)
	}
}

func knownCategory(c model.Category) bool {
	for _, known := range model.Categories {
		if c == known {
			return true
		}
	}
	return false
}

var (
	titlePattern = regexp.MustCompile(`(?im)^\s*title[:\s]+(.+)$`)

	deadlinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)deadline[:\s]+([^\n\r]+)`),
		regexp.MustCompile(`(?i)due\s+(?:date|by)[:\s]+([^\n\r]+)`),
		regexp.MustCompile(`(?i)submission\s+(?:date|deadline)[:\s]+([^\n\r]+)`),
		regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
	}

	organizationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*([A-Z][A-Za-z0-9&.,'\- ]{2,60})\s+is\s+seeking`),
		regexp.MustCompile(`(?m)^\s*([A-Z][A-Za-z0-9&.,'\- ]{2,60})\s+requires`),
		regexp.MustCompile(`(?m)^\s*([A-Z][A-Za-z0-9&.,'\- ]{2,60})\s+invites`),
		regexp.MustCompile(`(?i)organization[:\s]+([^\n\r]+)`),
	}

	purposePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)purpose[:\s]+([^\n\r]+)`),
		regexp.MustCompile(`(?i)objective[:\s]+([^\n\r]+)`),
		regexp.MustCompile(`(?i)seeking\s+(?:a|an|to)\s+([^.\n]+)`),
	}

	requirementPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:must|shall|should)\s+[^.\n]{5,250}`),
		regexp.MustCompile(`(?i)\b(?:is|are)\s+required\s+to\s+[^.\n]{5,250}`),
		regexp.MustCompile(`(?im)^\s*REQ-\d+[:.\s]+[^\n]{5,250}`),
	}
)

// fallbackMeta derives metadata from document patterns alone. Results are
// deterministic for a given document.
func fallbackMeta(docText, filename string) model.RFPMeta {
	meta := model.RFPMeta{
		Title:       strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
		DeadlineISO: fallbackDeadline,
	}

	if m := titlePattern.FindStringSubmatch(docText); m != nil {
		meta.Title = cleanMatch(m[1])
	}
	for _, p := range deadlinePatterns {
		if m := p.FindStringSubmatch(docText); m != nil {
			meta.DeadlineISO = cleanMatch(m[1])
			break
		}
	}
	for _, p := range organizationPatterns {
		if m := p.FindStringSubmatch(docText); m != nil {
			meta.Organization = cleanMatch(m[1])
			break
		}
	}
	for _, p := range purposePatterns {
		if m := p.FindStringSubmatch(docText); m != nil {
			meta.Purpose = cleanMatch(m[1])
			break
		}
	}
	return meta
}

func cleanMatch(s string) string {
	return strings.Trim(strings.TrimSpace(s), ".,;")
}

// fallbackRequirements first asks the completion service for plain-text
// requirement candidates (a much simpler reply than full structured
// extraction), then supplements with pattern matches when the candidate
// list is thin or the service is down.
func (s *ExtractionStage) fallbackRequirements(ctx context.Context, docText string) []model.Requirement {
	var texts []string

	if s.completer != nil {
		if reply, err := s.completer.Complete(ctx, completion.Request{
			SystemPrompt: candidateSystemPrompt,
			UserMessage:  docText,
		}); err == nil {
			texts = candidateLines(reply)
		} else {
			log.Debug().Err(err).Msg("candidate completion failed")
		}
	}

	if len(texts) < 3 {
		for _, p := range requirementPatterns {
			for _, match := range p.FindAllString(docText, -1) {
				texts = appendUnique(texts, cleanMatch(match))
			}
		}
	}

	var reqs []model.Requirement
	for _, text := range texts {
		if len(reqs) >= maxRequirements {
			break
		}
		req := model.Requirement{
			ID:       fmt.Sprintf("REQ-%03d", len(reqs)+1),
			Text:     text,
			Category: categorize(text),
			Priority: prioritize(text),
		}
		reqs = append(reqs, req)
	}
	return reqs
}

// candidateLines filters completion output lines down to plausible
// requirement statements. Shall-sentences are not matched here; the
// regex bank picks those up.
func candidateLines(reply string) []string {
	markers := []string{"requirement", "must", "should", "need", "require"}

	var texts []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. \t"))
		if len(line) <= 20 {
			continue
		}
		lower := strings.ToLower(line)
		matched := false
		for _, marker := range markers {
			if strings.Contains(lower, marker) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if idx := strings.Index(line, ":"); idx >= 0 && idx < len(line)-1 {
			line = strings.TrimSpace(line[idx+1:])
		}
		if len(line) <= 15 || len(line) >= 300 {
			continue
		}
		texts = appendUnique(texts, line)
		if len(texts) >= 20 {
			break
		}
	}
	return texts
}

// appendUnique drops candidates that duplicate an existing entry by
// case-insensitive substring containment in either direction.
func appendUnique(texts []string, candidate string) []string {
	if len(candidate) <= 15 || len(candidate) >= 300 {
		return texts
	}
	lower := strings.ToLower(candidate)
	for _, existing := range texts {
		existingLower := strings.ToLower(existing)
		if strings.Contains(existingLower, lower) || strings.Contains(lower, existingLower) {
			return texts
		}
	}
	return append(texts, candidate)
}
