package research

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bidscout/bidscout/internal/config"
	"github.com/bidscout/bidscout/internal/model"
	"github.com/bidscout/bidscout/internal/search"
)

// EvidenceStage gathers web evidence for a slice of requirements. Each
// pass works an explicit [offset, offset+limit) window so refinement
// iterations cover later requirements instead of re-searching the same
// ones.
type EvidenceStage struct {
	searcher  search.Provider
	budgets   config.Budgets
	threshold float64
}

// NewEvidenceStage constructs the evidence stage. threshold is the
// minimum confidence for keeping a snippet.
func NewEvidenceStage(searcher search.Provider, budgets config.Budgets, threshold float64) *EvidenceStage {
	return &EvidenceStage{searcher: searcher, budgets: budgets, threshold: threshold}
}

// Gather searches for evidence supporting reqs[offset:offset+limit] and
// returns the snippets that score above the retention threshold, plus
// the queries run. Search failures degrade to less evidence, never to an
// error.
func (s *EvidenceStage) Gather(ctx context.Context, reqs []model.Requirement, company string, offset, limit int) ([]model.Evidence, []string) {
	if s.searcher == nil || offset >= len(reqs) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > len(reqs) {
		end = len(reqs)
	}

	var evidence []model.Evidence
	var executed []string
	for _, req := range reqs[offset:end] {
		for _, query := range s.queriesFor(req, company) {
			executed = append(executed, query)
			results, err := s.searcher.Search(ctx, query, s.resultsPerQuery())
			if err != nil {
				log.Debug().Err(err).Str("query", query).Msg("evidence search failed")
				continue
			}
			for _, r := range results {
				conf := evidenceConfidence(req, company, r)
				if conf <= s.keepThreshold() {
					continue
				}
				evidence = append(evidence, model.Evidence{
					SourceURL:  r.URL,
					Snippet:    r.Snippet,
					Confidence: conf,
					Tags:       []string{string(req.Category), "search-result"},
				})
			}
		}
	}
	return evidence, executed
}

// evidenceQueryTemplates is the per-category query bank. Placeholders:
// {company}, {category}, {term} (first key term), {terms2}/{terms3}
// (first two/three key terms joined), {text} (start of the requirement
// text).
var evidenceQueryTemplates = map[model.Category][]string{
	model.CategoryIntegration: {
		"{company} integration {terms2} experience",
		"{company} API connectivity {terms2}",
		"{company} system integration case study {term}",
		"{company} integration capabilities {category}",
	},
	model.CategoryFeatures: {
		"{company} features {terms3}",
		"{company} functionality {terms2} capabilities",
		"{company} product features {term}",
		"{company} solution capabilities {text}",
	},
	model.CategorySupport: {
		"{company} support services {terms2}",
		"{company} customer support {category}",
		"{company} maintenance services {term}",
		"{company} service level agreement SLA",
	},
	model.CategoryUsers: {
		"{company} user management {terms2}",
		"{company} user accounts permissions {term}",
		"{company} user access control system",
		"{company} user administration capabilities",
	},
	model.CategoryCapabilities: {
		"{company} capabilities {terms3}",
		"{company} technology capabilities {terms2}",
		"{company} platform capabilities {term}",
		"{company} solution capabilities demonstration",
	},
}

// genericQueryTemplates serves categories without a dedicated bank.
var genericQueryTemplates = []string{
	"{company} {category} {terms2}",
	"{company} {terms3} experience",
	"{company} case study {category}",
	"{company} expertise {terms2}",
}

// trackRecordTemplates is appended for critical requirements.
var trackRecordTemplates = []string{
	"{company} proven track record {terms2}",
	"{company} success stories {category}",
}

// queriesFor expands the requirement's category template bank. The
// track-record extras for critical requirements are appended before the
// length filter and the per-requirement cap, which applies last.
func (s *EvidenceStage) queriesFor(req model.Requirement, company string) []string {
	terms := keyTerms(req.Text, 4)
	templates, ok := evidenceQueryTemplates[req.Category]
	if !ok {
		templates = genericQueryTemplates
	}

	candidates := make([]string, 0, len(templates)+len(trackRecordTemplates))
	for _, tpl := range templates {
		candidates = append(candidates, expandQueryTemplate(tpl, company, req, terms))
	}
	if req.Priority == model.PriorityCritical {
		for _, tpl := range trackRecordTemplates {
			candidates = append(candidates, expandQueryTemplate(tpl, company, req, terms))
		}
	}

	max := s.queriesPerReq()
	var queries []string
	for _, q := range candidates {
		q = strings.Join(strings.Fields(q), " ")
		if len(q) > 20 && len(q) < 120 {
			queries = append(queries, q)
		}
		if len(queries) >= max {
			break
		}
	}
	return queries
}

func expandQueryTemplate(tpl, company string, req model.Requirement, terms []string) string {
	term := "system"
	if len(terms) > 0 {
		term = terms[0]
	}
	head := req.Text
	if len(head) > 30 {
		head = head[:30]
	}
	return strings.NewReplacer(
		"{company}", company,
		"{category}", string(req.Category),
		"{term}", term,
		"{terms2}", strings.Join(firstTerms(terms, 2), " "),
		"{terms3}", strings.Join(firstTerms(terms, 3), " "),
		"{text}", head,
	).Replace(tpl)
}

func firstTerms(terms []string, n int) []string {
	if len(terms) > n {
		return terms[:n]
	}
	return terms
}

// evidenceConfidence scores a search result against a requirement.
// Components: source authority (company domain 0.3, else institutional
// TLD 0.2), requirement word overlap (up to 0.4, proportional), and a
// company mention in the snippet (0.2). Clamped to [0, 1].
func evidenceConfidence(req model.Requirement, company string, r search.Result) float64 {
	urlLower := strings.ToLower(r.URL)
	snippetLower := strings.ToLower(r.Snippet)
	companyLower := strings.ToLower(company)
	companyCompact := strings.ReplaceAll(companyLower, " ", "")

	var score float64
	switch {
	case companyCompact != "" && strings.Contains(urlLower, companyCompact):
		score += 0.3
	case strings.Contains(urlLower, ".gov") || strings.Contains(urlLower, ".edu") || strings.Contains(urlLower, ".org"):
		score += 0.2
	}

	reqWords := strings.Fields(strings.ToLower(req.Text))
	if len(reqWords) > 0 {
		matched := 0
		for _, word := range reqWords {
			if strings.Contains(snippetLower, word) {
				matched++
			}
		}
		if matched > 0 {
			overlap := float64(matched) / float64(len(reqWords)) * 0.4
			if overlap > 0.4 {
				overlap = 0.4
			}
			score += overlap
		}
	}

	if companyLower != "" && strings.Contains(snippetLower, companyLower) {
		score += 0.2
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (s *EvidenceStage) queriesPerReq() int {
	if s.budgets.QueriesPerReq <= 0 {
		return 4
	}
	return s.budgets.QueriesPerReq
}

func (s *EvidenceStage) resultsPerQuery() int {
	if s.budgets.ResultsPerQuery <= 0 {
		return 3
	}
	return s.budgets.ResultsPerQuery
}

func (s *EvidenceStage) keepThreshold() float64 {
	if s.threshold <= 0 {
		return 0.3
	}
	return s.threshold
}
