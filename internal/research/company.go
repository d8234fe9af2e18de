package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bidscout/bidscout/internal/completion"
	"github.com/bidscout/bidscout/internal/config"
	"github.com/bidscout/bidscout/internal/jsonx"
	"github.com/bidscout/bidscout/internal/model"
	"github.com/bidscout/bidscout/internal/search"
)

// CompanyStage researches the bidding company on the web and synthesizes
// a profile. Query generation and profile synthesis both have
// deterministic fallbacks; absent data stays empty rather than being
// fabricated.
type CompanyStage struct {
	completer completion.Completer
	searcher  search.Provider
	budgets   config.Budgets
}

// NewCompanyStage constructs the company research stage. completer and
// searcher may each be nil; the stage degrades accordingly.
func NewCompanyStage(completer completion.Completer, searcher search.Provider, budgets config.Budgets) *CompanyStage {
	return &CompanyStage{completer: completer, searcher: searcher, budgets: budgets}
}

// searchContext is one collected result used as synthesis input.
type searchContext struct {
	Title   string
	URL     string
	Snippet string
}

// Research builds a company profile. extraQueries (follow-ups from a
// prior validation pass) are executed alongside the generated ones.
// Returns the profile and every query actually run.
func (s *CompanyStage) Research(ctx context.Context, company string, meta model.RFPMeta, reqs []model.Requirement, extraQueries []string) (model.CompanyProfile, []string) {
	queries := s.generateQueries(ctx, company, meta, reqs)
	queries = append(queries, extraQueries...)

	var collected []searchContext
	var executed []string
	for _, query := range queries {
		executed = append(executed, query)
		if s.searcher == nil {
			continue
		}
		results, err := s.searcher.Search(ctx, query, s.profileResults())
		if err != nil {
			log.Debug().Err(err).Str("query", query).Msg("company search failed")
			continue
		}
		for _, r := range results {
			collected = append(collected, searchContext{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
		}
	}

	if max := s.contextResults(); len(collected) > max {
		collected = collected[:max]
	}

	profile := s.synthesizeProfile(ctx, company, collected)
	profile.Name = company
	return profile, executed
}

// generateQueries asks the completion service for queries and keeps the
// first three usable ones; anything less falls back to templates.
func (s *CompanyStage) generateQueries(ctx context.Context, company string, meta model.RFPMeta, reqs []model.Requirement) []string {
	if s.completer != nil {
		reply, err := s.completer.Complete(ctx, completion.Request{
			SystemPrompt: querySystemPrompt,
			UserMessage:  buildQueryPrompt(company, meta, reqs),
		})
		if err == nil {
			if generated, perr := jsonx.Strings(reply); perr == nil {
				var queries []string
				for _, q := range generated {
					q = strings.TrimSpace(q)
					if len(q) > 10 {
						queries = append(queries, q)
					}
					if len(queries) >= 3 {
						break
					}
				}
				if len(queries) >= 3 {
					return queries
				}
			} else {
				log.Debug().Err(perr).Msg("query generation reply unparseable")
			}
		} else {
			log.Debug().Err(err).Msg("query generation failed")
		}
	}
	return fallbackQueries(company, meta, reqs)
}

// fallbackQueries builds template queries from the company name, the
// issuing organization, the RFP purpose, and key terms pulled from the
// requirement texts.
func fallbackQueries(company string, meta model.RFPMeta, reqs []model.Requirement) []string {
	candidates := []string{
		fmt.Sprintf("%s company overview profile", company),
		fmt.Sprintf("%s headquarters locations offices", company),
		fmt.Sprintf("%s industry services products", company),
		fmt.Sprintf("%s leadership team executives", company),
		fmt.Sprintf("%s certifications compliance standards", company),
		fmt.Sprintf("%s technology stack platform", company),
		fmt.Sprintf("%s recent projects case studies", company),
		fmt.Sprintf("%s partnerships integrations", company),
		fmt.Sprintf("%s company size employees revenue", company),
	}
	if meta.Organization != "" {
		candidates = append(candidates, fmt.Sprintf("%s experience with %s", company, meta.Organization))
	}
	if terms := keyTerms(meta.Purpose, 3); len(terms) > 0 {
		candidates = append(candidates, fmt.Sprintf("%s %s", company, strings.Join(terms, " ")))
	}
	seen := map[model.Category]bool{}
	for _, req := range reqs {
		if len(seen) >= 3 {
			break
		}
		if seen[req.Category] {
			continue
		}
		seen[req.Category] = true
		terms := strings.Join(keyTerms(req.Text, 2), " ")
		candidates = append(candidates, strings.TrimSpace(fmt.Sprintf("%s %s capabilities %s", company, req.Category, terms)))
	}

	var queries []string
	for _, q := range candidates {
		if len(q) > 15 && len(q) < 150 {
			queries = append(queries, q)
		}
		if len(queries) >= 10 {
			break
		}
	}
	return queries
}

// synthesizeProfile turns collected search results into a structured
// profile. Failed structured synthesis falls back to a free-text
// overview, and a dead completion service yields a minimal profile.
func (s *CompanyStage) synthesizeProfile(ctx context.Context, company string, collected []searchContext) model.CompanyProfile {
	if s.completer == nil || len(collected) == 0 {
		return model.CompanyProfile{Name: company}
	}

	prompt := buildProfilePrompt(company, collected)

	reply, err := s.completer.Complete(ctx, completion.Request{
		SystemPrompt: profileSystemPrompt,
		UserMessage:  prompt,
	})
	if err == nil {
		if obj, perr := jsonx.Object(reply); perr == nil {
			var profile model.CompanyProfile
			if derr := jsonx.Decode(obj, &profile); derr == nil {
				return profile
			}
		}
		log.Debug().Msg("structured profile reply unparseable, trying free text")
	}

	reply, err = s.completer.Complete(ctx, completion.Request{
		SystemPrompt: profileFreeTextPrompt,
		UserMessage:  prompt,
	})
	if err != nil {
		log.Warn().Err(err).Msg("company profile synthesis failed")
		return model.CompanyProfile{Name: company}
	}
	return model.CompanyProfile{
		Name:           company,
		Overview:       strings.TrimSpace(reply),
		AdditionalInfo: "profile synthesized from unstructured research output",
	}
}

func (s *CompanyStage) profileResults() int {
	if s.budgets.ProfileResults <= 0 {
		return 5
	}
	return s.budgets.ProfileResults
}

func (s *CompanyStage) contextResults() int {
	if s.budgets.ContextResults <= 0 {
		return 20
	}
	return s.budgets.ContextResults
}
