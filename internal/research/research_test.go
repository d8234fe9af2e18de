package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidscout/bidscout/internal/completion"
	"github.com/bidscout/bidscout/internal/config"
	"github.com/bidscout/bidscout/internal/model"
	"github.com/bidscout/bidscout/internal/search"
)

// fakeCompleter replies based on a substring match against the system
// prompt, or fails wholesale.
type fakeCompleter struct {
	err     error
	replies map[string]string
	calls   int
}

func (f *fakeCompleter) Complete(_ context.Context, req completion.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	for marker, reply := range f.replies {
		if strings.Contains(req.SystemPrompt, marker) {
			return reply, nil
		}
	}
	return "", errors.New("no scripted reply")
}

type fakeSearcher struct {
	results []search.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]search.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestCategorize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want model.Category
	}{
		{"seamless integration with existing tools", model.CategoryIntegration},
		{"the system shall support 500 users", model.CategoryUsers},
		{"24/7 helpdesk availability", model.CategorySupport},
		{"total cost of ownership analysis", model.CategoryROI},
		{"vendor presentation and demo", model.CategoryPresentation},
		{"something entirely unrelated", model.CategoryFeatures},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, categorize(tc.text), tc.text)
	}
}

func TestPrioritize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.PriorityCritical, prioritize("the vendor must provide X"))
	assert.Equal(t, model.PriorityCritical, prioritize("this must be done, though it should also be nice"))
	assert.Equal(t, model.PriorityHigh, prioritize("the vendor should provide X"))
	assert.Equal(t, model.PriorityLow, prioritize("dark mode is nice to have"))
	assert.Equal(t, model.PriorityMedium, prioritize("the vendor provides X"))
}

func TestExtractionFallback(t *testing.T) {
	t.Parallel()

	stage := NewExtractionStage(&fakeCompleter{err: errors.New("service unavailable")})

	doc := "The system shall support 500 users. Deadline: 2025-06-01."
	meta, reqs := stage.Extract(context.Background(), doc, "city-rfp.pdf", nil)

	assert.Equal(t, "2025-06-01", meta.DeadlineISO)
	assert.Equal(t, "city-rfp", meta.Title)

	require.NotEmpty(t, reqs)
	var found *model.Requirement
	for i := range reqs {
		if strings.Contains(reqs[i].Text, "500 users") {
			found = &reqs[i]
			break
		}
	}
	require.NotNil(t, found, "expected a requirement containing '500 users'")
	assert.Equal(t, model.CategoryUsers, found.Category)
	assert.Equal(t, model.PriorityCritical, found.Priority)
}

func TestExtractionFallbackDefaultDeadline(t *testing.T) {
	t.Parallel()

	stage := NewExtractionStage(nil)
	meta, _ := stage.Extract(context.Background(), "The vendor must deliver a portal.", "rfp.docx", nil)
	assert.Equal(t, fallbackDeadline, meta.DeadlineISO)
}

func TestExtractionFallbackDeterministic(t *testing.T) {
	t.Parallel()

	stage := NewExtractionStage(nil)
	doc := "Acme City is seeking a vendor. The system must integrate with Teams. Users shall have role-based access."
	meta1, reqs1 := stage.Extract(context.Background(), doc, "rfp.pdf", nil)
	meta2, reqs2 := stage.Extract(context.Background(), doc, "rfp.pdf", nil)
	assert.Equal(t, meta1, meta2)
	assert.Equal(t, reqs1, reqs2)
	assert.Equal(t, "Acme City", meta1.Organization)
}

func TestExtractionCompletionPath(t *testing.T) {
	t.Parallel()

	reply := `{"rfp_meta": {"title": "Portal RFP", "organization": "Acme City", "deadline_iso": "2025-06-01"},
	  "requirements": [
	    {"text": "The system shall support 500 users", "category": "users", "priority": "critical"},
	    {"text": "Integrate with SharePoint", "category": "bogus-category"}
	  ]}`
	stage := NewExtractionStage(&fakeCompleter{replies: map[string]string{"RFP analyst": reply}})

	meta, reqs := stage.Extract(context.Background(), "doc text", "rfp.pdf", nil)

	assert.Equal(t, "Portal RFP", meta.Title)
	assert.Equal(t, "Acme City", meta.Organization)
	require.Len(t, reqs, 2)
	assert.Equal(t, "REQ-001", reqs[0].ID)
	assert.Equal(t, model.CategoryUsers, reqs[0].Category)
	// Unknown category falls back to the keyword table.
	assert.Equal(t, model.CategoryIntegration, reqs[1].Category)
	assert.Equal(t, model.PriorityMedium, reqs[1].Priority)
}

func TestCandidateLines(t *testing.T) {
	t.Parallel()

	reply := strings.Join([]string{
		"1. The vendor must provide single sign-on for all users",
		"short must", // too short
		"Requirement: the platform should export reports as PDF",
		"This line mentions nothing relevant at all for filtering",
		"- The system shall integrate with the existing ERP landscape",
	}, "\n")

	lines := candidateLines(reply)
	require.Len(t, lines, 2)
	assert.Equal(t, "the platform should export reports as PDF", lines[1])
	// Shall-only sentences are left for the regex bank.
	for _, line := range lines {
		assert.NotContains(t, line, "ERP")
	}
}

func TestAppendUniqueContainment(t *testing.T) {
	t.Parallel()

	texts := appendUnique(nil, "the system must support single sign-on")
	texts = appendUnique(texts, "The system MUST support single sign-on") // duplicate
	texts = appendUnique(texts, "must support single sign-on")            // contained
	texts = appendUnique(texts, "the platform should export PDF reports")
	assert.Len(t, texts, 2)
}

func TestEvidenceConfidence(t *testing.T) {
	t.Parallel()

	req := model.Requirement{Text: "integrate with teams"}

	// Company domain + full word overlap + company mention.
	r := search.Result{
		URL:     "https://acmecorp.com/integrations",
		Snippet: "Acme Corp products integrate with Microsoft Teams",
	}
	assert.InDelta(t, 0.9, evidenceConfidence(req, "Acme Corp", r), 1e-9)

	// Institutional domain only.
	r = search.Result{URL: "https://example.gov/procurement", Snippet: "unrelated"}
	assert.InDelta(t, 0.2, evidenceConfidence(req, "Acme Corp", r), 1e-9)

	// Partial overlap: 1 of 3 requirement words.
	r = search.Result{URL: "https://random.io", Snippet: "teams of engineers"}
	assert.InDelta(t, 0.4/3, evidenceConfidence(req, "Acme Corp", r), 1e-9)

	// Nothing matches.
	r = search.Result{URL: "https://random.io", Snippet: "nothing here"}
	assert.Zero(t, evidenceConfidence(req, "Acme Corp", r))
}

func TestEvidenceQueryTemplatesPerCategory(t *testing.T) {
	t.Parallel()

	stage := NewEvidenceStage(nil, config.Default().Budgets, 0.3)

	integration := stage.queriesFor(model.Requirement{
		Text: "must integrate with microsoft teams", Category: model.CategoryIntegration,
	}, "Acme Corp")
	require.NotEmpty(t, integration)
	assert.Contains(t, integration[0], "integration")
	assert.Contains(t, integration[0], "integrate microsoft")

	support := stage.queriesFor(model.Requirement{
		Text: "provide helpdesk training", Category: model.CategorySupport,
	}, "Acme Corp")
	require.NotEmpty(t, support)
	assert.Contains(t, support[0], "support services")

	// Categories without a dedicated bank use the generic templates.
	timeline := stage.queriesFor(model.Requirement{
		Text: "deliver milestones quarterly", Category: model.CategoryTimeline,
	}, "Acme Corp")
	require.NotEmpty(t, timeline)
	found := false
	for _, q := range timeline {
		if strings.Contains(q, "case study timeline") {
			found = true
		}
	}
	assert.True(t, found, "generic bank includes a case study query")
}

func TestEvidenceQueryCapAppliesAfterCriticalExtras(t *testing.T) {
	t.Parallel()

	stage := NewEvidenceStage(nil, config.Default().Budgets, 0.3)
	queries := stage.queriesFor(model.Requirement{
		Text:     "must integrate with microsoft teams",
		Category: model.CategoryIntegration,
		Priority: model.PriorityCritical,
	}, "Acme Corp")

	assert.LessOrEqual(t, len(queries), config.Default().Budgets.QueriesPerReq)
	// All four base templates survive the length filter, so the
	// track-record extras never make the cut.
	for _, q := range queries {
		assert.NotContains(t, q, "track record")
	}
}

func TestEvidenceGatherWindowAndThreshold(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []search.Result{
		{URL: "https://acmecorp.com/a", Snippet: "Acme Corp integrates with Microsoft Teams"},
		{URL: "https://random.io/b", Snippet: "nothing relevant"},
	}}
	reqs := []model.Requirement{
		{ID: "REQ-001", Text: "integrate with microsoft teams", Category: model.CategoryIntegration, Priority: model.PriorityCritical},
		{ID: "REQ-002", Text: "provide training sessions", Category: model.CategorySupport, Priority: model.PriorityMedium},
		{ID: "REQ-003", Text: "export reports", Category: model.CategoryFeatures, Priority: model.PriorityMedium},
	}

	stage := NewEvidenceStage(searcher, config.Default().Budgets, 0.3)
	evidence, queries := stage.Gather(context.Background(), reqs, "Acme Corp", 0, 2)

	require.NotEmpty(t, evidence)
	require.NotEmpty(t, queries)
	for _, ev := range evidence {
		assert.Greater(t, ev.Confidence, 0.3)
		assert.Len(t, ev.Tags, 2)
		assert.Equal(t, "search-result", ev.Tags[1])
	}
	// The window covers REQ-001 and REQ-002 only.
	for _, q := range searcher.queries {
		assert.NotContains(t, q, "export")
	}

	// Offset past the end yields nothing.
	evidence, queries = stage.Gather(context.Background(), reqs, "Acme Corp", 5, 2)
	assert.Empty(t, evidence)
	assert.Empty(t, queries)
}

func TestEvidenceGatherSearchFailure(t *testing.T) {
	t.Parallel()

	stage := NewEvidenceStage(&fakeSearcher{err: errors.New("rate limited")}, config.Default().Budgets, 0.3)
	evidence, queries := stage.Gather(context.Background(), []model.Requirement{
		{ID: "REQ-001", Text: "integrate with teams", Category: model.CategoryIntegration},
	}, "Acme Corp", 0, 2)

	assert.Empty(t, evidence)
	assert.NotEmpty(t, queries, "attempted queries are still reported")
}

func TestMapInsights(t *testing.T) {
	t.Parallel()

	reqs := []model.Requirement{
		{ID: "REQ-001", Text: "integrate with teams", Category: model.CategoryIntegration},
		{ID: "REQ-002", Text: "quantum blockchain synergy", Category: model.CategoryROI},
	}
	evidence := []model.Evidence{
		{Snippet: "irrelevant", Confidence: 0.9, Tags: []string{"users", "search-result"}},
		{Snippet: "acme integrates well", Confidence: 0.5, Tags: []string{"integration", "search-result"}},
		{Snippet: "they integrate with everything", Confidence: 0.7, Tags: []string{"support", "search-result"}},
	}

	insights := MapInsights(reqs, evidence)
	require.Len(t, insights, 1)

	in := insights[0]
	assert.Equal(t, "REQ-001", in.RequirementID)
	assert.Equal(t, []int{1, 2}, in.SupportingEvidenceIdx)
	assert.InDelta(t, 0.6, in.Confidence, 1e-9)
	assert.Contains(t, in.Rationale, "integration")
}

func TestMapInsightsEmptyEvidence(t *testing.T) {
	t.Parallel()

	insights := MapInsights([]model.Requirement{{ID: "REQ-001", Text: "anything"}}, nil)
	assert.Empty(t, insights)
}

func TestCompanyResearchFallbackQueries(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []search.Result{
		{Title: "About", URL: "https://acmecorp.com", Snippet: "Acme Corp builds software"},
	}}
	stage := NewCompanyStage(&fakeCompleter{err: errors.New("down")}, searcher, config.Default().Budgets)

	profile, queries := stage.Research(context.Background(), "Acme Corp", model.RFPMeta{Organization: "Acme City"}, []model.Requirement{
		{ID: "REQ-001", Text: "integrate", Category: model.CategoryIntegration},
	}, nil)

	assert.Equal(t, "Acme Corp", profile.Name)
	require.NotEmpty(t, queries)
	assert.LessOrEqual(t, len(queries), 10)
	for _, q := range queries {
		assert.Contains(t, q, "Acme Corp")
		assert.Greater(t, len(q), 15)
		assert.Less(t, len(q), 150)
	}
}

func TestCompanyResearchStructuredProfile(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{replies: map[string]string{
		"search queries":   `["Acme Corp company overview", "Acme Corp certifications list", "Acme Corp recent projects"]`,
		"research analyst": `{"name": "wrong name", "overview": "Acme Corp builds municipal software", "industry": "govtech"}`,
	}}
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Acme", URL: "https://acmecorp.com", Snippet: "Acme Corp builds software"},
	}}
	stage := NewCompanyStage(completer, searcher, config.Default().Budgets)

	profile, queries := stage.Research(context.Background(), "Acme Corp", model.RFPMeta{}, nil, []string{"Acme Corp security certifications"})

	// The caller-supplied name always wins over the synthesized one.
	assert.Equal(t, "Acme Corp", profile.Name)
	assert.Equal(t, "govtech", profile.Industry)
	assert.Len(t, queries, 4)
	assert.Equal(t, "Acme Corp security certifications", queries[3])
}

func TestCompanyResearchNoResults(t *testing.T) {
	t.Parallel()

	stage := NewCompanyStage(nil, &fakeSearcher{}, config.Default().Budgets)
	profile, _ := stage.Research(context.Background(), "Ghost LLC", model.RFPMeta{}, nil, nil)

	assert.Equal(t, "Ghost LLC", profile.Name)
	assert.Empty(t, profile.Overview, "absent data stays empty")
}

func TestAgentProcessAccumulatesEvidence(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Acme", URL: "https://acmecorp.com/teams", Snippet: "Acme Corp integrates with teams"},
	}}
	agent := NewAgent(&fakeCompleter{err: errors.New("down")}, searcher, config.Default())

	doc := "The system must integrate with Teams. The vendor shall provide training for all users."
	first, err := agent.Process(context.Background(), PassInput{
		DocText: doc, Filename: "rfp.pdf", Company: "Acme Corp",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.Evidence)

	second, err := agent.Process(context.Background(), PassInput{
		DocText: doc, Filename: "rfp.pdf", Company: "Acme Corp",
		EvidenceOffset: agent.EvidenceLimit(),
		PriorEvidence:  first.Evidence,
		PriorQueries:   first.QueriesRun,
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(second.Evidence), len(first.Evidence))
	assert.Equal(t, first.Evidence, second.Evidence[:len(first.Evidence)], "arena is append-only")
	assert.Greater(t, len(second.QueriesRun), len(first.QueriesRun))
}

func TestAgentProcessNoSearcher(t *testing.T) {
	t.Parallel()

	agent := NewAgent(nil, nil, config.Default())
	findings, err := agent.Process(context.Background(), PassInput{
		DocText:  "The system must integrate with Teams.",
		Filename: "rfp.pdf",
		Company:  "Acme Corp",
	})
	require.NoError(t, err)

	assert.Empty(t, findings.Evidence)
	assert.Empty(t, findings.Insights)
	assert.Equal(t, "Acme Corp", findings.CompanyProfile.Name)
	assert.NotEmpty(t, findings.Requirements)
}

func TestFallbackQueriesUseRequirementTerms(t *testing.T) {
	t.Parallel()

	queries := fallbackQueries("Acme Corp", model.RFPMeta{}, []model.Requirement{
		{ID: "REQ-001", Text: "provide migration tooling for legacy records", Category: model.CategoryImplementation},
	})
	found := false
	for _, q := range queries {
		if strings.Contains(q, "migration") {
			found = true
		}
	}
	assert.True(t, found, "category queries carry requirement key terms")

	queries = fallbackQueries("Acme Corp", model.RFPMeta{Purpose: "modernize the permit licensing portal"}, nil)
	found = false
	for _, q := range queries {
		if strings.Contains(q, "modernize") {
			found = true
		}
	}
	assert.True(t, found, "purpose key terms feed a query")
}

func TestAgentProcessCapturesDocumentSample(t *testing.T) {
	t.Parallel()

	agent := NewAgent(nil, nil, config.Default())
	doc := strings.Repeat("The vendor must provide support. ", 100)
	require.Greater(t, len(doc), documentSampleLimit)

	findings, err := agent.Process(context.Background(), PassInput{
		DocText: doc, Filename: "rfp.pdf", Company: "Acme Corp",
	})
	require.NoError(t, err)
	assert.Len(t, findings.DocumentSample, documentSampleLimit)
	assert.Equal(t, doc[:documentSampleLimit], findings.DocumentSample)
}

func TestFallbackQueriesLengthBounds(t *testing.T) {
	t.Parallel()

	queries := fallbackQueries("X", model.RFPMeta{}, nil)
	for _, q := range queries {
		assert.Greater(t, len(q), 15, fmt.Sprintf("query too short: %q", q))
		assert.Less(t, len(q), 150)
	}
}
