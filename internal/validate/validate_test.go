package validate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidscout/bidscout/internal/completion"
	"github.com/bidscout/bidscout/internal/model"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(context.Context, completion.Request) (string, error) {
	return f.reply, f.err
}

func TestValidateSufficiencyBoundary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score      float64
		sufficient bool
	}{
		{0.7, true},
		{0.6999, false},
		{0.71, true},
		{0.0, false},
		{1.0, true},
	}
	for _, tc := range cases {
		v := New(&fakeCompleter{reply: reportJSON(tc.score)}, 0.7)
		report := mustValidate(t, v, model.Findings{})
		assert.InDelta(t, tc.score, report.CoverageScore, 1e-9)
		assert.Equal(t, tc.sufficient, report.IsSufficient, "score %v", tc.score)
	}
}

func TestValidateClampsScore(t *testing.T) {
	t.Parallel()

	v := New(&fakeCompleter{reply: reportJSON(1.4)}, 0.7)
	report := mustValidate(t, v, model.Findings{})
	assert.Equal(t, 1.0, report.CoverageScore)
	assert.True(t, report.IsSufficient)
}

func TestValidateInsufficientCarriesQueries(t *testing.T) {
	t.Parallel()

	v := New(&fakeCompleter{reply: `{"validation_score": 0.4,
	  "validation_notes": ["weak evidence for integration"],
	  "additional_search_queries": ["Acme Corp ERP integration", "Acme Corp SSO support"]}`}, 0.7)

	report := mustValidate(t, v, model.Findings{})
	assert.False(t, report.IsSufficient)
	require.Len(t, report.Gaps, 1)
	assert.Equal(t, model.GapAdditionalResearch, report.Gaps[0].RequirementID)
	assert.Equal(t, []string{"Acme Corp ERP integration", "Acme Corp SSO support"}, report.SuggestedQueries())
}

func TestValidateSufficientHasNoGaps(t *testing.T) {
	t.Parallel()

	v := New(&fakeCompleter{reply: `{"validation_score": 0.9, "additional_search_queries": ["leftover query"]}`}, 0.7)
	report := mustValidate(t, v, model.Findings{})
	assert.True(t, report.IsSufficient)
	assert.Empty(t, report.Gaps)
	assert.Empty(t, report.SuggestedQueries())
}

func TestValidateFallbackCoverage(t *testing.T) {
	t.Parallel()

	findings := model.Findings{
		CompanyProfile: model.CompanyProfile{Name: "Acme Corp"},
		Requirements: []model.Requirement{
			{ID: "REQ-001", Category: model.CategoryIntegration},
			{ID: "REQ-002", Category: model.CategoryUsers},
		},
		Evidence: []model.Evidence{
			{Confidence: 0.8},
			{Confidence: 0.6},
		},
		Insights: []model.MappedInsight{
			{RequirementID: "REQ-001", SupportingEvidenceIdx: []int{0, 1}},
		},
	}

	v := New(&fakeCompleter{err: errors.New("service unavailable")}, 0.7)
	report := mustValidate(t, v, findings)

	// 1 of 2 requirements covered, mean confidence 0.7.
	assert.InDelta(t, 0.5*0.7, report.CoverageScore, 1e-9)
	assert.False(t, report.IsSufficient)
	require.Len(t, report.Gaps, 1)
	assert.NotEmpty(t, report.Gaps[0].SuggestedQueries)
	for _, q := range report.SuggestedQueries() {
		assert.Contains(t, q, "Acme Corp")
	}
}

func TestValidateFallbackNoEvidence(t *testing.T) {
	t.Parallel()

	findings := model.Findings{
		CompanyProfile: model.CompanyProfile{Name: "Acme Corp"},
		Requirements:   []model.Requirement{{ID: "REQ-001"}},
	}

	v := New(nil, 0.7)
	report := mustValidate(t, v, findings)

	// No insights means zero coverage regardless of the quality factor.
	assert.Zero(t, report.CoverageScore)
	assert.False(t, report.IsSufficient)
}

func TestValidateUnparseableReplyFallsBack(t *testing.T) {
	t.Parallel()

	v := New(&fakeCompleter{reply: "I think the research looks pretty good overall."}, 0.7)
	report := mustValidate(t, v, model.Findings{
		Requirements: []model.Requirement{{ID: "REQ-001"}},
		Insights:     []model.MappedInsight{{RequirementID: "REQ-001"}},
		Evidence:     []model.Evidence{{Confidence: 0.9}},
	})

	assert.InDelta(t, 0.9, report.CoverageScore, 1e-9)
	assert.True(t, report.IsSufficient)
	assert.NotEmpty(t, report.QualityNotes)
}

func TestBuildPromptCapsRequirementsWithConfidence(t *testing.T) {
	t.Parallel()

	findings := model.Findings{
		RFPMeta:        model.RFPMeta{Title: "Portal RFP", Organization: "Acme City"},
		CompanyProfile: model.CompanyProfile{Name: "Acme Corp"},
		Evidence:       []model.Evidence{{Confidence: 0.8}, {Confidence: 0.4}},
		Insights: []model.MappedInsight{
			{RequirementID: "REQ-001", SupportingEvidenceIdx: []int{0, 1, 99}},
		},
		DocumentSample: "The City of Acme invites proposals for a permit portal.",
	}
	for i := 1; i <= 7; i++ {
		findings.Requirements = append(findings.Requirements, model.Requirement{
			ID:       fmt.Sprintf("REQ-%03d", i),
			Text:     "requirement text",
			Category: model.CategoryFeatures,
			Priority: model.PriorityMedium,
		})
	}

	prompt := buildPrompt(findings)

	assert.Contains(t, prompt, "Key requirements (5 of 7):")
	assert.Contains(t, prompt, "REQ-005")
	assert.NotContains(t, prompt, "REQ-006")
	// Mean of the two in-range indices; the out-of-range one is skipped.
	assert.Contains(t, prompt, "avg confidence 0.60")
	assert.Contains(t, prompt, "Original RFP text (sample):")
	assert.Contains(t, prompt, "invites proposals for a permit portal")
}

func TestEvidenceStatsSkipsOutOfRange(t *testing.T) {
	t.Parallel()

	evidence := []model.Evidence{{Confidence: 0.6}}
	count, avg := evidenceStats(model.MappedInsight{SupportingEvidenceIdx: []int{-1, 0, 5}}, evidence)
	assert.Equal(t, 1, count)
	assert.InDelta(t, 0.6, avg, 1e-9)

	count, avg = evidenceStats(model.MappedInsight{}, evidence)
	assert.Zero(t, count)
	assert.Zero(t, avg)
}

func mustValidate(t *testing.T, v *Validator, findings model.Findings) model.ValidationReport {
	t.Helper()
	report, err := v.Validate(context.Background(), findings)
	require.NoError(t, err)
	return report
}

func reportJSON(score float64) string {
	return `{"validation_score": ` + strconv.FormatFloat(score, 'f', -1, 64) +
		`, "validation_notes": [], "additional_search_queries": ["follow up"]}`
}
