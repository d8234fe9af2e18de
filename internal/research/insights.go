package research

import (
	"fmt"
	"strings"

	"github.com/bidscout/bidscout/internal/model"
)

// MapInsights links each requirement to the evidence items that support
// it. Indices refer to positions in the evidence slice passed in, which
// within a run is the append-only arena, so they stay valid as later
// iterations add more evidence. Requirements with no relevant evidence
// produce no insight.
func MapInsights(reqs []model.Requirement, evidence []model.Evidence) []model.MappedInsight {
	var insights []model.MappedInsight
	for _, req := range reqs {
		var idx []int
		var total float64
		for i, ev := range evidence {
			if !relevant(req, ev) {
				continue
			}
			idx = append(idx, i)
			total += ev.Confidence
		}
		if len(idx) == 0 {
			continue
		}
		insights = append(insights, model.MappedInsight{
			RequirementID:         req.ID,
			Rationale:             fmt.Sprintf("Evidence found supporting %s requirement", req.Category),
			SupportingEvidenceIdx: idx,
			Confidence:            total / float64(len(idx)),
		})
	}
	return insights
}

// relevant reports whether an evidence item supports a requirement:
// either it is tagged with the requirement's category, or one of the
// requirement's first three words appears in the snippet.
func relevant(req model.Requirement, ev model.Evidence) bool {
	for _, tag := range ev.Tags {
		if tag == string(req.Category) {
			return true
		}
	}
	snippetLower := strings.ToLower(ev.Snippet)
	words := strings.Fields(strings.ToLower(req.Text))
	if len(words) > 3 {
		words = words[:3]
	}
	for _, word := range words {
		if strings.Contains(snippetLower, word) {
			return true
		}
	}
	return false
}
