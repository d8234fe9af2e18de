package research

import (
	"strings"

	"github.com/bidscout/bidscout/internal/model"
)

// categoryRules is an ordered table of keyword predicates; the first rule
// whose keyword set matches wins. Kept as data so the mapping can be
// tested and tuned without touching control flow.
var categoryRules = []struct {
	category model.Category
	keywords []string
}{
	{model.CategoryIntegration, []string{"integration", "api", "connect", "interface", "teams", "sharepoint", "salesforce"}},
	{model.CategoryUsers, []string{"users", "accounts", "permissions", "access", "super user"}},
	{model.CategorySupport, []string{"support", "helpdesk", "service", "maintenance", "training"}},
	{model.CategoryROI, []string{"cost", "price", "roi", "budget", "savings", "return on investment"}},
	{model.CategoryLicensing, []string{"license", "licensing", "permit", "agreement", "user accounts"}},
	{model.CategoryTimeline, []string{"timeline", "schedule", "deadline", "time", "duration", "implementation"}},
	{model.CategoryPresentation, []string{"presentation", "present", "demo", "demonstrate"}},
	{model.CategoryEvaluation, []string{"evaluation", "assess", "scoring", "criteria", "judge"}},
	{model.CategoryImplementation, []string{"implement", "deploy", "rollout", "go-live"}},
	{model.CategoryCapabilities, []string{"capability", "feature", "function", "ai-driven", "web-based"}},
}

// priorityRules is evaluated in order of decreasing urgency; the first
// match wins and anything unmatched is medium.
var priorityRules = []struct {
	priority string
	keywords []string
}{
	{model.PriorityCritical, []string{"must", "shall", "required", "mandatory", "critical", "essential"}},
	{model.PriorityHigh, []string{"should", "important", "key", "significant", "major"}},
	{model.PriorityLow, []string{"nice to have", "optional", "preferred", "desired", "could"}},
}

// categorize assigns a requirement category by keyword lookup, defaulting
// to features.
func categorize(text string) model.Category {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.category
			}
		}
	}
	return model.CategoryFeatures
}

// prioritize assigns a priority level by keyword lookup, defaulting to
// medium.
func prioritize(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range priorityRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.priority
			}
		}
	}
	return model.PriorityMedium
}

// queryStopWords are excluded when pulling key terms out of requirement
// text for search queries.
var queryStopWords = map[string]bool{
	"must": true, "shall": true, "should": true, "will": true,
	"need": true, "require": true, "system": true,
}

// keyTerms extracts up to max lowercase terms longer than four characters
// from text, skipping the stop list.
func keyTerms(text string, max int) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:()[]\"'")
		if len(word) <= 4 || queryStopWords[word] {
			continue
		}
		terms = append(terms, word)
		if len(terms) >= max {
			break
		}
	}
	return terms
}
