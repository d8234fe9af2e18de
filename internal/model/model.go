// Package model defines the shared data types for bidscout runs.
package model

// Category classifies a requirement extracted from an RFP.
type Category string

// Requirement categories.
const (
	CategoryFeatures       Category = "features"
	CategoryIntegration    Category = "integration"
	CategoryLicensing      Category = "licensing"
	CategoryROI            Category = "roi"
	CategorySupport        Category = "support"
	CategoryTimeline       Category = "timeline"
	CategoryPresentation   Category = "presentation"
	CategoryEvaluation     Category = "evaluation"
	CategoryImplementation Category = "implementation"
	CategoryUsers          Category = "users"
	CategoryCapabilities   Category = "capabilities"
)

// Categories lists all known requirement categories.
var Categories = []Category{
	CategoryFeatures,
	CategoryIntegration,
	CategoryLicensing,
	CategoryROI,
	CategorySupport,
	CategoryTimeline,
	CategoryPresentation,
	CategoryEvaluation,
	CategoryImplementation,
	CategoryUsers,
	CategoryCapabilities,
}

// Priority levels for requirements.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Requirement is one discrete, categorized need extracted from the RFP.
// Requirements are immutable once created; identity is ID within a single
// extraction pass.
type Requirement struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Category         Category `json:"category"`
	Priority         string   `json:"priority"`
	BusinessImpact   string   `json:"business_impact,omitempty"`
	EvaluationWeight float64  `json:"evaluation_weight"`
	SourceSection    string   `json:"source_section,omitempty"`
}

// ContactInfo is a contact person listed in the RFP.
type ContactInfo struct {
	Name         string `json:"name,omitempty"`
	Title        string `json:"title,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// PresentationDetails captures presentation requirements from the RFP.
type PresentationDetails struct {
	Date          string   `json:"date,omitempty"`
	Location      string   `json:"location,omitempty"`
	Duration      string   `json:"duration,omitempty"`
	Format        string   `json:"format,omitempty"`
	Attendees     []string `json:"attendees,omitempty"`
	TopicsToCover []string `json:"topics_to_cover,omitempty"`
}

// TimelineItem is a milestone or deadline from the RFP timeline.
type TimelineItem struct {
	Milestone string `json:"milestone"`
	Date      string `json:"date"`
	Status    string `json:"status,omitempty"`
}

// EvaluationCriterion describes how proposals are scored.
type EvaluationCriterion struct {
	Criterion     string  `json:"criterion"`
	Weight        float64 `json:"weight"`
	Description   string  `json:"description,omitempty"`
	ScoringMethod string  `json:"scoring_method,omitempty"`
}

// RFPMeta is RFP-level metadata produced by the extraction stage. A
// refinement pass regenerates it wholesale; prior values are overwritten,
// never merged.
type RFPMeta struct {
	Title                  string                `json:"title"`
	Version                string                `json:"version,omitempty"`
	DeadlineISO            string                `json:"deadline_iso,omitempty"`
	Purpose                string                `json:"purpose,omitempty"`
	Organization           string                `json:"organization,omitempty"`
	ProjectDescription     string                `json:"project_description,omitempty"`
	BudgetIndication       string                `json:"budget_indication,omitempty"`
	ContractDuration       string                `json:"contract_duration,omitempty"`
	PresentationDetails    *PresentationDetails  `json:"presentation_details,omitempty"`
	Timeline               []TimelineItem        `json:"timeline,omitempty"`
	EvaluationCriteria     []EvaluationCriterion `json:"evaluation_criteria,omitempty"`
	ContactInfo            []ContactInfo         `json:"contact_info,omitempty"`
	SubmissionRequirements []string              `json:"submission_requirements,omitempty"`
	SpecialConditions      []string              `json:"special_conditions,omitempty"`
}

// CompanyProfile holds descriptive company research results. All fields
// except Name default to empty; absent data stays empty rather than being
// fabricated.
type CompanyProfile struct {
	Name            string   `json:"name"`
	Overview        string   `json:"overview,omitempty"`
	HQ              string   `json:"hq,omitempty"`
	Sites           []string `json:"sites,omitempty"`
	Industry        string   `json:"industry,omitempty"`
	Size            string   `json:"size,omitempty"`
	Leadership      []string `json:"leadership,omitempty"`
	FinancialInfo   string   `json:"financial_info,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
	TechnologyStack []string `json:"technology_stack,omitempty"`
	ServiceAreas    []string `json:"service_areas,omitempty"`
	MarketPosition  string   `json:"market_position,omitempty"`
	RecentProjects  []string `json:"recent_projects,omitempty"`
	Partnerships    []string `json:"partnerships,omitempty"`
	AdditionalInfo  string   `json:"additional_info,omitempty"`
}

// Evidence is a web-sourced snippet supporting one or more requirements.
// Evidence is append-only within a run and never mutated after creation.
type Evidence struct {
	SourceURL  string   `json:"source_url"`
	Snippet    string   `json:"snippet"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags,omitempty"`
}

// MappedInsight links a requirement to its supporting evidence. The
// evidence indices point into the run's append-only evidence arena and
// stay valid as later iterations append more items.
type MappedInsight struct {
	RequirementID         string  `json:"requirement_id"`
	Rationale             string  `json:"rationale"`
	SupportingEvidenceIdx []int   `json:"supporting_evidence_idx"`
	Confidence            float64 `json:"confidence"`
}

// Findings aggregates the output of one research pass.
type Findings struct {
	RFPMeta        RFPMeta         `json:"rfp_meta"`
	Requirements   []Requirement   `json:"extracted_requirements"`
	CompanyProfile CompanyProfile  `json:"company_profile"`
	Evidence       []Evidence      `json:"evidence"`
	Insights       []MappedInsight `json:"mapped_insights"`
	QueriesRun     []string        `json:"queries_run,omitempty"`
	DocumentSample string          `json:"document_sample,omitempty"`
}

// Gap is a flagged research insufficiency with follow-up queries.
type Gap struct {
	RequirementID    string   `json:"requirement_id"`
	Why              string   `json:"why"`
	SuggestedQueries []string `json:"suggested_queries,omitempty"`
}

// GapAdditionalResearch is the requirement id used for the synthetic gap
// carrying follow-up queries that are not tied to a single requirement.
const GapAdditionalResearch = "ADDITIONAL_RESEARCH"

// ValidationReport scores research sufficiency against the coverage
// threshold.
type ValidationReport struct {
	CoverageScore float64  `json:"coverage_score"`
	Gaps          []Gap    `json:"gaps,omitempty"`
	QualityNotes  []string `json:"quality_notes,omitempty"`
	IsSufficient  bool     `json:"is_sufficient"`
}

// SuggestedQueries flattens the follow-up queries from the report's gaps,
// preserving order.
func (r *ValidationReport) SuggestedQueries() []string {
	var out []string
	for _, gap := range r.Gaps {
		out = append(out, gap.SuggestedQueries...)
	}
	return out
}

// BidSection is one rendered section of the bid outline.
type BidSection struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

// BidOutline is the writer output.
type BidOutline struct {
	Sections []BidSection `json:"sections"`
}
