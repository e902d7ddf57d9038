package core

import "time"

// ConceptCategory classifies what kind of trend a concept is.
type ConceptCategory string

const (
	CategoryParadigm     ConceptCategory = "paradigm"
	CategoryTechnique    ConceptCategory = "technique"
	CategoryProtocol     ConceptCategory = "protocol"
	CategoryArchitecture ConceptCategory = "architecture"
	CategoryTool         ConceptCategory = "tool"
)

// HypeLevel describes where a concept sits on the adoption curve.
type HypeLevel string

const (
	HypeEmerging  HypeLevel = "emerging"
	HypePeak      HypeLevel = "peak"
	HypeMaturing  HypeLevel = "maturing"
	HypeDeclining HypeLevel = "declining"
)

// ConceptSourceType distinguishes compiled-in concepts from mined ones.
type ConceptSourceType string

const (
	SourceCurated ConceptSourceType = "curated"
	SourceDynamic ConceptSourceType = "dynamic"
)

// RawSignal represents a single item pulled from an external feed source.
// Signals are ephemeral: they exist only to feed concept extraction.
type RawSignal struct {
	ID          string    `json:"id"`           // Deterministic identifier (source + URL)
	Title       string    `json:"title"`        // Item title
	Summary     string    `json:"summary"`      // Short description/abstract
	URL         string    `json:"url"`          // Link to the item
	Source      string    `json:"source"`       // Name of the source that produced it
	PublishedAt time.Time `json:"published_at"` // Publication timestamp (zero if unknown)
	Score       float64   `json:"score"`        // Source-native score (HN points etc.), 0 if none
}

// TrendConcept is a named technology/idea theme that tutorials can be tied to.
type TrendConcept struct {
	ID              string            `json:"id"`               // Unique identifier
	Name            string            `json:"name"`             // Display name, identity is NormalizeName(Name)
	Description     string            `json:"description"`      // What the concept is
	WhyHot          string            `json:"why_hot"`          // Why it is getting attention right now
	UseCases        []string          `json:"use_cases"`        // Representative use cases
	Keywords        []string          `json:"keywords"`         // Terms used for overlap matching
	Category        ConceptCategory   `json:"category"`         // paradigm/technique/protocol/architecture/tool
	HypeLevel       HypeLevel         `json:"hype_level"`       // emerging/peak/maturing/declining
	SourceType      ConceptSourceType `json:"source_type"`      // curated or dynamic
	FreshnessScore  int               `json:"freshness_score"`  // 0-100, derived from hype level
	ConfidenceScore int               `json:"confidence_score"` // 0-100, how much we trust the concept
	LastUpdated     time.Time         `json:"last_updated"`     // When the concept was last derived/refreshed
}

// CachedConceptSet is the whole-document payload stored in the durable cache.
// It is always replaced as a unit, never partially updated.
type CachedConceptSet struct {
	Concepts       []TrendConcept `json:"concepts"`         // The extracted concepts
	ExtractedAt    time.Time      `json:"extracted_at"`     // When extraction ran
	ExpiresAt      time.Time      `json:"expires_at"`       // ExtractedAt + TTL, informational
	RawSignalCount int            `json:"raw_signal_count"` // How many signals fed the extraction
	Sources        []string       `json:"sources"`          // Which feed sources contributed
}

// Differentiator is one claim about what makes the company unique.
type Differentiator struct {
	Claim           string `json:"claim"`            // The differentiation claim
	Evidence        string `json:"evidence"`         // Supporting evidence
	Category        string `json:"category"`         // e.g. "technology", "market", "team"
	UniquenessScore int    `json:"uniqueness_score"` // 0-100; only >=60 are retained
}

// TargetAudience describes who the company's content should reach.
type TargetAudience struct {
	Primary             string   `json:"primary"`              // Primary audience description
	Secondary           string   `json:"secondary"`            // Secondary audience description
	SophisticationLevel string   `json:"sophistication_level"` // beginner/intermediate/advanced
	JobTitles           []string `json:"job_titles"`           // Typical reader job titles
	Industries          []string `json:"industries"`           // Industries the audience works in
}

// ContentStyle captures how the company writes.
type ContentStyle struct {
	Tone              string   `json:"tone"`                // e.g. "technical but approachable"
	TechnicalDepth    string   `json:"technical_depth"`     // shallow/medium/deep
	FormatPreferences []string `json:"format_preferences"`  // tutorial, benchmark, deep-dive...
	TopicsTheyLike    []string `json:"topics_they_like"`    // Topics that fit the brand
	TopicsToAvoid     []string `json:"topics_to_avoid"`     // Topics to steer away from
}

// CompanyProfile is the fully-populated differentiation profile of a company.
// It is created once per pipeline run and immutable thereafter.
type CompanyProfile struct {
	CompanyName           string           `json:"company_name"`
	OneLinerDescription   string           `json:"one_liner_description"`
	CompanyType           string           `json:"company_type"` // e.g. "devtools", "data infrastructure"
	TechStack             []string         `json:"tech_stack"`
	UniqueDifferentiators []Differentiator `json:"unique_differentiators"`
	TargetAudience        TargetAudience   `json:"target_audience"`
	ContentStyle          ContentStyle     `json:"content_style"`
}

// GapType classifies what kind of content gap was identified.
type GapType string

const (
	GapTechStack       GapType = "tech_stack"
	GapAudience        GapType = "audience"
	GapDifferentiation GapType = "differentiation"
	GapFunnel          GapType = "funnel"
	GapTrending        GapType = "trending"
)

// ContentGap is a topic the company should be writing about but is not.
type ContentGap struct {
	Topic          string  `json:"topic"`           // The missing topic
	GapType        GapType `json:"gap_type"`        // Which dimension the gap is on
	WhyItMatters   string  `json:"why_it_matters"`  // Why closing it matters
	SuggestedAngle string  `json:"suggested_angle"` // How to approach it
	PriorityScore  int     `json:"priority_score"`  // 0-100; only >=55 survive filtering
}

// MatchedConcept pairs a trend concept with its company-fit assessment.
type MatchedConcept struct {
	Concept            TrendConcept `json:"concept"`
	FitScore           int          `json:"fit_score"`           // 0-100; >=70 for strict matches
	FitReason          string       `json:"fit_reason"`          // Why the concept fits
	ProductIntegration string       `json:"product_integration"` // How a tutorial ties in the product
	TutorialAngle      string       `json:"tutorial_angle"`      // Suggested tutorial framing
	FromFallback       bool         `json:"from_fallback"`       // Injected by keyword-overlap fallback
}

// GeneratedIdea is one candidate content idea produced by a generation attempt.
// Never mutated after creation; validation wraps it instead.
type GeneratedIdea struct {
	Title                   string   `json:"title"`
	WhyThisCompany          string   `json:"why_this_company"`           // Tie to differentiator or gap
	WhyNow                  string   `json:"why_now"`                    // Timeliness justification
	WhatReaderLearns        []string `json:"what_reader_learns"`         // Concrete reader takeaways
	Tools                   []string `json:"tools"`                      // Tools/technologies involved
	AIConcept               string   `json:"ai_concept"`                 // Matched concept name, if any
	IsConceptTutorial       bool     `json:"is_concept_tutorial"`        // True when built around a matched concept
	ConceptFitScore         int      `json:"concept_fit_score"`          // Fit score of the tied concept
	TrendEvidence           string   `json:"trend_evidence"`             // Evidence the trend is real
	ProductTrendIntegration string   `json:"product_trend_integration"`  // How product and trend combine
	TrendFreshnessScore     int      `json:"trend_freshness_score"`      // Freshness of the tied trend
	SourceConceptType       string   `json:"source_concept_type"`        // curated/dynamic, empty if none
	Confidence              float64  `json:"confidence"`                 // Model-reported confidence 0-1
}

// IdeaScores holds the five quality dimensions plus the weighted composite.
type IdeaScores struct {
	CompanyRelevance        int     `json:"company_relevance"`
	TrendFreshness          int     `json:"trend_freshness"`
	ProductTrendIntegration int     `json:"product_trend_integration"`
	AudienceRelevance       int     `json:"audience_relevance"`
	DeveloperActionability  int     `json:"developer_actionability"`
	OverallScore            float64 `json:"overall_score"`
}

// ValidationResult wraps a generated idea with its quality-gate verdict.
type ValidationResult struct {
	Idea                  GeneratedIdea `json:"idea"`
	IsValid               bool          `json:"is_valid"`
	Scores                IdeaScores    `json:"scores"`
	RejectionReason       string        `json:"rejection_reason,omitempty"`
	ImprovementSuggestion string        `json:"improvement_suggestion,omitempty"`
}

// StageCost records token usage and estimated spend for one LLM-backed stage.
type StageCost struct {
	Stage        string  `json:"stage"`
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	USD          float64 `json:"usd"`
}

// RunRecord is the persisted outcome of one pipeline run.
type RunRecord struct {
	ID          string             `json:"id"`
	CompanyName string             `json:"company_name"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Success     bool               `json:"success"`
	Degraded    bool               `json:"degraded"`
	Ideas       []ValidationResult `json:"ideas"`
	Costs       []StageCost        `json:"costs"`
	Diagnostics []string           `json:"diagnostics"` // Human-readable notes on which stages degraded
}

// IdeaReview is a human approval decision for one idea in a run.
type IdeaReview struct {
	RunID      string    `json:"run_id"`
	IdeaIndex  int       `json:"idea_index"`
	Decision   string    `json:"decision"` // "approved" or "rejected"
	Note       string    `json:"note"`
	ReviewedAt time.Time `json:"reviewed_at"`
}
