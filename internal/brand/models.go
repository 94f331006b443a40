package brand

import "time"

// Company is the analysis target. It is fixed once a run starts.
type Company struct {
	Name             string   `json:"name"`
	URL              string   `json:"url"`
	NormalizedDomain string   `json:"normalizedDomain"`
	Description      string   `json:"description,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	Markets          []string `json:"markets,omitempty"`
}

// CompanyInfo is what the scraper returns for a URL.
type CompanyInfo struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	Markets     []string  `json:"markets,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
	ScrapedAt   time.Time `json:"scrapedAt"`
}

// CompetitorSource records where a competitor came from.
type CompetitorSource string

const (
	SourceUser       CompetitorSource = "user-provided"
	SourceDiscovered CompetitorSource = "discovered"
)

// Competitor is one entry of the frozen competitor set.
type Competitor struct {
	Name   string           `json:"name"`
	Source CompetitorSource `json:"source"`
}

// PromptOrigin says whether a prompt came from the default templates.
type PromptOrigin string

const (
	OriginDefault PromptOrigin = "default"
	OriginCustom  PromptOrigin = "custom"
)

// Prompt is one evaluation question sent to every provider.
type Prompt struct {
	ID     string       `json:"id"`
	Text   string       `json:"text"`
	Origin PromptOrigin `json:"origin"`
}

// ProviderIdentity names a configured AI backend.
type ProviderIdentity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Model       string `json:"model,omitempty"`
}

// ResponseStatus is the terminal state of a single provider call.
type ResponseStatus string

const (
	StatusOK      ResponseStatus = "ok"
	StatusTimeout ResponseStatus = "timeout"
	StatusError   ResponseStatus = "error"
)

// ProviderResponse is the outcome of one (provider, prompt) pair.
type ProviderResponse struct {
	ProviderID  string         `json:"providerId"`
	PromptID    string         `json:"promptId"`
	RawText     string         `json:"rawText"`
	LatencyMs   int64          `json:"latencyMs"`
	Status      ResponseStatus `json:"status"`
	ErrorDetail string         `json:"errorDetail,omitempty"`
}

// Sentiment is the tone attached to a mention.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Neutral  Sentiment = "neutral"
	Negative Sentiment = "negative"
)

// SubjectKind distinguishes the target company from its competitors.
type SubjectKind string

const (
	SubjectCompany    SubjectKind = "company"
	SubjectCompetitor SubjectKind = "competitor"
)

// Subject is anything that can be mentioned and ranked.
type Subject struct {
	Name string      `json:"name"`
	Kind SubjectKind `json:"kind"`
}

// Mention is a single detected occurrence of a subject in a response.
type Mention struct {
	Subject    Subject   `json:"subject"`
	PromptID   string    `json:"promptId"`
	ProviderID string    `json:"providerId"`
	Position   *int      `json:"position"`
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Offset     int       `json:"offset"`
}

// Ranking is one row of the final ordered comparison.
type Ranking struct {
	Subject      Subject `json:"subject"`
	Score        float64 `json:"score"`
	Rank         int     `json:"rank"`
	MentionCount int     `json:"mentionCount"`
}

// AnalysisResult is built once, when the pipeline finishes.
type AnalysisResult struct {
	ID                string             `json:"id"`
	Company           Company            `json:"company"`
	Competitors       []Competitor       `json:"competitors"`
	Prompts           []Prompt           `json:"prompts"`
	Providers         []ProviderIdentity `json:"providers"`
	VisibilityScore   float64            `json:"visibilityScore"`
	Rankings          []Ranking          `json:"rankings"`
	ProviderResponses []ProviderResponse `json:"providerResponses"`
	Mentions          []Mention          `json:"mentions"`
	GeneratedAt       time.Time          `json:"generatedAt"`
}
