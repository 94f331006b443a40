package database

// AnalysisSummary is one row of the stored analysis history.
type AnalysisSummary struct {
	ID              string  `json:"id"`
	CompanyName     string  `json:"companyName"`
	CompanyURL      string  `json:"companyUrl"`
	Domain          string  `json:"domain"`
	VisibilityScore float64 `json:"visibilityScore"`
	ProviderCount   int     `json:"providerCount"`
	PromptCount     int     `json:"promptCount"`
	GeneratedAt     string  `json:"generatedAt"`
}

// Stats summarizes the database for the status command.
type Stats struct {
	Analyses     int
	Companies    int
	CachedSites  int
	LastAnalysis *string
}
