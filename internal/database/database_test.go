package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleAnalysis(id string, at time.Time) *brand.AnalysisResult {
	return &brand.AnalysisResult{
		ID:              id,
		Company:         brand.Company{Name: "Acme", URL: "https://acme.com", NormalizedDomain: "acme.com"},
		Competitors:     []brand.Competitor{{Name: "Globex", Source: brand.SourceUser}},
		Prompts:         []brand.Prompt{{ID: "default-1", Text: "q", Origin: brand.OriginDefault}},
		Providers:       []brand.ProviderIdentity{{ID: "openai", DisplayName: "OpenAI"}},
		VisibilityScore: 70,
		Rankings: []brand.Ranking{
			{Subject: brand.Subject{Name: "Acme", Kind: brand.SubjectCompany}, Score: 70, Rank: 1, MentionCount: 1},
			{Subject: brand.Subject{Name: "Globex", Kind: brand.SubjectCompetitor}, Score: 0, Rank: 2},
		},
		GeneratedAt: at,
	}
}

func TestInsertAndGetAnalysis(t *testing.T) {
	db := openTestDB(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := db.InsertAnalysis(sampleAnalysis("a1", at)); err != nil {
		t.Fatalf("InsertAnalysis: %v", err)
	}

	got, err := db.GetAnalysis("a1")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored analysis")
	}
	if got.Company.Name != "Acme" || len(got.Rankings) != 2 {
		t.Errorf("unexpected analysis: %+v", got)
	}
	if !got.GeneratedAt.Equal(at) {
		t.Errorf("expected generatedAt %v, got %v", at, got.GeneratedAt)
	}
}

func TestGetAnalysisMissing(t *testing.T) {
	db := openTestDB(t)
	got, err := db.GetAnalysis("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestInsertAnalysisRequiresID(t *testing.T) {
	db := openTestDB(t)
	if err := db.InsertAnalysis(sampleAnalysis("", time.Now())); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestInsertAnalysisReplaces(t *testing.T) {
	db := openTestDB(t)
	a := sampleAnalysis("a1", time.Now())
	db.InsertAnalysis(a)
	a.VisibilityScore = 12
	a.Rankings = a.Rankings[:1]
	if err := db.InsertAnalysis(a); err != nil {
		t.Fatalf("second insert: %v", err)
	}

	list, _ := db.ListAnalyses(0)
	if len(list) != 1 || list[0].VisibilityScore != 12 {
		t.Errorf("expected one replaced row, got %+v", list)
	}
	hist, _ := db.GetRankingHistory("acme.com", "Globex")
	if len(hist) != 0 {
		t.Errorf("expected stale ranking rows removed, got %d", len(hist))
	}
}

func TestListAnalysesNewestFirst(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	db.InsertAnalysis(sampleAnalysis("old", base))
	db.InsertAnalysis(sampleAnalysis("new", base.Add(time.Hour)))
	db.InsertAnalysis(sampleAnalysis("mid", base.Add(30*time.Minute)))

	list, err := db.ListAnalyses(2)
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(list))
	}
	if list[0].ID != "new" || list[1].ID != "mid" {
		t.Errorf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}
	if list[0].ProviderCount != 1 || list[0].PromptCount != 1 {
		t.Errorf("unexpected counts: %+v", list[0])
	}
}

func TestRankingHistory(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	db.InsertAnalysis(sampleAnalysis("a1", base))
	a2 := sampleAnalysis("a2", base.Add(time.Hour))
	a2.Rankings[0].Score = 35
	db.InsertAnalysis(a2)

	hist, err := db.GetRankingHistory("acme.com", "Acme")
	if err != nil {
		t.Fatalf("GetRankingHistory: %v", err)
	}
	if len(hist) != 2 || hist[0].Score != 70 || hist[1].Score != 35 {
		t.Errorf("unexpected history: %+v", hist)
	}
	if hist[0].Subject.Kind != brand.SubjectCompany {
		t.Errorf("expected company kind, got %q", hist[0].Subject.Kind)
	}
}

func TestCompanyCacheFreshness(t *testing.T) {
	db := openTestDB(t)
	info := &brand.CompanyInfo{
		Name:      "Acme",
		URL:       "https://acme.com",
		Industry:  "software",
		ScrapedAt: time.Now().Add(-2 * time.Hour),
	}
	if err := db.PutCachedCompany(info); err != nil {
		t.Fatalf("PutCachedCompany: %v", err)
	}

	got, err := db.GetCachedCompany("https://acme.com", 3*time.Hour)
	if err != nil {
		t.Fatalf("GetCachedCompany: %v", err)
	}
	if got == nil || got.Industry != "software" {
		t.Errorf("expected fresh cache hit, got %+v", got)
	}

	if got, _ := db.GetCachedCompany("https://acme.com", time.Hour); got != nil {
		t.Error("expected stale entry to be ignored")
	}
	if got, _ := db.GetCachedCompany("https://acme.com", 0); got != nil {
		t.Error("expected zero maxAge to bypass cache")
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Analyses != 0 || stats.LastAnalysis != nil {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	db.InsertAnalysis(sampleAnalysis("a1", time.Now()))
	db.PutCachedCompany(&brand.CompanyInfo{URL: "https://acme.com"})
	stats, _ = db.GetStats()
	if stats.Analyses != 1 || stats.Companies != 1 || stats.CachedSites != 1 || stats.LastAnalysis == nil {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
