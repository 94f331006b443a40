package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

// InsertAnalysis stores a finished analysis and its ranking rows.
// Saving the same ID again replaces the earlier copy.
func (db *DB) InsertAnalysis(r *brand.AnalysisResult) error {
	if r.ID == "" {
		return fmt.Errorf("analysis has no id")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM analysis_rankings WHERE analysis_id = ?`, r.ID); err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT OR REPLACE INTO analyses
		(id, company_name, company_url, domain, visibility_score, provider_count, prompt_count, result_json, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Company.Name, r.Company.URL, r.Company.NormalizedDomain, r.VisibilityScore,
		len(r.Providers), len(r.Prompts), string(data), r.GeneratedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	for _, rk := range r.Rankings {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO analysis_rankings (analysis_id, subject, kind, rank, score, mention_count)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, rk.Subject.Name, string(rk.Subject.Kind), rk.Rank, rk.Score, rk.MentionCount,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetAnalysis returns a stored analysis, or nil when the id is unknown.
func (db *DB) GetAnalysis(id string) (*brand.AnalysisResult, error) {
	var data string
	err := db.conn.QueryRow(`SELECT result_json FROM analyses WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var r brand.AnalysisResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("decoding analysis %s: %w", id, err)
	}
	return &r, nil
}

// ListAnalyses returns summaries newest first. limit <= 0 means no limit.
func (db *DB) ListAnalyses(limit int) ([]AnalysisSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(
		`SELECT id, company_name, company_url, domain, visibility_score, provider_count, prompt_count, generated_at
		FROM analyses ORDER BY generated_at DESC, id ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisSummary
	for rows.Next() {
		var s AnalysisSummary
		if err := rows.Scan(&s.ID, &s.CompanyName, &s.CompanyURL, &s.Domain,
			&s.VisibilityScore, &s.ProviderCount, &s.PromptCount, &s.GeneratedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetRankingHistory returns the rank of subject across stored analyses of
// one domain, oldest first.
func (db *DB) GetRankingHistory(domain, subject string) ([]brand.Ranking, error) {
	rows, err := db.conn.Query(
		`SELECT r.subject, r.kind, r.rank, r.score, r.mention_count
		FROM analysis_rankings r JOIN analyses a ON a.id = r.analysis_id
		WHERE a.domain = ? AND r.subject = ?
		ORDER BY a.generated_at ASC`, domain, subject,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []brand.Ranking
	for rows.Next() {
		var rk brand.Ranking
		var kind string
		if err := rows.Scan(&rk.Subject.Name, &kind, &rk.Rank, &rk.Score, &rk.MentionCount); err != nil {
			return nil, err
		}
		rk.Subject.Kind = brand.SubjectKind(kind)
		out = append(out, rk)
	}
	return out, rows.Err()
}

// GetStats returns counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	err := db.conn.QueryRow(
		`SELECT COUNT(*), COUNT(DISTINCT domain), MAX(generated_at) FROM analyses`,
	).Scan(&s.Analyses, &s.Companies, &s.LastAnalysis)
	if err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM company_cache`).Scan(&s.CachedSites); err != nil {
		return nil, err
	}
	return &s, nil
}
