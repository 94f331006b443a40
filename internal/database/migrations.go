package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    company_name TEXT NOT NULL,
    company_url TEXT NOT NULL,
    domain TEXT NOT NULL,
    visibility_score REAL NOT NULL DEFAULT 0,
    provider_count INTEGER DEFAULT 0,
    prompt_count INTEGER DEFAULT 0,
    result_json TEXT NOT NULL,
    generated_at TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS analysis_rankings (
    analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
    subject TEXT NOT NULL,
    kind TEXT NOT NULL,
    rank INTEGER NOT NULL,
    score REAL NOT NULL,
    mention_count INTEGER DEFAULT 0,
    PRIMARY KEY (analysis_id, subject)
);

CREATE TABLE IF NOT EXISTS company_cache (
    url TEXT PRIMARY KEY,
    info_json TEXT NOT NULL,
    scraped_at TEXT NOT NULL
);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index analyses by domain",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_analyses_domain ON analyses(domain, generated_at);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
