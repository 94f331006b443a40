package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

// GetCachedCompany returns scraped data for url if it is younger than maxAge.
// A zero maxAge disables the cache.
func (db *DB) GetCachedCompany(url string, maxAge time.Duration) (*brand.CompanyInfo, error) {
	if maxAge <= 0 {
		return nil, nil
	}

	var data, scrapedAt string
	err := db.conn.QueryRow(
		`SELECT info_json, scraped_at FROM company_cache WHERE url = ?`, url,
	).Scan(&data, &scrapedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	at, err := time.Parse(time.RFC3339Nano, scrapedAt)
	if err != nil || time.Since(at) > maxAge {
		return nil, nil
	}

	var info brand.CompanyInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("decoding cached company: %w", err)
	}
	return &info, nil
}

// PutCachedCompany stores scraped data keyed by its URL.
func (db *DB) PutCachedCompany(info *brand.CompanyInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	scrapedAt := info.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}
	_, err = db.conn.Exec(
		`INSERT OR REPLACE INTO company_cache (url, info_json, scraped_at) VALUES (?, ?, ?)`,
		info.URL, string(data), scrapedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}
