package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/database"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "brandmonitor",
		"providers": len(s.deps.Providers.ListEnabled()),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}

type scrapeRequest struct {
	URL string `json:"url"`
	// MaxAge is the accepted cache age in milliseconds; zero uses the
	// configured default.
	MaxAge int64 `json:"maxAge"`
}

func (s *Server) handleScrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		abortError(c, brand.NewError(brand.KindValidation, "URL is required", err))
		return
	}
	normalized, err := brand.NormalizeURL(req.URL)
	if err != nil {
		abortError(c, brand.NewError(brand.KindValidation, "Invalid URL format", err))
		return
	}
	if s.deps.Scraper == nil {
		abortError(c, brand.NewError(brand.KindConfiguration, "no scraper configured", nil))
		return
	}

	info, err := s.deps.Scraper.Fetch(c.Request.Context(), normalized, s.scrapeMaxAge(req.MaxAge))
	if err != nil {
		logrus.WithField("url", normalized).WithError(err).Warn("Scrape failed")
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": info, "url": normalized})
}

// scrapeMaxAge turns a requested cache age in milliseconds into a duration,
// using the configured default for zero.
func (s *Server) scrapeMaxAge(ms int64) time.Duration {
	if ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return s.cfg.Scrape.CacheMaxAge
}

const maxBatchURLs = 50

type batchScrapeRequest struct {
	URLs   []string `json:"urls"`
	MaxAge int64    `json:"maxAge"`
}

type batchScrapeResult struct {
	URL     string             `json:"url"`
	Success bool               `json:"success"`
	Data    *brand.CompanyInfo `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// handleBatchScrape scrapes several sites at once. A failing URL is
// reported in its own entry and never fails the batch.
func (s *Server) handleBatchScrape(c *gin.Context) {
	var req batchScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.URLs) == 0 {
		abortError(c, brand.NewError(brand.KindValidation, "urls are required", err))
		return
	}
	if len(req.URLs) > maxBatchURLs {
		abortError(c, brand.NewError(brand.KindValidation,
			fmt.Sprintf("at most %d urls per batch, got %d", maxBatchURLs, len(req.URLs)), nil))
		return
	}
	if s.deps.Scraper == nil {
		abortError(c, brand.NewError(brand.KindConfiguration, "no scraper configured", nil))
		return
	}

	ctx := c.Request.Context()
	maxAge := s.scrapeMaxAge(req.MaxAge)
	results := make([]batchScrapeResult, len(req.URLs))

	var g errgroup.Group
	g.SetLimit(s.cfg.Analysis.MaxConcurrency)
	for i, raw := range req.URLs {
		g.Go(func() error {
			results[i] = s.scrapeOne(ctx, raw, maxAge)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	logrus.WithFields(logrus.Fields{"urls": len(results), "failed": failed}).Info("Batch scrape finished")
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) scrapeOne(ctx context.Context, raw string, maxAge time.Duration) batchScrapeResult {
	normalized, err := brand.NormalizeURL(raw)
	if err != nil {
		return batchScrapeResult{URL: raw, Error: "Invalid URL format"}
	}
	info, err := s.deps.Scraper.Fetch(ctx, normalized, maxAge)
	if err != nil {
		logrus.WithField("url", normalized).WithError(err).Warn("Scrape failed")
		return batchScrapeResult{URL: normalized, Error: err.Error()}
	}
	return batchScrapeResult{URL: normalized, Success: true, Data: info}
}

func (s *Server) handleCheckProviders(c *gin.Context) {
	enabled := s.deps.Providers.ListEnabled()
	names := make([]string, 0, len(enabled))
	for _, p := range enabled {
		names = append(names, p.DisplayName)
	}
	if len(names) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"providers": names,
			"error":     "No AI providers configured. Please set at least one API key.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": names})
}

type webSearchRequest struct {
	Company brand.CompanyInfo `json:"company"`
}

func (s *Server) handleWebSearch(c *gin.Context) {
	var req webSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Company.Name) == "" {
		abortError(c, brand.NewError(brand.KindValidation, "company name is required", err))
		return
	}
	if s.deps.Search == nil {
		c.JSON(http.StatusOK, gin.H{"competitors": []string{}})
		return
	}
	names, err := s.deps.Search.DiscoverCompetitors(c.Request.Context(), req.Company)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"competitors": names})
}

func (s *Server) handleListAnalyses(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := s.db.ListAnalyses(limit)
	if err != nil {
		abortError(c, err)
		return
	}
	if list == nil {
		list = []database.AnalysisSummary{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetAnalysis(c *gin.Context) {
	if s.db == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
		return
	}
	res, err := s.db.GetAnalysis(c.Param("id"))
	if err != nil {
		abortError(c, err)
		return
	}
	if res == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleSaveAnalysis(c *gin.Context) {
	var res brand.AnalysisResult
	if err := c.ShouldBindJSON(&res); err != nil {
		abortError(c, brand.NewError(brand.KindValidation, "invalid analysis", err))
		return
	}
	if res.ID == "" || strings.TrimSpace(res.Company.Name) == "" {
		abortError(c, brand.NewError(brand.KindValidation, "analysis id and company name are required", nil))
		return
	}
	if s.db == nil {
		abortError(c, brand.NewError(brand.KindConfiguration, "analysis storage is disabled", nil))
		return
	}
	if res.GeneratedAt.IsZero() {
		res.GeneratedAt = time.Now().UTC()
	}
	if err := s.db.InsertAnalysis(&res); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": res.ID})
}
