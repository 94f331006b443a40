// Package server exposes the analysis pipeline over HTTP: a streaming
// analyze endpoint (SSE and WebSocket) and JSON endpoints around it.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/config"
	"github.com/TobiSchelling/brandmonitor/internal/database"
	"github.com/TobiSchelling/brandmonitor/internal/pipeline"
	"github.com/TobiSchelling/brandmonitor/internal/progress"
)

// Server is the HTTP front end of brandmonitor.
type Server struct {
	cfg     *config.Config
	db      *database.DB
	deps    pipeline.Deps
	orch    *pipeline.Orchestrator
	engine  *gin.Engine
	started time.Time

	// runs tracks analyses still in flight after their caller left.
	runs sync.WaitGroup
}

// New creates a Server. db may be nil, in which case results are not stored.
func New(cfg *config.Config, db *database.DB, deps pipeline.Deps) *Server {
	s := &Server{
		cfg:     cfg,
		db:      db,
		deps:    deps,
		orch:    pipeline.New(cfg, deps),
		engine:  gin.New(),
		started: time.Now(),
	}
	s.engine.Use(gin.Recovery(), requestLogger(), corsMiddleware())
	s.routes()
	return s
}

// rawWriterKey carries the connection's own ResponseWriter in the request
// context. gin's wrapper does not expose it to http.ResponseController.
type rawWriterKey struct{}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.engine.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), rawWriterKey{}, w)))
	})
}

// responseController controls the connection behind c, falling back to
// gin's writer when the request did not come through Handler.
func responseController(c *gin.Context) *http.ResponseController {
	if w, ok := c.Request.Context().Value(rawWriterKey{}).(http.ResponseWriter); ok {
		return http.NewResponseController(w)
	}
	return http.NewResponseController(c.Writer)
}

// ListenAndServe serves on addr until ctx ends, then shuts down and waits
// for running analyses to be stored.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- httpSrv.ListenAndServe() }()
	logrus.Infof("Server listening on http://%s", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := httpSrv.Shutdown(shutdownCtx)
	logrus.Info("Waiting for running analyses to finish")
	s.Wait()
	return err
}

// Wait blocks until every started analysis has finished and been stored.
func (s *Server) Wait() {
	s.runs.Wait()
}

func (s *Server) routes() {
	s.engine.GET("/api/health", s.handleHealth)

	bm := s.engine.Group("/api/brand-monitor")
	bm.POST("/analyze", s.handleAnalyze)
	bm.GET("/analyze/ws", s.handleAnalyzeWS)
	bm.POST("/scrape", s.handleScrape)
	bm.POST("/batch-scrape", s.handleBatchScrape)
	bm.POST("/check-providers", s.handleCheckProviders)
	bm.POST("/web-search", s.handleWebSearch)
	bm.GET("/analyses", s.handleListAnalyses)
	bm.GET("/analyses/:id", s.handleGetAnalysis)
	bm.POST("/analyses", s.handleSaveAnalysis)
}

// startRun launches an analysis detached from the request. The stream is
// closed after the result has been stored, so a caller that reads to the
// end can fetch the analysis by id right away.
func (s *Server) startRun(in pipeline.Input) *progress.Stream {
	stream := progress.NewStream(s.cfg.Analysis.EventBuffer)
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer stream.Close()

		res, err := s.orch.Run(context.Background(), in, stream)
		if err != nil {
			return
		}
		s.store(res)
	}()
	return stream
}

func (s *Server) store(res *brand.AnalysisResult) {
	if s.db == nil {
		return
	}
	if err := s.db.InsertAnalysis(res); err != nil {
		logrus.WithField("id", res.ID).WithError(err).Error("Storing analysis failed")
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("HTTP request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// abortError writes a JSON error with a status derived from its kind.
func abortError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch brand.KindOf(err) {
	case brand.KindValidation:
		status = http.StatusBadRequest
	case brand.KindScrape, brand.KindProvider, brand.KindTimeout:
		status = http.StatusBadGateway
	case brand.KindConfiguration:
		status = http.StatusServiceUnavailable
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
		"code":  brand.KindOf(err),
	})
}
