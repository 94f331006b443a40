package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func bindInput(c *gin.Context) (pipeline.Input, error) {
	var in pipeline.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		return in, brand.NewError(brand.KindValidation, "invalid request body", err)
	}
	return in, pipeline.Validate(in)
}

// handleAnalyze streams one analysis as server-sent events. Invalid input
// is rejected with a JSON error before any stream is opened.
func (s *Server) handleAnalyze(c *gin.Context) {
	in, err := bindInput(c)
	if err != nil {
		abortError(c, err)
		return
	}

	defer func() {
		if p := recover(); p != nil {
			logrus.WithField("panic", p).Error("Analyze handler panicked")
			if !c.Writer.Written() {
				writeErrorStream(c, http.StatusInternalServerError, "An unexpected error occurred")
			}
		}
	}()

	logrus.WithField("company", in.Company.Name).Info("Starting analysis")
	stream := s.startRun(in)
	defer stream.Detach()

	setSSEHeaders(c)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	rc := responseController(c)
	defer func() { _ = rc.SetWriteDeadline(time.Time{}) }()
	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			logrus.WithField("company", in.Company.Name).Info("Client disconnected, analysis continues")
			return
		case e, ok := <-stream.Events():
			if !ok {
				return
			}
			if err := s.writeEvent(c.Writer, rc, e); err != nil {
				logrus.WithField("company", in.Company.Name).WithError(err).Warn("Writing event failed, analysis continues")
				stream.Detach()
				return
			}
		}
	}
}

// writeEvent sends one event under a fresh write deadline, so a client that
// stopped reading fails the write instead of holding the handler.
func (s *Server) writeEvent(w io.Writer, rc *http.ResponseController, e brand.Event) error {
	err := rc.SetWriteDeadline(time.Now().Add(s.cfg.Server.WriteTimeout))
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	if err := writeSSE(w, e); err != nil {
		return err
	}
	return rc.Flush()
}

func setSSEHeaders(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

func writeSSE(w io.Writer, e brand.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// writeErrorStream answers with a stream holding a single error event.
func writeErrorStream(c *gin.Context, status int, message string) {
	setSSEHeaders(c)
	c.Status(status)
	_ = writeSSE(c.Writer, brand.Event{
		Type:      brand.EventError,
		Stage:     brand.StageInitializing,
		Data:      brand.ErrorData{Error: message, Kind: brand.KindUnexpected},
		Timestamp: time.Now().UTC(),
	})
	c.Writer.Flush()
}

// handleAnalyzeWS runs an analysis over a WebSocket. The first client
// message carries the request; every event goes out as one text frame.
func (s *Server) handleAnalyzeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	var in pipeline.Input
	if err := conn.ReadJSON(&in); err != nil {
		s.writeWSError(conn, brand.NewError(brand.KindValidation, "invalid request body", err))
		return
	}
	if err := pipeline.Validate(in); err != nil {
		s.writeWSError(conn, err)
		return
	}

	stream := s.startRun(in)
	defer stream.Detach()

	// The reader only watches for the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			logrus.WithField("company", in.Company.Name).Info("WebSocket closed, analysis continues")
			return
		case e, ok := <-stream.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "analysis finished"),
					time.Now().Add(s.cfg.Server.WriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.Server.WriteTimeout))
			if err := conn.WriteJSON(e); err != nil {
				logrus.WithError(err).Warn("Writing WebSocket frame failed")
				return
			}
		}
	}
}

func (s *Server) writeWSError(conn *websocket.Conn, err error) {
	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.Server.WriteTimeout))
	_ = conn.WriteJSON(brand.Event{
		Type:      brand.EventError,
		Stage:     brand.StageInitializing,
		Data:      brand.ErrorData{Error: err.Error(), Kind: brand.KindOf(err)},
		Timestamp: time.Now().UTC(),
	})
}
