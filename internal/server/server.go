package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/advisor/config"
	"github.com/mohammad-safakhou/advisor/internal/conversation"
	"github.com/mohammad-safakhou/advisor/internal/orchestration"
	"github.com/mohammad-safakhou/advisor/internal/store"
	"github.com/mohammad-safakhou/advisor/internal/telemetry"
)

// Server exposes the advisor workflow over HTTP.
type Server struct {
	echo      *echo.Echo
	workflow  *orchestration.Workflow
	sessions  conversation.Store
	compactor *conversation.Compactor
	audit     store.AuditStore
	telemetry *telemetry.Telemetry
	logger    *log.Logger
	address   string
}

func New(cfg *config.Config, workflow *orchestration.Workflow, sessions conversation.Store, audit store.AuditStore, tel *telemetry.Telemetry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.HTTPErrorHandler = jsonErrorHandler(logger)

	s := &Server{
		echo:      e,
		workflow:  workflow,
		sessions:  sessions,
		compactor: conversation.NewCompactor(cfg.Conversation),
		audit:     audit,
		telemetry: tel,
		logger:    logger,
		address:   cfg.Server.Address,
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/api/chat", s.handleChat)
	e.GET("/api/stats", s.handleStats)
	e.GET("/api/audit", s.handleAudit)
	return s
}

func jsonErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := "internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		if code >= 500 {
			logger.Printf("%s %s -> %d: %v", c.Request().Method, c.Request().URL.Path, code, err)
		}
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"error": msg})
		}
	}
}

// Start blocks serving HTTP until ctx is canceled, then drains.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", s.address)
		errCh <- s.echo.Start(s.address)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message   string                 `json:"message"`
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id"`
	Payload   *orchestration.Payload `json:"payload,omitempty"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	ctx := c.Request().Context()

	var state conversation.SessionState
	if req.SessionID != "" {
		loaded, err := s.sessions.Load(ctx, req.SessionID)
		if err != nil {
			s.logger.Printf("session load failed for %s: %v", req.SessionID, err)
		} else {
			state = loaded
		}
	}

	result := s.workflow.Run(ctx, orchestration.Request{
		Message:   req.Message,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		History:   state.History,
		Summary:   state.Summary,
		Payload:   req.Payload,
	})

	// Persist the turn, keeping stored history bounded. A fresh summary
	// supersedes the previous one.
	state.History = append(state.History,
		conversation.Message{Role: "user", Content: req.Message},
		conversation.Message{Role: "assistant", Content: result.Response},
	)
	trimmed, summary := s.compactor.Trim(state.History)
	state.History = trimmed
	if summary != nil {
		state.Summary = summary
	}
	if err := s.sessions.Save(ctx, result.SessionID, state); err != nil {
		s.logger.Printf("session save failed for %s: %v", result.SessionID, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleStats(c echo.Context) error {
	if s.telemetry == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{})
	}
	return c.JSON(http.StatusOK, s.telemetry.Snapshot())
}

func (s *Server) handleAudit(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := s.audit.Recent(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read audit log")
	}
	return c.JSON(http.StatusOK, entries)
}
