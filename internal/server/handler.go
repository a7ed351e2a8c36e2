package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"stockgpt/internal/config"
	"stockgpt/internal/entity"
	"stockgpt/internal/service"
	"stockgpt/pkg/logger"
)

// Handler exposes the analysis pipeline over HTTP.
type Handler struct {
	cfg      *config.Config
	log      *logger.Logger
	analyzer service.AnalyzerService
	comparer service.ComparerService
}

// NewHandler creates an HTTP handler over the analysis services.
func NewHandler(cfg *config.Config, log *logger.Logger, analyzer service.AnalyzerService, comparer service.ComparerService) *Handler {
	return &Handler{cfg: cfg, log: log, analyzer: analyzer, comparer: comparer}
}

// Register sets up middleware and routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.HideBanner = true

	e.GET("/health", h.Health)
	api := e.Group("/api/v1")
	api.GET("/analysis", h.GetAnalysis)
	api.GET("/comparison", h.GetComparison)
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// GetAnalysis runs the single-symbol pipeline.
// Query params: symbol (required), timeframe (default 1mo), news=false to
// skip headlines.
func (h *Handler) GetAnalysis(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol")))
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing symbol"})
	}

	timeframe, err := parseTimeframeParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	opts := service.Options{SkipNews: c.QueryParam("news") == "false"}
	result, err := h.analyzer.Analyze(c.Request().Context(), symbol, timeframe, opts)
	if err != nil {
		return c.JSON(statusFor(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}

// GetComparison runs the multi-symbol pipeline.
// Query params: symbols (comma-separated, required), timeframe, insight=false
// to skip the LLM call.
func (h *Handler) GetComparison(c echo.Context) error {
	var symbols []string
	for _, s := range strings.Split(c.QueryParam("symbols"), ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) < 2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "need at least two symbols"})
	}

	timeframe, err := parseTimeframeParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	withInsight := c.QueryParam("insight") != "false"
	report, err := h.comparer.Compare(c.Request().Context(), symbols, timeframe, withInsight)
	if err != nil {
		return c.JSON(statusFor(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, report)
}

func parseTimeframeParam(c echo.Context) (entity.Timeframe, error) {
	raw := c.QueryParam("timeframe")
	if raw == "" {
		raw = string(entity.Timeframe1M)
	}
	return entity.ParseTimeframe(raw)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidSymbol), errors.Is(err, entity.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrDataUnavailable):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrTransientFetch), errors.Is(err, entity.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
