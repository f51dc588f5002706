package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"refdatasync/internal/application/service/pipeline"
	domain "refdatasync/internal/domain/entity/refdata"
	"refdatasync/internal/domain/interfaces"
	"refdatasync/internal/infrastructure/exchanges"
	"refdatasync/internal/infrastructure/reports"
)

const apiBasePath = "/api/v1"

var errReportsDisabled = errors.New("report store is not configured")

// Runner executes one reconciliation run.
type Runner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (*domain.Report, error)
}

// SourceLister lists the configured exchange adapters.
type SourceLister interface {
	Sources() []exchanges.SourceInfo
}

type Handler struct {
	router  *gin.Engine
	runner  Runner
	sources SourceLister
	reports interfaces.ReportStore
	log     *logrus.Entry
}

// NewHandler wires the API routes. reportStore may be nil, in which case the
// reports endpoint answers 503.
func NewHandler(runner Runner, sources SourceLister, reportStore interfaces.ReportStore, log *logrus.Logger) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:  router,
		runner:  runner,
		sources: sources,
		reports: reportStore,
		log:     log.WithField("component", "http"),
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/healthz", h.health)

	api := h.router.Group(apiBasePath)
	{
		api.GET("/sources", h.listSources)
		api.GET("/reports/:exchange", h.getReport)
		api.POST("/reconcile/:exchange", h.reconcile)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type sourceResponse struct {
	Name       string   `json:"name"`
	ExchangeID string   `json:"exchange_id"`
	URLs       []string `json:"urls"`
}

// listSources returns the adapters in asset merge order.
func (h *Handler) listSources(c *gin.Context) {
	infos := h.sources.Sources()
	out := make([]sourceResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, sourceResponse{Name: info.Name, ExchangeID: info.ExchangeID, URLs: info.URLs})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getReport(c *gin.Context) {
	if h.reports == nil {
		writeError(c, http.StatusServiceUnavailable, errReportsDisabled)
		return
	}
	report, err := h.reports.LatestReport(c.Request.Context(), c.Param("exchange"))
	if err != nil {
		if errors.Is(err, reports.ErrReportNotFound) {
			writeError(c, http.StatusNotFound, err)
			return
		}
		h.log.WithError(err).Error("load report failed")
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// reconcile previews a run. It never writes to the reference database.
func (h *Handler) reconcile(c *gin.Context) {
	audit, err := parseBoolQuery(c, "audit")
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	downloadAssets, err := parseBoolQuery(c, "download_assets")
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	report, err := h.runner.Run(c.Request.Context(), pipeline.RunOptions{
		Exchange:       c.Param("exchange"),
		Audit:          audit,
		DownloadAssets: downloadAssets,
		DryRun:         true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrFatalConfig) {
			writeError(c, http.StatusBadRequest, err)
			return
		}
		h.log.WithError(err).WithField("exchange", c.Param("exchange")).Error("preview run failed")
		writeError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func parseBoolQuery(c *gin.Context, key string) (bool, error) {
	value := c.Query(key)
	if value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.New(key + " must be a boolean")
	}
	return parsed, nil
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
