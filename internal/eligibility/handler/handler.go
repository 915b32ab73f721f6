package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"saral/internal/eligibility/assist"
	"saral/internal/eligibility/intent"
	"saral/internal/eligibility/models"
	"saral/internal/eligibility/service"
	"saral/internal/eligibility/store/cases"
	id "saral/pkg/domain"
	"saral/pkg/platform/audit"
	"saral/pkg/platform/httputil"
	"saral/pkg/platform/middleware/admin"
	"saral/pkg/requestcontext"
)

// HeaderAppVersion is set on every response from these routes.
const HeaderAppVersion = "X-App-Version"

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for eligibility operations.
type Service interface {
	Adjudicate(ctx context.Context, cmd service.AdjudicateCommand) (*service.AdjudicationResult, error)
	GetCase(ctx context.Context, caseID id.CaseID) (models.ExternalView, error)
	ListCases(ctx context.Context, q service.CaseQuery) (*service.Dashboard, error)
	ExportCases(ctx context.Context, q service.ExportQuery) ([]service.ExportRow, error)
	Dispose(ctx context.Context, cmd service.DisposeCommand) (models.ExternalView, error)
	Summary(ctx context.Context) ([]cases.StatusCount, error)
	PruneProfiles(ctx context.Context) (int, error)
	RecentEvents(ctx context.Context, limit int) ([]audit.Event, error)
	Health(ctx context.Context) service.HealthReport
	ModelMeta(ctx context.Context) service.ModelInfo
	Assist(ctx context.Context, in assist.Input) assist.Result
	ClassifyIntent(ctx context.Context, text string) intent.Outcome
}

// Config holds the handler's static settings.
type Config struct {
	AppVersion string
	AdminToken string
}

// Handler wires case and ops endpoints to the eligibility service.
type Handler struct {
	service Service
	logger  *slog.Logger
	cfg     Config
}

// New constructs an eligibility handler with its dependencies.
func New(service Service, logger *slog.Logger, cfg Config) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}
}

// Register mounts case and ops endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.versionHeader)

		r.Post("/cases", h.HandleAdjudicate)
		r.Get("/cases", h.HandleListCases)
		r.Get("/cases/export.csv", h.HandleExport)
		r.Get("/cases/{id}", h.HandleGetCase)
		r.Post("/cases/{id}/disposition", h.HandleDisposition)

		r.Get("/ops/health", h.HandleHealth)
		r.Get("/ops/meta/models", h.HandleModelMeta)
		r.Get("/ops/summary", h.HandleSummary)
		r.With(admin.RequireAdminToken(h.cfg.AdminToken, h.logger)).
			Post("/ops/maintenance/prune", h.HandlePrune)

		r.Get("/events/recent", h.HandleRecentEvents)

		r.Post("/ai/assist", h.HandleAssist)
		r.Post("/ai/classify", h.HandleClassify)
	})
}

func (h *Handler) versionHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AppVersion != "" {
			w.Header().Set(HeaderAppVersion, h.cfg.AppVersion)
		}
		next.ServeHTTP(w, r)
	})
}

// HandleAdjudicate handles POST /cases requests.
func (h *Handler) HandleAdjudicate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[AdjudicateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Adjudicate(ctx, req.Command(requestcontext.Channel(ctx)))
	if err != nil {
		h.logger.ErrorContext(ctx, "adjudication failed",
			"request_id", requestID,
			"scheme_code", req.SchemeCode,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case created",
		"request_id", requestID,
		"case_id", result.View.ID,
		"scheme_code", result.View.SchemeCode,
		"status", string(result.View.Status),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, result.View)
}

// HandleGetCase handles GET /cases/{id} requests.
func (h *Handler) HandleGetCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.GetCase(ctx, caseID)
	if err != nil {
		h.logFailure(ctx, "get case failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleListCases handles GET /cases requests.
func (h *Handler) HandleListCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := parseCaseQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	dash, err := h.service.ListCases(ctx, q)
	if err != nil {
		h.logFailure(ctx, "list cases failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dash)
}

// HandleExport handles GET /cases/export.csv requests.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := parseExportQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows, err := h.service.ExportCases(ctx, q)
	if err != nil {
		h.logFailure(ctx, "export failed", err)
		httputil.WriteError(w, err)
		return
	}

	// Render before writing headers so an encoding failure can still map to 500.
	var buf bytes.Buffer
	if err := writeExportCSV(&buf, rows); err != nil {
		h.logFailure(ctx, "export encoding failed", err)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename(requestcontext.Now(ctx))+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleDisposition handles POST /cases/{id}/disposition requests.
func (h *Handler) HandleDisposition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[DispositionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.Dispose(ctx, req.Command(caseID))
	if err != nil {
		h.logger.WarnContext(ctx, "disposition rejected",
			"request_id", requestID,
			"case_id", caseID.String(),
			"final_action", req.FinalAction,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleHealth handles GET /ops/health requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.service.Health(r.Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, report)
}

// HandleModelMeta handles GET /ops/meta/models requests.
func (h *Handler) HandleModelMeta(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.ModelMeta(r.Context()))
}

// HandleSummary handles GET /ops/summary requests.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts, err := h.service.Summary(ctx)
	if err != nil {
		h.logFailure(ctx, "summary failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSummary(counts))
}

// HandlePrune handles POST /ops/maintenance/prune requests.
func (h *Handler) HandlePrune(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.service.PruneProfiles(ctx)
	if err != nil {
		h.logFailure(ctx, "prune failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PruneResponse{Pruned: n})
}

// HandleRecentEvents handles GET /events/recent requests.
func (h *Handler) HandleRecentEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.service.RecentEvents(ctx, limit)
	if err != nil {
		h.logFailure(ctx, "recent events failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

// HandleAssist handles POST /ai/assist requests.
func (h *Handler) HandleAssist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AssistRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.Assist(ctx, req.Input()))
}

// HandleClassify handles POST /ai/classify requests. An unavailable
// classifier still answers 200 with the unknown label.
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ClassifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.ClassifyIntent(ctx, req.Text))
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
