package portal

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-esg/meridian-esg/internal/assignment"
	"github.com/meridian-esg/meridian-esg/internal/checklist"
	"github.com/meridian-esg/meridian-esg/internal/masterdata"
	"github.com/meridian-esg/meridian-esg/internal/platform/httpx"
	"github.com/meridian-esg/meridian-esg/internal/profiling"
	"github.com/meridian-esg/meridian-esg/internal/rbac"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// Handler wires the portal JSON API.
type Handler struct {
	logger      *slog.Logger
	coordinator *Coordinator
	validate    *validator.Validate
	rbac        rbac.Middleware
}

// NewHandler constructs the portal handler.
func NewHandler(logger *slog.Logger, coordinator *Coordinator, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:      logger,
		coordinator: coordinator,
		validate:    validator.New(),
		rbac:        rbacMW,
	}
}

// MountRoutes registers portal routes. Read routes are additionally gated by
// the capability middleware; the coordinator re-checks every mutation
// regardless.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleDataChecklist, rbac.ActionRead))
		// Aggregation walks every site; keep it off the hot path.
		r.With(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(keyByPrincipal))).
			Get("/checklist", h.handleChecklist)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ModuleDashboard, rbac.ActionRead))
		r.Get("/locations", h.handleLocations)
	})
	r.Post("/assign-category", h.handleAssignCategory)
	r.Post("/assign-element", h.handleAssignElement)
	r.Post("/profiling/answer", h.handleProfilingAnswer)
}

func keyByPrincipal(r *http.Request) (string, error) {
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		return "user:" + strconv.FormatInt(p.UserID, 10), nil
	}
	return httprate.KeyByIP(r)
}

func (h *Handler) handleChecklist(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no identity for request")
		return
	}
	siteID := r.URL.Query().Get("site")
	if siteID == "" {
		siteID = masterdata.AggregateSiteID
	}
	view, err := h.coordinator.ChecklistView(r.Context(), *principal, siteID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) handleLocations(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no identity for request")
		return
	}
	view, err := h.coordinator.Locations(r.Context(), *principal)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

type assignCategoryRequest struct {
	SiteID   string `json:"site_id" validate:"required"`
	Category string `json:"category" validate:"required,oneof=Environmental Social Governance"`
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) handleAssignCategory(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no identity for request")
		return
	}
	var req assignCategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	err := h.coordinator.AssignCategory(r.Context(), *principal, assignment.CategoryInput{
		SiteID:   req.SiteID,
		Category: checklist.Category(req.Category),
		UserID:   req.UserID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignElementRequest struct {
	InstanceID string `json:"instance_id" validate:"required,uuid4"`
	UserID     int64  `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) handleAssignElement(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no identity for request")
		return
	}
	var req assignElementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	err := h.coordinator.AssignElement(r.Context(), *principal, assignment.ElementInput{
		InstanceID: req.InstanceID,
		UserID:     req.UserID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type profilingAnswerRequest struct {
	SiteID     string `json:"site_id" validate:"required"`
	QuestionID string `json:"question_id" validate:"required"`
	Value      string `json:"value" validate:"required"`
}

func (h *Handler) handleProfilingAnswer(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no identity for request")
		return
	}
	var req profilingAnswerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	profile, err := h.coordinator.EditProfilingAnswer(r.Context(), *principal, profiling.AnswerInput{
		SiteID:     req.SiteID,
		QuestionID: req.QuestionID,
		Value:      req.Value,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": profile.Status,
		"stale":  profile.Stale(),
	})
}

// respondError maps the error taxonomy onto problem responses. Permission
// and scope failures are fatal to the operation and never retried.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrPermissionDenied):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "role does not permit this action")
	case errors.Is(err, shared.ErrInvalidScope):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Scope", "mutations against the aggregate view are not allowed")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "referenced resource does not exist")
	case errors.Is(err, assignment.ErrIneligibleAssignee):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Ineligible Assignee", "user cannot receive work in this company")
	default:
		if h.logger != nil {
			h.logger.Error("portal request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}
