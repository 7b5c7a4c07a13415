// Package server exposes the console's controllers and panels over a local
// HTTP API so a browser front end (or curl) can drive them.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/forestshield/internal/details"
	"github.com/sells-group/forestshield/internal/fault"
	"github.com/sells-group/forestshield/internal/geo"
	"github.com/sells-group/forestshield/internal/mapctl"
	"github.com/sells-group/forestshield/internal/notify"
	"github.com/sells-group/forestshield/internal/panel"
	"github.com/sells-group/forestshield/internal/region"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

// Deps are the components the handler drives.
type Deps struct {
	Store   *region.Store
	Map     *mapctl.Controller
	Details *details.Controller
	Panels  *panel.Set
	Banner  *notify.Banner
}

// Handler serves the console API.
type Handler struct {
	Deps
	log *zap.Logger
}

// New creates a handler over deps.
func New(deps Deps) *Handler {
	return &Handler{
		Deps: deps,
		log:  zap.L().With(zap.String("component", "server")),
	}
}

// Router builds the chi router. allowedOrigins configures CORS; empty allows none.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/regions", h.handleListRegions)
		r.Post("/regions/reload", h.handleReloadRegions)
		r.Get("/layers/regions", h.handleRegionLayer)

		r.Route("/map", func(r chi.Router) {
			r.Get("/", h.handleMapState)
			r.Post("/create", h.handleArmCreation)
			r.Delete("/create", h.handleCancelCreation)
			r.Post("/pointer/{phase}", h.handlePointer)
			r.Post("/select/{id}", h.handleSelect)
			r.Delete("/select", h.handleDeselect)
			r.Post("/click", h.handleMapClick)
		})

		r.Route("/details", func(r chi.Router) {
			r.Get("/", h.handleGetDetails)
			r.Put("/", h.handleUpdateDetails)
			r.Delete("/", h.handleDeleteDetails)
			r.Post("/analysis", h.handleTriggerAnalysis)
		})

		r.Get("/panels/{name}", h.handleGetPanel)
		r.Put("/panels/{name}/live", h.handleSetLive)
		r.Post("/alerts/{id}/ack", h.handleAcknowledge)
		r.Get("/banner", h.handleBanner)
	})

	return r
}

type regionView struct {
	forestshield.Region
	Appearance region.Appearance `json:"appearance"`
}

func (h *Handler) handleListRegions(w http.ResponseWriter, _ *http.Request) {
	regions := h.Store.List()
	out := make([]regionView, 0, len(regions))
	for _, r := range regions {
		out = append(out, regionView{Region: r, Appearance: region.Classify(r)})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleReloadRegions(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Load(r.Context()); err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"count": h.Store.Len()})
}

func (h *Handler) handleRegionLayer(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Map.Layers())
}

func (h *Handler) handleMapState(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Map.Snapshot())
}

func (h *Handler) handleArmCreation(w http.ResponseWriter, _ *http.Request) {
	h.Map.ArmCreation()
	h.writeJSON(w, http.StatusOK, h.Map.Snapshot())
}

func (h *Handler) handleCancelCreation(w http.ResponseWriter, _ *http.Request) {
	h.Map.CancelCreation()
	h.Details.Discard()
	h.writeJSON(w, http.StatusOK, h.Map.Snapshot())
}

func (h *Handler) handlePointer(w http.ResponseWriter, r *http.Request) {
	var p geo.LatLng
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch chi.URLParam(r, "phase") {
	case "down":
		if !h.Map.PointerDown(p) {
			h.writeError(w, http.StatusConflict, "gesture not started")
			return
		}
		h.writeJSON(w, http.StatusOK, h.Map.Snapshot())
	case "move":
		preview, ok := h.Map.PointerMove(p)
		if !ok {
			h.writeError(w, http.StatusConflict, "no gesture in progress")
			return
		}
		h.writeJSON(w, http.StatusOK, preview)
	case "up":
		created, err := h.Map.PointerUp(r.Context(), p)
		if err != nil {
			h.writeFault(w, err)
			return
		}
		if _, err := h.Details.Edit(created.ID); err != nil {
			h.log.Debug("details not loaded for new region", zap.Error(err))
		}
		h.writeJSON(w, http.StatusCreated, created)
	default:
		h.writeError(w, http.StatusNotFound, "unknown pointer phase")
	}
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.Map.ClickRegion(id) {
		if _, ok := h.Store.Get(id); !ok {
			h.writeError(w, http.StatusNotFound, "region not found")
			return
		}
		h.writeError(w, http.StatusConflict, "selection is disabled in creation mode")
		return
	}
	working, err := h.Details.Edit(id)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, working)
}

func (h *Handler) handleDeselect(w http.ResponseWriter, _ *http.Request) {
	h.Map.Deselect()
	h.Details.Discard()
	h.writeJSON(w, http.StatusOK, h.Map.Snapshot())
}

func (h *Handler) handleMapClick(w http.ResponseWriter, _ *http.Request) {
	h.Map.ClickMap()
	if h.Map.SelectedID() == "" {
		h.Details.Discard()
	}
	h.writeJSON(w, http.StatusOK, h.Map.Snapshot())
}

func (h *Handler) handleGetDetails(w http.ResponseWriter, _ *http.Request) {
	working, ok := h.Details.Working()
	if !ok {
		h.writeError(w, http.StatusNotFound, "no region selected")
		return
	}
	h.writeJSON(w, http.StatusOK, working)
}

func (h *Handler) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	var p details.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.Details.Update(r.Context(), p)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteDetails(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"
	deleted, err := h.Details.Delete(r.Context(), confirmed)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) handleTriggerAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, err := time.Parse(details.DateLayout, req.StartDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(details.DateLayout, req.EndDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
		return
	}

	resp, err := h.Details.TriggerAnalysis(r.Context(), start, end)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Panels.Get(chi.URLParam(r, "name"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown panel")
		return
	}
	h.writeJSON(w, http.StatusOK, p.View())
}

func (h *Handler) handleSetLive(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Panels.Get(chi.URLParam(r, "name"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown panel")
		return
	}
	var req struct {
		Live bool `json:"live"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.SetLive(req.Live)
	h.writeJSON(w, http.StatusOK, p.View())
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	alerts := h.Panels.Alerts()
	if err := alerts.Acknowledge(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, alerts.View())
}

func (h *Handler) handleBanner(w http.ResponseWriter, _ *http.Request) {
	msg, ok := h.Banner.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, msg)
}

// statusFor maps a controller error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, details.ErrBusy),
		errors.Is(err, details.ErrNotEditing),
		errors.Is(err, mapctl.ErrNoGesture):
		return http.StatusConflict
	case errors.Is(err, details.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, mapctl.ErrClosed):
		return http.StatusServiceUnavailable
	}

	switch fault.Classify(err) {
	case fault.KindValidation, fault.KindGesture:
		return http.StatusUnprocessableEntity
	case fault.KindRejected, fault.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeFault(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := fault.Message(err, "")
	if msg == "" {
		if current, ok := h.Banner.Current(); ok && current.Level == notify.LevelError {
			msg = current.Text
		} else {
			msg = http.StatusText(status)
		}
	}
	if status >= http.StatusInternalServerError {
		h.log.Warn("request failed", zap.Int("status", status), zap.Error(err))
	}
	h.writeError(w, status, msg)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug("encode response", zap.Error(err))
	}
}
