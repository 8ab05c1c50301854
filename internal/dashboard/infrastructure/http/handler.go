package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/doceeser/orders-dashboard/internal/alerts"
	"github.com/doceeser/orders-dashboard/internal/dashboard/application"
	"github.com/doceeser/orders-dashboard/internal/orders/domain"
)

type Handler struct {
	log      *slog.Logger
	ctrl     *application.Controller
	hub      *alerts.Hub
	sessions *Sessions
	validate *validator.Validate
	upgrader websocket.Upgrader
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, ctrl *application.Controller, hub *alerts.Hub, sessions *Sessions) *Handler {
	return &Handler{
		log:      log,
		ctrl:     ctrl,
		hub:      hub,
		sessions: sessions,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			// the dashboard is served from the same origin behind
			// the session gate
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		tracer: otel.Tracer("dashboard-http"),
	}
}

type loginReq struct {
	Password string `json:"password" validate:"required"`
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

type filterReq struct {
	Filter string `json:"filter" validate:"required"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Post("/logout", h.logout)
		r.Get("/orders", h.listOrders)
		r.Get("/stats", h.getStats)
		r.Get("/state", h.getState)
		r.Post("/orders/{id}/status", h.updateStatus)
		r.Post("/orders/{id}/dispatch", h.sendDispatch)
		r.Put("/filter", h.setFilter)
		r.Put("/toggles/sound", h.toggleSound)
		r.Put("/toggles/auto-dispatch", h.toggleAutoDispatch)
		r.Get("/ws", h.alertSocket)
	})
	return r
}

func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.sessions.Valid(bearerToken(r)) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.sessions.Login(req.Password)
	if err != nil {
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Revoke(bearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	snap := h.ctrl.Snapshot()
	orders := snap.Orders

	// an explicit query filter narrows the snapshot without touching
	// the sticky filter state
	if q := r.URL.Query().Get("status"); q != "" && q != string(application.FilterAll) {
		narrowed := make([]domain.Order, 0, len(orders))
		for _, o := range orders {
			if string(o.Status) == q {
				narrowed = append(narrowed, o)
			}
		}
		orders = narrowed
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot().Stats)
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	snap := h.ctrl.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"filter":       snap.Filter,
		"banner":       snap.Banner,
		"soundEnabled": snap.SoundEnabled,
		"autoDispatch": snap.AutoDispatch,
	})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateStatus")
	defer span.End()

	var req statusReq
	if !h.decode(w, r, &req) {
		return
	}
	err := h.ctrl.UpdateStatus(ctx, chi.URLParam(r, "id"), domain.Status(req.Status))
	if err != nil {
		h.writeActionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sendDispatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SendDispatch")
	defer span.End()

	if err := h.ctrl.SendDispatch(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeActionError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) setFilter(w http.ResponseWriter, r *http.Request) {
	var req filterReq
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.ctrl.SetFilter(application.Filter(req.Filter)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleSound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"soundEnabled": h.ctrl.ToggleSound()})
}

func (h *Handler) toggleAutoDispatch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"autoDispatch": h.ctrl.ToggleAutoDispatch()})
}

func (h *Handler) alertSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	id := h.hub.Attach(conn)
	go func() {
		defer h.hub.Detach(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, application.ErrStore):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// bearerToken reads the session token from the Authorization header,
// falling back to the token query param for websocket clients that
// cannot set headers.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
