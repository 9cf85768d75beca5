package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/accesshub/accesshub/internal/authz"
	"github.com/accesshub/accesshub/internal/platform/httpx"
)

// Handler manages user directory endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers user routes. The self-service routes only need an
// authenticated identity; the rest are gated per capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated)
		r.Get("/me", h.showMe)
		r.Post("/me/update-password", h.updatePassword)
		r.Get("/username-available", h.usernameAvailable)
	})
	r.With(h.guard.RequirePermission("users", "list")).Get("/", h.list)
	r.With(h.guard.RequirePermission("users", "create")).Post("/", h.create)
	r.With(h.guard.RequirePermission("users", "read")).Get("/{id}", h.show)
	r.With(h.guard.RequirePermission("users", "update")).Patch("/{id}", h.update)
	r.With(h.guard.RequirePermission("users", "delete")).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, all)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	created, err := h.service.CreateWithRoles(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	var patch UpdateInput
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	updated, err := h.service.UpdateWithRoles(r.Context(), id, patch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w, http.StatusNoContent)
}

// showMe returns the authenticated user's own profile.
func (h *Handler) showMe(w http.ResponseWriter, r *http.Request) {
	me := h.currentUser(r)
	if me == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}
	httpx.JSON(w, http.StatusOK, me)
}

type updatePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	me := h.currentUser(r)
	if me == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}
	var input updatePasswordInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.UpdatePassword(r.Context(), me.ID, input.CurrentPassword, input.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w, http.StatusNoContent)
}

// currentUser recovers the full user record behind the request's subject.
func (h *Handler) currentUser(r *http.Request) *User {
	me, _ := authz.SubjectFromContext(r.Context()).(*User)
	return me
}

func (h *Handler) usernameAvailable(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "username is required")
		return
	}
	availability, err := h.service.CheckUsernameAvailability(r.Context(), username)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, availability)
}
