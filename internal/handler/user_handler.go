package handler

import (
	"net/http"

	"farmart/internal/model"
	"farmart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// envelope is the {success, ...} body of the user-creation and upload endpoints.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	User    *model.User       `json:"user,omitempty"`
	URL     string            `json:"url,omitempty"`
}

func writeEnvelopeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	status, body := classify(err)
	logger.Warn().Err(err).Str("code", body.Code).Int("status", status).Msg("request failed")
	writeJSON(w, status, envelope{Message: body.Error, Code: body.Code, Fields: body.Fields})
}

// UserHandler serves sign-up, sign-in, profiles and user administration.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("handler", "user").Logger(),
	}
}

// Register handles POST /api/auth/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var data model.UserData
	if !decodeJSON(w, r, &data, h.logger) {
		return
	}
	user, err := h.service.Register(r.Context(), &data)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	user, err := h.service.Me(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PUT /api/users/me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var update model.ProfileUpdate
	if !decodeJSON(w, r, &update, h.logger) {
		return
	}
	user, err := h.service.UpdateMe(r.Context(), p.UserID, &update)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// AdminCreate handles POST /api/admin/users. The caller proves the admin
// role with the token carried in the body.
func (h *UserHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	user, err := h.service.AdminCreate(r.Context(), &req)
	if err != nil {
		writeEnvelopeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, User: user})
}

// List handles GET /api/admin/users?role=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context(), model.Role(r.URL.Query().Get("role")))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// SetActive handles PATCH /api/admin/users/{id}/active.
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req model.SetActiveRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if err := h.service.SetActive(r.Context(), chi.URLParam(r, "id"), req.Active); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/admin/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCouriers handles GET /api/admin/couriers.
func (h *UserHandler) ListCouriers(w http.ResponseWriter, r *http.Request) {
	couriers, err := h.service.ListCouriers(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, couriers)
}

// SaveCourier handles POST /api/admin/couriers and PUT /api/admin/couriers/{id}.
func (h *UserHandler) SaveCourier(w http.ResponseWriter, r *http.Request) {
	var courier model.Courier
	if !decodeJSON(w, r, &courier, h.logger) {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		courier.UserID = id
	}
	saved, err := h.service.SaveCourier(r.Context(), &courier)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
