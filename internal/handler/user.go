package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/hypot/internal/auth"
	"github.com/sakif/hypot/internal/model"
	"github.com/sakif/hypot/internal/service"
)

// IdentityService is the part of service.IdentityService the handlers use.
type IdentityService interface {
	Register(ctx context.Context, username, name, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, id, token string) error
	OwnedProperties(ctx context.Context, id, token string) ([]string, error)
}

// UserHandler serves registration, login, logout and the owned list.
type UserHandler struct {
	identity IdentityService
	logger   *slog.Logger
}

func NewUserHandler(identity IdentityService, logger *slog.Logger) *UserHandler {
	return &UserHandler{identity: identity, logger: logger}
}

// HandleRegister creates a user.
//
// HTTP: POST /api/register
// BODY: username, name, password
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		rejectBody(w, r, h.logger, err)
		return
	}

	user, err := h.identity.Register(r.Context(), f.String("username"), f.String("name"), f.String("password"))
	writeResult(w, user, err, http.StatusCreated)
}

// HandleLogin opens a session.
//
// HTTP: POST /api/login
// BODY: username, password
// DATA: {"id": "...", "sessionId": "...", "session": "<token>"}
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		rejectBody(w, r, h.logger, err)
		return
	}

	res, err := h.identity.Login(r.Context(), f.String("username"), f.String("password"))
	writeResult(w, res, err, http.StatusOK)
}

// HandleLogout closes the session named by the Authorization header.
//
// HTTP: POST /api/logout
// BODY: id
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		rejectBody(w, r, h.logger, err)
		return
	}

	err = h.identity.Logout(r.Context(), f.String("id"), auth.SessionTokenFromContext(r.Context()))
	writeResult[any](w, nil, err, http.StatusOK)
}

// HandleOwned lists the ids of the user's properties.
//
// HTTP: GET /api/user/get/{id}
func (h *UserHandler) HandleOwned(w http.ResponseWriter, r *http.Request) {
	owned, err := h.identity.OwnedProperties(r.Context(), pathParam(r, "id"), auth.SessionTokenFromContext(r.Context()))
	writeResult(w, owned, err, http.StatusOK)
}
