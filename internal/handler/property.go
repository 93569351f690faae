package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/hypot/internal/auth"
	"github.com/sakif/hypot/internal/model"
	"github.com/sakif/hypot/internal/service"
)

type PropertyService interface {
	Register(ctx context.Context, ownerID, token string, in service.PropertyInput) (*model.Property, error)
	Get(ctx context.Context, requesterID, token, query string) (*model.Property, error)
	UpdateAccessList(ctx context.Context, ownerID, token, propertyID string, shared []string) error
}

type PointerService interface {
	Add(ctx context.Context, ownerID, token, propertyID, address string) (*model.Pointer, error)
}

// PropertyHandler serves property registration, lookup, pointers and
// access lists. Every route needs a session token in Authorization.
type PropertyHandler struct {
	properties PropertyService
	pointers   PointerService
	logger     *slog.Logger
}

func NewPropertyHandler(properties PropertyService, pointers PointerService, logger *slog.Logger) *PropertyHandler {
	return &PropertyHandler{properties: properties, pointers: pointers, logger: logger}
}

// HandleRegister creates a property.
//
// HTTP: POST /api/property/register
// BODY: id, name, file, public, access_list, expiry
func (h *PropertyHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		rejectBody(w, r, h.logger, err)
		return
	}

	in := service.PropertyInput{
		Name: f.String("name"),
		File: f.String("file"),
	}
	if in.Public, err = f.Bool("public"); err != nil {
		writeError(w, err)
		return
	}
	if in.Shared, err = f.List("access_list"); err != nil {
		writeError(w, err)
		return
	}
	if in.Expires, err = f.Time("expiry"); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.properties.Register(r.Context(), f.String("id"), auth.SessionTokenFromContext(r.Context()), in)
	writeResult(w, p, err, http.StatusCreated)
}

// HandleGet looks a property up by id or pointer address.
//
// HTTP: GET /api/property/get/{id}/{searchQuery}
func (h *PropertyHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.properties.Get(r.Context(),
		pathParam(r, "id"),
		auth.SessionTokenFromContext(r.Context()),
		pathParam(r, "searchQuery"),
	)
	writeResult(w, p, err, http.StatusOK)
}

// HandleAddPointer creates an alias for a property.
//
// HTTP: POST /api/property/pointer/add
// BODY: id, pointer, property
func (h *PropertyHandler) HandleAddPointer(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		rejectBody(w, r, h.logger, err)
		return
	}

	ptr, err := h.pointers.Add(r.Context(),
		f.String("id"),
		auth.SessionTokenFromContext(r.Context()),
		f.String("property"),
		f.String("pointer"),
	)
	writeResult(w, ptr, err, http.StatusCreated)
}

// HandleUpdateAccess replaces a property's access list.
//
// HTTP: POST /api/property/access/update
// BODY: id, property, access_list
func (h *PropertyHandler) HandleUpdateAccess(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		rejectBody(w, r, h.logger, err)
		return
	}

	shared, err := f.List("access_list")
	if err != nil {
		writeError(w, err)
		return
	}

	err = h.properties.UpdateAccessList(r.Context(),
		f.String("id"),
		auth.SessionTokenFromContext(r.Context()),
		f.String("property"),
		shared,
	)
	writeResult[any](w, nil, err, http.StatusOK)
}
