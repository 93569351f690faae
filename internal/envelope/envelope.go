// Package envelope builds the uniform result value every hypot operation
// returns to its callers:
//
//	{"status": true,  "code": -1, "data": {...}}
//	{"status": false, "code": 7,  "message": "Property does not exist."}
//
// The field names and the numeric codes are a compatibility contract with
// existing clients.
package envelope

import (
	"errors"
	"net/http"

	"github.com/sakif/hypot/internal/apperror"
)

// Envelope is the wire form of an operation result.
type Envelope struct {
	Status  bool          `json:"status"`
	Code    apperror.Code `json:"code"`
	Message string        `json:"message,omitempty"`
	Data    any           `json:"data,omitempty"`
}

// OK wraps a successful result. data may be nil.
func OK(data any) Envelope {
	return Envelope{Status: true, Code: apperror.CodeOK, Data: data}
}

// FromError converts err into a failed envelope.
//
// Coded domain errors keep their canonical message. Rejected input keeps its
// validation message under code 0. Everything else is an internal fault and
// gets the generic message only.
func FromError(err error) Envelope {
	code := apperror.CodeOf(err)
	if code == apperror.CodeOK {
		return OK(nil)
	}

	msg := code.Message()
	if apperror.IsValidation(err) {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
	}

	return Envelope{Status: false, Code: code, Message: msg}
}

// Of builds the envelope for a (value, error) pair.
func Of[T any](v T, err error) Envelope {
	if err != nil {
		return FromError(err)
	}
	return OK(v)
}

// HTTPStatus maps an envelope to the status code sent alongside it.
func (e Envelope) HTTPStatus() int {
	switch e.Code {
	case apperror.CodeOK:
		return http.StatusOK
	case apperror.CodeUserExists, apperror.CodePointerTaken:
		return http.StatusConflict
	case apperror.CodeUserNotFound, apperror.CodePropertyNotFound:
		return http.StatusNotFound
	case apperror.CodeIncorrectPassword, apperror.CodeSessionNotFound, apperror.CodeInvalidSessionToken:
		return http.StatusUnauthorized
	case apperror.CodeNotPremium, apperror.CodeNotOwner:
		return http.StatusForbidden
	case apperror.CodeInvalidPointer:
		return http.StatusBadRequest
	}
	if e.Message != apperror.InternalMessage {
		// code 0 with a validation message
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
