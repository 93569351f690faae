package apperror

import "errors"

// Code is the numeric outcome carried by the public result envelope.
type Code int

const (
	CodeOK                  Code = -1
	CodeInternal            Code = 0
	CodeUserExists          Code = 1
	CodeUserNotFound        Code = 2
	CodeIncorrectPassword   Code = 3
	CodeSessionNotFound     Code = 4
	CodeInvalidSessionToken Code = 5 // deprecated: never produced
	CodeNotPremium          Code = 6
	CodePropertyNotFound    Code = 7
	CodeNotOwner            Code = 8
	CodeInvalidPointer      Code = 9
	CodePointerTaken        Code = 10
)

// InternalMessage is the only text a caller ever sees for an unexpected fault.
const InternalMessage = "An error occurred."

var codeMessages = map[Code]string{
	CodeInternal:            InternalMessage,
	CodeUserExists:          "User already exists.",
	CodeUserNotFound:        "User does not exist.",
	CodeIncorrectPassword:   "Incorrect password.",
	CodeSessionNotFound:     "Session does not exist.",
	CodeInvalidSessionToken: "Invalid session token.",
	CodeNotPremium:          "User does not have premium access.",
	CodePropertyNotFound:    "Property does not exist.",
	CodeNotOwner:            "User does not own the property.",
	CodeInvalidPointer:      "Invalid pointer format.",
	CodePointerTaken:        "Pointer already exists.",
}

// Message returns the canonical envelope message for c.
func (c Code) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return InternalMessage
}

func withCode(category error, code Code) *AppError {
	return &AppError{Err: category, Code: code, Message: code.Message()}
}

func UserExists() *AppError          { return withCode(ErrConflict, CodeUserExists) }
func UserNotFound() *AppError        { return withCode(ErrNotFound, CodeUserNotFound) }
func IncorrectPassword() *AppError   { return withCode(ErrForbidden, CodeIncorrectPassword) }
func SessionNotFound() *AppError     { return withCode(ErrForbidden, CodeSessionNotFound) }
func InvalidSessionToken() *AppError { return withCode(ErrForbidden, CodeInvalidSessionToken) }
func NotPremium() *AppError          { return withCode(ErrForbidden, CodeNotPremium) }

// PropertyNotFound is also what a requester without access receives, so a
// private property's existence is not revealed.
func PropertyNotFound() *AppError { return withCode(ErrNotFound, CodePropertyNotFound) }
func NotOwner() *AppError         { return withCode(ErrForbidden, CodeNotOwner) }
func InvalidPointer() *AppError   { return withCode(ErrValidation, CodeInvalidPointer) }
func PointerTaken() *AppError     { return withCode(ErrConflict, CodePointerTaken) }

// CodeOf extracts the envelope code from err. nil is CodeOK; anything that
// is not a coded *AppError is CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsValidation reports whether err is rejected input rather than a fault.
func IsValidation(err error) bool {
	return CodeOf(err) == CodeInternal && errors.Is(err, ErrValidation)
}
