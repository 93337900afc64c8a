package helpers

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind clasifica los errores del coordinador para su traducción a HTTP.
type ErrorKind string

const (
	KindUnknown         ErrorKind = ""
	KindNotFound        ErrorKind = "NotFound"
	KindForbidden       ErrorKind = "Forbidden"
	KindInvalidState    ErrorKind = "InvalidState"
	KindInvalidArgument ErrorKind = "InvalidArgument"
	KindConflict        ErrorKind = "Conflict"
	KindUnavailable     ErrorKind = "Unavailable"
)

var kindStatus = map[ErrorKind]int{
	KindNotFound:        http.StatusNotFound,
	KindForbidden:       http.StatusForbidden,
	KindInvalidState:    http.StatusConflict,
	KindInvalidArgument: http.StatusBadRequest,
	KindConflict:        http.StatusConflict,
	KindUnavailable:     http.StatusServiceUnavailable,
}

// AppError representa un error controlado con código HTTP y mensaje funcional.
type AppError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap permite extraer el error original cuando exista.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError construye un AppError con mensaje y status.
func NewAppError(status int, message string, err error) *AppError {
	return &AppError{Status: status, Message: message, Err: err}
}

// NewKindError construye un AppError a partir de su categoría; el status se deriva de ella.
func NewKindError(kind ErrorKind, message string, err error) *AppError {
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Status: status, Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *AppError { return NewKindError(KindNotFound, message, nil) }

func Forbidden(message string) *AppError { return NewKindError(KindForbidden, message, nil) }

func InvalidState(message string) *AppError { return NewKindError(KindInvalidState, message, nil) }

func InvalidArgument(message string) *AppError {
	return NewKindError(KindInvalidArgument, message, nil)
}

func Conflict(message string, err error) *AppError { return NewKindError(KindConflict, message, err) }

func Unavailable(message string, err error) *AppError {
	return NewKindError(KindUnavailable, message, err)
}

// KindOf devuelve la categoría del primer AppError de la cadena.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsKind indica si err pertenece a la categoría indicada.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// AsAppError convierte cualquier error en AppError con status 500 por defecto.
func AsAppError(err error, defaultMessage string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	msg := defaultMessage
	if msg == "" {
		msg = "error inesperado"
	}
	return &AppError{Status: http.StatusInternalServerError, Message: msg, Err: err}
}
