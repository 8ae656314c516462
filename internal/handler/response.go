package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"antiromantic-be/internal/apperr"
	"antiromantic-be/internal/logger"
	"antiromantic-be/internal/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = apperr.Validation("invalid request body")

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeData(w http.ResponseWriter, code int, data any) {
	utils.WriteJSON(w, code, envelope{Success: true, Data: data})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage never leaks internal error text to the client.
func publicMessage(err error, code int) string {
	if code >= http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorStatus(w, r, err, statusFor(err))
}

func writeErrorStatus(w http.ResponseWriter, r *http.Request, err error, code int) {
	if code >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	utils.WriteJSONError(w, publicMessage(err, code), code)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return errInvalidBody
	}
	return nil
}
