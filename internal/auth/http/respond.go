package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aussiebroadwan/skygate/internal/auth/service"
	"github.com/aussiebroadwan/skygate/pkg/authsdk"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their json names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads and validates a request body into dst. On failure it has
// already written a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		slogx.FromContext(r.Context()).Warn("failed to parse request", "err", err)
		writeFailure(w, http.StatusBadRequest, "Request body must be valid JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeFailure(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage describes the first failed rule.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "Field '" + fe.Field() + "' is required"
	case "email":
		return "Field '" + fe.Field() + "' must be a valid email address"
	case "min":
		return "Field '" + fe.Field() + "' must be at least " + fe.Param() + " characters long"
	case "max":
		return "Field '" + fe.Field() + "' must be at most " + fe.Param() + " characters long"
	}
	return "Field '" + fe.Field() + "' is invalid"
}

func writeFailure(w http.ResponseWriter, code int, msg string) {
	httpx.WriteJSON(w, code, authsdk.ErrorResponse{Success: false, Message: msg})
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindInvalidCredentials:
		return http.StatusUnauthorized
	case service.KindUnauthorized:
		return http.StatusForbidden
	case service.KindMFAValidationFailure, service.KindInvalidToken, service.KindIllegalArgument:
		return http.StatusBadRequest
	case service.KindUserNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError answers with the message of a service AuthError, or a generic
// 500 for anything else. Internal causes are logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *service.AuthError
	if errors.As(err, &ae) {
		writeFailure(w, statusFor(ae.Kind), ae.Error())
		return
	}
	slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
	writeFailure(w, http.StatusInternalServerError, "An internal error occurred")
}
