package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/colib/colib-backend/pkg/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names in validation details.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

// writeError maps err to its HTTP status. Errors without a kind are logged and
// reported as a generic internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(kind)

	resp := errorResponse{Error: "internal server error"}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		resp.Error = appErr.Message
		resp.Details = appErr.Details
	}

	fields := logrus.Fields{"method": r.Method, "path": r.URL.Path, "status": status}
	if status >= http.StatusInternalServerError {
		logger.Log.WithFields(fields).WithError(err).Error("Request failed")
	} else {
		logger.Log.WithFields(fields).WithField("reason", resp.Error).Debug("Request rejected")
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into dst and validates its struct tags.
func decode(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Validation("Invalid request payload", nil)
	}
	return validateStruct(dst)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("Invalid request payload", nil)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return apperrors.Validation("Validation failed", details)
}

// userID returns the authenticated caller.
func userID(r *http.Request) (string, error) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil || claims.UserID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return claims.UserID, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.Validation("Invalid query parameter", map[string]string{key: "integer"})
	}
	return n, nil
}

// queryFloat parses a float query parameter; required ones fail when absent.
func queryFloat(r *http.Request, key string, required bool) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		if required {
			return 0, apperrors.Validation("Missing query parameter", map[string]string{key: "required"})
		}
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, apperrors.Validation("Invalid query parameter", map[string]string{key: "number"})
	}
	return f, nil
}
