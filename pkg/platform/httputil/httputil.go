// Package httputil translates domain errors into JSON HTTP responses.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "landq/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:    http.StatusBadRequest,
	dErrors.CodeUnauthorized:  http.StatusUnauthorized,
	dErrors.CodeNotFound:      http.StatusNotFound,
	dErrors.CodeConflict:      http.StatusConflict,
	dErrors.CodeUnprocessable: http.StatusUnprocessableEntity,
	dErrors.CodeUpstream:      http.StatusBadGateway,
	dErrors.CodeInternal:      http.StatusInternalServerError,
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError writes err as a JSON error response. Internal errors omit the
// description so infrastructure details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := errorBody{Error: string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		body.ErrorDescription = de.Description
	}

	WriteJSON(w, status, body)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
