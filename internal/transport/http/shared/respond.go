// Package shared holds the response helpers used by every HTTP handler.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	domainerrors "minesykmeldte/pkg/domain-errors"
)

// errorResponse is the JSON error envelope. Only the code and message of a
// coded domain error are exposed; internals never leak.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded domain error onto its HTTP status. Anything that
// is not a coded error becomes a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	var de *domainerrors.Error
	if !errors.As(err, &de) {
		de = &domainerrors.Error{Code: domainerrors.CodeInternal, Message: "internal error"}
	}

	var resp errorResponse
	resp.Error.Code = string(de.Code)
	resp.Error.Message = de.Message
	WriteJSON(w, domainerrors.ToHTTPStatus(de.Code), resp)
}
