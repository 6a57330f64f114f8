package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/midhun-sadanand/couchd-sub001/internal/apperr"
)

type errBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeErr maps an application error to its status and a stable body.
// Internal detail stays in the log, not the response.
func writeErr(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	var b errBody
	b.Error.Code = apperr.Code(err)
	b.Error.Message = apperr.Message(err)
	writeJSON(w, status, b)
}

func writeValidation(w http.ResponseWriter, errs map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{
		"code":    apperr.CodeValidation,
		"message": "validation failed",
		"fields":  errs,
	}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]string{
			"code": apperr.CodeValidation, "message": "invalid JSON body",
		}})
		return false
	}
	return true
}
