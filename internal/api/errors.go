package api

import (
	"encoding/json"
	"net/http"

	"github.com/reqflow/engine/internal/types"
)

type errorBody struct {
	Error struct {
		Code    types.ErrorCode `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code types.ErrorCode, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

// writeOrchestratorError maps an *types.EngineError's code onto the HTTP
// status a caller should act on.
func writeOrchestratorError(w http.ResponseWriter, err error) {
	code := types.CodeOf(err)
	status := statusForCode(code)
	writeError(w, status, code, err.Error())
}

func statusForCode(code types.ErrorCode) int {
	switch code {
	case types.ErrInvalidInput, types.ErrInvalidTaskGraph:
		return http.StatusBadRequest
	case types.ErrUnknownSession:
		return http.StatusNotFound
	case types.ErrSessionTerminal, types.ErrNotClarifying:
		return http.StatusConflict
	case types.ErrBusy:
		return http.StatusTooManyRequests
	case types.ErrReplayUnavailable:
		return http.StatusGone
	case types.ErrCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
