package server

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// RespondJSON сначала маршалит, чтобы не отдать полуответ после заголовков.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

func RespondError(w http.ResponseWriter, status int, msg string) {
	payload, _ := json.Marshal(errorBody{Error: msg, Status: status})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}
