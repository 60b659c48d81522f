package middleware

import (
	"encoding/json"
	"net/http"

	"studio/internal/i18n"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, key i18n.Key) {
	var body errorBody
	body.Error.Code = string(key)
	body.Error.Message = i18n.T(LocaleFromContext(r.Context()), key)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
