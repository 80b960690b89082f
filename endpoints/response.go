package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// writeJSON encodes v before touching w, so a value which cannot be encoded turns
// into a bare 500.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		glog.Errorf("Critical error encoding the %T response: %v", v, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
