package endpoints

import "net/http"

const notSet = "not-set"

// buildInfo identifies the running binary.
type buildInfo struct {
	Revision string `json:"revision"`
	Version  string `json:"version"`
}

// NewVersionEndpoint reports the git tag and commit the binary was built from. Values
// which were not stamped at build time read "not-set".
func NewVersionEndpoint(version, revision string) http.HandlerFunc {
	info := buildInfo{Version: orNotSet(version), Revision: orNotSet(revision)}
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, info)
	}
}

func orNotSet(value string) string {
	if value == "" {
		return notSet
	}
	return value
}
