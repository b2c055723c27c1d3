// Package api — configuration endpoints.
package api

import (
	"net/http"

	"github.com/dartlab/dartview/internal/config"
)

// handleConfigKeys returns the status of the configured API keys with the
// key material masked.
func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}
