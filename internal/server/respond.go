package server

import (
	"encoding/json"
	"net/http"

	"videoconverter/internal/api"
	"videoconverter/internal/convert"
	"videoconverter/internal/logging"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.Error{Error: message})
}

// writeFailure maps a pipeline error onto its status; only the short
// message reaches the client.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	failure := convert.AsFailure(err)
	w.Header().Set("X-Failure-Kind", string(failure.Kind))
	s.writeError(w, failure.Kind.HTTPStatus(), failure.Message)
}
