package api

import (
	"errors"
	"fmt"
	"net/http"
)

// handleSSE establishes the Server-Sent Events notification stream. The auth
// middleware has already run; EventSource clients pass the token via the
// `?token=` query parameter since they cannot set headers.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", s.config.ParsedFrontendURL.String())

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.errorJSON(w, errors.New("streaming unsupported"), http.StatusInternalServerError)
		return
	}

	clientChan := s.broker.AddClient(claims.UserID)
	defer s.broker.RemoveClient(claims.UserID, clientChan)

	for {
		select {
		case message, open := <-clientChan:
			if !open {
				// Replaced by a newer connection for the same user.
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", message)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
