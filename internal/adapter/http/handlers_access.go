package adapthttp

import (
	"net/http"
)

// handleAccess reports or changes the user's answer to the health data
// access prompt.
func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		g, err := s.access.Status(ctx, user.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, g)

	case http.MethodPut:
		var body struct {
			Read  bool `json:"read"`
			Share bool `json:"share"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		g, err := s.access.Grant(ctx, user.ID, body.Read, body.Share)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, g)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
