package adapthttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"healthdash/internal/domain"
)

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		kind, err := kindQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		limit := intQuery(r, "limit", 14)
		items, err := s.samples.ListRecent(ctx, user.ID, kind, limit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"kind":           kind,
			"fractionDigits": kind.FractionDigits(),
			"items":          items,
		})

	case http.MethodPost:
		var body struct {
			Kind string `json:"kind"`
			Day  string `json:"day"`
			// Value is kept raw so the number of decimals typed can be checked.
			Value json.RawMessage `json:"value"`
			Unit  string          `json:"unit"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		kind, err := domain.ParseMetricKind(body.Kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		raw, err := rawValue(body.Value)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		sample, err := s.samples.Record(ctx, user.ID, kind, body.Day, raw, body.Unit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"sample": sample})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSamplesUndoLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	kind, err := kindQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	user, _ := userFromContext(r.Context())

	deleted, err := s.samples.UndoLast(r.Context(), user.ID, kind)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": deleted})
}

// rawValue accepts the value either as a JSON number or a JSON string and
// returns its text unchanged.
func rawValue(msg json.RawMessage) (string, error) {
	text := strings.TrimSpace(string(msg))
	if text == "" || text == "null" {
		return "", errors.New("value is required")
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return text, nil
}
