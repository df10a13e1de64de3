package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strconv"

	"healthdash/internal/app"
	"healthdash/internal/domain"

	log "github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeServiceError maps errors returned by the app services onto a status
// and a JSON body. Health data errors carry a recovery hint and a code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		msg := err.Error()
		if de.Kind == domain.KindUnableToComplete {
			log.Errorf("request %s: %s", requestIDFromContext(r.Context()), err)
			msg = (&domain.Error{Kind: de.Kind}).Error()
		}
		writeJSON(w, statusForKind(de.Kind), map[string]any{
			"error":  msg,
			"reason": de.FailureReason(),
			"code":   de.Kind.String(),
		})
	case errors.Is(err, app.ErrInvalidUnit), errors.Is(err, app.ErrFutureDay), errors.Is(err, app.ErrInvalidDay):
		writeError(w, http.StatusBadRequest, err)
	default:
		log.Errorf("request %s: %s", requestIDFromContext(r.Context()), err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func statusForKind(k domain.ErrorKind) int {
	switch k {
	case domain.KindInvalidValue:
		return http.StatusBadRequest
	case domain.KindAuthNotDetermined, domain.KindSharingDenied:
		return http.StatusForbidden
	case domain.KindNoData:
		return http.StatusNotFound
	case domain.KindUnableToComplete:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// kindQuery reads the required metric kind from the query string.
func kindQuery(r *http.Request) (domain.MetricKind, error) {
	return domain.ParseMetricKind(r.URL.Query().Get("kind"))
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func spaFromDisk(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	indexPath := path.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := path.Clean(r.URL.Path)
		if reqPath == "/" {
			http.ServeFile(w, r, indexPath)
			return
		}

		staticPath := path.Join(dir, reqPath)
		if _, err := os.Stat(staticPath); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, indexPath)
	})
}
