package adapthttp

import (
	"fmt"
	"net/http"

	"healthdash/internal/app"
	"healthdash/internal/domain"
	"healthdash/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	d, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	d, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}

	raw, err := report.Dashboard(d)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"healthdash-%s.xlsx\"", d.Today))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// buildDashboard reads days and unit from the query and writes the error
// response itself when the build fails.
func (s *Server) buildDashboard(w http.ResponseWriter, r *http.Request) (*app.Dashboard, bool) {
	user, _ := userFromContext(r.Context())
	days := intQuery(r, "days", app.DefaultDays)
	unit := r.URL.Query().Get("unit")
	if unit == "" {
		unit = domain.MetricWeight.DefaultUnit()
	}

	d, err := s.dashboard.Build(r.Context(), user.ID, days, unit)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return d, true
}
