package adapthttp

import (
	"net/http"

	"healthdash/internal/app"
	"healthdash/internal/domain"
	"healthdash/internal/metrics"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
)

// OIDCConfig holds the SSO provider; Enabled is false when SSO is not configured.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	dashboard *app.DashboardService
	samples   *app.SampleService
	access    *app.AccessService
	authSvc   *app.AuthService
	webDir    string

	oidcConfig  OIDCConfig
	metrics     *metrics.Manager
	gatherer    prometheus.Gatherer
	disableAuth bool
	localUser   *domain.User
}

// New creates a Server wired to the given application services.
func New(ds *app.DashboardService, ss *app.SampleService, as *app.AccessService, authSvc *app.AuthService, webDir string) *Server {
	return &Server{dashboard: ds, samples: ss, access: as, authSvc: authSvc, webDir: webDir}
}

// WithOIDC enables the SSO login routes.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithMetrics records request metrics on m and serves g on /metrics.
func (s *Server) WithMetrics(m *metrics.Manager, g prometheus.Gatherer) *Server {
	s.metrics = m
	s.gatherer = g
	return s
}

// WithoutAuth serves every request as u, or as a local user with ID 1 when u
// is nil.
func (s *Server) WithoutAuth(u ...*domain.User) *Server {
	s.disableAuth = true
	s.localUser = localUser
	if len(u) > 0 && u[0] != nil {
		s.localUser = u[0]
	}
	return s
}

var localUser = &domain.User{ID: 1, Username: "local"}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/config", s.handleConfig)
	api.HandleFunc("/login", s.handleLogin)
	api.HandleFunc("/logout", s.handleLogout)
	api.HandleFunc("/setup", s.handleSetupUser)
	api.HandleFunc("/sso/login", s.handleSSOLogin)
	api.HandleFunc("/sso/callback", s.handleSSOCallback)

	api.Handle("/dashboard", s.authMiddleware(http.HandlerFunc(s.handleDashboard)))
	api.Handle("/export.xlsx", s.authMiddleware(http.HandlerFunc(s.handleExport)))
	api.Handle("/samples", s.authMiddleware(http.HandlerFunc(s.handleSamples)))
	api.Handle("/samples/undo-last", s.authMiddleware(http.HandlerFunc(s.handleSamplesUndoLast)))
	api.Handle("/access", s.authMiddleware(http.HandlerFunc(s.handleAccess)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.gatherer != nil {
		root.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	root.Handle("/", spaFromDisk(s.webDir))

	var h http.Handler = withNoCache(root)
	h = s.recoveryMiddleware(h)
	h = s.metricsMiddleware(h)
	h = s.loggingMiddleware(h)
	return withRequestID(h)
}
