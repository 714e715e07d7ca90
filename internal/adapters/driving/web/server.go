package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	samlidp "github.com/alshawwaf/SAML-IDP-Simulator"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// Options configures a Server.
type Options struct {
	IdentityProvider *samlidp.IdentityProvider
	TrustStore       ports.TrustStore
	UserStore        ports.UserStore

	// LoginTTL bounds the login cookie lifetime. Should match the
	// pending-authentication window.
	LoginTTL time.Duration

	// MetricsHandler serves GET /metrics; nil selects the default
	// Prometheus handler.
	MetricsHandler http.Handler

	Logger *zap.Logger
}

// Server is the HTTP driving adapter: the browser-facing SSO and login
// endpoints, the metadata document, and the administrative JSON API.
type Server struct {
	idp     *samlidp.IdentityProvider
	trust   ports.TrustStore
	users   ports.UserStore
	cookies *LoginCookieCodec
	render  *TemplateRenderer
	metrics http.Handler
	logger  *zap.Logger
}

// NewServer builds the server and its template renderer.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	render, err := NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	return &Server{
		idp:     opts.IdentityProvider,
		trust:   opts.TrustStore,
		users:   opts.UserStore,
		cookies: NewLoginCookieCodec(opts.IdentityProvider.SigningKey(), opts.LoginTTL),
		render:  render,
		metrics: metricsHandler,
		logger:  logger,
	}, nil
}

// Routes builds the chi router for all endpoints.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/sso", s.handleSSO)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLoginSubmit)
	r.Get("/metadata", s.handleMetadata)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics)

	r.Route("/api", func(api chi.Router) {
		api.Get("/services", s.handleListServices)
		api.Put("/services/{entityID}", s.handlePutService)
		api.Get("/services/{entityID}", s.handleGetService)
		api.Delete("/services/{entityID}", s.handleDeleteService)
		api.Put("/users/{username}", s.handlePutUser)
		api.Delete("/users/{username}", s.handleDeleteUser)
	})

	return r
}
