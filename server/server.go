package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-church-portal/authprovider"
	"github.com/jrsteele09/go-church-portal/internal/config"
	"github.com/jrsteele09/go-church-portal/internal/logging"
	"github.com/jrsteele09/go-church-portal/server/authflowrepo"
	"github.com/jrsteele09/go-church-portal/server/loginsession"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/rs/zerolog"
)

// ProviderFactory returns a fresh provider for one browser. A provider holds a single session,
// so providers are never shared between browsers.
type ProviderFactory func() authprovider.CodeFlowProvider

// StorageFactory returns the persistent storage for one browser.
type StorageFactory func(browserID string) (sessions.Storage, error)

type Dependencies struct {
	NewProvider   ProviderFactory   // required
	NewStorage    StorageFactory    // nil keeps sessions in memory only
	Shells        loginsession.Repo // defaults to an in-memory repo
	AuthFlows     authflowrepo.Repo // defaults to an in-memory repo
	BaseTransport http.RoundTripper // transport under each shell's interceptor
}

type Server struct {
	env           string
	mux           *http.ServeMux
	routes        []string
	config        config.Config
	logger        zerolog.Logger
	pages         map[string]*template.Template
	newProvider   ProviderFactory
	newStorage    StorageFactory
	shells        loginsession.Repo
	authFlows     authflowrepo.Repo
	baseTransport http.RoundTripper

	// mountMu serialises shell creation so one browser never gets two shells.
	mountMu sync.Mutex
}

func New(cfg config.Config, deps Dependencies) (*Server, error) {
	if deps.NewProvider == nil {
		return nil, fmt.Errorf("[Server New] a provider factory is required")
	}
	if deps.Shells == nil {
		deps.Shells = loginsession.NewInMemoryRepo()
	}
	if deps.AuthFlows == nil {
		deps.AuthFlows = authflowrepo.NewInMemoryRepo()
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	s := &Server{
		env:           cfg.GetEnv(),
		mux:           http.NewServeMux(),
		config:        cfg,
		logger:        logging.Component("server"),
		pages:         pages,
		newProvider:   deps.NewProvider,
		newStorage:    deps.NewStorage,
		shells:        deps.Shells,
		authFlows:     deps.AuthFlows,
		baseTransport: deps.BaseTransport,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// ExpireIdleShells tears down every browser shell not seen for maxAge and returns how many went.
// Stored sessions survive; the browser's next request mounts a new shell from storage.
func (s *Server) ExpireIdleShells(maxAge time.Duration) int {
	expired := s.shells.Expire(time.Now().Add(-maxAge))
	for _, entry := range expired {
		entry.Shell.Teardown()
	}
	if len(expired) > 0 {
		s.logger.Debug().Int("count", len(expired)).Msg("Expired idle browser shells")
	}
	return len(expired)
}

// RunJanitor calls ExpireIdleShells every interval until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireIdleShells(maxAge)
		}
	}
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	s.logger.Debug().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
