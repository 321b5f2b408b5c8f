package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/doodlesbykumbi/pawguardian/pkg/config"
	"github.com/doodlesbykumbi/pawguardian/pkg/monitor"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/middleware"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/store"
)

// ShutdownTimeout bounds graceful shutdown
const ShutdownTimeout = 10 * time.Second

// VideoSigner resolves a gs:// scenario URI to a playable URL
type VideoSigner interface {
	URLFor(ctx context.Context, uri string) (string, error)
}

type Server struct {
	Config        *config.Config
	Router        *mux.Router
	Monitor       *monitor.Monitor
	Signer        VideoSigner
	HealthStore   store.HealthStore
	JWTMiddleware *middleware.JWTAuthenticator
	Version       string
	srv           *http.Server
}

func NewServer(
	cfg *config.Config,
	m *monitor.Monitor,
	signer VideoSigner,
	healthStore store.HealthStore,
	host string,
	port string,
) *Server {

	router := mux.NewRouter()

	var handler http.Handler = router
	if cfg.EnableXSRFProtection {
		handler = middleware.SameOrigin(handler)
	}
	if cfg.EnableCORS {
		handler = handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		)(handler)
	}

	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, handler),
		Addr:    net.JoinHostPort(host, port),
		// Agent runs include a video analysis and two model turns.
		WriteTimeout: 3 * time.Minute,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Config:        cfg,
		Router:        router,
		Monitor:       m,
		Signer:        signer,
		HealthStore:   healthStore,
		JWTMiddleware: middleware.NewJWTAuthenticator([]byte(cfg.APITokenKey)),
		srv:           srv,
	}
}

// Handler returns the router wrapped in the configured middleware
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	l, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("PawGuardian listening on %s", l.Addr())
		if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), ShutdownTimeout)
		defer cancel()
		log.Printf("PawGuardian shutting down")
		return s.srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
