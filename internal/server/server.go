package server

import (
	"context"
	"net/http"
	"time"

	"career-compass/internal/models"
	"career-compass/internal/normalize"
	"career-compass/internal/notify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Applications is the tracker surface the API exposes.
type Applications interface {
	Create(ctx context.Context, fields normalize.Fields) (*models.Application, error)
	Update(ctx context.Context, fields normalize.Fields) (*models.Application, error)
	Delete(ctx context.Context, id string, view models.Query) (*models.Page, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, q models.Query) (*models.Page, error)
}

type Notifications interface {
	Active() []notify.Notification
	Dismiss(id int64) bool
}

// Limiter counts requests per client within the current window.
type Limiter interface {
	IncrementClientRateLimit(ctx context.Context, client string) (int64, error)
}

const DefaultRequestsPerMinute = 120

type Server struct {
	apps     Applications
	notes    Notifications
	limiter  Limiter
	limit    int64
	validate *validator.Validate
	logger   *zap.Logger
}

type Option func(*Server)

// WithRateLimit enables per-client limiting; perMinute <= 0 uses DefaultRequestsPerMinute.
func WithRateLimit(l Limiter, perMinute int) Option {
	return func(s *Server) {
		s.limiter = l
		s.limit = int64(perMinute)
		if s.limit <= 0 {
			s.limit = DefaultRequestsPerMinute
		}
	}
}

func New(apps Applications, notes Notifications, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		apps:     apps,
		notes:    notes,
		validate: validator.New(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HTTPServer wraps the routes in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)
	r.Use(s.observe)

	r.Get("/up", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("up!"))
	})

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.rateLimit)
		}

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", s.handleListApplications)
			r.Post("/", s.handleCreateApplication)
			r.Get("/{id}", s.handleGetApplication)
			r.Patch("/{id}", s.handleUpdateApplication)
			r.Delete("/{id}", s.handleDeleteApplication)
		})

		r.Get("/notifications", s.handleListNotifications)
		r.Delete("/notifications/{id}", s.handleDismissNotification)
	})

	return r
}
