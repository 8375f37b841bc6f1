package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/Spok95/smeta-bot/internal/infra/metrics"
)

type Options struct {
	Addr string
	// Запросов в минуту с одного IP, 0 отключает лимит.
	RateLimit  int
	Production bool
	Metrics    *metrics.Metrics
	// Mount регистрирует маршруты /api.
	Mount func(r chi.Router)
	Log   *slog.Logger
}

type Server struct {
	srv *http.Server
}

func New(o Options) *Server {
	return &Server{srv: &http.Server{
		Addr:              o.Addr,
		Handler:           NewRouter(o),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// NewRouter собирает chi-роутер: служебные ручки и /api за общим набором middleware.
func NewRouter(o Options) http.Handler {
	log := o.Log
	if log == nil {
		log = slog.Default()
	}
	secureMW := secure.New(secure.Options{
		FrameDeny:          false, // мини-приложение открывается во фрейме Telegram
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        o.Production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		o.Metrics.Middleware,
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if o.Metrics != nil {
		r.Handle("/metrics", o.Metrics.Handler())
	}

	if o.Mount != nil {
		r.Route("/api", func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					if err := secureMW.Process(w, req); err != nil {
						log.Warn("secure headers blocked request", "err", err)
						http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
						return
					}
					next.ServeHTTP(w, req)
				})
			})
			if o.RateLimit > 0 {
				r.Use(httprate.Limit(o.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			}
			o.Mount(r)
		})
	}
	return r
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start блокирует до остановки; штатное закрытие не считается ошибкой.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
