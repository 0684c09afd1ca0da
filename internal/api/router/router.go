package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wellbot/wellbot-api/internal/bookings"
	"github.com/wellbot/wellbot-api/internal/clinic"
	"github.com/wellbot/wellbot-api/internal/conversation"
	httpmiddleware "github.com/wellbot/wellbot-api/internal/http/middleware"
	"github.com/wellbot/wellbot-api/internal/http/respond"
	"github.com/wellbot/wellbot-api/internal/speech"
	"github.com/wellbot/wellbot-api/internal/users"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	UserAuth           httpmiddleware.UserAuthenticator
	ClinicAuth         httpmiddleware.ClinicAuthenticator
	UsersHandler       *users.Handler
	ClinicHandler      *clinic.Handler
	ClinicStatsHandler *clinic.StatsHandler
	BookingsHandler    *bookings.Handler
	ChatHandler        *conversation.Handler
	GoodThoughts       *conversation.GoodThoughts
	SpeechHandler      *speech.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// ProviderLimiter throttles the endpoints backed by paid providers.
	ProviderLimiter *httpmiddleware.RateLimiter
	// DB is pinged by /health when set.
	DB Pinger
	// MaxBodyBytes caps request bodies. Zero uses the middleware default.
	MaxBodyBytes int64
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.LimitBody(cfg.MaxBodyBytes))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	limited := func(r chi.Router) chi.Router {
		if cfg.ProviderLimiter == nil {
			return r
		}
		return r.With(cfg.ProviderLimiter.Middleware)
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.DB))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.UsersHandler != nil {
			public.Post("/signup", cfg.UsersHandler.Signup)
			public.Post("/login", cfg.UsersHandler.Login)
			public.Post("/clinic/login", cfg.UsersHandler.ClinicLogin)
		}
		if cfg.ClinicHandler != nil {
			public.Get("/clinics", cfg.ClinicHandler.ListClinics)
		}
		if cfg.GoodThoughts != nil {
			public.Get("/goodthoughts", cfg.GoodThoughts.Random)
		}
		if cfg.SpeechHandler != nil {
			limited(public).Post("/tts", cfg.SpeechHandler.Synthesize)
		}
	})

	// Chat accepts anonymous callers; a valid user token personalizes the reply.
	if cfg.ChatHandler != nil && cfg.UserAuth != nil {
		r.Group(func(chat chi.Router) {
			chat.Use(httpmiddleware.OptionalUser(cfg.UserAuth))
			limited(chat).Post("/chat", cfg.ChatHandler.Chat)
		})
	}

	// User routes
	if cfg.UserAuth != nil {
		r.Group(func(user chi.Router) {
			user.Use(httpmiddleware.RequireUser(cfg.UserAuth))
			if cfg.BookingsHandler != nil {
				user.Post("/booking", cfg.BookingsHandler.CreateBooking)
				user.Get("/user-bookings", cfg.BookingsHandler.ListUserBookings)
				user.Get("/user/medical-records", cfg.BookingsHandler.ListUserRecords)
			}
			if cfg.ChatHandler != nil {
				user.Route("/chat-sessions", func(s chi.Router) {
					s.Get("/", cfg.ChatHandler.ListSessions)
					s.Post("/", cfg.ChatHandler.CreateSession)
					s.Delete("/{id}", cfg.ChatHandler.DeleteSession)
					s.Get("/{id}/messages", cfg.ChatHandler.ListMessages)
					s.Post("/{id}/messages", cfg.ChatHandler.AppendMessage)
				})
			}
		})
	}

	// Clinic staff routes
	if cfg.ClinicAuth != nil {
		r.Group(func(staff chi.Router) {
			staff.Use(httpmiddleware.RequireClinic(cfg.ClinicAuth))
			if cfg.BookingsHandler != nil {
				staff.Get("/clinic/bookings", cfg.BookingsHandler.ListClinicBookings)
				staff.Put("/clinic/bookings/{bookingID}/status", cfg.BookingsHandler.UpdateStatus)
				staff.Post("/clinic/medical-records", cfg.BookingsHandler.CreateMedicalRecord)
				staff.Get("/clinic/medical-records", cfg.BookingsHandler.ListClinicRecords)
			}
			if cfg.ClinicStatsHandler != nil {
				staff.Get("/clinic/stats", cfg.ClinicStatsHandler.GetStats)
			}
		})
	}

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
