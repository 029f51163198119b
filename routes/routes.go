package routes

import (
	"log/slog"
	"net/http"
	"time"

	_ "github.com/Dosada05/calcetto/docs"
	"github.com/Dosada05/calcetto/handlers"
	"github.com/Dosada05/calcetto/middleware"
	"github.com/Dosada05/calcetto/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Player      *handlers.PlayerHandler
	Match       *handlers.MatchHandler
	Convocation *handlers.ConvocationHandler
	Team        *handlers.TeamHandler
	Result      *handlers.ResultHandler
	Stats       *handlers.StatsHandler
	Backup      *handlers.BackupHandler
	WebSocket   *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret []byte
	// Accounts - хранилище игроков, по нему Authenticate перепроверяет роль и блокировку.
	Accounts           middleware.AccountLookup
	AllowedOrigins     []string
	LoginRatePerMinute int
	// Metrics отдается на /metrics; nil - эндпоинт не регистрируется.
	Metrics http.Handler
	Logger  *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	// Живые обновления матчей (только чтение)
	router.Get("/ws/matches", h.WebSocket.ServeMatchesWs)
	router.Get("/ws/matches/{matchID}", h.WebSocket.ServeMatchWs)

	loginLimiter := middleware.NewRateLimiter(opts.LoginRatePerMinute)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.With(loginLimiter.Limit).Post("/login", h.Auth.Login)
	})

	// Все остальное требует токен
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.JWTSecret, opts.Accounts))
		r.Use(chiMiddleware.Timeout(30 * time.Second))
		r.Use(middleware.RequirePermission(models.PermViewAll))

		r.Get("/me", h.Player.GetMe)
		r.Put("/me/pin", h.Auth.ChangePIN)

		r.Route("/players", func(r chi.Router) {
			r.Get("/", h.Player.ListPlayers)
			r.With(middleware.RequirePermission(models.PermManagePlayers)).Post("/", h.Player.CreatePlayer)

			r.Route("/{playerID}", func(r chi.Router) {
				r.Get("/", h.Player.GetPlayerByID)
				r.Get("/stats", h.Stats.GetPlayerYearlyStats)
				// анкету и фото можно менять свои; чужие проверяет обработчик
				r.Put("/", h.Player.UpdatePlayer)
				r.Post("/photo", h.Player.UploadPlayerPhoto)

				r.With(middleware.RequirePermission(models.PermManagePlayers)).Delete("/", h.Player.DeletePlayer)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(models.PermManageUsers))
					r.Put("/blocked", h.Player.SetBlocked)
					r.Put("/role", h.Player.SetAccountRole)
				})
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.Match.ListMatches)
			r.Get("/active", h.Match.GetActiveMatch)
			r.Get("/recent", h.Match.GetRecentClosedMatch)
			r.With(middleware.RequirePermission(models.PermManageMatches)).Post("/", h.Match.CreateMatch)

			r.Route("/{matchID}", func(r chi.Router) {
				r.Get("/", h.Match.GetMatchByID)
				r.Get("/convocation", h.Convocation.GetConvocationStats)
				r.Get("/teams", h.Team.GetTeamsOverview)
				r.Get("/teams/swaps", h.Team.SuggestSwaps)

				r.With(middleware.RequirePermission(models.PermRespondConvocation)).Post("/responses", h.Convocation.Respond)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(models.PermManageMatches))
					r.Patch("/", h.Match.UpdateMatch)
					r.Delete("/", h.Match.DeleteMatch)
					r.Post("/invitations", h.Convocation.InvitePlayer)
					r.Post("/invitations/roster", h.Convocation.InviteRoster)
					r.Delete("/invitations/{playerID}", h.Convocation.UninvitePlayer)
					r.Post("/reserves", h.Convocation.OpenToReserves)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(models.PermCreateTeams))
					r.Post("/teams/generate", h.Team.GenerateTeams)
					r.Put("/teams", h.Team.AssignTeams)
					r.Delete("/teams", h.Team.ResetTeams)
					r.Post("/teams/publish", h.Team.PublishTeams)
				})

				r.With(middleware.RequirePermission(models.PermEditResults)).Put("/result", h.Result.SubmitResult)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(models.PermCloseMatch))
					r.Post("/close", h.Result.CloseMatch)
					r.Post("/finalize", h.Result.FinalizeMatch)
					r.Post("/reopen", h.Result.ReopenMatch)
				})
			})
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/leaderboard", h.Stats.GetLeaderboard)
			r.Get("/matches", h.Stats.GetMatchesSummary)
		})

		r.Route("/backup", func(r chi.Router) {
			r.Use(middleware.RequirePermission(models.PermExportData))
			r.Get("/", h.Backup.ExportBackup)
			r.Post("/restore", h.Backup.RestoreBackup)
		})
	})
}
