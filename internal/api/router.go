package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/clubledger/internal/api/handlers"
	mw "github.com/Harshitk-cp/clubledger/internal/api/middleware"
	"github.com/Harshitk-cp/clubledger/internal/auth"
	"github.com/Harshitk-cp/clubledger/internal/buildconfig"
	"github.com/Harshitk-cp/clubledger/internal/config"
	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/events"
	"github.com/Harshitk-cp/clubledger/internal/importer"
	"github.com/Harshitk-cp/clubledger/internal/metrics"
	"github.com/Harshitk-cp/clubledger/internal/monitoring"
	"github.com/Harshitk-cp/clubledger/internal/service"
	"github.com/Harshitk-cp/clubledger/internal/store"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and the event bus for lifecycle management.
type App struct {
	Router *chi.Mux
	Bus    *events.Bus
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services is everything the HTTP surface calls into.
type Services struct {
	Accounts handlers.Accounts
	Tenants  handlers.TenantCreator
	Dir      handlers.Directory
	Roles    handlers.Roles
	Wallets  handlers.Wallets
	Importer handlers.MemberImporter
	Tokens   mw.TokenParser
	// Membership and role checks for the tenant-scoped routes.
	TenantResolver mw.TenantResolver
	RoleChecker    mw.RoleChecker
}

// NewApp wires stores, services, the event bus and the provisioning
// handlers. The bus is returned unstarted.
func NewApp(ctx context.Context, db *pgxpool.Pool, reporter monitoring.Reporter, m *metrics.Metrics, logger *zap.Logger) *App {
	// Stores
	tenantStore := store.NewTenantStore(db)
	membershipStore := store.NewMembershipStore(db)
	userStore := store.NewUserStore(db)
	roleStore := store.NewRoleStore(db)
	walletStore := store.NewWalletStore(db)

	bus := events.NewBus(events.Options{
		Workers:     config.EventWorkers(),
		QueueSize:   config.EventQueueSize(),
		MaxAttempts: config.EventMaxAttempts(),
		Backoff:     500 * time.Millisecond,
	}, logger.Named("events"), reporter, m)

	tokens := auth.NewTokenIssuer(config.JWTSecret(), time.Duration(config.JWTTTLHours())*time.Hour)

	// Services
	dirSvc := service.NewDirectoryService(tenantStore, membershipStore, logger)
	roleSvc := service.NewRoleService(roleStore, dirSvc, config.DefaultGuard(), reporter, m, logger)
	walletSvc := service.NewWalletService(walletStore, dirSvc, m, logger)
	userSvc := service.NewUserService(userStore, dirSvc, tokens, bus, logger)
	tenantSvc := service.NewTenantService(tenantStore, dirSvc, bus, logger)
	importSvc := importer.New(userSvc, reporter, m, logger)

	service.NewProvisioner(dirSvc, userStore, roleSvc, walletSvc, logger).Register(bus)

	r := newRouter(ctx, Services{
		Accounts:       userSvc,
		Tenants:        tenantSvc,
		Dir:            dirSvc,
		Roles:          roleSvc,
		Wallets:        walletSvc,
		Importer:       importSvc,
		Tokens:         tokens,
		TenantResolver: dirSvc,
		RoleChecker:    roleSvc,
	}, db, m, logger)

	return &App{Router: r, Bus: bus}
}

func newRouter(ctx context.Context, svcs Services, db Pinger, m *metrics.Metrics, logger *zap.Logger) *chi.Mux {
	authHandler := handlers.NewAuthHandler(svcs.Accounts)
	tenantHandler := handlers.NewTenantHandler(svcs.Tenants, svcs.Dir)
	memberHandler := handlers.NewMemberHandler(svcs.Accounts, svcs.Dir)
	roleHandler := handlers.NewRoleHandler(svcs.Roles)
	walletHandler := handlers.NewWalletHandler(svcs.Wallets)
	importHandler := handlers.NewImportHandler(svcs.Importer)

	requireAdmin := mw.RequireRole(svcs.RoleChecker, domain.RoleAdmin)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics(m))
	r.Use(mw.Logging(logger))
	r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(ctx, config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(db))
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/version", versionHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(mw.BearerAuth(svcs.Tokens))
			r.Use(mw.TenantContext(svcs.TenantResolver, logger))
			r.Use(mw.Trace)

			r.Route("/tenants", func(r chi.Router) {
				r.Post("/", tenantHandler.Create)
				r.Get("/", tenantHandler.List)
				r.Get("/{ref}", tenantHandler.Get)
			})

			// Tenant-scoped routes
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireTenant)

				r.Route("/members", func(r chi.Router) {
					r.With(requireAdmin).Post("/", memberHandler.Create)
					r.Get("/", memberHandler.List)
					r.Route("/{userID}/roles", func(r chi.Router) {
						r.Get("/", roleHandler.List)
						r.With(requireAdmin).Post("/", roleHandler.Assign)
						r.With(requireAdmin).Delete("/{role}", roleHandler.Revoke)
					})
				})

				r.Route("/wallets", func(r chi.Router) {
					r.Get("/me", walletHandler.Me)
					r.With(requireAdmin).Get("/", walletHandler.List)
					r.With(requireAdmin).Post("/provision", walletHandler.Provision)
				})

				r.With(requireAdmin).Post("/imports", importHandler.Create)
			})
		})
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(buildconfig.VersionInfo())
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.TenantStore     = (*store.TenantStore)(nil)
	_ domain.MembershipStore = (*store.MembershipStore)(nil)
	_ domain.UserStore       = (*store.UserStore)(nil)
	_ domain.RoleStore       = (*store.RoleStore)(nil)
	_ domain.WalletStore     = (*store.WalletStore)(nil)
	_ Pinger                 = (*pgxpool.Pool)(nil)
)
