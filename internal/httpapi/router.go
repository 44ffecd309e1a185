package httpapi

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/internal/adminauth"
	"taxibooking/internal/api"
	"taxibooking/internal/audit"
	"taxibooking/internal/availability"
	"taxibooking/internal/booking"
	"taxibooking/internal/cache"
	"taxibooking/internal/clock"
	"taxibooking/internal/contact"
	"taxibooking/internal/pricing"
	"taxibooking/internal/route"
	"taxibooking/internal/season"
	"taxibooking/internal/settings"
	"taxibooking/internal/temple"
	"taxibooking/internal/tourpackage"
	"taxibooking/internal/vehicle"
	"taxibooking/internal/wizard"
	"taxibooking/pkg/config"
	"taxibooking/pkg/db"
)

type Dependencies struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    cache.Store
	Notifier booking.Notifier
	Clock    clock.Clock
	Logger   *log.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(api.CORSMiddleware(api.CORSOptions{
		AllowedOrigins: deps.Cfg.PublicAllowedOrigins,
		AllowedHeaders: []string{"Content-Type", "Authorization", "Idempotency-Key", "X-Admin-Password"},
		MaxAgeSeconds:  600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	auditRepo := audit.NewRepository(deps.DB)
	settingsRepo := settings.NewRepository(deps.DB)
	seasonRepo := season.NewRepository(deps.DB)
	availabilityRepo := availability.NewRepository(deps.DB)
	vehicleRepo := vehicle.NewRepository(deps.DB)
	templeRepo := temple.NewRepository(deps.DB)
	packageRepo := tourpackage.NewRepository(deps.DB)
	routeRepo := route.NewRepository(deps.DB)
	bookingRepo := booking.NewRepository(deps.DB)
	draftRepo := wizard.NewRepository(deps.DB)
	contactRepo := contact.NewRepository(deps.DB)

	availabilityService := availability.NewService(availabilityRepo, settingsRepo, seasonRepo, deps.Clock, deps.Cfg.Location())
	pricingService := pricing.NewService(packageRepo, routeRepo, seasonRepo, availabilityService, settingsRepo)
	bookingService := booking.NewService(booking.Deps{
		Tx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.RunInTx(ctx, deps.DB, fn)
		},
		Store:    bookingRepo,
		Capacity: availabilityRepo,
		Checker:  availabilityService,
		Pricer:   pricingService,
		Settings: settingsRepo,
		Audit:    auditRepo,
		Notifier: deps.Notifier,
		Cache:    deps.Cache,
		Clock:    deps.Clock,
	})
	wizardService := wizard.NewService(draftRepo, pricingService, bookingService, deps.Clock, deps.Cfg.DraftTTL)

	settingsHandlers := settings.Handlers{DB: deps.DB, Repo: settingsRepo, Audit: auditRepo, Cache: deps.Cache}
	seasonHandlers := season.Handlers{Repo: seasonRepo, Cache: deps.Cache}
	availabilityHandlers := availability.Handlers{
		DB:      deps.DB,
		Service: availabilityService,
		Repo:    availabilityRepo,
		Audit:   auditRepo,
		Cache:   deps.Cache,
	}
	vehicleHandlers := vehicle.Handlers{Repo: vehicleRepo, Cache: deps.Cache}
	templeHandlers := temple.Handlers{Repo: templeRepo, Cache: deps.Cache}
	packageHandlers := tourpackage.Handlers{DB: deps.DB, Repo: packageRepo, Audit: auditRepo, Cache: deps.Cache}
	routeHandlers := route.Handlers{Repo: routeRepo, Cache: deps.Cache}
	pricingHandlers := pricing.Handlers{Service: pricingService}
	bookingHandlers := booking.Handlers{Service: bookingService, Repo: bookingRepo}
	wizardHandlers := wizard.Handlers{Service: wizardService}
	contactHandlers := contact.Handlers{Repo: contactRepo}
	auditHandlers := audit.Handlers{Repo: auditRepo}
	loginHandlers := adminauth.Handlers{Cfg: deps.Cfg.Admin, Clock: deps.Clock}

	r.Route("/v1", func(r chi.Router) {
		// Public site
		r.Get("/settings", settingsHandlers.Public)
		r.Get("/availability", availabilityHandlers.PublicRange)
		r.Get("/availability/{date}", availabilityHandlers.PublicDay)
		r.Get("/vehicles", vehicleHandlers.PublicList)
		r.Get("/temples", templeHandlers.PublicList)
		r.Get("/temples/{slug}", templeHandlers.PublicGet)
		r.Get("/packages", packageHandlers.PublicList)
		r.Get("/packages/{slug}", packageHandlers.PublicGet)
		r.Get("/routes", routeHandlers.PublicList)
		r.Get("/routes/{slug}", routeHandlers.PublicGet)
		r.Post("/quotes", pricingHandlers.Quote)
		r.Post("/bookings", bookingHandlers.Create)
		r.Get("/bookings/{reference}", bookingHandlers.Lookup)
		r.Post("/contact", contactHandlers.Create)

		r.Route("/booking-drafts", func(r chi.Router) {
			r.Post("/", wizardHandlers.Create)
			r.Get("/{id}", wizardHandlers.Get)
			r.Put("/{id}/steps/{step}", wizardHandlers.SaveStep)
			r.Post("/{id}/back", wizardHandlers.Back)
			r.Post("/{id}/submit", wizardHandlers.Submit)
		})

		// Back-office
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", loginHandlers.Login)

			r.Group(func(r chi.Router) {
				r.Use(adminauth.Middleware(deps.Cfg, deps.Clock))

				r.Get("/settings", settingsHandlers.Get)
				r.Put("/settings", settingsHandlers.Put)

				r.Get("/seasons", seasonHandlers.List)
				r.Post("/seasons", seasonHandlers.Create)
				r.Put("/seasons/{id}", seasonHandlers.Update)
				r.Delete("/seasons/{id}", seasonHandlers.Delete)

				r.Get("/availability", availabilityHandlers.AdminRange)
				r.Put("/availability/{date}", availabilityHandlers.Put)
				r.Post("/availability/sync", availabilityHandlers.Sync)

				r.Get("/vehicles", vehicleHandlers.List)
				r.Post("/vehicles", vehicleHandlers.Create)
				r.Put("/vehicles/{id}", vehicleHandlers.Update)
				r.Delete("/vehicles/{id}", vehicleHandlers.Delete)

				r.Get("/temples", templeHandlers.List)
				r.Post("/temples", templeHandlers.Create)
				r.Put("/temples/{id}", templeHandlers.Update)
				r.Delete("/temples/{id}", templeHandlers.Delete)

				r.Get("/packages", packageHandlers.List)
				r.Post("/packages", packageHandlers.Create)
				r.Get("/packages/{id}", packageHandlers.Get)
				r.Put("/packages/{id}", packageHandlers.Update)
				r.Delete("/packages/{id}", packageHandlers.Delete)
				r.Put("/packages/{id}/prices", packageHandlers.PutPrices)

				r.Get("/routes", routeHandlers.List)
				r.Post("/routes", routeHandlers.Create)
				r.Get("/routes/{id}", routeHandlers.Get)
				r.Put("/routes/{id}", routeHandlers.Update)
				r.Delete("/routes/{id}", routeHandlers.Delete)
				r.Put("/routes/{id}/rates", routeHandlers.PutRates)

				r.Get("/bookings", bookingHandlers.List)
				r.Get("/bookings/{id}", bookingHandlers.Get)
				r.Patch("/bookings/{id}/status", bookingHandlers.UpdateStatus)
				r.Get("/bookings/{id}/events", bookingHandlers.Events)

				r.Get("/contact", contactHandlers.List)
				r.Patch("/contact/{id}", contactHandlers.Patch)
				r.Delete("/contact/{id}", contactHandlers.Delete)

				r.Get("/audit", auditHandlers.List)
			})
		})
	})

	return r
}
