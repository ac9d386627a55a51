package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvidalgarcia/golfviajes-backend/api/controllers"
	"github.com/mvidalgarcia/golfviajes-backend/api/middleware"
	"github.com/mvidalgarcia/golfviajes-backend/internal/mappings"
	"github.com/mvidalgarcia/golfviajes-backend/internal/proposals"
	syncsvc "github.com/mvidalgarcia/golfviajes-backend/internal/sync"
	"github.com/mvidalgarcia/golfviajes-backend/internal/versions"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/config"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	healthDeps map[string]controllers.Pinger,
	proposalsService proposals.Service,
	versionsService versions.Service,
	mappingsService mappings.Service,
	mappingResolver mappings.Resolver,
	syncLogRepo *syncsvc.LogRepository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthDeps))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Token-addressed surface consumed by the client-facing proposal page.
	r.Route("/api/public/proposals", func(r chi.Router) {
		r.Get("/{token}", controllers.PublicProposalView(versionsService, logg))
		r.Post("/{token}/accept", controllers.PublicProposalAccept(versionsService, proposalsService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/proposals", func(r chi.Router) {
			r.Get("/", controllers.ProposalList(proposalsService, logg))
			r.Post("/", controllers.ProposalCreate(proposalsService, logg))
			r.Get("/{id}", controllers.ProposalGet(proposalsService, logg))
			r.Get("/{id}/versions", controllers.ProposalListVersions(versionsService, logg))
			r.Post("/{id}/versions", controllers.ProposalCreateVersion(versionsService, logg))
			r.Post("/{id}/revoke", controllers.ProposalRevoke(proposalsService, logg))
			r.Post("/{id}/lost", controllers.ProposalMarkLost(proposalsService, logg))
		})

		r.Route("/versions", func(r chi.Router) {
			r.Post("/{id}/sync", controllers.VersionSyncRetry(proposalsService, logg))
			r.Get("/{id}/sync-log", controllers.VersionSyncHistory(syncLogRepo, logg))
		})

		r.Route("/mappings", func(r chi.Router) {
			r.Get("/", controllers.MappingList(mappingsService, logg))
			r.Put("/", controllers.MappingUpsert(mappingsService, logg))
			r.Get("/resolve", controllers.MappingResolvePreview(mappingResolver, logg))
		})
	})

	return r
}
