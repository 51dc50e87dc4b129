package router

import (
	"database/sql"
	"net/http"

	_ "sports-portal/docs"
	"sports-portal/internal/adapters/notify"
	mem "sports-portal/internal/adapters/storage/memory"
	pg "sports-portal/internal/adapters/storage/postgres"
	"sports-portal/internal/domain/profiles"
	"sports-portal/internal/domain/rating"
	"sports-portal/internal/domain/review"
	"sports-portal/internal/domain/training"
	"sports-portal/internal/middleware"
	"sports-portal/internal/platform/logger"
	"sports-portal/internal/platform/metrics"
	"sports-portal/internal/ports/auth"
	notifyport "sports-portal/internal/ports/notify"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: por defecto las notificaciones van al log.
	Notifier notifyport.Emitter
	Logger   logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogEmitter(log)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.Recover(log))
	r.Use(metrics.InstrumentHandler)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		reviewStore  review.Store
		profileRepo  profiles.Repository
		trainingRepo training.Repository
	)

	if opts.DB != nil {
		reviewStore = pg.NewReviewStore(opts.DB)
		profileRepo = pg.NewProfilesRepo(opts.DB)
		trainingRepo = pg.NewTrainingRepo(opts.DB)
	} else {
		// Un solo store para que las cascadas de review lleguen a perfiles y planes.
		store := mem.NewStore()
		reviewStore = store
		profileRepo = store
		trainingRepo = store
	}

	// Services por módulo
	reviewSvc := review.NewService(reviewStore, notifier, review.WithLogger(log.With(map[string]any{"component": "review"})))
	profilesSvc := profiles.NewService(profileRepo)
	trainingSvc := training.NewService(trainingRepo)
	engine := rating.NewEngine(reviewStore, trainingRepo)

	// Rutas por módulo
	review.RegisterRoutes(r, reviewSvc)
	profiles.RegisterRoutes(r, profilesSvc)
	training.RegisterRoutes(r, trainingSvc)
	rating.RegisterRoutes(r, engine)

	return r
}
