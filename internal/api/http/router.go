package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/siad-agro/siad-api/internal/audit"
	auth "github.com/siad-agro/siad-api/internal/auth/middleware"
	"github.com/siad-agro/siad-api/internal/crops"
	"github.com/siad-agro/siad-api/internal/dashboard"
	"github.com/siad-agro/siad-api/internal/etl"
	"github.com/siad-agro/siad-api/internal/fields"
	"github.com/siad-agro/siad-api/internal/inputs"
	"github.com/siad-agro/siad-api/internal/locale"
	"github.com/siad-agro/siad-api/internal/logging"
	"github.com/siad-agro/siad-api/internal/metrics"
	"github.com/siad-agro/siad-api/internal/prices"
	"github.com/siad-agro/siad-api/internal/ratelimit"
	"github.com/siad-agro/siad-api/internal/rbac"
	"github.com/siad-agro/siad-api/internal/reports"
	"github.com/siad-agro/siad-api/internal/scenario"
	"github.com/siad-agro/siad-api/internal/soil"
	"github.com/siad-agro/siad-api/internal/storage"
	"github.com/siad-agro/siad-api/internal/telemetry"
	"github.com/siad-agro/siad-api/internal/users"
	"github.com/siad-agro/siad-api/internal/weather"
)

// Deps are the services behind the API. Limiter and Metrics are optional; a nil Tracer
// uses the global tracer provider.
type Deps struct {
	Log  *zap.Logger
	DB   *sql.DB
	Auth *auth.AuthService

	Users     *users.Service
	Audit     *audit.Repo
	Weather   weather.Store
	Crops     *crops.Service
	Scenarios *scenario.Service
	Soil      *soil.Store
	Fields    *fields.Store
	Inputs    *inputs.Store
	Prices    *prices.Service
	Dashboard *dashboard.Service
	KPIs      dashboard.KPISource
	Reports   *reports.Queue
	ETL       *etl.Service
	Blobs     storage.BlobStore

	Metrics *metrics.Metrics
	Limiter *ratelimit.Limiter
	Tracer  trace.TracerProvider

	CORSOrigins    []string
	DefaultLocale  language.Tag
	DefaultStation string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.DefaultLocale == language.Und {
		d.DefaultLocale = locale.PortugueseBR
	}

	r := chi.NewRouter()
	r.Use(telemetry.Middleware(d.Tracer))
	r.Use(middleware.RequestID, middleware.RealIP, logging.RequestLogger(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language"},
		ExposedHeaders:   []string{"Content-Length", "Content-Language", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(locale.Middleware(d.DefaultLocale))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
			locale.WriteError(w, r, http.StatusTooManyRequests, locale.MsgRateLimited)
		}))
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		locale.WriteError(w, r, http.StatusNotFound, locale.MsgNotFound)
	})

	r.Get("/", RootHandler())
	r.Get("/health/z", HealthHandler(d.DB))

	// Public: account entry points and the stateless projector.
	r.Post("/auth/register", RegisterHandler(d.Users, d.Audit))
	r.Post("/auth/login", LoginHandler(d.Users, d.Audit))
	r.Post("/auth/refresh", RefreshHandler(d.Users))
	r.Post("/auth/logout", LogoutHandler(d.Users, d.Audit))
	r.Post("/scenarios/project", ProjectHandler())

	// Protected API (JWT → stored role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth), auth.AttachUserFromDB(d.DB))

		pr.With(rbac.Require("user:self")).Get("/auth/me", MeHandler(d.Users))
		pr.With(rbac.Require("user:self")).Post("/users/change-password", ChangePasswordHandler(d.Users, d.Audit))
		pr.With(rbac.Require("user:self")).Get("/users/me/preferences", GetPreferencesHandler(d.Users))
		pr.With(rbac.Require("user:self")).Put("/users/me/preferences", PutPreferencesHandler(d.Users))
		pr.With(rbac.Require("users:list")).Get("/users", ListUsersHandler(d.Users))
		pr.With(rbac.Require("users:create")).Post("/users/bulk", BulkRegisterHandler(d.Users, d.Audit))
		pr.With(rbac.Require("audit:view")).Get("/audit", AuditLogHandler(d.Audit))

		pr.Route("/weather", func(wr chi.Router) {
			wr.Use(rbac.Require("weather:view"))
			wr.Get("/stations", ListStationsHandler(d.Weather))
			wr.Get("/forecast", ForecastHandler(d.Weather, d.DefaultStation))
			wr.Get("/history", HistoryHandler(d.Weather, d.DefaultStation))
			wr.Get("/stats", RainfallStatsHandler(d.Weather, d.DefaultStation))
		})

		pr.Route("/crops", func(cr chi.Router) {
			cr.With(rbac.Require("crops:view")).Get("/season", ListSeasonsHandler(d.Crops))
			cr.With(rbac.Require("crops:view")).Get("/productivity", ProductivityHandler(d.Crops))
			cr.With(rbac.Require("crops:simulate")).Post("/simulation", SimulateHandler(d.Crops))
			cr.With(rbac.Require("crops:simulate")).Post("/simulation/compare", CompareSimulationsHandler(d.Crops))
		})

		pr.Route("/scenarios", func(sr chi.Router) {
			sr.With(rbac.Require("scenario:view")).Get("/", ListScenariosHandler(d.Scenarios))
			sr.With(rbac.Require("scenario:view")).Get("/presets", PresetsHandler())
			sr.With(rbac.Require("scenario:create")).Post("/", CreateScenarioHandler(d.Scenarios, d.Audit))
			sr.With(rbac.Require("scenario:evaluate")).Post("/{scenarioID}/evaluate", EvaluateScenarioHandler(d.Scenarios))
			sr.With(rbac.Require("scenario:view")).Post("/compare", CompareScenariosHandler(d.Scenarios))
			sr.With(rbac.Require("scenario:montecarlo")).Post("/montecarlo", MonteCarloHandler(d.Prices))
		})

		pr.Route("/soil", func(sr chi.Router) {
			sr.With(rbac.Require("soil:create")).Post("/samples", CreateSoilSampleHandler(d.Soil))
			sr.With(rbac.Require("soil:view")).Get("/analysis", SoilAnalysisHandler(d.Soil))
		})

		pr.Route("/fields", func(fr chi.Router) {
			fr.With(rbac.Require("fields:view")).Get("/", ListFieldsHandler(d.Fields))
			fr.With(rbac.Require("fields:view")).Get("/{fieldID}", GetFieldHandler(d.Fields))
			fr.With(rbac.Require("fields:create")).Post("/", CreateFieldHandler(d.Fields))
			fr.With(rbac.Require("fields:layers")).Post("/{fieldID}/layers", AddLayerHandler(d.Fields))
		})

		pr.Route("/inputs", func(ir chi.Router) {
			ir.With(rbac.Require("inputs:view")).Get("/", ListInputsHandler(d.Inputs))
			ir.With(rbac.Require("inputs:create")).Post("/", CreateInputHandler(d.Inputs))
			ir.With(rbac.Require("inputs:analyze")).Post("/cost-analysis", CostAnalysisHandler(d.Inputs))
		})

		pr.Route("/reports", func(rr chi.Router) {
			rr.With(rbac.Require("reports:view")).Get("/", ListReportsHandler(d.Reports))
			rr.With(rbac.Require("reports:create")).Post("/", CreateReportHandler(d.Reports, d.Audit))
			rr.With(rbac.Require("reports:view")).Get("/{reportID}", GetReportHandler(d.Reports))
			rr.With(rbac.Require("reports:view")).Get("/{reportID}/download", DownloadReportHandler(d.Reports))
		})

		pr.Route("/etl", func(er chi.Router) {
			er.With(rbac.Require("etl:upload")).Post("/upload", UploadHandler(d.ETL, d.Audit))
			er.With(rbac.Require("etl:upload")).Post("/normalize/rainfall", NormalizeRainfallHandler(d.ETL))
			er.With(rbac.Require("etl:upload")).Post("/preview", PreviewHandler(d.ETL))
			// report readers may fetch rendered reports; other blobs stay with ETL roles
			er.Route("/files", func(fr chi.Router) {
				fr.Use(rbac.RequireAny("etl:upload", "reports:view"))
				MountFiles(fr, d.Blobs)
			})
		})

		pr.Route("/dashboard", func(dr chi.Router) {
			dr.Use(rbac.Require("dashboard:view"))
			dr.Get("/kpis", KPIsHandler(d.KPIs))
			dr.Get("/overview", OverviewHandler(d.Dashboard, d.Users))
		})

		pr.Route("/prices", func(qr chi.Router) {
			qr.With(rbac.Require("prices:view")).Get("/current", CurrentPricesHandler(d.Prices))
			qr.With(rbac.Require("prices:refresh")).Post("/refresh", RefreshPricesHandler(d.Prices, d.Audit))
		})
	})

	return r
}
