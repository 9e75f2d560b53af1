package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/locvowork/hiring_analytics/docs"
	"github.com/locvowork/hiring_analytics/internal/config"
	"github.com/locvowork/hiring_analytics/internal/database"
	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/handler"
	"github.com/locvowork/hiring_analytics/internal/logger"
	"github.com/locvowork/hiring_analytics/internal/metrics"
	"github.com/locvowork/hiring_analytics/internal/metrics/datadog"
	"github.com/locvowork/hiring_analytics/internal/metrics/prom"
	"github.com/locvowork/hiring_analytics/internal/repository"
	"github.com/locvowork/hiring_analytics/internal/service"
	"github.com/locvowork/hiring_analytics/pkg/simpleexcel"
)

type App struct {
	Echo *echo.Echo
	DB   *sql.DB
	// scrape serves /metrics when the prometheus backend is active
	scrape http.Handler
}

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Upload  *handler.UploadHandler
	Metrics *handler.MetricsHandler
	Search  *handler.SearchHandler
	System  *handler.SystemHandler
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{Echo: e}
}

// Services are the application services shared by the HTTP server and the loader CLI.
type Services struct {
	DB     *sql.DB
	Ingest service.IngestService
	Hiring service.HiringService
	Index  domain.EmployeeIndex
}

// Setup loads configuration, initializes logging and metrics, connects to the
// database and builds the services.
func Setup(ctx context.Context) (*Services, http.Handler, error) {
	if err := config.LoadEnvConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	scrape, err := setupMetrics(ctx)
	if err != nil {
		return nil, nil, err
	}

	dialect, err := database.ParseDialect(cfg.DB_DRIVER)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, database.Config{
		Driver:          dialect,
		DSN:             cfg.DB_DSN,
		Host:            cfg.DB_HOST,
		Port:            cfg.DB_PORT,
		User:            cfg.DB_USER,
		Password:        cfg.DB_PASSWORD,
		DBName:          cfg.DB_NAME,
		SSLMode:         cfg.DB_SSL_MODE,
		MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.InfoLog(ctx, "Database connection established (%s)", dialect)

	if cfg.DB_AUTO_MIGRATE {
		if err := repository.Migrate(ctx, db, dialect); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	var index domain.EmployeeIndex
	if cfg.ELASTIC_URL != "" {
		es, err := database.NewElasticSearchClient(cfg.ELASTIC_URL)
		if err == nil {
			err = es.EnsureIndex(ctx)
		}
		if err != nil {
			// search is optional, uploads keep working without it
			logger.WarnLog(ctx, "employee search disabled: %v", err)
		} else {
			index = es
		}
	}

	svc := &Services{
		DB: db,
		Ingest: service.NewIngestService(repository.NewStore(db, dialect), index, service.IngestConfig{
			BatchSize: cfg.INGEST_BATCH_SIZE,
			Bounds: domain.Bounds{
				DepartmentMin: 1,
				DepartmentMax: cfg.DEPARTMENT_ID_MAX,
				JobMin:        1,
				JobMax:        cfg.JOB_ID_MAX,
			},
		}),
		Hiring: service.NewHiringService(repository.NewHiringRepository(db, dialect), cfg.REPORT_YEAR),
		Index:  index,
	}
	return svc, scrape, nil
}

func setupMetrics(ctx context.Context) (http.Handler, error) {
	cfg := config.DefaultEnvConfig
	switch cfg.METRICS_BACKEND {
	case "prometheus":
		b := prom.NewBackend(cfg.METRICS_NAMESPACE)
		metrics.SetBackend(b)
		return b.Handler(), nil
	case "datadog":
		dd := datadog.Config{Addr: cfg.DATADOG_ADDR, GlobalTags: cfg.DATADOG_TAGS}
		if cfg.METRICS_NAMESPACE != "" {
			dd.Namespace = cfg.METRICS_NAMESPACE + "."
		}
		b, err := datadog.NewBackend(dd)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize datadog metrics: %w", err)
		}
		metrics.SetBackend(b)
		return nil, nil
	case "", "none":
		return nil, nil
	}
	logger.WarnLog(ctx, "unknown METRICS_BACKEND %q, metrics disabled", cfg.METRICS_BACKEND)
	return nil, nil
}

func (a *App) Initialize(ctx context.Context) error {
	svc, scrape, err := Setup(ctx)
	if err != nil {
		return err
	}
	a.DB = svc.DB
	a.scrape = scrape

	var layout *simpleexcel.ReportTemplate
	if path := config.DefaultEnvConfig.EXPORT_LAYOUT_PATH; path != "" {
		if layout, err = simpleexcel.LoadTemplateFile(path); err != nil {
			return fmt.Errorf("failed to load export layout: %w", err)
		}
	}

	a.RegisterMiddlewares(config.DefaultEnvConfig.UPLOAD_BODY_LIMIT)
	a.RegisterRoutes(Handlers{
		Upload:  handler.NewUploadHandler(svc.Ingest),
		Metrics: handler.NewMetricsHandler(svc.Hiring, layout),
		Search:  handler.NewSearchHandler(svc.Index),
		System:  handler.NewSystemHandler(),
	})
	return nil
}

func (a *App) RegisterMiddlewares(bodyLimit string) {
	a.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	a.Echo.Use(logger.RequestLogger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
	if bodyLimit != "" {
		a.Echo.Use(middleware.BodyLimit(bodyLimit))
	}
}

func (a *App) RegisterRoutes(h Handlers) {
	a.Echo.GET("/", h.System.RootHandler)
	a.Echo.GET("/health", h.System.HealthHandler)

	a.Echo.GET("/docs", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	a.Echo.GET("/docs/*", echo.WrapHandler(httpSwagger.Handler(httpSwagger.URL("/docs/doc.json"))))
	if a.scrape != nil {
		a.Echo.GET("/metrics", echo.WrapHandler(a.scrape))
	}

	api := a.Echo.Group("/api/v1")

	uploadGroup := api.Group("/upload")
	uploadGroup.POST("/departments", h.Upload.DepartmentsHandler)
	uploadGroup.POST("/jobs", h.Upload.JobsHandler)
	uploadGroup.POST("/employees", h.Upload.EmployeesHandler)

	metricsGroup := api.Group("/metrics")
	metricsGroup.GET("/hiring-by-quarter", h.Metrics.HiringByQuarterHandler)
	metricsGroup.GET("/departments-above-average", h.Metrics.DepartmentsAboveAverageHandler)

	api.GET("/employees/search", h.Search.SearchEmployeesHandler)
}

func (a *App) Run() error {
	err := a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server, flushes metrics and closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if ferr := metrics.Flush(); ferr != nil {
		logger.WarnLog(ctx, "flush metrics: %v", ferr)
	}
	if a.DB != nil {
		if cerr := a.DB.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
