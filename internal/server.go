package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rubenfitness/backend/internal/achievements"
	"github.com/rubenfitness/backend/internal/admin"
	"github.com/rubenfitness/backend/internal/auth"
	"github.com/rubenfitness/backend/internal/bodycomp"
	"github.com/rubenfitness/backend/internal/config"
	"github.com/rubenfitness/backend/internal/db"
	"github.com/rubenfitness/backend/internal/middleware"
	"github.com/rubenfitness/backend/internal/misc"
	"github.com/rubenfitness/backend/internal/motivation"
	"github.com/rubenfitness/backend/internal/streaks"
	"github.com/rubenfitness/backend/internal/telemetry/metrics"
	"github.com/rubenfitness/backend/internal/telemetry/tracing"
	"github.com/rubenfitness/backend/internal/users"
	"github.com/rubenfitness/backend/internal/workouts"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool
	admin  *auth.Admin

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service

	// kept on the server so the graceful shutdown can wait for the
	// in-flight achievement evaluations to finish
	workoutsService *workouts.Service

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("fitness", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewService(auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitness-backend")
	if err != nil {
		return nil, err
	}

	return &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,
		admin: &auth.Admin{
			Username:     params.AdminUsername,
			PasswordHash: params.AdminPasswordHash,
		},

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	usersRepo := users.NewRepo(s.dbPool)
	workoutsRepo := workouts.NewRepo(s.dbPool)
	streaksRepo := streaks.NewRepo(s.dbPool)
	bodyCompRepo := bodycomp.NewRepo(s.dbPool)

	streakEngine := streaks.NewEngine(streaksRepo)
	streaksHandler := streaks.NewHandler(streakEngine)
	r.HandleFunc("/streaks/{userId}", streaksHandler.HandleGet).
		Methods("GET", "OPTIONS").Name("get-streak")

	achievementsEvaluator := achievements.NewEvaluator(
		achievements.NewRepo(s.dbPool),
		workoutsRepo,
		streakEngine,
		s.metricsManager,
	)
	achievementsHandler := achievements.NewHandler(achievementsEvaluator)
	r.HandleFunc("/achievements/{userId}", achievementsHandler.HandleList).
		Methods("GET", "OPTIONS").Name("list-achievements")
	r.HandleFunc("/achievements/{userId}/check", achievementsHandler.HandleCheck).
		Methods("POST", "OPTIONS").Name("check-achievements")

	s.workoutsService = workouts.NewService(
		workoutsRepo,
		streakEngine,
		achievementsEvaluator,
		s.metricsManager,
	)
	workoutsHandler := workouts.NewHandler(s.workoutsService)
	r.HandleFunc("/workouts", workoutsHandler.HandleLog).
		Methods("POST", "OPTIONS").Name("log-workout")
	r.HandleFunc("/workouts/{userId}/calendar", workoutsHandler.HandleCalendar).
		Methods("GET", "OPTIONS").Name("workout-calendar")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).
		Methods("DELETE", "OPTIONS").Name("delete-workout")
	r.HandleFunc("/progress/{userId}", workoutsHandler.HandleProgress).
		Methods("GET", "OPTIONS").Name("progress-summary")

	bodyCompHandler := bodycomp.NewHandler(bodyCompRepo)
	r.HandleFunc("/bodycomp", bodyCompHandler.HandleLog).
		Methods("POST", "OPTIONS").Name("log-bodycomp")
	r.HandleFunc("/bodycomp/{userId}", bodyCompHandler.HandleHistory).
		Methods("GET", "OPTIONS").Name("bodycomp-history")

	motivationHandler := motivation.NewHandler(
		motivation.NewMessagesManager(),
		usersRepo,
		streakEngine,
	)
	r.HandleFunc("/motivation/message", motivationHandler.HandleMessage).
		Methods("POST", "OPTIONS").Name("motivation-message")

	adminAggregator := admin.NewAggregator(
		usersRepo,
		workoutsRepo,
		streaksRepo,
		bodyCompRepo,
		s.config.AdminEmail,
	)
	adminHandler := admin.NewHandler(
		adminAggregator,
		s.config.DashboardCacheTTLSeconds,
		s.metricsManager,
	)
	r.HandleFunc("/admin/dashboard", adminHandler.HandleDashboard).
		Methods("GET", "OPTIONS").Name("admin-dashboard")
	r.HandleFunc("/admin/user/{userId}/details", adminHandler.HandleUserDetails).
		Methods("GET", "OPTIONS").Name("admin-user-details")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	miscHandler := misc.NewHandler(s.versionInfo, s.authService, s.admin)
	miscHandler.SetupRoutes(r, reqRateLimiter, s.metricsManager, s.config.LoginRateLimitAllowedPerMin)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.workoutsService != nil {
		log.Debugln("waiting for in-flight achievement evaluations ...")
		s.workoutsService.Wait()
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
