package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rubenfitness/backend/internal/telemetry/metrics"
	"github.com/rubenfitness/backend/internal/telemetry/tracing"
	"github.com/rubenfitness/backend/internal/users"
	"github.com/rubenfitness/backend/pkg"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	dashboardCacheKey  = "admin-dashboard"
	dashboardCacheSize = 2 * 1024 * 1024
)

type Handler struct {
	aggregator     *Aggregator
	cache          *freecache.Cache
	cacheExpireSec int
	metrics        *metrics.Manager
}

func NewHandler(aggregator *Aggregator, cacheExpireSec int, metrics *metrics.Manager) *Handler {
	return &Handler{
		aggregator:     aggregator,
		cache:          freecache.NewCache(dashboardCacheSize),
		cacheExpireSec: cacheExpireSec,
		metrics:        metrics,
	}
}

// HandleDashboard serves the aggregated coach dashboard, cached for a
// short while, one coach refreshing the page must not fan out to five
// table scans every time.
func (handler *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.admin.dashboard")
	defer span.End()

	if cached, err := handler.cache.Get([]byte(dashboardCacheKey)); err == nil {
		handler.metrics.CounterDashboardCacheHits.Inc()
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, cached, http.StatusOK)
		return
	}

	buildStart := time.Now()
	dashboard, err := handler.aggregator.BuildDashboard(ctx)
	if err != nil {
		log.Errorf("build admin dashboard: %s", err)
		http.Error(w, "failed to build dashboard", http.StatusInternalServerError)
		return
	}
	handler.metrics.HistDashboardBuildDuration.Observe(time.Since(buildStart).Seconds())

	dashboardJson, err := json.Marshal(dashboard)
	if err != nil {
		log.Errorf("marshal admin dashboard: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set([]byte(dashboardCacheKey), dashboardJson, handler.cacheExpireSec); err != nil {
		log.Errorf("cache admin dashboard: %s", err)
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, dashboardJson, http.StatusOK)
}

func (handler *Handler) HandleUserDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.admin.userDetails")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}

	details, err := handler.aggregator.UserDetails(ctx, userID)
	if errors.Is(err, users.ErrUserNotFound) {
		http.Error(w, "error, user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get user details for %s: %s", userID, err)
		http.Error(w, "failed to get user details", http.StatusInternalServerError)
		return
	}

	detailsJson, err := json.Marshal(details)
	if err != nil {
		log.Errorf("marshal user details: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, detailsJson, http.StatusOK)
}
