package bodycomp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rubenfitness/backend/internal/telemetry/tracing"
	"github.com/rubenfitness/backend/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const historyLimit = 30

type measurementsRepo interface {
	Add(ctx context.Context, m *Measurement) (*Measurement, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]Measurement, error)
}

type Handler struct {
	repo measurementsRepo
}

func NewHandler(repo measurementsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

type logMeasurementRequest struct {
	UserID     string   `json:"userId"`
	Weight     *float64 `json:"weight"`
	Fat        *float64 `json:"fat"`
	Muscle     *float64 `json:"muscle"`
	MeasuredAt string   `json:"measuredAt"` // 2006-01-02, today when empty
}

func (handler *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.bodycomp.log")
	defer span.End()

	var req logMeasurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "error, invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}
	if req.Weight == nil && req.Fat == nil && req.Muscle == nil {
		http.Error(w, "error, empty measurement", http.StatusBadRequest)
		return
	}

	var measuredAt time.Time
	if req.MeasuredAt != "" {
		var err error
		measuredAt, err = time.Parse("2006-01-02", req.MeasuredAt)
		if err != nil {
			http.Error(w, "error, invalid date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	added, err := handler.repo.Add(ctx, &Measurement{
		UserID:     req.UserID,
		Weight:     req.Weight,
		Fat:        req.Fat,
		Muscle:     req.Muscle,
		MeasuredAt: measuredAt,
	})
	if err != nil {
		log.Errorf("log body comp for user %s: %s", req.UserID, err)
		http.Error(w, "error, failed to log measurement", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal measurement: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.bodycomp.history")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}

	measurements, err := handler.repo.ListForUser(ctx, userID, historyLimit)
	if err != nil {
		log.Errorf("list body comp for user %s: %s", userID, err)
		http.Error(w, "failed to get measurements", http.StatusInternalServerError)
		return
	}

	if len(measurements) == 0 {
		measurements = []Measurement{}
	}

	measurementsJson, err := json.Marshal(measurements)
	if err != nil {
		log.Errorf("marshal measurements: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resJson := fmt.Sprintf(`{"bodyComposition": %s, "total": %d}`, measurementsJson, len(measurements))
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, []byte(resJson), http.StatusOK)
}
