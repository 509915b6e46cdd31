package workouts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rubenfitness/backend/internal/streaks"
	"github.com/rubenfitness/backend/internal/telemetry/tracing"
	"github.com/rubenfitness/backend/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

type logWorkoutRequest struct {
	UserID          string        `json:"userId"`
	Date            string        `json:"date"` // 2006-01-02
	DurationMinutes int           `json:"durationMinutes"`
	Notes           string        `json:"notes"`
	Exercises       []ExerciseSet `json:"exercises"`
}

type logWorkoutResponse struct {
	Success bool            `json:"success"`
	Workout *Workout        `json:"workout"`
	Streak  *streaks.Streak `json:"streak,omitempty"`
}

func (handler *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.log")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var req logWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "error, invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}
	workoutDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		http.Error(w, "error, invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	workout := &Workout{
		UserID:          req.UserID,
		WorkoutDate:     workoutDate,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		Exercises:       req.Exercises,
	}

	added, streak, err := handler.service.LogWorkout(ctx, workout)
	if err != nil {
		log.Errorf("log workout for user %s: %s", req.UserID, err)
		http.Error(w, "error, failed to log workout", http.StatusInternalServerError)
		return
	}

	log.Debugf("workout logged for user %s on %s: %d", added.UserID, req.Date, added.ID)

	resJson, err := json.Marshal(logWorkoutResponse{
		Success: true,
		Workout: added,
		Streak:  streak,
	})
	if err != nil {
		log.Errorf("marshal log workout response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resJson, http.StatusCreated)
}

func (handler *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.calendar")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		http.Error(w, "error, year invalid", http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "error, month invalid", http.StatusBadRequest)
		return
	}

	workoutDays, err := handler.service.Calendar(ctx, userID, year, month)
	if err != nil {
		log.Errorf("get workout calendar for user %s: %s", userID, err)
		http.Error(w, "failed to get workout days", http.StatusInternalServerError)
		return
	}

	if len(workoutDays) == 0 {
		workoutDays = []string{}
	}

	daysJson, err := json.Marshal(workoutDays)
	if err != nil {
		log.Errorf("marshal workout days: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resJson := fmt.Sprintf(
		`{"userId": %q, "year": %d, "month": %d, "workoutDays": %s}`,
		userID, year, month, daysJson,
	)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, []byte(resJson), http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	vars := mux.Vars(r)
	idStr := vars["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.service.DeleteWorkout(ctx, id); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "error, workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete workout %d: %s", id, err)
		http.Error(w, "error, workout not deleted", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", id))
}

func (handler *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.progress")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}

	summary, err := handler.service.Progress(ctx, userID)
	if err != nil {
		log.Errorf("get progress for user %s: %s", userID, err)
		http.Error(w, "failed to get progress", http.StatusInternalServerError)
		return
	}

	summaryJson, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("marshal progress summary: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, summaryJson, http.StatusOK)
}
