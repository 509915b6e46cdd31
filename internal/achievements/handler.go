package achievements

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rubenfitness/backend/internal/telemetry/tracing"
	"github.com/rubenfitness/backend/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	evaluator *Evaluator
}

func NewHandler(evaluator *Evaluator) *Handler {
	return &Handler{
		evaluator: evaluator,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.achievements.list")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}

	unlocked, err := handler.evaluator.List(ctx, userID)
	if err != nil {
		log.Errorf("list achievements for user %s: %s", userID, err)
		http.Error(w, "failed to get achievements", http.StatusInternalServerError)
		return
	}

	if len(unlocked) == 0 {
		unlocked = []Achievement{}
	}

	unlockedJson, err := json.Marshal(unlocked)
	if err != nil {
		log.Errorf("marshal achievements error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resJson := fmt.Sprintf(`{"achievements": %s, "total": %d}`, unlockedJson, len(unlocked))
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, []byte(resJson), http.StatusOK)
}

func (handler *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.achievements.check")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}

	newlyUnlocked, err := handler.evaluator.Evaluate(ctx, userID)
	if err != nil {
		log.Errorf("check achievements for user %s: %s", userID, err)
		http.Error(w, "failed to check achievements", http.StatusInternalServerError)
		return
	}

	if len(newlyUnlocked) == 0 {
		newlyUnlocked = []Achievement{}
	}

	newlyUnlockedJson, err := json.Marshal(newlyUnlocked)
	if err != nil {
		log.Errorf("marshal achievements error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resJson := fmt.Sprintf(`{"newlyUnlocked": %s, "count": %d}`, newlyUnlockedJson, len(newlyUnlocked))
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, []byte(resJson), http.StatusOK)
}
