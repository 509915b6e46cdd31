package streaks

import (
	"encoding/json"
	"net/http"

	"github.com/rubenfitness/backend/internal/telemetry/tracing"
	"github.com/rubenfitness/backend/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{
		engine: engine,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.streaks.get")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}

	streak, err := handler.engine.GetStreak(ctx, userID)
	if err != nil {
		log.Errorf("get streak for user %s: %s", userID, err)
		http.Error(w, "failed to get streak", http.StatusInternalServerError)
		return
	}

	streakJson, err := json.Marshal(streak)
	if err != nil {
		log.Errorf("marshal streak error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, streakJson, http.StatusOK)
}
