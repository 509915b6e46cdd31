package motivation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rubenfitness/backend/internal/telemetry/tracing"
	"github.com/rubenfitness/backend/internal/users"
	"github.com/rubenfitness/backend/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type usersReader interface {
	Get(ctx context.Context, id string) (*users.User, error)
}

type streakReader interface {
	CurrentStreak(ctx context.Context, userID string) (int, error)
}

type Handler struct {
	messages *MessagesManager
	users    usersReader
	streaks  streakReader
}

func NewHandler(messages *MessagesManager, users usersReader, streaks streakReader) *Handler {
	return &Handler{
		messages: messages,
		users:    users,
		streaks:  streaks,
	}
}

// HandleMessage returns a personalized motivational message for a client
func (handler *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "motivationHandler.message")
	defer span.End()

	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("motivation message, unmarshal request: %s", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	// degrade to a generic greeting when the profile cannot be read
	name := "there"
	user, err := handler.users.Get(ctx, req.UserID)
	if err != nil {
		if !errors.Is(err, users.ErrUserNotFound) {
			log.Errorf("motivation message, get user %s: %s", req.UserID, err)
		}
	} else if user.FullName != "" {
		name = user.FullName
	}

	streak, err := handler.streaks.CurrentStreak(ctx, req.UserID)
	if err != nil {
		log.Errorf("motivation message, get streak %s: %s", req.UserID, err)
		streak = 0
	}

	message := handler.messages.RandomMessage(name, streak)
	messageJson, err := json.Marshal(message)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := fmt.Sprintf(
		`{"message": %s, "timestamp": "%s"}`,
		messageJson, time.Now().UTC().Format(time.RFC3339),
	)
	pkg.WriteJSONResponseOK(w, resp)
}
