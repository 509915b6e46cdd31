package motivation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rubenfitness/backend/internal/users"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "0d9710c7-49a9-4d71-9b67-12711b7dd1a2"

type usersStub struct {
	user *users.User
	err  error
}

func (s *usersStub) Get(_ context.Context, _ string) (*users.User, error) {
	return s.user, s.err
}

type streakStub struct {
	streak int
	err    error
}

func (s *streakStub) CurrentStreak(_ context.Context, _ string) (int, error) {
	return s.streak, s.err
}

func TestMessagesManager_RandomMessage(t *testing.T) {
	mm := NewMessagesManager()
	require.NotEmpty(t, mm.Templates)

	for i := 0; i < 20; i++ {
		message := mm.RandomMessage("Ana", 5)
		assert.NotContains(t, message, "{name}")
		assert.NotContains(t, message, "{streak}")
		assert.Contains(t, message, "Ana")
	}

	mm.Templates = []string{"{streak} days strong, {name}!"}
	assert.Equal(t, "5 days strong, Marco!", mm.RandomMessage("Marco", 5))
}

func newMotivationRouter(usersR *usersStub, streaksR *streakStub) *mux.Router {
	r := mux.NewRouter()
	handler := NewHandler(NewMessagesManager(), usersR, streaksR)
	r.HandleFunc("/motivation/message", handler.HandleMessage).Methods("POST")
	return r
}

func TestHandler_Message(t *testing.T) {
	r := newMotivationRouter(
		&usersStub{user: &users.User{ID: testUserID, FullName: "Ana"}},
		&streakStub{streak: 5},
	)

	reqBody := fmt.Sprintf(`{"userId": "%s"}`, testUserID)
	req := httptest.NewRequest("POST", "/motivation/message", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "Ana")
	assert.NotEmpty(t, resp.Timestamp)
}

func TestHandler_Message_unknownUserGetsGenericGreeting(t *testing.T) {
	r := newMotivationRouter(
		&usersStub{err: users.ErrUserNotFound},
		&streakStub{streak: 0},
	)

	reqBody := fmt.Sprintf(`{"userId": "%s"}`, testUserID)
	req := httptest.NewRequest("POST", "/motivation/message", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "there")
}

func TestHandler_Message_streakReadFailureDegrades(t *testing.T) {
	r := newMotivationRouter(
		&usersStub{user: &users.User{ID: testUserID, FullName: "Marco"}},
		&streakStub{err: errors.New("redis down")},
	)

	reqBody := fmt.Sprintf(`{"userId": "%s"}`, testUserID)
	req := httptest.NewRequest("POST", "/motivation/message", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandler_Message_badRequests(t *testing.T) {
	r := newMotivationRouter(&usersStub{}, &streakStub{})

	for caseName, body := range map[string]string{
		"empty body":    "",
		"broken json":   `{"userId":`,
		"not a uuid":    `{"userId": "ana"}`,
		"empty user id": `{"userId": ""}`,
	} {
		t.Run(caseName, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/motivation/message", strings.NewReader(body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}
