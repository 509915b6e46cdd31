package workouts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorkoutsRouter(service *Service) http.Handler {
	handler := NewHandler(service)
	r := mux.NewRouter()
	r.HandleFunc("/workouts", handler.HandleLog).Methods("POST")
	r.HandleFunc("/workouts/{userId}/calendar", handler.HandleCalendar).Methods("GET")
	r.HandleFunc("/workouts/{id}", handler.HandleDelete).Methods("DELETE")
	r.HandleFunc("/progress/{userId}", handler.HandleProgress).Methods("GET")
	return r
}

func TestWorkoutsHandler_Log(t *testing.T) {
	service := newTestService(NewMockRepo(), &evaluatorStub{})
	router := testWorkoutsRouter(service)

	userID := "58b7c1f2-9e53-4c5f-8f0a-2d80f9a6b1aa"
	body := `{
		"userId": "` + userID + `",
		"date": "2024-06-01",
		"durationMinutes": 45,
		"exercises": [{"exercise": "squat", "reps": 5, "weight": 100}]
	}`

	req, err := http.NewRequest("POST", "/workouts", bytes.NewBufferString(body))
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var res logWorkoutResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Success)
	require.NotNil(t, res.Workout)
	assert.Equal(t, userID, res.Workout.UserID)
	assert.Equal(t, float64(500), res.Workout.TotalVolume)
	require.NotNil(t, res.Streak)
	assert.Equal(t, 1, res.Streak.CurrentStreak)

	service.Wait()
}

func TestWorkoutsHandler_Log_badRequests(t *testing.T) {
	service := newTestService(NewMockRepo(), &evaluatorStub{})
	router := testWorkoutsRouter(service)

	for name, body := range map[string]string{
		"not json":     "nope",
		"bad user id":  `{"userId": "123", "date": "2024-06-01"}`,
		"bad date":     `{"userId": "58b7c1f2-9e53-4c5f-8f0a-2d80f9a6b1aa", "date": "01.06.2024."}`,
		"missing date": `{"userId": "58b7c1f2-9e53-4c5f-8f0a-2d80f9a6b1aa"}`,
	} {
		req, err := http.NewRequest("POST", "/workouts", bytes.NewBufferString(body))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equalf(t, http.StatusBadRequest, rr.Code, "case: %s", name)
	}

	service.Wait()
}

func TestWorkoutsHandler_CalendarAndDelete(t *testing.T) {
	service := newTestService(NewMockRepo(), &evaluatorStub{})
	router := testWorkoutsRouter(service)

	userID := "58b7c1f2-9e53-4c5f-8f0a-2d80f9a6b1aa"
	added, _, err := service.LogWorkout(context.Background(), &Workout{
		UserID:      userID,
		WorkoutDate: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	req, err := http.NewRequest("GET", "/workouts/"+userID+"/calendar?year=2024&month=6", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var calRes struct {
		UserID      string   `json:"userId"`
		Year        int      `json:"year"`
		Month       int      `json:"month"`
		WorkoutDays []string `json:"workoutDays"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &calRes))
	assert.Equal(t, userID, calRes.UserID)
	assert.Equal(t, []string{"2024-06-03"}, calRes.WorkoutDays)

	req, err = http.NewRequest("GET", "/workouts/"+userID+"/calendar?year=2024&month=13", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req, err = http.NewRequest("DELETE", "/workouts/9999", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req, err = http.NewRequest("DELETE", "/workouts/"+strconv.Itoa(added.ID), nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	service.Wait()
}

func TestWorkoutsHandler_Progress(t *testing.T) {
	service := newTestService(NewMockRepo(), &evaluatorStub{})
	router := testWorkoutsRouter(service)

	userID := "58b7c1f2-9e53-4c5f-8f0a-2d80f9a6b1aa"
	for i := 1; i <= 3; i++ {
		_, _, err := service.LogWorkout(context.Background(), &Workout{
			UserID:      userID,
			WorkoutDate: time.Date(2024, time.June, i, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	req, err := http.NewRequest("GET", "/progress/"+userID, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var summary ProgressSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.TotalWorkouts)
	assert.Equal(t, 3, summary.CurrentStreak)
	assert.Len(t, summary.RecentWorkouts, 3)

	service.Wait()
}
