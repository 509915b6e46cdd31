package achievements

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rubenfitness/backend/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(evaluator *Evaluator) *mux.Router {
	handler := NewHandler(evaluator)
	r := mux.NewRouter()
	r.HandleFunc("/achievements/{userId}", handler.HandleList).Methods("GET")
	r.HandleFunc("/achievements/{userId}/check", handler.HandleCheck).Methods("POST")
	return r
}

func TestAchievementsHandler_CheckThenList(t *testing.T) {
	totals := &totalsStub{workouts: 1, streak: 1}
	evaluator := NewEvaluator(NewMockRepo(), totals, totals, metrics.NewTestManager())
	router := testRouter(evaluator)

	userID := "a3c41f1b-62d4-49c9-973e-6f3a87b7f93e"

	req, err := http.NewRequest("POST", "/achievements/"+userID+"/check", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var checkRes struct {
		NewlyUnlocked []Achievement `json:"newlyUnlocked"`
		Count         int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &checkRes))
	assert.Equal(t, 1, checkRes.Count)
	require.Len(t, checkRes.NewlyUnlocked, 1)
	assert.Equal(t, TypeFirstWorkout, checkRes.NewlyUnlocked[0].Type)

	req, err = http.NewRequest("GET", "/achievements/"+userID, nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var listRes struct {
		Achievements []Achievement `json:"achievements"`
		Total        int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listRes))
	assert.Equal(t, 1, listRes.Total)
	require.Len(t, listRes.Achievements, 1)
	assert.Equal(t, "First Steps", listRes.Achievements[0].Title)
}

func TestAchievementsHandler_invalidUserID(t *testing.T) {
	totals := &totalsStub{}
	evaluator := NewEvaluator(NewMockRepo(), totals, totals, metrics.NewTestManager())
	router := testRouter(evaluator)

	req, err := http.NewRequest("GET", "/achievements/nope", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req, err = http.NewRequest("POST", "/achievements/nope/check", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
