package bodycomp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBodycompRouter(repo measurementsRepo) http.Handler {
	handler := NewHandler(repo)
	r := mux.NewRouter()
	r.HandleFunc("/bodycomp", handler.HandleLog).Methods("POST")
	r.HandleFunc("/bodycomp/{userId}", handler.HandleHistory).Methods("GET")
	return r
}

func TestBodycompHandler_LogAndHistory(t *testing.T) {
	repo := NewMockRepo()
	router := testBodycompRouter(repo)

	userID := "21b26434-7a0e-4f0b-8bd8-4e15c37f5977"
	body := `{"userId": "` + userID + `", "weight": 82.4, "fat": 17.2, "measuredAt": "2024-06-01"}`

	req, err := http.NewRequest("POST", "/bodycomp", bytes.NewBufferString(body))
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var added Measurement
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	require.NotNil(t, added.Weight)
	assert.Equal(t, 82.4, *added.Weight)
	assert.Nil(t, added.Muscle)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), added.MeasuredAt)

	req, err = http.NewRequest("GET", "/bodycomp/"+userID, nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		BodyComposition []Measurement `json:"bodyComposition"`
		Total           int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.BodyComposition, 1)
	require.NotNil(t, res.BodyComposition[0].Fat)
	assert.Equal(t, 17.2, *res.BodyComposition[0].Fat)
}

func TestBodycompHandler_badRequests(t *testing.T) {
	router := testBodycompRouter(NewMockRepo())

	for name, body := range map[string]string{
		"not json":          "nope",
		"bad user id":       `{"userId": "123", "weight": 80}`,
		"empty measurement": `{"userId": "21b26434-7a0e-4f0b-8bd8-4e15c37f5977"}`,
		"bad date":          `{"userId": "21b26434-7a0e-4f0b-8bd8-4e15c37f5977", "weight": 80, "measuredAt": "someday"}`,
	} {
		req, err := http.NewRequest("POST", "/bodycomp", bytes.NewBufferString(body))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equalf(t, http.StatusBadRequest, rr.Code, "case: %s", name)
	}
}

func TestRepoMock_LatestPerUser(t *testing.T) {
	repo := NewMockRepo()
	ctx := context.Background()

	w1, w2 := 80.0, 79.2
	_, err := repo.Add(ctx, &Measurement{
		UserID: "user1", Weight: &w1,
		MeasuredAt: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = repo.Add(ctx, &Measurement{
		UserID: "user1", Weight: &w2,
		MeasuredAt: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	latest, err := repo.LatestPerUser(ctx)
	require.NoError(t, err)
	require.Contains(t, latest, "user1")
	assert.Equal(t, 79.2, *latest["user1"].Weight)
}
