package bodycomp

import (
	"context"
	"sort"
	"sync"
	"time"
)

type repoMock struct {
	mutex        sync.Mutex
	nextID       int
	measurements []Measurement

	LatestErr error
}

func NewMockRepo() *repoMock {
	return &repoMock{}
}

func (r *repoMock) Add(_ context.Context, m *Measurement) (*Measurement, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.nextID++
	m.ID = r.nextID
	if m.MeasuredAt.IsZero() {
		m.MeasuredAt = time.Now()
	}
	r.measurements = append(r.measurements, *m)
	return m, nil
}

func (r *repoMock) ListForUser(_ context.Context, userID string, limit int) ([]Measurement, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var forUser []Measurement
	for _, m := range r.measurements {
		if m.UserID == userID {
			forUser = append(forUser, m)
		}
	}
	sort.Slice(forUser, func(i, j int) bool {
		return forUser[i].MeasuredAt.After(forUser[j].MeasuredAt)
	})
	if len(forUser) > limit {
		forUser = forUser[:limit]
	}
	return forUser, nil
}

func (r *repoMock) LatestPerUser(context.Context) (map[string]Measurement, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.LatestErr != nil {
		return nil, r.LatestErr
	}
	latest := make(map[string]Measurement)
	for _, m := range r.measurements {
		if current, ok := latest[m.UserID]; !ok || m.MeasuredAt.After(current.MeasuredAt) {
			latest[m.UserID] = m
		}
	}
	return latest, nil
}
