package streaks

import (
	"context"
	"sync"
)

type repoMock struct {
	mutex   sync.Mutex
	streaks map[string]*Streak

	// when set, Get / Upsert return this error instead
	GetErr    error
	UpsertErr error
}

func NewMockRepo() *repoMock {
	return &repoMock{
		streaks: make(map[string]*Streak),
	}
}

func (r *repoMock) Get(_ context.Context, userID string) (*Streak, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	streak, ok := r.streaks[userID]
	if !ok {
		return nil, ErrStreakNotFound
	}
	streakCopy := *streak
	return &streakCopy, nil
}

func (r *repoMock) Upsert(_ context.Context, streak *Streak) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.UpsertErr != nil {
		return r.UpsertErr
	}
	streakCopy := *streak
	r.streaks[streak.UserID] = &streakCopy
	return nil
}

func (r *repoMock) GetAll(_ context.Context) (map[string]Streak, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	all := make(map[string]Streak, len(r.streaks))
	for userID, streak := range r.streaks {
		all[userID] = *streak
	}
	return all, nil
}
