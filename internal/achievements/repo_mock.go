package achievements

import (
	"context"
	"sync"
	"time"
)

type repoMock struct {
	mutex        sync.Mutex
	nextID       int
	achievements []Achievement

	AddErr       error
	ListTypesErr error
}

func NewMockRepo() *repoMock {
	return &repoMock{}
}

func (r *repoMock) Add(_ context.Context, achievement *Achievement) (*Achievement, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.AddErr != nil {
		return nil, r.AddErr
	}
	for _, a := range r.achievements {
		if a.UserID == achievement.UserID && a.Type == achievement.Type {
			return nil, ErrAlreadyUnlocked
		}
	}
	r.nextID++
	achievement.ID = r.nextID
	if achievement.UnlockedAt.IsZero() {
		achievement.UnlockedAt = time.Now()
	}
	r.achievements = append(r.achievements, *achievement)
	return achievement, nil
}

func (r *repoMock) List(_ context.Context, userID string) ([]Achievement, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var unlocked []Achievement
	for _, a := range r.achievements {
		if a.UserID == userID {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked, nil
}

func (r *repoMock) ListTypes(_ context.Context, userID string) (map[Type]bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.ListTypesErr != nil {
		return nil, r.ListTypesErr
	}
	types := make(map[Type]bool)
	for _, a := range r.achievements {
		if a.UserID == userID {
			types[a.Type] = true
		}
	}
	return types, nil
}
