package workouts

import (
	"context"
	"sort"
	"sync"
	"time"
)

type repoMock struct {
	mutex    sync.Mutex
	nextID   int
	workouts map[int]*Workout

	AddErr   error
	CountErr error
	ListErr  error
}

func NewMockRepo() *repoMock {
	return &repoMock{
		workouts: make(map[int]*Workout),
	}
}

func (r *repoMock) Add(_ context.Context, workout *Workout) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.AddErr != nil {
		return nil, r.AddErr
	}
	r.nextID++
	workout.ID = r.nextID
	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = time.Now()
	}
	workoutCopy := *workout
	r.workouts[workout.ID] = &workoutCopy
	return workout, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	workout, ok := r.workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	workoutCopy := *workout
	return &workoutCopy, nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.workouts[id]; !ok {
		return ErrWorkoutNotFound
	}
	delete(r.workouts, id)
	return nil
}

func (r *repoMock) ListForUser(_ context.Context, userID string, from, to time.Time) ([]Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var workouts []Workout
	for _, w := range r.workouts {
		if w.UserID == userID && !w.WorkoutDate.Before(from) && !w.WorkoutDate.After(to) {
			workouts = append(workouts, *w)
		}
	}
	sortByDate(workouts)
	return workouts, nil
}

func (r *repoMock) ListAllInRange(_ context.Context, from, to time.Time) ([]Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var workouts []Workout
	for _, w := range r.workouts {
		if !w.WorkoutDate.Before(from) && !w.WorkoutDate.After(to) {
			workouts = append(workouts, *w)
		}
	}
	sortByDate(workouts)
	return workouts, nil
}

func (r *repoMock) RecentForUser(_ context.Context, userID string, limit int) ([]Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var workouts []Workout
	for _, w := range r.workouts {
		if w.UserID == userID {
			workouts = append(workouts, *w)
		}
	}
	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].WorkoutDate.After(workouts[j].WorkoutDate)
	})
	if len(workouts) > limit {
		workouts = workouts[:limit]
	}
	return workouts, nil
}

func (r *repoMock) CountForUser(_ context.Context, userID string) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.CountErr != nil {
		return 0, r.CountErr
	}
	count := 0
	for _, w := range r.workouts {
		if w.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *repoMock) LastWorkoutPerUser(context.Context) (map[string]time.Time, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	lastWorkouts := make(map[string]time.Time)
	for _, w := range r.workouts {
		if last, ok := lastWorkouts[w.UserID]; !ok || w.WorkoutDate.After(last) {
			lastWorkouts[w.UserID] = w.WorkoutDate
		}
	}
	return lastWorkouts, nil
}

func sortByDate(workouts []Workout) {
	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].WorkoutDate.Before(workouts[j].WorkoutDate)
	})
}
