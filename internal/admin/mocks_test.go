package admin

import (
	"context"
	"sort"
	"time"

	"github.com/rubenfitness/backend/internal/bodycomp"
	"github.com/rubenfitness/backend/internal/streaks"
	"github.com/rubenfitness/backend/internal/users"
	"github.com/rubenfitness/backend/internal/workouts"
)

type usersRepoMock struct {
	users    map[string]users.User
	profiles map[string]users.Profile

	GetAllErr      error
	GetProfilesErr error
}

func newUsersRepoMock() *usersRepoMock {
	return &usersRepoMock{
		users:    make(map[string]users.User),
		profiles: make(map[string]users.Profile),
	}
}

func (m *usersRepoMock) add(user users.User)              { m.users[user.ID] = user }
func (m *usersRepoMock) addProfile(profile users.Profile) { m.profiles[profile.UserID] = profile }

func (m *usersRepoMock) Get(_ context.Context, id string) (*users.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &user, nil
}

func (m *usersRepoMock) GetAll(context.Context) ([]users.User, error) {
	if m.GetAllErr != nil {
		return nil, m.GetAllErr
	}
	var all []users.User
	for _, u := range m.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}

func (m *usersRepoMock) GetProfile(_ context.Context, userID string) (*users.Profile, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, users.ErrProfileNotFound
	}
	return &profile, nil
}

func (m *usersRepoMock) GetAllProfiles(context.Context) (map[string]users.Profile, error) {
	if m.GetProfilesErr != nil {
		return nil, m.GetProfilesErr
	}
	profiles := make(map[string]users.Profile, len(m.profiles))
	for userID, p := range m.profiles {
		profiles[userID] = p
	}
	return profiles, nil
}

type workoutsRepoMock struct {
	nextID   int
	workouts []workouts.Workout

	ListErr error
}

func newWorkoutsRepoMock() *workoutsRepoMock {
	return &workoutsRepoMock{}
}

func (m *workoutsRepoMock) add(w workouts.Workout) {
	m.nextID++
	w.ID = m.nextID
	m.workouts = append(m.workouts, w)
}

func (m *workoutsRepoMock) ListAllInRange(_ context.Context, from, to time.Time) ([]workouts.Workout, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var inRange []workouts.Workout
	for _, w := range m.workouts {
		if !w.WorkoutDate.Before(from) && !w.WorkoutDate.After(to) {
			inRange = append(inRange, w)
		}
	}
	return inRange, nil
}

func (m *workoutsRepoMock) LastWorkoutPerUser(context.Context) (map[string]time.Time, error) {
	last := make(map[string]time.Time)
	for _, w := range m.workouts {
		if current, ok := last[w.UserID]; !ok || w.WorkoutDate.After(current) {
			last[w.UserID] = w.WorkoutDate
		}
	}
	return last, nil
}

func (m *workoutsRepoMock) RecentForUser(_ context.Context, userID string, limit int) ([]workouts.Workout, error) {
	var forUser []workouts.Workout
	for _, w := range m.workouts {
		if w.UserID == userID {
			forUser = append(forUser, w)
		}
	}
	sort.Slice(forUser, func(i, j int) bool {
		return forUser[i].WorkoutDate.After(forUser[j].WorkoutDate)
	})
	if len(forUser) > limit {
		forUser = forUser[:limit]
	}
	return forUser, nil
}

type streaksRepoMock struct {
	streaks map[string]streaks.Streak
}

func newStreaksRepoMock() *streaksRepoMock {
	return &streaksRepoMock{
		streaks: make(map[string]streaks.Streak),
	}
}

func (m *streaksRepoMock) Upsert(_ context.Context, streak *streaks.Streak) error {
	m.streaks[streak.UserID] = *streak
	return nil
}

func (m *streaksRepoMock) Get(_ context.Context, userID string) (*streaks.Streak, error) {
	streak, ok := m.streaks[userID]
	if !ok {
		return nil, streaks.ErrStreakNotFound
	}
	return &streak, nil
}

func (m *streaksRepoMock) GetAll(context.Context) (map[string]streaks.Streak, error) {
	all := make(map[string]streaks.Streak, len(m.streaks))
	for userID, s := range m.streaks {
		all[userID] = s
	}
	return all, nil
}

type bodyCompRepoMock struct {
	nextID       int
	measurements []bodycomp.Measurement

	LatestErr error
}

func newBodyCompRepoMock() *bodyCompRepoMock {
	return &bodyCompRepoMock{}
}

func (m *bodyCompRepoMock) Add(_ context.Context, measurement *bodycomp.Measurement) (*bodycomp.Measurement, error) {
	m.nextID++
	measurement.ID = m.nextID
	m.measurements = append(m.measurements, *measurement)
	return measurement, nil
}

func (m *bodyCompRepoMock) ListForUser(_ context.Context, userID string, limit int) ([]bodycomp.Measurement, error) {
	var forUser []bodycomp.Measurement
	for _, measurement := range m.measurements {
		if measurement.UserID == userID {
			forUser = append(forUser, measurement)
		}
	}
	if len(forUser) > limit {
		forUser = forUser[:limit]
	}
	return forUser, nil
}

func (m *bodyCompRepoMock) LatestPerUser(context.Context) (map[string]bodycomp.Measurement, error) {
	if m.LatestErr != nil {
		return nil, m.LatestErr
	}
	latest := make(map[string]bodycomp.Measurement)
	for _, measurement := range m.measurements {
		if current, ok := latest[measurement.UserID]; !ok ||
			measurement.MeasuredAt.After(current.MeasuredAt) {
			latest[measurement.UserID] = measurement
		}
	}
	return latest, nil
}
