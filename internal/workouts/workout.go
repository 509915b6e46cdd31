package workouts

import (
	"time"
)

// ExerciseSet is one performed set within a workout
type ExerciseSet struct {
	Exercise string  `json:"exercise"`
	Reps     int     `json:"reps"`
	Weight   float64 `json:"weight"` // kg
}

// Workout (DB level type) is one logged training session
type Workout struct {
	ID              int           `json:"id"`
	UserID          string        `json:"userId"`
	WorkoutDate     time.Time     `json:"workoutDate"`
	DurationMinutes int           `json:"durationMinutes,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	Exercises       []ExerciseSet `json:"exercises,omitempty"`
	TotalVolume     float64       `json:"totalVolume"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// CalcTotalVolume sums reps x weight over all sets
func (w *Workout) CalcTotalVolume() float64 {
	var volume float64
	for _, set := range w.Exercises {
		volume += float64(set.Reps) * set.Weight
	}
	return volume
}

// ProgressSummary is the per-user training overview
type ProgressSummary struct {
	UserID         string    `json:"userId"`
	TotalWorkouts  int       `json:"totalWorkouts"`
	CurrentStreak  int       `json:"currentStreak"`
	RecentWorkouts []Workout `json:"recentWorkouts"`
}
