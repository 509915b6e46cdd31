package streaks

import (
	"time"
)

const (
	weeklyWindowDays  = 7
	monthlyWindowDays = 30
)

// Streak (DB level type) holds one user's consecutive-workout-day counters.
// A row is created lazily, on the first logged workout.
type Streak struct {
	UserID          string    `json:"userId"`
	CurrentStreak   int       `json:"currentStreak"`
	LongestStreak   int       `json:"longestStreak"`
	WeeklyStreak    int       `json:"weeklyStreak"`
	MonthlyStreak   int       `json:"monthlyStreak"`
	LastWorkoutDate time.Time `json:"lastWorkoutDate"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func NewStreak(userID string, workoutDate time.Time) *Streak {
	return &Streak{
		UserID:          userID,
		CurrentStreak:   1,
		LongestStreak:   1,
		WeeklyStreak:    1,
		MonthlyStreak:   1,
		LastWorkoutDate: DateOnly(workoutDate),
	}
}

// DateOnly strips the time-of-day part; streak math works on calendar days
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the calendar day difference to - from,
// negative when `to` is before `from`
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}
