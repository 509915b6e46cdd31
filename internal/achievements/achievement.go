package achievements

import "time"

type Type string

const (
	TypeFirstWorkout  Type = "first_workout"
	TypeWeekStreak    Type = "week_streak"
	TypeMonthStreak   Type = "month_streak"
	TypeTotalWorkouts Type = "total_workouts"
)

// Achievement (DB level type) is an unlocked milestone for a user.
// The (user_id, type) pair is unique, an achievement can be unlocked
// at most once.
type Achievement struct {
	ID          int       `json:"id"`
	UserID      string    `json:"userId"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Progress    int       `json:"progress,omitempty"`
	Target      int       `json:"target,omitempty"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

// catalog entry, the display side of a milestone
type milestone struct {
	achievementType Type
	title           string
	description     string
	icon            string
	target          int // 0 when the milestone has no progress bar

	// reached reports whether the milestone condition holds for the
	// given totals
	reached func(totalWorkouts, currentStreak int) bool
}

// icon names follow the ones the mobile app uses (material symbols)
var milestones = []milestone{
	{
		achievementType: TypeFirstWorkout,
		title:           "First Steps",
		description:     "Completed your first workout!",
		icon:            "star",
		reached: func(totalWorkouts, _ int) bool {
			return totalWorkouts >= 1
		},
	},
	{
		achievementType: TypeWeekStreak,
		title:           "Week Warrior",
		description:     "7 days in a row!",
		icon:            "local_fire_department",
		reached: func(_, currentStreak int) bool {
			return currentStreak >= 7
		},
	},
	{
		achievementType: TypeMonthStreak,
		title:           "Month Master",
		description:     "30 days in a row!",
		icon:            "whatshot",
		reached: func(_, currentStreak int) bool {
			return currentStreak >= 30
		},
	},
	{
		achievementType: TypeTotalWorkouts,
		title:           "10 Workouts",
		description:     "Completed 10 workouts!",
		icon:            "fitness_center",
		target:          10,
		reached: func(totalWorkouts, _ int) bool {
			return totalWorkouts >= 10
		},
	},
}
