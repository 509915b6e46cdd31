package admin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rubenfitness/backend/internal/bodycomp"
	"github.com/rubenfitness/backend/internal/streaks"
	"github.com/rubenfitness/backend/internal/telemetry/tracing"
	"github.com/rubenfitness/backend/internal/users"
	"github.com/rubenfitness/backend/internal/workouts"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	evolutionDays      = 30
	detailsWorkouts    = 50
	detailsBodyComp    = 30
	activeWindowDays   = 7
	lastWeekWindowDays = 7
)

// ClientInsight is one row of the coach dashboard
type ClientInsight struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	LastWorkout     string    `json:"lastWorkout"`
	LastWorkoutDate *string   `json:"lastWorkoutDate"`
	WorkoutsWeek    int       `json:"workoutsWeek"`
	VolumeWeek      float64   `json:"volumeWeek"`
	WorkoutsTrend   float64   `json:"workoutsTrend"`
	VolumeTrend     float64   `json:"volumeTrend"`
	Streak          int       `json:"streak"`
	LongestStreak   int       `json:"longestStreak"`
	Weight          *float64  `json:"weight"`
	Fat             *float64  `json:"fat"`
	Muscle          *float64  `json:"muscle"`
	Goals           []string  `json:"goals"`
	FitnessLevel    string    `json:"fitnessLevel"`
	CreatedAt       time.Time `json:"createdAt"`
	MonthlyWorkouts int       `json:"monthlyWorkouts"`
	MonthlyVolume   float64   `json:"monthlyVolume"`
	Phone           string    `json:"phone,omitempty"`
	IsActive        bool      `json:"isActive"`
}

type KPIs struct {
	ActiveUsers      int     `json:"activeUsers"`
	TotalUsers       int     `json:"totalUsers"`
	WorkoutsWeek     int     `json:"workoutsWeek"`
	VolumeWeek       float64 `json:"volumeWeek"`
	AvgStreak        float64 `json:"avgStreak"`
	WorkoutsTrend    float64 `json:"workoutsTrend"`
	VolumeTrend      float64 `json:"volumeTrend"`
	WorkoutsLastWeek int     `json:"workoutsLastWeek"`
	VolumeLastWeek   float64 `json:"volumeLastWeek"`
}

// EvolutionPoint is one day of the fleet-wide activity chart
type EvolutionPoint struct {
	Date        string  `json:"date"`
	Workouts    int     `json:"workouts"`
	Volume      float64 `json:"volume"`
	ActiveUsers int     `json:"activeUsers"`
}

type Dashboard struct {
	Success   bool             `json:"success"`
	KPIs      KPIs             `json:"kpis"`
	Clients   []ClientInsight  `json:"clients"`
	Evolution []EvolutionPoint `json:"evolution"`
}

// UserDetails is the per-client drill-down view
type UserDetails struct {
	Success         bool                   `json:"success"`
	User            *users.User            `json:"user"`
	Profile         *users.Profile         `json:"profile"`
	Workouts        []workouts.Workout     `json:"workouts"`
	Streak          *streaks.Streak        `json:"streak"`
	BodyComposition []bodycomp.Measurement `json:"bodyComposition"`
}

type usersReader interface {
	Get(ctx context.Context, id string) (*users.User, error)
	GetAll(ctx context.Context) ([]users.User, error)
	GetProfile(ctx context.Context, userID string) (*users.Profile, error)
	GetAllProfiles(ctx context.Context) (map[string]users.Profile, error)
}

type workoutsReader interface {
	ListAllInRange(ctx context.Context, from, to time.Time) ([]workouts.Workout, error)
	LastWorkoutPerUser(ctx context.Context) (map[string]time.Time, error)
	RecentForUser(ctx context.Context, userID string, limit int) ([]workouts.Workout, error)
}

type streaksReader interface {
	Get(ctx context.Context, userID string) (*streaks.Streak, error)
	GetAll(ctx context.Context) (map[string]streaks.Streak, error)
}

type bodyCompReader interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]bodycomp.Measurement, error)
	LatestPerUser(ctx context.Context) (map[string]bodycomp.Measurement, error)
}

// Aggregator builds the coach dashboard out of the other stores. Body
// composition and profile enrichment is best effort, a failed read
// there degrades the result instead of failing it.
type Aggregator struct {
	users    usersReader
	workouts workoutsReader
	streaks  streaksReader
	bodyComp bodyCompReader

	// the coach account, excluded from client rows and fleet KPIs
	adminEmail string

	now func() time.Time
}

func NewAggregator(
	users usersReader,
	workouts workoutsReader,
	streaks streaksReader,
	bodyComp bodyCompReader,
	adminEmail string,
) *Aggregator {
	return &Aggregator{
		users:      users,
		workouts:   workouts,
		streaks:    streaks,
		bodyComp:   bodyComp,
		adminEmail: adminEmail,
		now:        time.Now,
	}
}

func (a *Aggregator) BuildDashboard(ctx context.Context) (_ *Dashboard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "admin.aggregator.buildDashboard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	today := streaks.DateOnly(a.now())
	// the training week starts on Monday
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	lastWeekStart := weekStart.AddDate(0, 0, -lastWeekWindowDays)
	monthStart := today.AddDate(0, 0, -evolutionDays)

	allUsers, err := a.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	twoWeeksWorkouts, err := a.workouts.ListAllInRange(ctx, lastWeekStart, today)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	monthWorkouts, err := a.workouts.ListAllInRange(ctx, monthStart, today)
	if err != nil {
		return nil, fmt.Errorf("list monthly workouts: %w", err)
	}
	lastWorkoutDates, err := a.workouts.LastWorkoutPerUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("last workout dates: %w", err)
	}
	allStreaks, err := a.streaks.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get streaks: %w", err)
	}

	// enrichment reads degrade to empty maps
	latestBodyComp, err := a.bodyComp.LatestPerUser(ctx)
	if err != nil {
		log.Warnf("dashboard: body comp read failed, serving without it: %s", err)
		latestBodyComp = map[string]bodycomp.Measurement{}
	}
	profiles, err := a.users.GetAllProfiles(ctx)
	if err != nil {
		log.Warnf("dashboard: profiles read failed, serving without them: %s", err)
		profiles = map[string]users.Profile{}
	}

	type weekTotals struct {
		workoutsWeek, workoutsLastWeek int
		volumeWeek, volumeLastWeek     float64
	}
	perUserWeek := make(map[string]*weekTotals)
	for _, w := range twoWeeksWorkouts {
		totals, ok := perUserWeek[w.UserID]
		if !ok {
			totals = &weekTotals{}
			perUserWeek[w.UserID] = totals
		}
		if !w.WorkoutDate.Before(weekStart) {
			totals.workoutsWeek++
			totals.volumeWeek += w.TotalVolume
		} else {
			totals.workoutsLastWeek++
			totals.volumeLastWeek += w.TotalVolume
		}
	}

	type monthTotals struct {
		workouts int
		volume   float64
	}
	perUserMonth := make(map[string]*monthTotals)
	for _, w := range monthWorkouts {
		totals, ok := perUserMonth[w.UserID]
		if !ok {
			totals = &monthTotals{}
			perUserMonth[w.UserID] = totals
		}
		totals.workouts++
		totals.volume += w.TotalVolume
	}

	clients := []ClientInsight{}
	kpis := KPIs{}
	var totalVolumeWeek, totalVolumeLastWeek float64
	var streakSum, streakCount int

	for _, user := range allUsers {
		if user.Email == a.adminEmail {
			continue
		}

		week := perUserWeek[user.ID]
		if week == nil {
			week = &weekTotals{}
		}
		month := perUserMonth[user.ID]
		if month == nil {
			month = &monthTotals{}
		}
		profile := profiles[user.ID]
		streak := allStreaks[user.ID]

		client := ClientInsight{
			ID:              user.ID,
			Name:            clientName(user, profile),
			Email:           user.Email,
			WorkoutsWeek:    week.workoutsWeek,
			VolumeWeek:      round1(week.volumeWeek),
			WorkoutsTrend:   trend(float64(week.workoutsWeek), float64(week.workoutsLastWeek)),
			VolumeTrend:     trend(week.volumeWeek, week.volumeLastWeek),
			Streak:          streak.CurrentStreak,
			LongestStreak:   streak.LongestStreak,
			Goals:           clientGoals(user, profile),
			FitnessLevel:    fitnessLevel(user),
			CreatedAt:       user.CreatedAt,
			MonthlyWorkouts: month.workouts,
			MonthlyVolume:   round1(month.volume),
			Phone:           profile.Phone,
		}

		lastDate, hasWorkouts := lastWorkoutDates[user.ID]
		if hasWorkouts {
			daysAgo := streaks.DaysBetween(lastDate, today)
			client.LastWorkout = recencyLabel(daysAgo)
			lastDateStr := lastDate.Format("2006-01-02")
			client.LastWorkoutDate = &lastDateStr
			client.IsActive = week.workoutsWeek > 0 || daysAgo <= activeWindowDays
		} else {
			client.LastWorkout = "Sin entrenos"
		}

		measurement := latestBodyComp[user.ID]
		client.Weight = pickRounded(measurement.Weight, profile.WeightKg)
		client.Fat = pickRounded(measurement.Fat, profile.BodyFatPercent)
		client.Muscle = pickRounded(measurement.Muscle, profile.MuscleMassKg)

		clients = append(clients, client)

		if client.IsActive {
			kpis.ActiveUsers++
		}
		kpis.WorkoutsWeek += week.workoutsWeek
		kpis.WorkoutsLastWeek += week.workoutsLastWeek
		totalVolumeWeek += week.volumeWeek
		totalVolumeLastWeek += week.volumeLastWeek
		if streak.CurrentStreak > 0 {
			streakSum += streak.CurrentStreak
			streakCount++
		}
	}

	kpis.TotalUsers = len(clients)
	kpis.VolumeWeek = round1(totalVolumeWeek)
	kpis.VolumeLastWeek = round1(totalVolumeLastWeek)
	kpis.WorkoutsTrend = trend(float64(kpis.WorkoutsWeek), float64(kpis.WorkoutsLastWeek))
	kpis.VolumeTrend = trend(totalVolumeWeek, totalVolumeLastWeek)
	if streakCount > 0 {
		kpis.AvgStreak = round1(float64(streakSum) / float64(streakCount))
	}

	span.SetAttributes(attribute.Int("dashboard.clients", len(clients)))

	return &Dashboard{
		Success:   true,
		KPIs:      kpis,
		Clients:   clients,
		Evolution: a.evolution(monthWorkouts, today),
	}, nil
}

// evolution buckets the last 30 days of workouts per day, zero-filled
func (a *Aggregator) evolution(monthWorkouts []workouts.Workout, today time.Time) []EvolutionPoint {
	type dayTotals struct {
		workouts int
		volume   float64
		users    map[string]bool
	}
	perDay := make(map[string]*dayTotals)
	for _, w := range monthWorkouts {
		day := w.WorkoutDate.Format("2006-01-02")
		totals, ok := perDay[day]
		if !ok {
			totals = &dayTotals{users: make(map[string]bool)}
			perDay[day] = totals
		}
		totals.workouts++
		totals.volume += w.TotalVolume
		totals.users[w.UserID] = true
	}

	points := make([]EvolutionPoint, 0, evolutionDays)
	for i := 0; i < evolutionDays; i++ {
		day := today.AddDate(0, 0, -(evolutionDays - 1 - i))
		dayStr := day.Format("2006-01-02")
		point := EvolutionPoint{Date: dayStr}
		if totals, ok := perDay[dayStr]; ok {
			point.Workouts = totals.workouts
			point.Volume = round1(totals.volume)
			point.ActiveUsers = len(totals.users)
		}
		points = append(points, point)
	}
	return points
}

func (a *Aggregator) UserDetails(ctx context.Context, userID string) (_ *UserDetails, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "admin.aggregator.userDetails")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := a.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	details := &UserDetails{
		Success: true,
		User:    user,
	}

	profile, err := a.users.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, users.ErrProfileNotFound) {
		log.Warnf("user details: profile read for %s failed: %s", userID, err)
	}
	details.Profile = profile

	recent, err := a.workouts.RecentForUser(ctx, userID, detailsWorkouts)
	if err != nil {
		return nil, fmt.Errorf("recent workouts: %w", err)
	}
	if len(recent) == 0 {
		recent = []workouts.Workout{}
	}
	details.Workouts = recent

	streak, err := a.streaks.Get(ctx, userID)
	if err != nil && !errors.Is(err, streaks.ErrStreakNotFound) {
		return nil, fmt.Errorf("get streak: %w", err)
	}
	if streak == nil {
		streak = &streaks.Streak{UserID: userID}
	}
	details.Streak = streak

	bodyCompHistory, err := a.bodyComp.ListForUser(ctx, userID, detailsBodyComp)
	if err != nil {
		log.Warnf("user details: body comp read for %s failed: %s", userID, err)
	}
	if len(bodyCompHistory) == 0 {
		bodyCompHistory = []bodycomp.Measurement{}
	}
	details.BodyComposition = bodyCompHistory

	return details, nil
}

// trend is the week-over-week change in percent, rounded to one
// decimal. With nothing last week: 100 when there is activity now,
// otherwise 0.
func trend(this, last float64) float64 {
	if last > 0 {
		return round1((this - last) / last * 100)
	}
	if this > 0 {
		return 100
	}
	return 0
}

func recencyLabel(daysAgo int) string {
	switch {
	case daysAgo <= 0:
		return "Hoy"
	case daysAgo == 1:
		return "Ayer"
	default:
		return fmt.Sprintf("Hace %d días", daysAgo)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func pickRounded(measured, fromProfile *float64) *float64 {
	value := measured
	if value == nil {
		value = fromProfile
	}
	if value == nil {
		return nil
	}
	rounded := round1(*value)
	return &rounded
}

func clientName(user users.User, profile users.Profile) string {
	if user.FullName != "" {
		return user.FullName
	}
	if profile.FullName != "" {
		return profile.FullName
	}
	return "Sin nombre"
}

func clientGoals(user users.User, profile users.Profile) []string {
	goals := append([]string{}, user.Goals...)
	if profile.Goal != "" {
		for _, g := range goals {
			if g == profile.Goal {
				return goals
			}
		}
		goals = append(goals, profile.Goal)
	}
	return goals
}

func fitnessLevel(user users.User) string {
	if user.FitnessLevel == "" {
		return "beginner"
	}
	return user.FitnessLevel
}
