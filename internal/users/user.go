package users

import "time"

// User (DB level type) is a client account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	FitnessLevel string    `json:"fitnessLevel"`
	Goals        []string  `json:"goals"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile holds the coach-maintained extras for a user. The numeric
// fields are pointers, a missing measurement is not a zero one.
type Profile struct {
	UserID         string   `json:"userId"`
	FullName       string   `json:"fullName"`
	Goal           string   `json:"goal"`
	Phone          string   `json:"phone"`
	WeightKg       *float64 `json:"weightKg"`
	BodyFatPercent *float64 `json:"bodyFatPercent"`
	MuscleMassKg   *float64 `json:"muscleMassKg"`
}
