package bodycomp

import "time"

// Measurement (DB level type) is one body composition reading.
// Scales report partial data, missing values stay nil.
type Measurement struct {
	ID         int       `json:"id"`
	UserID     string    `json:"userId"`
	Weight     *float64  `json:"weight"` // kg
	Fat        *float64  `json:"fat"`    // percent
	Muscle     *float64  `json:"muscle"` // kg
	MeasuredAt time.Time `json:"measuredAt"`
}
