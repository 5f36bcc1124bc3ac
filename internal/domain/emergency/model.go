package emergency

import "time"

// Status is the hospital-wide emergency service notice shown to the
// public: whether the ER is accepting patients and how to reach it.
type Status struct {
	Open         bool      `db:"open" json:"open"`
	Available247 bool      `db:"available_247" json:"available_247"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Address      *string   `db:"address" json:"address,omitempty"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultStatus is what a fresh installation announces.
func DefaultStatus() Status {
	return Status{Open: true, Available247: true}
}
