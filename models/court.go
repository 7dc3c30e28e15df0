package models

// Court is the only shared mutable resource with contention. IsAvailable
// is flipped exclusively by the court pool's allocate/release operations.
type Court struct {
	ID          int    `json:"id" db:"id"`
	Number      int    `json:"number" db:"number"`
	Name        string `json:"name,omitempty" db:"name"`
	IsAvailable bool   `json:"is_available" db:"is_available"`
}
