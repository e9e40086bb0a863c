package domain

import "time"

// ServiceCategory groups consulting services.
type ServiceCategory struct {
	ID          string
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Service is a purchasable consulting offer. Price is in minor units.
type Service struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	Price       int64
	Currency    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
