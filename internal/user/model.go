package user

import "time"

type User struct {
	ID           uint
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string // CUSTOMER or STAFF
	CafeteriaID  *uint  // set for staff only
	CreatedAt    time.Time
}
