package domain

import "time"

// Profile is the person behind an account, linked to the company it manages.
type Profile struct {
	ID              string
	CompanyID       string
	FirstName       string
	PaternalSurname string
	MaternalSurname string
	RUT             int32
	RUTDv           string
	Address         string
	CreatedAt       time.Time
}
