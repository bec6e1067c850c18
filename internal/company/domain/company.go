package domain

import "time"

// Company is a registered employer. Created empty at account registration and
// filled in later through the registry endpoints.
type Company struct {
	ID                string
	RUT               int32  // body of the company RUT, without check digit
	RUTDv             string // check digit, "0"-"9" or "K"
	LegalName         string
	FantasyName       string
	BusinessName      string
	LineOfBusiness    string
	Address           string
	Phone             string
	Email             string
	SubscriptionState int16
	IncorporatedAt    *time.Time
	ActivityStartAt   *time.Time
	CreatedAt         time.Time
}
