package patrons

import "database/sql"

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Patron is one row of the patrons table.
type Patron struct {
	PatronID         int64
	MembershipNumber string
	FirstName        string
	LastName         string
	Email            string
	Phone            sql.NullString
	Address          sql.NullString
	Status           Status
}

func (p *Patron) FullName() string { return p.FirstName + " " + p.LastName }

type PatronFilter struct {
	Term       string
	OnlyActive bool
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
