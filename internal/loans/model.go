package loans

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusOutstanding Status = "OUTSTANDING"
	StatusReturned    Status = "RETURNED"
)

// Loan is one row of the loans table. Rows are only ever created by
// Checkout and flipped to RETURNED exactly once by Return; never deleted.
type Loan struct {
	LoanID     int64
	LoanULID   string
	BookID     int64
	PatronID   int64
	LoanedAt   time.Time
	DueOn      time.Time
	ReturnedAt sql.NullTime
	Status     Status
	Fine       float64
}

// LoanRow is a loan joined with its book and patron for display.
type LoanRow struct {
	Loan
	BookTitle        string
	PatronName       string
	MembershipNumber string
}

// BookState is the slice of the book row the checkout path needs.
type BookState struct {
	BookID          int64
	Title           string
	TotalCopies     int
	AvailableCopies int
}

// PatronState is the slice of the patron row the checkout path needs.
type PatronState struct {
	PatronID int64
	FullName string
	Active   bool
}

type LoanFilter struct {
	BookID   *int64
	PatronID *int64
	Status   *Status
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
