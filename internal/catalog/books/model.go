package books

import "database/sql"

// Book is one row of the books table. AvailableCopies is mutated outside
// this package only by the loan manager, inside its own transactions.
type Book struct {
	BookID          int64
	Title           string
	ISBN            string
	AuthorID        int64
	CategoryID      int64
	Publisher       sql.NullString
	Pages           sql.NullInt32
	TotalCopies     int
	AvailableCopies int
	Description     sql.NullString
}

// BookRow is a book joined with its author and category names for display.
type BookRow struct {
	Book
	AuthorName   string
	CategoryName string
}

type BookFilter struct {
	Term          string
	AuthorID      *int64
	CategoryID    *int64
	OnlyAvailable bool
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
