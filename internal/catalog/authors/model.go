package authors

import "database/sql"

// Author is one row of the authors table.
type Author struct {
	AuthorID    int64
	FirstName   string
	LastName    string
	Nationality sql.NullString
	BirthDate   sql.NullTime
	Biography   sql.NullString
}

func (a *Author) FullName() string { return a.FirstName + " " + a.LastName }
