package categories

import "database/sql"

// Category is one row of the categories table.
type Category struct {
	CategoryID  int64
	Name        string
	Description sql.NullString
}
