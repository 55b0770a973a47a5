package reports

type Summary struct {
	TotalBooks       int64 `json:"total_books"`
	TotalCopies      int64 `json:"total_copies"`
	AvailableCopies  int64 `json:"available_copies"`
	ActivePatrons    int64 `json:"active_patrons"`
	OutstandingLoans int64 `json:"outstanding_loans"`
	OverdueLoans     int64 `json:"overdue_loans"`
}

type TopBook struct {
	BookID    int64  `json:"book_id"`
	Title     string `json:"title"`
	LoanCount int64  `json:"loan_count"`
}
