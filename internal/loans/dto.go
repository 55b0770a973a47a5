package loans

import "time"

type CheckoutRequest struct {
	BookID   int64 `json:"book_id" binding:"required"`
	PatronID int64 `json:"patron_id" binding:"required"`
	// defaults to DefaultLoanDays when omitted; must be > 0 when present
	LoanPeriodDays *int `json:"loan_period_days,omitempty"`
}

type CheckoutResponse struct {
	LoanID   int64     `json:"loan_id"`
	LoanULID string    `json:"loan_ulid"`
	BookID   int64     `json:"book_id"`
	PatronID int64     `json:"patron_id"`
	LoanedAt time.Time `json:"loaned_at"`
	DueOn    string    `json:"due_on"`
	Message  string    `json:"message"`
}

type ReturnResponse struct {
	LoanID     int64     `json:"loan_id"`
	BookID     int64     `json:"book_id"`
	ReturnedAt time.Time `json:"returned_at"`
	DaysLate   int       `json:"days_late"`
	Fine       float64   `json:"fine"`
	Message    string    `json:"message"`
}

type LoanResponse struct {
	LoanID           int64      `json:"loan_id"`
	LoanULID         string     `json:"loan_ulid"`
	BookID           int64      `json:"book_id"`
	BookTitle        string     `json:"book_title"`
	PatronID         int64      `json:"patron_id"`
	PatronName       string     `json:"patron_name"`
	MembershipNumber string     `json:"membership_number"`
	LoanedAt         time.Time  `json:"loaned_at"`
	DueOn            string     `json:"due_on"`
	ReturnedAt       *time.Time `json:"returned_at,omitempty"`
	Status           Status     `json:"status"`
	Fine             float64    `json:"fine"`
	Overdue          bool       `json:"overdue"`
}

const dateLayout = "2006-01-02"

func toLoanResponse(r *LoanRow, now time.Time) LoanResponse {
	resp := LoanResponse{
		LoanID:           r.LoanID,
		LoanULID:         r.LoanULID,
		BookID:           r.BookID,
		BookTitle:        r.BookTitle,
		PatronID:         r.PatronID,
		PatronName:       r.PatronName,
		MembershipNumber: r.MembershipNumber,
		LoanedAt:         r.LoanedAt,
		DueOn:            r.DueOn.Format(dateLayout),
		Status:           r.Status,
		Fine:             r.Fine,
		Overdue:          r.Status == StatusOutstanding && IsOverdue(r.DueOn, now),
	}
	if r.ReturnedAt.Valid {
		val := r.ReturnedAt.Time
		resp.ReturnedAt = &val
	}
	return resp
}
