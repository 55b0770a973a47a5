package loans

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"biblio-backend/internal/platform/apierr"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type Service struct {
	store Store
	clock Clock
	id    IDGen
}

func NewService(conn *sql.DB) *Service {
	return &Service{
		store: NewStore(conn),
		clock: realClock{},
		id:    ulidGen{},
	}
}

// Checkout creates a loan. Everything from the availability check to the
// copy decrement commits or rolls back as one transaction; preconditions are
// evaluated in a fixed order and the first failure wins.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (_ *CheckoutResponse, err error) {
	if req.BookID <= 0 || req.PatronID <= 0 {
		return nil, apierr.ErrInvalid("book_id and patron_id are required")
	}
	days := DefaultLoanDays
	if req.LoanPeriodDays != nil {
		if *req.LoanPeriodDays <= 0 {
			return nil, apierr.ErrInvalid("loan_period_days must be > 0")
		}
		days = *req.LoanPeriodDays
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	book, err := tx.LockBook(ctx, req.BookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, apierr.ErrNotFound(fmt.Sprintf("book %d not found", req.BookID))
	}
	if book.AvailableCopies <= 0 {
		return nil, apierr.ErrUnavailable(fmt.Sprintf("no copies of %q available", book.Title))
	}

	patron, err := tx.GetPatron(ctx, req.PatronID)
	if err != nil {
		return nil, err
	}
	if patron == nil {
		return nil, apierr.ErrNotFound(fmt.Sprintf("patron %d not found", req.PatronID))
	}
	if !patron.Active {
		return nil, apierr.ErrPatronInactive(fmt.Sprintf("patron %q is not active", patron.FullName))
	}

	overdue, err := tx.CountOverdueOutstanding(ctx, req.PatronID, now)
	if err != nil {
		return nil, err
	}
	if overdue > 0 {
		return nil, apierr.ErrOutstandingOverdue(fmt.Sprintf("patron %q has %d overdue loan(s)", patron.FullName, overdue))
	}

	loan := &Loan{
		LoanULID: idStr,
		BookID:   req.BookID,
		PatronID: req.PatronID,
		LoanedAt: now,
		DueOn:    DueDate(now, days),
		Status:   StatusOutstanding,
		Fine:     0,
	}
	if err = tx.InsertLoan(ctx, loan); err != nil {
		return nil, err
	}
	if err = tx.AdjustAvailableCopies(ctx, req.BookID, -1); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	due := loan.DueOn.Format(dateLayout)
	return &CheckoutResponse{
		LoanID:   loan.LoanID,
		LoanULID: loan.LoanULID,
		BookID:   loan.BookID,
		PatronID: loan.PatronID,
		LoanedAt: loan.LoanedAt,
		DueOn:    due,
		Message:  fmt.Sprintf("%q loaned to %s, return by %s", book.Title, patron.FullName, due),
	}, nil
}

// Return flips a loan to RETURNED exactly once and fixes its fine. The row
// lock makes the second of two concurrent returns fail with AlreadyReturned.
func (s *Service) Return(ctx context.Context, loanID int64) (_ *ReturnResponse, err error) {
	if loanID <= 0 {
		return nil, apierr.ErrInvalid("loan_id must be > 0")
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	loan, err := tx.LockLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, apierr.ErrNotFound(fmt.Sprintf("loan %d not found", loanID))
	}
	if loan.Status == StatusReturned {
		return nil, apierr.ErrAlreadyReturned(fmt.Sprintf("loan %d was already returned, no fine due", loanID))
	}

	now := s.clock.Now().UTC()
	late := DaysLate(loan.DueOn, now)
	fine := FineFor(loan.DueOn, now)

	if err = tx.MarkReturned(ctx, loanID, now, fine); err != nil {
		return nil, err
	}
	if err = tx.AdjustAvailableCopies(ctx, loan.BookID, +1); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	msg := "book returned on time"
	if fine > 0 {
		msg = fmt.Sprintf("book returned %d day(s) late, fine due: %.2f", late, fine)
	}
	return &ReturnResponse{
		LoanID:     loanID,
		BookID:     loan.BookID,
		ReturnedAt: now,
		DaysLate:   late,
		Fine:       fine,
		Message:    msg,
	}, nil
}

func (s *Service) Get(ctx context.Context, loanID int64) (*LoanResponse, error) {
	r, err := s.store.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apierr.ErrNotFound(fmt.Sprintf("loan %d not found", loanID))
	}
	resp := toLoanResponse(r, s.clock.Now().UTC())
	return &resp, nil
}

func (s *Service) ListOutstanding(ctx context.Context) ([]LoanResponse, error) {
	rows, err := s.store.ListOutstanding(ctx)
	if err != nil {
		return nil, err
	}
	return s.toResponses(rows), nil
}

func (s *Service) ListOverdue(ctx context.Context) ([]LoanResponse, error) {
	rows, err := s.store.ListOverdue(ctx, s.clock.Now().UTC())
	if err != nil {
		return nil, err
	}
	return s.toResponses(rows), nil
}

// ListByBook returns the full loan history of one book, newest first.
func (s *Service) ListByBook(ctx context.Context, bookID int64) ([]LoanResponse, error) {
	if bookID <= 0 {
		return nil, apierr.ErrInvalid("book_id must be > 0")
	}
	rows, err := s.store.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(rows), nil
}

func (s *Service) List(ctx context.Context, f LoanFilter, p Page) ([]LoanResponse, int64, error) {
	if f.Status != nil && *f.Status != StatusOutstanding && *f.Status != StatusReturned {
		return nil, 0, apierr.ErrInvalid("status must be OUTSTANDING or RETURNED")
	}
	rows, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(rows), total, nil
}

func (s *Service) toResponses(rows []LoanRow) []LoanResponse {
	now := s.clock.Now().UTC()
	out := make([]LoanResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toLoanResponse(&rows[i], now))
	}
	return out
}
