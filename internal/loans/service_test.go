package loans

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio-backend/internal/platform/apierr"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedID struct{ s string }

func (g fixedID) New() (string, error) { return g.s, nil }

// fakeStore keeps committed state; each fakeTx works on a copy so an aborted
// transaction leaves the store untouched, mirroring the real rollback.
type fakeStore struct {
	books      map[int64]BookState
	patrons    map[int64]PatronState
	loans      map[int64]Loan
	nextLoanID int64

	insertErr error
	adjustErr error

	commits   int
	rollbacks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:      map[int64]BookState{},
		patrons:    map[int64]PatronState{},
		loans:      map[int64]Loan{},
		nextLoanID: 1,
	}
}

func (s *fakeStore) Begin(ctx context.Context) (Tx, error) {
	books := make(map[int64]BookState, len(s.books))
	for k, v := range s.books {
		books[k] = v
	}
	loans := make(map[int64]Loan, len(s.loans))
	for k, v := range s.loans {
		loans[k] = v
	}
	return &fakeTx{s: s, books: books, loans: loans}, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*LoanRow, error) { return nil, nil }
func (s *fakeStore) ListOutstanding(ctx context.Context) ([]LoanRow, error)  { return nil, nil }
func (s *fakeStore) ListOverdue(ctx context.Context, asOf time.Time) ([]LoanRow, error) {
	return nil, nil
}
func (s *fakeStore) ListByBook(ctx context.Context, bookID int64) ([]LoanRow, error) {
	return nil, nil
}
func (s *fakeStore) List(ctx context.Context, f LoanFilter, p Page) ([]LoanRow, int64, error) {
	return nil, 0, nil
}

type fakeTx struct {
	s     *fakeStore
	books map[int64]BookState
	loans map[int64]Loan
	done  bool
}

func (t *fakeTx) Commit() error {
	t.done = true
	t.s.books = t.books
	t.s.loans = t.loans
	t.s.commits++
	return nil
}

func (t *fakeTx) Rollback() error {
	t.done = true
	t.s.rollbacks++
	return nil
}

func (t *fakeTx) LockBook(ctx context.Context, bookID int64) (*BookState, error) {
	b, ok := t.books[bookID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (t *fakeTx) GetPatron(ctx context.Context, patronID int64) (*PatronState, error) {
	p, ok := t.s.patrons[patronID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *fakeTx) CountOverdueOutstanding(ctx context.Context, patronID int64, asOf time.Time) (int, error) {
	n := 0
	for _, l := range t.loans {
		if l.PatronID == patronID && l.Status == StatusOutstanding && IsOverdue(l.DueOn, asOf) {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) InsertLoan(ctx context.Context, l *Loan) error {
	if t.s.insertErr != nil {
		return t.s.insertErr
	}
	l.LoanID = t.s.nextLoanID
	t.s.nextLoanID++
	t.loans[l.LoanID] = *l
	return nil
}

func (t *fakeTx) AdjustAvailableCopies(ctx context.Context, bookID int64, delta int) error {
	if t.s.adjustErr != nil {
		return t.s.adjustErr
	}
	b := t.books[bookID]
	next := b.AvailableCopies + delta
	if next < 0 || next > b.TotalCopies {
		return apierr.ErrInternal("failed to update books.available_copies")
	}
	b.AvailableCopies = next
	t.books[bookID] = b
	return nil
}

func (t *fakeTx) LockLoan(ctx context.Context, loanID int64) (*Loan, error) {
	l, ok := t.loans[loanID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (t *fakeTx) MarkReturned(ctx context.Context, loanID int64, returnedAt time.Time, fine float64) error {
	l, ok := t.loans[loanID]
	if !ok || l.Status != StatusOutstanding {
		return apierr.ErrInternal("failed to mark loan returned")
	}
	l.Status = StatusReturned
	l.ReturnedAt = sql.NullTime{Time: returnedAt, Valid: true}
	l.Fine = fine
	t.loans[loanID] = l
	return nil
}

func newTestService(s *fakeStore, now time.Time) *Service {
	return &Service{
		store: s,
		clock: fixedClock{t: now},
		id:    fixedID{s: "01J5TESTULID0000000000FAKE"},
	}
}

func seedBook(s *fakeStore, id int64, title string, total, available int) {
	s.books[id] = BookState{BookID: id, Title: title, TotalCopies: total, AvailableCopies: available}
}

func seedPatron(s *fakeStore, id int64, name string, active bool) {
	s.patrons[id] = PatronState{PatronID: id, FullName: name, Active: active}
}

func TestCheckout(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("decrements availability and sets the due date", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 2, 2)
		seedPatron(s, 7, "Ada Lovelace", true)
		svc := newTestService(s, now)

		res, err := svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 7})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.LoanID)
		assert.Equal(t, "2026-08-15", res.DueOn)
		assert.Contains(t, res.Message, `"Dune" loaned to Ada Lovelace`)
		assert.Equal(t, 1, s.books[1].AvailableCopies)
		assert.Equal(t, 1, s.commits)
		assert.Equal(t, 0, s.rollbacks)

		loan := s.loans[res.LoanID]
		assert.Equal(t, StatusOutstanding, loan.Status)
		assert.Equal(t, 0.0, loan.Fine)
	})

	t.Run("custom loan period", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 1, 1)
		seedPatron(s, 7, "Ada Lovelace", true)
		svc := newTestService(s, now)

		days := 7
		res, err := svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 7, LoanPeriodDays: &days})
		require.NoError(t, err)
		assert.Equal(t, "2026-08-08", res.DueOn)
	})

	t.Run("non-positive loan period is rejected", func(t *testing.T) {
		s := newFakeStore()
		svc := newTestService(s, now)

		days := 0
		_, err := svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 7, LoanPeriodDays: &days})
		assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))
		assert.Equal(t, 0, s.commits)
	})

	t.Run("last copy then unavailable", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 2, 2)
		seedPatron(s, 7, "Ada Lovelace", true)
		seedPatron(s, 8, "Grace Hopper", true)
		svc := newTestService(s, now)

		_, err := svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 7})
		require.NoError(t, err)
		_, err = svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 8})
		require.NoError(t, err)
		assert.Equal(t, 0, s.books[1].AvailableCopies)

		_, err = svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 7})
		assert.Equal(t, apierr.CodeUnavailable, apierr.CodeOf(err))
		assert.Equal(t, 0, s.books[1].AvailableCopies)
		assert.Equal(t, 1, s.rollbacks)
	})

	t.Run("unknown book", func(t *testing.T) {
		s := newFakeStore()
		seedPatron(s, 7, "Ada Lovelace", true)
		svc := newTestService(s, now)

		_, err := svc.Checkout(ctx, CheckoutRequest{BookID: 99, PatronID: 7})
		assert.Equal(t, apierr.CodeNotFound, apierr.CodeOf(err))
	})

	t.Run("unknown patron", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 1, 1)
		svc := newTestService(s, now)

		_, err := svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 99})
		assert.Equal(t, apierr.CodeNotFound, apierr.CodeOf(err))
		assert.Equal(t, 1, s.books[1].AvailableCopies)
	})

	t.Run("inactive patron", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 1, 1)
		seedPatron(s, 7, "Ada Lovelace", false)
		svc := newTestService(s, now)

		_, err := svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 7})
		assert.Equal(t, apierr.CodePatronInactive, apierr.CodeOf(err))
		assert.Equal(t, 1, s.books[1].AvailableCopies)
	})

	t.Run("availability is checked before the patron", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 1, 0)
		seedPatron(s, 7, "Ada Lovelace", false)
		svc := newTestService(s, now)

		_, err := svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 7})
		assert.Equal(t, apierr.CodeUnavailable, apierr.CodeOf(err))
	})

	t.Run("patron with an overdue loan is blocked", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 1, 1)
		seedBook(s, 2, "Emma", 1, 0)
		seedPatron(s, 7, "Ada Lovelace", true)
		s.loans[50] = Loan{
			LoanID: 50, BookID: 2, PatronID: 7,
			LoanedAt: now.AddDate(0, 0, -20),
			DueOn:    date(2026, 7, 20),
			Status:   StatusOutstanding,
		}
		svc := newTestService(s, now)

		_, err := svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 7})
		assert.Equal(t, apierr.CodeOutstandingOverdue, apierr.CodeOf(err))
		assert.Equal(t, 1, s.books[1].AvailableCopies)
	})

	t.Run("loan due today does not block", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 1, 1)
		seedBook(s, 2, "Emma", 1, 0)
		seedPatron(s, 7, "Ada Lovelace", true)
		s.loans[50] = Loan{
			LoanID: 50, BookID: 2, PatronID: 7,
			LoanedAt: now.AddDate(0, 0, -14),
			DueOn:    date(2026, 8, 1),
			Status:   StatusOutstanding,
		}
		svc := newTestService(s, now)

		_, err := svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 7})
		assert.NoError(t, err)
	})

	t.Run("insert failure rolls everything back", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 1, 1)
		seedPatron(s, 7, "Ada Lovelace", true)
		s.insertErr = apierr.ErrInternal("boom")
		svc := newTestService(s, now)

		_, err := svc.Checkout(ctx, CheckoutRequest{BookID: 1, PatronID: 7})
		require.Error(t, err)
		assert.Equal(t, 1, s.books[1].AvailableCopies)
		assert.Empty(t, s.loans)
		assert.Equal(t, 1, s.rollbacks)
		assert.Equal(t, 0, s.commits)
	})
}

func TestReturn(t *testing.T) {
	ctx := context.Background()
	due := date(2026, 8, 10)

	seedLoan := func(s *fakeStore) {
		seedBook(s, 1, "Dune", 2, 1)
		seedPatron(s, 7, "Ada Lovelace", true)
		s.loans[42] = Loan{
			LoanID: 42, LoanULID: "01J5TESTULID0000000000FAKE",
			BookID: 1, PatronID: 7,
			LoanedAt: date(2026, 7, 27), DueOn: due,
			Status: StatusOutstanding,
		}
	}

	t.Run("on time return has no fine", func(t *testing.T) {
		s := newFakeStore()
		seedLoan(s)
		svc := newTestService(s, time.Date(2026, 8, 10, 16, 0, 0, 0, time.UTC))

		res, err := svc.Return(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, 0, res.DaysLate)
		assert.Equal(t, 0.0, res.Fine)
		assert.Equal(t, "book returned on time", res.Message)
		assert.Equal(t, 2, s.books[1].AvailableCopies)

		loan := s.loans[42]
		assert.Equal(t, StatusReturned, loan.Status)
		assert.True(t, loan.ReturnedAt.Valid)
	})

	t.Run("late return charges per calendar day", func(t *testing.T) {
		s := newFakeStore()
		seedLoan(s)
		svc := newTestService(s, date(2026, 8, 13))

		res, err := svc.Return(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, 3, res.DaysLate)
		assert.Equal(t, 30.00, res.Fine)
		assert.Contains(t, res.Message, "3 day(s) late")
		assert.Equal(t, 30.00, s.loans[42].Fine)
	})

	t.Run("second return fails and changes nothing", func(t *testing.T) {
		s := newFakeStore()
		seedLoan(s)
		svc := newTestService(s, date(2026, 8, 13))

		_, err := svc.Return(ctx, 42)
		require.NoError(t, err)

		_, err = svc.Return(ctx, 42)
		assert.Equal(t, apierr.CodeAlreadyReturned, apierr.CodeOf(err))
		assert.Equal(t, 2, s.books[1].AvailableCopies)
		assert.Equal(t, 30.00, s.loans[42].Fine)
		assert.Equal(t, 1, s.commits)
	})

	t.Run("unknown loan", func(t *testing.T) {
		s := newFakeStore()
		svc := newTestService(s, due)

		_, err := svc.Return(ctx, 404)
		assert.Equal(t, apierr.CodeNotFound, apierr.CodeOf(err))
	})

	t.Run("copy increment failure aborts the return", func(t *testing.T) {
		s := newFakeStore()
		seedLoan(s)
		s.adjustErr = apierr.ErrInternal("boom")
		svc := newTestService(s, due)

		_, err := svc.Return(ctx, 42)
		require.Error(t, err)
		assert.Equal(t, StatusOutstanding, s.loans[42].Status)
		assert.Equal(t, 1, s.books[1].AvailableCopies)
		assert.Equal(t, 1, s.rollbacks)
	})
}
