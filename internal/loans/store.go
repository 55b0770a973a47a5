package loans

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"biblio-backend/internal/platform/apierr"
	"biblio-backend/internal/platform/db"
)

// Store gives the service snapshot reads plus explicit transactions; every
// checkout/return runs inside one Tx so the availability bookkeeping commits
// or rolls back with the loan row.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	GetByID(ctx context.Context, id int64) (*LoanRow, error)
	ListOutstanding(ctx context.Context) ([]LoanRow, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]LoanRow, error)
	ListByBook(ctx context.Context, bookID int64) ([]LoanRow, error)
	List(ctx context.Context, f LoanFilter, p Page) ([]LoanRow, int64, error)
}

type Tx interface {
	// LockBook takes the row lock that serializes concurrent checkouts and
	// returns against the same book. nil means no such book.
	LockBook(ctx context.Context, bookID int64) (*BookState, error)
	GetPatron(ctx context.Context, patronID int64) (*PatronState, error)
	CountOverdueOutstanding(ctx context.Context, patronID int64, asOf time.Time) (int, error)
	InsertLoan(ctx context.Context, l *Loan) error
	AdjustAvailableCopies(ctx context.Context, bookID int64, delta int) error
	// LockLoan serializes concurrent returns of the same loan. nil means no
	// such loan.
	LockLoan(ctx context.Context, loanID int64) (*Loan, error)
	MarkReturned(ctx context.Context, loanID int64, returnedAt time.Time, fine float64) error
	Commit() error
	Rollback() error
}

type mysqlStore struct{ db *sql.DB }

func NewStore(conn *sql.DB) Store { return &mysqlStore{db: conn} }

func (s *mysqlStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &mysqlTx{tx: tx}, nil
}

const selectRow = `
	l.loan_id, l.loan_ulid, l.book_id, l.patron_id, l.loaned_at, l.due_on,
	l.returned_at, l.status, l.fine,
	b.title, CONCAT(p.first_name, ' ', p.last_name), p.membership_number`

const fromJoined = `
	FROM loans l
	JOIN books b ON b.book_id = l.book_id
	JOIN patrons p ON p.patron_id = l.patron_id`

func (s *mysqlStore) GetByID(ctx context.Context, id int64) (*LoanRow, error) {
	q := `SELECT` + selectRow + fromJoined + ` WHERE l.loan_id = ?`
	var r LoanRow
	err := scanRow(s.db.QueryRowContext(ctx, q, id), &r)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *mysqlStore) ListOutstanding(ctx context.Context) ([]LoanRow, error) {
	q := `SELECT` + selectRow + fromJoined + `
	WHERE l.status = ?
	ORDER BY l.due_on, l.loan_id`
	return s.snapshotQuery(ctx, q, StatusOutstanding)
}

func (s *mysqlStore) ListOverdue(ctx context.Context, asOf time.Time) ([]LoanRow, error) {
	q := `SELECT` + selectRow + fromJoined + `
	WHERE l.status = ? AND l.due_on < ?
	ORDER BY l.due_on, l.loan_id`
	return s.snapshotQuery(ctx, q, StatusOutstanding, dateOf(asOf))
}

func (s *mysqlStore) ListByBook(ctx context.Context, bookID int64) ([]LoanRow, error) {
	q := `SELECT` + selectRow + fromJoined + `
	WHERE l.book_id = ?
	ORDER BY l.loaned_at DESC, l.loan_id DESC`
	return s.snapshotQuery(ctx, q, bookID)
}

// snapshotQuery runs a read-only transaction so multi-row reads see one
// consistent state while writers proceed.
func (s *mysqlStore) snapshotQuery(ctx context.Context, q string, args ...any) ([]LoanRow, error) {
	var out []LoanRow
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		rows, err := tx.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r LoanRow
			if err := scanRow(rows, &r); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *mysqlStore) List(ctx context.Context, f LoanFilter, p Page) ([]LoanRow, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.BookID != nil {
		where.WriteString(` AND l.book_id = ?`)
		args = append(args, *f.BookID)
	}
	if f.PatronID != nil {
		where.WriteString(` AND l.patron_id = ?`)
		args = append(args, *f.PatronID)
	}
	if f.Status != nil {
		where.WriteString(` AND l.status = ?`)
		args = append(args, *f.Status)
	}

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	q := `SELECT` + selectRow + fromJoined + where.String() +
		fmt.Sprintf(` ORDER BY l.loaned_at %s, l.loan_id %s LIMIT ? OFFSET ?`, order, order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []LoanRow
	for rows.Next() {
		var r LoanRow
		if err := scanRow(rows, &r); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	cq := `SELECT COUNT(*)` + fromJoined + where.String()
	if err := s.db.QueryRowContext(ctx, cq, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanRow(sc rowScanner, r *LoanRow) error {
	return sc.Scan(
		&r.LoanID, &r.LoanULID, &r.BookID, &r.PatronID, &r.LoanedAt, &r.DueOn,
		&r.ReturnedAt, &r.Status, &r.Fine,
		&r.BookTitle, &r.PatronName, &r.MembershipNumber,
	)
}

// ---- transaction ----

type mysqlTx struct{ tx *sql.Tx }

func (t *mysqlTx) Commit() error   { return t.tx.Commit() }
func (t *mysqlTx) Rollback() error { return t.tx.Rollback() }

func (t *mysqlTx) LockBook(ctx context.Context, bookID int64) (*BookState, error) {
	const q = `
	SELECT book_id, title, total_copies, available_copies
	FROM books WHERE book_id = ? FOR UPDATE`
	var b BookState
	err := t.tx.QueryRowContext(ctx, q, bookID).Scan(&b.BookID, &b.Title, &b.TotalCopies, &b.AvailableCopies)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *mysqlTx) GetPatron(ctx context.Context, patronID int64) (*PatronState, error) {
	const q = `
	SELECT patron_id, CONCAT(first_name, ' ', last_name), status = 'ACTIVE'
	FROM patrons WHERE patron_id = ?`
	var p PatronState
	err := t.tx.QueryRowContext(ctx, q, patronID).Scan(&p.PatronID, &p.FullName, &p.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *mysqlTx) CountOverdueOutstanding(ctx context.Context, patronID int64, asOf time.Time) (int, error) {
	const q = `
	SELECT COUNT(*) FROM loans
	WHERE patron_id = ? AND status = ? AND due_on < ?`
	var n int
	if err := t.tx.QueryRowContext(ctx, q, patronID, StatusOutstanding, dateOf(asOf)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *mysqlTx) InsertLoan(ctx context.Context, l *Loan) error {
	const q = `
	INSERT INTO loans (loan_ulid, book_id, patron_id, loaned_at, due_on, status, fine)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q,
		l.LoanULID, l.BookID, l.PatronID, l.LoanedAt, l.DueOn, l.Status, l.Fine)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	l.LoanID = id
	return nil
}

// AdjustAvailableCopies moves the counter while keeping
// 0 <= available_copies <= total_copies; the caller holds the row lock.
func (t *mysqlTx) AdjustAvailableCopies(ctx context.Context, bookID int64, delta int) error {
	const q = `
	UPDATE books
	SET available_copies = available_copies + ?
	WHERE book_id = ?
	  AND available_copies + ? >= 0
	  AND available_copies + ? <= total_copies`
	res, err := t.tx.ExecContext(ctx, q, delta, bookID, delta, delta)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.ErrInternal("failed to update books.available_copies")
	}
	return nil
}

func (t *mysqlTx) LockLoan(ctx context.Context, loanID int64) (*Loan, error) {
	const q = `
	SELECT loan_id, loan_ulid, book_id, patron_id, loaned_at, due_on, returned_at, status, fine
	FROM loans WHERE loan_id = ? FOR UPDATE`
	var l Loan
	err := t.tx.QueryRowContext(ctx, q, loanID).Scan(
		&l.LoanID, &l.LoanULID, &l.BookID, &l.PatronID, &l.LoanedAt, &l.DueOn,
		&l.ReturnedAt, &l.Status, &l.Fine)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *mysqlTx) MarkReturned(ctx context.Context, loanID int64, returnedAt time.Time, fine float64) error {
	const q = `
	UPDATE loans
	SET returned_at = ?, status = ?, fine = ?
	WHERE loan_id = ? AND status = ?`
	res, err := t.tx.ExecContext(ctx, q, returnedAt, StatusReturned, fine, loanID, StatusOutstanding)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.ErrInternal("failed to mark loan returned")
	}
	return nil
}
