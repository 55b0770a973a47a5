package reports

import (
	"context"
	"database/sql"
	"time"

	"biblio-backend/internal/platform/db"
)

type ReportStore interface {
	Summary(ctx context.Context, asOf time.Time) (*Summary, error)
	TopBooks(ctx context.Context, limit int) ([]TopBook, error)
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) ReportStore { return &Store{db: conn} }

// Summary gathers all counters inside one read-only transaction so the
// numbers are from a single snapshot.
func (s *Store) Summary(ctx context.Context, asOf time.Time) (*Summary, error) {
	var out Summary
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		const booksQ = `
		SELECT COUNT(*), COALESCE(SUM(total_copies),0), COALESCE(SUM(available_copies),0)
		FROM books`
		if err := tx.QueryRowContext(ctx, booksQ).Scan(&out.TotalBooks, &out.TotalCopies, &out.AvailableCopies); err != nil {
			return err
		}

		const patronsQ = `SELECT COUNT(*) FROM patrons WHERE status = 'ACTIVE'`
		if err := tx.QueryRowContext(ctx, patronsQ).Scan(&out.ActivePatrons); err != nil {
			return err
		}

		const loansQ = `
		SELECT
			COUNT(*),
			COALESCE(SUM(due_on < ?), 0)
		FROM loans WHERE status = 'OUTSTANDING'`
		day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
		return tx.QueryRowContext(ctx, loansQ, day).Scan(&out.OutstandingLoans, &out.OverdueLoans)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) TopBooks(ctx context.Context, limit int) ([]TopBook, error) {
	const q = `
	SELECT b.book_id, b.title, COUNT(l.loan_id) AS loan_count
	FROM books b
	JOIN loans l ON l.book_id = b.book_id
	GROUP BY b.book_id, b.title
	ORDER BY loan_count DESC, b.title
	LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TopBook, 0, limit)
	for rows.Next() {
		var t TopBook
		if err := rows.Scan(&t.BookID, &t.Title, &t.LoanCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
