package books

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"biblio-backend/internal/platform/apierr"
	"biblio-backend/internal/platform/db"
)

type BookStore interface {
	List(ctx context.Context, f BookFilter, p Page) ([]BookRow, int64, error)
	GetByID(ctx context.Context, id int64) (*BookRow, error)
	Insert(ctx context.Context, b *Book) error
	Update(ctx context.Context, id int64, patch storePatch) error
	Delete(ctx context.Context, id int64) error
	CountLoans(ctx context.Context, id int64) (int, error)
}

// storePatch carries already-validated column values for the dynamic UPDATE.
type storePatch struct {
	Title       *string
	ISBN        *string
	AuthorID    *int64
	CategoryID  *int64
	Publisher   *string
	Pages       *int
	TotalCopies *int
	Description *string
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) BookStore { return &Store{db: conn} }

const selectRow = `
	b.book_id, b.title, b.isbn, b.author_id, b.category_id, b.publisher,
	b.pages, b.total_copies, b.available_copies, b.description,
	CONCAT(a.first_name, ' ', a.last_name), c.name`

const fromJoined = `
	FROM books b
	JOIN authors a ON a.author_id = b.author_id
	JOIN categories c ON c.category_id = b.category_id`

func (s *Store) List(ctx context.Context, f BookFilter, p Page) ([]BookRow, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.Term != "" {
		where.WriteString(` AND (b.title LIKE ? OR b.isbn LIKE ?)`)
		like := "%" + f.Term + "%"
		args = append(args, like, like)
	}
	if f.AuthorID != nil {
		where.WriteString(` AND b.author_id = ?`)
		args = append(args, *f.AuthorID)
	}
	if f.CategoryID != nil {
		where.WriteString(` AND b.category_id = ?`)
		args = append(args, *f.CategoryID)
	}
	if f.OnlyAvailable {
		where.WriteString(` AND b.available_copies > 0`)
	}

	order := "ASC"
	if strings.ToLower(p.Order) == "desc" {
		order = "DESC"
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	q := `SELECT` + selectRow + fromJoined + where.String() +
		fmt.Sprintf(` ORDER BY b.title %s LIMIT ? OFFSET ?`, order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []BookRow
	for rows.Next() {
		var r BookRow
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

func scanRow(sc rowScanner, r *BookRow) error {
	return sc.Scan(
		&r.BookID, &r.Title, &r.ISBN, &r.AuthorID, &r.CategoryID, &r.Publisher,
		&r.Pages, &r.TotalCopies, &r.AvailableCopies, &r.Description,
		&r.AuthorName, &r.CategoryName,
	)
}

func (s *Store) GetByID(ctx context.Context, id int64) (*BookRow, error) {
	q := `SELECT` + selectRow + fromJoined + ` WHERE b.book_id = ?`
	var r BookRow
	err := scanRow(s.db.QueryRowContext(ctx, q, id), &r)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books
	(title, isbn, author_id, category_id, publisher, pages, total_copies, available_copies, description)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		b.Title, b.ISBN, b.AuthorID, b.CategoryID, b.Publisher,
		b.Pages, b.TotalCopies, b.AvailableCopies, b.Description,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	b.BookID = id
	return nil
}

// Update applies the patch inside one transaction. When total_copies changes,
// available_copies moves by the same delta and the row is locked so the loan
// manager cannot interleave; the result must keep 0 <= available <= total.
func (s *Store) Update(ctx context.Context, id int64, patch storePatch) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const lockQ = `SELECT total_copies, available_copies FROM books WHERE book_id = ? FOR UPDATE`
		var total, available int
		if err := tx.QueryRowContext(ctx, lockQ, id).Scan(&total, &available); err != nil {
			return err
		}

		sets := make([]string, 0, 8)
		args := make([]any, 0, 9)
		if patch.Title != nil {
			sets = append(sets, "title = ?")
			args = append(args, *patch.Title)
		}
		if patch.ISBN != nil {
			sets = append(sets, "isbn = ?")
			args = append(args, *patch.ISBN)
		}
		if patch.AuthorID != nil {
			sets = append(sets, "author_id = ?")
			args = append(args, *patch.AuthorID)
		}
		if patch.CategoryID != nil {
			sets = append(sets, "category_id = ?")
			args = append(args, *patch.CategoryID)
		}
		if patch.Publisher != nil {
			sets = append(sets, "publisher = ?")
			args = append(args, *patch.Publisher)
		}
		if patch.Pages != nil {
			sets = append(sets, "pages = ?")
			args = append(args, *patch.Pages)
		}
		if patch.TotalCopies != nil {
			delta := *patch.TotalCopies - total
			if available+delta < 0 {
				return apierr.ErrInvalid(fmt.Sprintf(
					"total_copies %d is below the %d currently loaned out", *patch.TotalCopies, total-available))
			}
			sets = append(sets, "total_copies = ?", "available_copies = available_copies + ?")
			args = append(args, *patch.TotalCopies, delta)
		}
		if patch.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, *patch.Description)
		}
		if len(sets) == 0 {
			return nil
		}
		args = append(args, id)

		q := `UPDATE books SET ` + strings.Join(sets, ", ") + ` WHERE book_id = ?`
		_, err := tx.ExecContext(ctx, q, args...)
		return err
	})
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM books WHERE book_id = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) CountLoans(ctx context.Context, id int64) (int, error) {
	const q = `SELECT COUNT(*) FROM loans WHERE book_id = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
