package authors

import (
	"context"
	"database/sql"
	"strings"
)

type AuthorStore interface {
	List(ctx context.Context) ([]Author, error)
	Search(ctx context.Context, term string) ([]Author, error)
	GetByID(ctx context.Context, id int64) (*Author, error)
	Insert(ctx context.Context, a *Author) error
	Update(ctx context.Context, id int64, patch storePatch) error
	Delete(ctx context.Context, id int64) error
	CountBooks(ctx context.Context, id int64) (int, error)
}

// storePatch carries already-validated column values for the dynamic UPDATE.
type storePatch struct {
	FirstName   *string
	LastName    *string
	Nationality *string
	BirthDate   *sql.NullTime
	Biography   *string
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AuthorStore { return &Store{db: db} }

const selectCols = `author_id, first_name, last_name, nationality, birth_date, biography`

func (s *Store) List(ctx context.Context) ([]Author, error) {
	q := `SELECT ` + selectCols + ` FROM authors ORDER BY last_name, first_name`
	return s.queryAuthors(ctx, q)
}

func (s *Store) Search(ctx context.Context, term string) ([]Author, error) {
	q := `
	SELECT ` + selectCols + `
	FROM authors
	WHERE first_name LIKE ? OR last_name LIKE ? OR nationality LIKE ?
	ORDER BY last_name, first_name`
	like := "%" + term + "%"
	return s.queryAuthors(ctx, q, like, like, like)
}

func (s *Store) queryAuthors(ctx context.Context, q string, args ...any) ([]Author, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Author, 0, 16)
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.AuthorID, &a.FirstName, &a.LastName, &a.Nationality, &a.BirthDate, &a.Biography); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Author, error) {
	q := `SELECT ` + selectCols + ` FROM authors WHERE author_id = ?`
	var a Author
	err := s.db.QueryRowContext(ctx, q, id).Scan(&a.AuthorID, &a.FirstName, &a.LastName, &a.Nationality, &a.BirthDate, &a.Biography)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) Insert(ctx context.Context, a *Author) error {
	const q = `
	INSERT INTO authors (first_name, last_name, nationality, birth_date, biography)
	VALUES (?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, a.FirstName, a.LastName, a.Nationality, a.BirthDate, a.Biography)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	a.AuthorID = id
	return nil
}

func (s *Store) Update(ctx context.Context, id int64, patch storePatch) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if patch.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *patch.FirstName)
	}
	if patch.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *patch.LastName)
	}
	if patch.Nationality != nil {
		sets = append(sets, "nationality = ?")
		args = append(args, *patch.Nationality)
	}
	if patch.BirthDate != nil {
		sets = append(sets, "birth_date = ?")
		args = append(args, *patch.BirthDate)
	}
	if patch.Biography != nil {
		sets = append(sets, "biography = ?")
		args = append(args, *patch.Biography)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	q := `UPDATE authors SET ` + strings.Join(sets, ", ") + ` WHERE author_id = ?`
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		if a, err := s.GetByID(ctx, id); err != nil {
			return err
		} else if a == nil {
			return sql.ErrNoRows
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM authors WHERE author_id = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) CountBooks(ctx context.Context, id int64) (int, error) {
	const q = `SELECT COUNT(*) FROM books WHERE author_id = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
