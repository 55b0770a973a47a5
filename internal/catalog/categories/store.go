package categories

import (
	"context"
	"database/sql"
	"strings"
)

type CategoryStore interface {
	List(ctx context.Context) ([]Category, error)
	Search(ctx context.Context, term string) ([]Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	Insert(ctx context.Context, c *Category) error
	Update(ctx context.Context, id int64, in UpdateCategoryRequest) error
	Delete(ctx context.Context, id int64) error
	CountBooks(ctx context.Context, id int64) (int, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) CategoryStore { return &Store{db: db} }

func (s *Store) List(ctx context.Context) ([]Category, error) {
	const q = `
	SELECT category_id, name, description
	FROM categories
	ORDER BY name`
	return s.queryCategories(ctx, q)
}

func (s *Store) Search(ctx context.Context, term string) ([]Category, error) {
	const q = `
	SELECT category_id, name, description
	FROM categories
	WHERE name LIKE ?
	ORDER BY name`
	return s.queryCategories(ctx, q, "%"+term+"%")
}

func (s *Store) queryCategories(ctx context.Context, q string, args ...any) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Category, 0, 16)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.CategoryID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Category, error) {
	const q = `SELECT category_id, name, description FROM categories WHERE category_id = ?`
	var c Category
	err := s.db.QueryRowContext(ctx, q, id).Scan(&c.CategoryID, &c.Name, &c.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByName matches case-sensitively regardless of the column collation.
func (s *Store) GetByName(ctx context.Context, name string) (*Category, error) {
	const q = `SELECT category_id, name, description FROM categories WHERE name = BINARY ?`
	var c Category
	err := s.db.QueryRowContext(ctx, q, name).Scan(&c.CategoryID, &c.Name, &c.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) Insert(ctx context.Context, c *Category) error {
	const q = `INSERT INTO categories (name, description) VALUES (?, ?)`
	res, err := s.db.ExecContext(ctx, q, c.Name, c.Description)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	c.CategoryID = id
	return nil
}

func (s *Store) Update(ctx context.Context, id int64, in UpdateCategoryRequest) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *in.Description)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	q := `UPDATE categories SET ` + strings.Join(sets, ", ") + ` WHERE category_id = ?`
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		// aff==0 also happens when values are unchanged, so re-check existence
		if c, err := s.GetByID(ctx, id); err != nil {
			return err
		} else if c == nil {
			return sql.ErrNoRows
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM categories WHERE category_id = ?`
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
	const q = `SELECT COUNT(*) FROM books WHERE category_id = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
