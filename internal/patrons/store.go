package patrons

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type PatronStore interface {
	List(ctx context.Context, f PatronFilter, p Page) ([]Patron, int64, error)
	GetByID(ctx context.Context, id int64) (*Patron, error)
	GetByMembershipNumber(ctx context.Context, number string) (*Patron, error)
	Insert(ctx context.Context, p *Patron) error
	Update(ctx context.Context, id int64, patch storePatch) error
	SetStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
	CountLoans(ctx context.Context, id int64) (int, error)
}

// storePatch carries already-validated column values for the dynamic UPDATE.
type storePatch struct {
	MembershipNumber *string
	FirstName        *string
	LastName         *string
	Email            *string
	Phone            *string
	Address          *string
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) PatronStore { return &Store{db: db} }

const selectCols = `patron_id, membership_number, first_name, last_name, email, phone, address, status`

func (s *Store) List(ctx context.Context, f PatronFilter, p Page) ([]Patron, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.Term != "" {
		where.WriteString(` AND (first_name LIKE ? OR last_name LIKE ? OR membership_number LIKE ?)`)
		like := "%" + f.Term + "%"
		args = append(args, like, like, like)
	}
	if f.OnlyActive {
		where.WriteString(` AND status = ?`)
		args = append(args, StatusActive)
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

	q := `SELECT ` + selectCols + ` FROM patrons` + where.String() +
		fmt.Sprintf(` ORDER BY last_name %s, first_name %s LIMIT ? OFFSET ?`, order, order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Patron
	for rows.Next() {
		var pt Patron
		if err := rows.Scan(&pt.PatronID, &pt.MembershipNumber, &pt.FirstName, &pt.LastName,
			&pt.Email, &pt.Phone, &pt.Address, &pt.Status); err != nil {
			return nil, 0, err
		}
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	cq := `SELECT COUNT(*) FROM patrons` + where.String()
	if err := s.db.QueryRowContext(ctx, cq, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Patron, error) {
	q := `SELECT ` + selectCols + ` FROM patrons WHERE patron_id = ?`
	return s.getOne(ctx, q, id)
}

func (s *Store) GetByMembershipNumber(ctx context.Context, number string) (*Patron, error) {
	q := `SELECT ` + selectCols + ` FROM patrons WHERE membership_number = ?`
	return s.getOne(ctx, q, number)
}

func (s *Store) getOne(ctx context.Context, q string, arg any) (*Patron, error) {
	var p Patron
	err := s.db.QueryRowContext(ctx, q, arg).Scan(&p.PatronID, &p.MembershipNumber,
		&p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Address, &p.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Insert(ctx context.Context, p *Patron) error {
	const q = `
	INSERT INTO patrons (membership_number, first_name, last_name, email, phone, address, status)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		p.MembershipNumber, p.FirstName, p.LastName, p.Email, p.Phone, p.Address, p.Status)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	p.PatronID = id
	return nil
}

func (s *Store) Update(ctx context.Context, id int64, patch storePatch) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	if patch.MembershipNumber != nil {
		sets = append(sets, "membership_number = ?")
		args = append(args, *patch.MembershipNumber)
	}
	if patch.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *patch.FirstName)
	}
	if patch.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *patch.LastName)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *patch.Phone)
	}
	if patch.Address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *patch.Address)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	q := `UPDATE patrons SET ` + strings.Join(sets, ", ") + ` WHERE patron_id = ?`
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		if p, err := s.GetByID(ctx, id); err != nil {
			return err
		} else if p == nil {
			return sql.ErrNoRows
		}
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id int64, status Status) error {
	const q = `UPDATE patrons SET status = ? WHERE patron_id = ?`
	res, err := s.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		if p, err := s.GetByID(ctx, id); err != nil {
			return err
		} else if p == nil {
			return sql.ErrNoRows
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM patrons WHERE patron_id = ?`
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
	const q = `SELECT COUNT(*) FROM loans WHERE patron_id = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
