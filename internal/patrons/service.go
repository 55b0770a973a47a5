package patrons

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"biblio-backend/internal/platform/apierr"
	"biblio-backend/internal/platform/db"
	"biblio-backend/internal/platform/search"
)

type Service struct {
	store PatronStore
}

func NewService(conn *sql.DB) *Service { return &Service{store: NewStore(conn)} }

func (s *Service) List(ctx context.Context, f PatronFilter, p Page) ([]PatronResponse, int64, error) {
	f.Term = search.Normalize(f.Term)
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PatronResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	return out, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (PatronResponse, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return PatronResponse{}, err
	}
	if p == nil {
		return PatronResponse{}, apierr.ErrNotFound(fmt.Sprintf("patron %d not found", id))
	}
	return toResponse(p), nil
}

func (s *Service) Create(ctx context.Context, in CreatePatronRequest) (PatronResponse, error) {
	number := strings.TrimSpace(in.MembershipNumber)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	email := strings.TrimSpace(in.Email)
	if number == "" || first == "" || last == "" || email == "" {
		return PatronResponse{}, apierr.ErrInvalid("membership_number, first_name, last_name and email are required")
	}

	existing, err := s.store.GetByMembershipNumber(ctx, number)
	if err != nil {
		return PatronResponse{}, err
	}
	if existing != nil {
		return PatronResponse{}, apierr.ErrDuplicateName(fmt.Sprintf("membership number %q is already taken", number))
	}

	p := &Patron{
		MembershipNumber: number,
		FirstName:        first,
		LastName:         last,
		Email:            email,
		Phone:            nullStr(in.Phone),
		Address:          nullStr(in.Address),
		Status:           StatusActive,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		if db.IsDuplicateKey(err) {
			return PatronResponse{}, apierr.ErrDuplicateName(fmt.Sprintf("membership number %q is already taken", number))
		}
		return PatronResponse{}, err
	}
	return toResponse(p), nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdatePatronRequest) (PatronResponse, error) {
	patch := storePatch{
		Phone:   in.Phone,
		Address: in.Address,
	}
	if in.MembershipNumber != nil {
		number := strings.TrimSpace(*in.MembershipNumber)
		if number == "" {
			return PatronResponse{}, apierr.ErrInvalid("membership_number must not be empty")
		}
		other, err := s.store.GetByMembershipNumber(ctx, number)
		if err != nil {
			return PatronResponse{}, err
		}
		if other != nil && other.PatronID != id {
			return PatronResponse{}, apierr.ErrDuplicateName(fmt.Sprintf("membership number %q is already taken", number))
		}
		patch.MembershipNumber = &number
	}
	if in.FirstName != nil {
		first := strings.TrimSpace(*in.FirstName)
		if first == "" {
			return PatronResponse{}, apierr.ErrInvalid("first_name must not be empty")
		}
		patch.FirstName = &first
	}
	if in.LastName != nil {
		last := strings.TrimSpace(*in.LastName)
		if last == "" {
			return PatronResponse{}, apierr.ErrInvalid("last_name must not be empty")
		}
		patch.LastName = &last
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return PatronResponse{}, apierr.ErrInvalid("email must not be empty")
		}
		patch.Email = &email
	}
	if patch == (storePatch{}) {
		return PatronResponse{}, apierr.ErrInvalid("no updatable fields in request")
	}

	if err := s.store.Update(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PatronResponse{}, apierr.ErrNotFound(fmt.Sprintf("patron %d not found", id))
		}
		if db.IsDuplicateKey(err) {
			return PatronResponse{}, apierr.ErrDuplicateName("membership number is already taken")
		}
		return PatronResponse{}, err
	}

	out, err := s.store.GetByID(ctx, id)
	if err != nil {
		return PatronResponse{}, err
	}
	if out == nil {
		return PatronResponse{}, apierr.ErrNotFound(fmt.Sprintf("patron %d not found", id))
	}
	return toResponse(out), nil
}

// Activate and Deactivate are soft status toggles, never a delete.

func (s *Service) Activate(ctx context.Context, id int64) (PatronResponse, error) {
	return s.setStatus(ctx, id, StatusActive)
}

func (s *Service) Deactivate(ctx context.Context, id int64) (PatronResponse, error) {
	return s.setStatus(ctx, id, StatusInactive)
}

func (s *Service) setStatus(ctx context.Context, id int64, status Status) (PatronResponse, error) {
	if err := s.store.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PatronResponse{}, apierr.ErrNotFound(fmt.Sprintf("patron %d not found", id))
		}
		return PatronResponse{}, err
	}
	out, err := s.store.GetByID(ctx, id)
	if err != nil {
		return PatronResponse{}, err
	}
	if out == nil {
		return PatronResponse{}, apierr.ErrNotFound(fmt.Sprintf("patron %d not found", id))
	}
	return toResponse(out), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return apierr.ErrNotFound(fmt.Sprintf("patron %d not found", id))
	}

	n, err := s.store.CountLoans(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierr.ErrHasDependents(fmt.Sprintf("patron %q has %d loan record(s); deactivate instead", p.FullName(), n))
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.ErrNotFound(fmt.Sprintf("patron %d not found", id))
		}
		if db.IsRowReferenced(err) {
			return apierr.ErrHasDependents(fmt.Sprintf("patron %q has loan records; deactivate instead", p.FullName()))
		}
		return err
	}
	return nil
}

func nullStr(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
