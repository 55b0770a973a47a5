package authors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"biblio-backend/internal/platform/apierr"
	"biblio-backend/internal/platform/db"
	"biblio-backend/internal/platform/search"
)

const dateLayout = "2006-01-02"

type Service struct {
	store AuthorStore
}

func NewService(conn *sql.DB) *Service { return &Service{store: NewStore(conn)} }

func (s *Service) List(ctx context.Context, term string) ([]AuthorResponse, error) {
	term = search.Normalize(term)

	var (
		items []Author
		err   error
	)
	if term == "" {
		items, err = s.store.List(ctx)
	} else {
		items, err = s.store.Search(ctx, term)
	}
	if err != nil {
		return nil, err
	}

	out := make([]AuthorResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (AuthorResponse, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return AuthorResponse{}, err
	}
	if a == nil {
		return AuthorResponse{}, apierr.ErrNotFound(fmt.Sprintf("author %d not found", id))
	}
	resp := toResponse(a)
	n, err := s.store.CountBooks(ctx, id)
	if err != nil {
		return AuthorResponse{}, err
	}
	resp.BookCount = &n
	return resp, nil
}

func (s *Service) Create(ctx context.Context, in CreateAuthorRequest) (AuthorResponse, error) {
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return AuthorResponse{}, apierr.ErrInvalid("first_name and last_name are required")
	}

	a := &Author{
		FirstName:   first,
		LastName:    last,
		Nationality: nullStr(in.Nationality),
		Biography:   nullStr(in.Biography),
	}
	if in.BirthDate != nil && *in.BirthDate != "" {
		parsed, err := time.Parse(dateLayout, *in.BirthDate)
		if err != nil {
			return AuthorResponse{}, apierr.ErrInvalid("invalid birth_date format, expected YYYY-MM-DD")
		}
		a.BirthDate = sql.NullTime{Time: parsed, Valid: true}
	}

	if err := s.store.Insert(ctx, a); err != nil {
		return AuthorResponse{}, err
	}
	return toResponse(a), nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateAuthorRequest) (AuthorResponse, error) {
	patch := storePatch{
		Nationality: in.Nationality,
		Biography:   in.Biography,
	}
	if in.FirstName != nil {
		first := strings.TrimSpace(*in.FirstName)
		if first == "" {
			return AuthorResponse{}, apierr.ErrInvalid("first_name must not be empty")
		}
		patch.FirstName = &first
	}
	if in.LastName != nil {
		last := strings.TrimSpace(*in.LastName)
		if last == "" {
			return AuthorResponse{}, apierr.ErrInvalid("last_name must not be empty")
		}
		patch.LastName = &last
	}
	if in.BirthDate != nil {
		var bd sql.NullTime
		if *in.BirthDate != "" {
			parsed, err := time.Parse(dateLayout, *in.BirthDate)
			if err != nil {
				return AuthorResponse{}, apierr.ErrInvalid("invalid birth_date format, expected YYYY-MM-DD")
			}
			bd = sql.NullTime{Time: parsed, Valid: true}
		}
		patch.BirthDate = &bd
	}
	if patch.FirstName == nil && patch.LastName == nil && patch.Nationality == nil &&
		patch.BirthDate == nil && patch.Biography == nil {
		return AuthorResponse{}, apierr.ErrInvalid("no updatable fields in request")
	}

	if err := s.store.Update(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthorResponse{}, apierr.ErrNotFound(fmt.Sprintf("author %d not found", id))
		}
		return AuthorResponse{}, err
	}

	out, err := s.store.GetByID(ctx, id)
	if err != nil {
		return AuthorResponse{}, err
	}
	if out == nil {
		return AuthorResponse{}, apierr.ErrNotFound(fmt.Sprintf("author %d not found", id))
	}
	return toResponse(out), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return apierr.ErrNotFound(fmt.Sprintf("author %d not found", id))
	}

	n, err := s.store.CountBooks(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierr.ErrHasDependents(fmt.Sprintf("author %q still has %d book(s)", a.FullName(), n))
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.ErrNotFound(fmt.Sprintf("author %d not found", id))
		}
		if db.IsRowReferenced(err) {
			return apierr.ErrHasDependents(fmt.Sprintf("author %q still has books", a.FullName()))
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
