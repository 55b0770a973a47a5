package categories

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
	store CategoryStore
}

func NewService(conn *sql.DB) *Service { return &Service{store: NewStore(conn)} }

func (s *Service) List(ctx context.Context, term string) ([]CategoryResponse, error) {
	term = search.Normalize(term)

	var (
		items []Category
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

	out := make([]CategoryResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (CategoryResponse, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return CategoryResponse{}, err
	}
	if c == nil {
		return CategoryResponse{}, apierr.ErrNotFound(fmt.Sprintf("category %d not found", id))
	}
	resp := toResponse(c)
	n, err := s.store.CountBooks(ctx, id)
	if err != nil {
		return CategoryResponse{}, err
	}
	resp.BookCount = &n
	return resp, nil
}

func (s *Service) Create(ctx context.Context, in CreateCategoryRequest) (CategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return CategoryResponse{}, apierr.ErrInvalid("name is required")
	}

	// check-then-insert; the unique index catches the losing side of a race
	existing, err := s.store.GetByName(ctx, name)
	if err != nil {
		return CategoryResponse{}, err
	}
	if existing != nil {
		return CategoryResponse{}, apierr.ErrDuplicateName(fmt.Sprintf("a category named %q already exists", name))
	}

	c := &Category{Name: name, Description: nullStr(in.Description)}
	if err := s.store.Insert(ctx, c); err != nil {
		if db.IsDuplicateKey(err) {
			return CategoryResponse{}, apierr.ErrDuplicateName(fmt.Sprintf("a category named %q already exists", name))
		}
		return CategoryResponse{}, err
	}
	return toResponse(c), nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateCategoryRequest) (CategoryResponse, error) {
	if in.Name == nil && in.Description == nil {
		return CategoryResponse{}, apierr.ErrInvalid("no updatable fields in request")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return CategoryResponse{}, apierr.ErrInvalid("name must not be empty")
		}
		other, err := s.store.GetByName(ctx, name)
		if err != nil {
			return CategoryResponse{}, err
		}
		if other != nil && other.CategoryID != id {
			return CategoryResponse{}, apierr.ErrDuplicateName(fmt.Sprintf("a category named %q already exists", name))
		}
		in.Name = &name
	}

	if err := s.store.Update(ctx, id, in); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CategoryResponse{}, apierr.ErrNotFound(fmt.Sprintf("category %d not found", id))
		}
		if db.IsDuplicateKey(err) {
			return CategoryResponse{}, apierr.ErrDuplicateName("a category with that name already exists")
		}
		return CategoryResponse{}, err
	}

	out, err := s.store.GetByID(ctx, id)
	if err != nil {
		return CategoryResponse{}, err
	}
	if out == nil {
		return CategoryResponse{}, apierr.ErrNotFound(fmt.Sprintf("category %d not found", id))
	}
	return toResponse(out), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return apierr.ErrNotFound(fmt.Sprintf("category %d not found", id))
	}

	n, err := s.store.CountBooks(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierr.ErrHasDependents(fmt.Sprintf("category %q still has %d book(s)", c.Name, n))
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.ErrNotFound(fmt.Sprintf("category %d not found", id))
		}
		if db.IsRowReferenced(err) {
			return apierr.ErrHasDependents(fmt.Sprintf("category %q still has books", c.Name))
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
