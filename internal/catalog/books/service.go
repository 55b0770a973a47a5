package books

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
	store BookStore
}

func NewService(conn *sql.DB) *Service { return &Service{store: NewStore(conn)} }

func (s *Service) List(ctx context.Context, f BookFilter, p Page) ([]BookResponse, int64, error) {
	f.Term = search.Normalize(f.Term)
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BookResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	return out, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (BookResponse, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return BookResponse{}, err
	}
	if r == nil {
		return BookResponse{}, apierr.ErrNotFound(fmt.Sprintf("book %d not found", id))
	}
	return toResponse(r), nil
}

func (s *Service) Create(ctx context.Context, in CreateBookRequest) (BookResponse, error) {
	title := strings.TrimSpace(in.Title)
	isbn := strings.TrimSpace(in.ISBN)
	if title == "" || isbn == "" {
		return BookResponse{}, apierr.ErrInvalid("title and isbn are required")
	}
	if in.AuthorID <= 0 || in.CategoryID <= 0 {
		return BookResponse{}, apierr.ErrInvalid("author_id and category_id are required")
	}
	total := in.TotalCopies
	if total == 0 {
		total = 1
	}
	if total < 1 {
		return BookResponse{}, apierr.ErrInvalid("total_copies must be >= 1")
	}
	if in.Pages != nil && *in.Pages <= 0 {
		return BookResponse{}, apierr.ErrInvalid("pages must be > 0")
	}

	b := &Book{
		Title:           title,
		ISBN:            isbn,
		AuthorID:        in.AuthorID,
		CategoryID:      in.CategoryID,
		Publisher:       nullStr(in.Publisher),
		Pages:           nullInt(in.Pages),
		TotalCopies:     total,
		AvailableCopies: total,
		Description:     nullStr(in.Description),
	}
	if err := s.store.Insert(ctx, b); err != nil {
		if db.IsBadForeignKey(err) {
			return BookResponse{}, apierr.ErrInvalid("invalid author_id or category_id")
		}
		return BookResponse{}, err
	}

	out, err := s.store.GetByID(ctx, b.BookID)
	if err != nil {
		return BookResponse{}, err
	}
	return toResponse(out), nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateBookRequest) (BookResponse, error) {
	patch := storePatch{
		AuthorID:    in.AuthorID,
		CategoryID:  in.CategoryID,
		Publisher:   in.Publisher,
		Description: in.Description,
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return BookResponse{}, apierr.ErrInvalid("title must not be empty")
		}
		patch.Title = &title
	}
	if in.ISBN != nil {
		isbn := strings.TrimSpace(*in.ISBN)
		if isbn == "" {
			return BookResponse{}, apierr.ErrInvalid("isbn must not be empty")
		}
		patch.ISBN = &isbn
	}
	if in.AuthorID != nil && *in.AuthorID <= 0 {
		return BookResponse{}, apierr.ErrInvalid("author_id must be > 0")
	}
	if in.CategoryID != nil && *in.CategoryID <= 0 {
		return BookResponse{}, apierr.ErrInvalid("category_id must be > 0")
	}
	if in.Pages != nil {
		if *in.Pages <= 0 {
			return BookResponse{}, apierr.ErrInvalid("pages must be > 0")
		}
		patch.Pages = in.Pages
	}
	if in.TotalCopies != nil {
		if *in.TotalCopies < 1 {
			return BookResponse{}, apierr.ErrInvalid("total_copies must be >= 1")
		}
		patch.TotalCopies = in.TotalCopies
	}
	if patch == (storePatch{}) {
		return BookResponse{}, apierr.ErrInvalid("no updatable fields in request")
	}

	if err := s.store.Update(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BookResponse{}, apierr.ErrNotFound(fmt.Sprintf("book %d not found", id))
		}
		if db.IsBadForeignKey(err) {
			return BookResponse{}, apierr.ErrInvalid("invalid author_id or category_id")
		}
		return BookResponse{}, err
	}

	out, err := s.store.GetByID(ctx, id)
	if err != nil {
		return BookResponse{}, err
	}
	if out == nil {
		return BookResponse{}, apierr.ErrNotFound(fmt.Sprintf("book %d not found", id))
	}
	return toResponse(out), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r == nil {
		return apierr.ErrNotFound(fmt.Sprintf("book %d not found", id))
	}

	n, err := s.store.CountLoans(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierr.ErrHasDependents(fmt.Sprintf("book %q has %d loan record(s)", r.Title, n))
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.ErrNotFound(fmt.Sprintf("book %d not found", id))
		}
		if db.IsRowReferenced(err) {
			return apierr.ErrHasDependents(fmt.Sprintf("book %q has loan records", r.Title))
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

func nullInt(p *int) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*p), Valid: true}
}
