package reports

import (
	"context"
	"database/sql"
	"time"

	"biblio-backend/internal/platform/apierr"
)

const maxTopBooks = 50

type Service struct {
	store ReportStore
}

func NewService(conn *sql.DB) *Service { return &Service{store: NewStore(conn)} }

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return s.store.Summary(ctx, time.Now().UTC())
}

func (s *Service) TopBooks(ctx context.Context, limit int) ([]TopBook, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > maxTopBooks {
		return nil, apierr.ErrInvalid("limit is too large")
	}
	return s.store.TopBooks(ctx, limit)
}
