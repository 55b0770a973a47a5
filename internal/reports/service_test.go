package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio-backend/internal/platform/apierr"
)

type fakeStore struct {
	summary   Summary
	top       []TopBook
	lastLimit int
}

func (f *fakeStore) Summary(ctx context.Context, asOf time.Time) (*Summary, error) {
	s := f.summary
	return &s, nil
}

func (f *fakeStore) TopBooks(ctx context.Context, limit int) ([]TopBook, error) {
	f.lastLimit = limit
	return f.top, nil
}

func TestSummary(t *testing.T) {
	f := &fakeStore{summary: Summary{TotalBooks: 3, OutstandingLoans: 2, OverdueLoans: 1}}
	svc := &Service{store: f}

	res, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalBooks)
	assert.Equal(t, int64(1), res.OverdueLoans)
}

func TestTopBooks(t *testing.T) {
	ctx := context.Background()

	t.Run("limit defaults to five", func(t *testing.T) {
		f := &fakeStore{top: []TopBook{{BookID: 1, Title: "Dune", LoanCount: 9}}}
		svc := &Service{store: f}

		items, err := svc.TopBooks(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 5, f.lastLimit)
		assert.Len(t, items, 1)
	})

	t.Run("oversized limit is rejected", func(t *testing.T) {
		svc := &Service{store: &fakeStore{}}
		_, err := svc.TopBooks(ctx, 500)
		assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))
	})
}
