package patrons

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio-backend/internal/platform/apierr"
)

type fakeStore struct {
	byID      map[int64]Patron
	nextID    int64
	loanCount map[int64]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[int64]Patron{}, nextID: 1, loanCount: map[int64]int{}}
}

func (f *fakeStore) List(ctx context.Context, flt PatronFilter, pg Page) ([]Patron, int64, error) {
	out := make([]Patron, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*Patron, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) GetByMembershipNumber(ctx context.Context, number string) (*Patron, error) {
	for _, p := range f.byID {
		if p.MembershipNumber == number {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Insert(ctx context.Context, p *Patron) error {
	p.PatronID = f.nextID
	f.nextID++
	f.byID[p.PatronID] = *p
	return nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, patch storePatch) error {
	p, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.MembershipNumber != nil {
		p.MembershipNumber = *patch.MembershipNumber
	}
	if patch.FirstName != nil {
		p.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Phone != nil {
		p.Phone = sql.NullString{String: *patch.Phone, Valid: *patch.Phone != ""}
	}
	if patch.Address != nil {
		p.Address = sql.NullString{String: *patch.Address, Valid: *patch.Address != ""}
	}
	f.byID[id] = p
	return nil
}

func (f *fakeStore) SetStatus(ctx context.Context, id int64, status Status) error {
	p, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = status
	f.byID[id] = p
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeStore) CountLoans(ctx context.Context, id int64) (int, error) {
	return f.loanCount[id], nil
}

func strp(s string) *string { return &s }

func validCreate() CreatePatronRequest {
	return CreatePatronRequest{
		MembershipNumber: "M-1001",
		FirstName:        "Ada",
		LastName:         "Lovelace",
		Email:            "ada@example.org",
	}
}

func TestCreatePatron(t *testing.T) {
	ctx := context.Background()

	t.Run("new patrons start active", func(t *testing.T) {
		svc := &Service{store: newFakeStore()}
		res, err := svc.Create(ctx, validCreate())
		require.NoError(t, err)
		assert.Equal(t, StatusActive, res.Status)
		assert.Equal(t, "M-1001", res.MembershipNumber)
	})

	t.Run("blank required field", func(t *testing.T) {
		svc := &Service{store: newFakeStore()}
		req := validCreate()
		req.Email = "  "
		_, err := svc.Create(ctx, req)
		assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))
	})

	t.Run("duplicate membership number", func(t *testing.T) {
		svc := &Service{store: newFakeStore()}
		_, err := svc.Create(ctx, validCreate())
		require.NoError(t, err)

		req := validCreate()
		req.FirstName = "Grace"
		_, err = svc.Create(ctx, req)
		assert.Equal(t, apierr.CodeDuplicateName, apierr.CodeOf(err))
	})
}

func TestUpdatePatron(t *testing.T) {
	ctx := context.Background()

	seed := func() (*Service, *fakeStore, int64) {
		s := newFakeStore()
		svc := &Service{store: s}
		res, err := svc.Create(ctx, validCreate())
		require.NoError(t, err)
		return svc, s, res.PatronID
	}

	t.Run("partial patch leaves other fields alone", func(t *testing.T) {
		svc, _, id := seed()
		res, err := svc.Update(ctx, id, UpdatePatronRequest{Phone: strp("555-0100")})
		require.NoError(t, err)
		require.NotNil(t, res.Phone)
		assert.Equal(t, "555-0100", *res.Phone)
		assert.Equal(t, "Ada", res.FirstName)
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		svc, _, id := seed()
		_, err := svc.Update(ctx, id, UpdatePatronRequest{})
		assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))
	})

	t.Run("membership number must stay unique", func(t *testing.T) {
		svc, _, _ := seed()
		req := validCreate()
		req.MembershipNumber = "M-1002"
		other, err := svc.Create(ctx, req)
		require.NoError(t, err)

		_, err = svc.Update(ctx, other.PatronID, UpdatePatronRequest{MembershipNumber: strp("M-1001")})
		assert.Equal(t, apierr.CodeDuplicateName, apierr.CodeOf(err))

		// keeping its own number is not a conflict
		_, err = svc.Update(ctx, other.PatronID, UpdatePatronRequest{MembershipNumber: strp("M-1002")})
		assert.NoError(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, _, _ := seed()
		_, err := svc.Update(ctx, 999, UpdatePatronRequest{Phone: strp("x")})
		assert.Equal(t, apierr.CodeNotFound, apierr.CodeOf(err))
	})
}

func TestPatronStatus(t *testing.T) {
	ctx := context.Background()
	s := newFakeStore()
	svc := &Service{store: s}
	res, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	out, err := svc.Deactivate(ctx, res.PatronID)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, out.Status)

	out, err = svc.Activate(ctx, res.PatronID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, out.Status)

	_, err = svc.Deactivate(ctx, 999)
	assert.Equal(t, apierr.CodeNotFound, apierr.CodeOf(err))
}

func TestDeletePatron(t *testing.T) {
	ctx := context.Background()

	t.Run("patron with loan history is kept", func(t *testing.T) {
		s := newFakeStore()
		svc := &Service{store: s}
		res, err := svc.Create(ctx, validCreate())
		require.NoError(t, err)
		s.loanCount[res.PatronID] = 2

		err = svc.Delete(ctx, res.PatronID)
		assert.Equal(t, apierr.CodeHasDependents, apierr.CodeOf(err))
		assert.Contains(t, err.Error(), "deactivate instead")
	})

	t.Run("patron without loans can go", func(t *testing.T) {
		s := newFakeStore()
		svc := &Service{store: s}
		res, err := svc.Create(ctx, validCreate())
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, res.PatronID))
		_, err = svc.Get(ctx, res.PatronID)
		assert.Equal(t, apierr.CodeNotFound, apierr.CodeOf(err))
	})
}
