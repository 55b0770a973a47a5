package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrInvalid("x"), http.StatusBadRequest},
		{ErrNotFound("x"), http.StatusNotFound},
		{ErrUnavailable("x"), http.StatusConflict},
		{ErrPatronInactive("x"), http.StatusConflict},
		{ErrOutstandingOverdue("x"), http.StatusConflict},
		{ErrAlreadyReturned("x"), http.StatusConflict},
		{ErrHasDependents("x"), http.StatusConflict},
		{ErrDuplicateName("x"), http.StatusConflict},
		{ErrInternal("x"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ToHTTPStatus(c.err), "for %v", c.err)
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(ErrNotFound("x")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))

	t.Run("survives wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("checkout: %w", ErrUnavailable("no copies"))
		assert.Equal(t, CodeUnavailable, CodeOf(wrapped))
		assert.Equal(t, http.StatusConflict, ToHTTPStatus(wrapped))
	})
}

func TestErrorMessage(t *testing.T) {
	err := ErrNotFound("book 7 not found")
	assert.Equal(t, "NOT_FOUND: book 7 not found", err.Error())
}
