package loans

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(s *fakeStore, now time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestService(s, now))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckoutEndpoint(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	t.Run("created with location header", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 2, 2)
		seedPatron(s, 7, "Ada Lovelace", true)
		r := newTestRouter(s, now)

		w := doJSON(t, r, http.MethodPost, "/loans", `{"book_id":1,"patron_id":7}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "/loans/1", w.Header().Get("Location"))

		var res CheckoutResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "2026-08-15", res.DueOn)
	})

	t.Run("malformed body", func(t *testing.T) {
		r := newTestRouter(newFakeStore(), now)
		w := doJSON(t, r, http.MethodPost, "/loans", `{"book_id":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown book maps to 404", func(t *testing.T) {
		r := newTestRouter(newFakeStore(), now)
		w := doJSON(t, r, http.MethodPost, "/loans", `{"book_id":9,"patron_id":7}`)
		require.Equal(t, http.StatusNotFound, w.Code)

		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})

	t.Run("no copies maps to 409", func(t *testing.T) {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 1, 0)
		seedPatron(s, 7, "Ada Lovelace", true)
		r := newTestRouter(s, now)

		w := doJSON(t, r, http.MethodPost, "/loans", `{"book_id":1,"patron_id":7}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestReturnEndpoint(t *testing.T) {
	now := time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)

	seed := func() *fakeStore {
		s := newFakeStore()
		seedBook(s, 1, "Dune", 1, 0)
		seedPatron(s, 7, "Ada Lovelace", true)
		s.loans[42] = Loan{
			LoanID: 42, BookID: 1, PatronID: 7,
			LoanedAt: date(2026, 7, 27), DueOn: date(2026, 8, 10),
			Status: StatusOutstanding,
		}
		return s
	}

	t.Run("late return reports the fine", func(t *testing.T) {
		r := newTestRouter(seed(), now)
		w := doJSON(t, r, http.MethodPost, "/loans/42/return", "")
		require.Equal(t, http.StatusOK, w.Code)

		var res ReturnResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, 3, res.DaysLate)
		assert.Equal(t, 30.00, res.Fine)
	})

	t.Run("double return maps to 409", func(t *testing.T) {
		r := newTestRouter(seed(), now)
		w := doJSON(t, r, http.MethodPost, "/loans/42/return", "")
		require.Equal(t, http.StatusOK, w.Code)
		w = doJSON(t, r, http.MethodPost, "/loans/42/return", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		r := newTestRouter(seed(), now)
		w := doJSON(t, r, http.MethodPost, "/loans/abc/return", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
