package handlers

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mW "github.com/volcanocoin/backend/internal/middleware"
	"github.com/volcanocoin/backend/internal/models"
	"github.com/volcanocoin/backend/internal/services"
	"github.com/volcanocoin/backend/internal/token"
)

func testAddr(b byte) models.Address {
	var a models.Address
	a[models.AddressLength-1] = b
	return a
}

var (
	ownerAddr = testAddr(0x01)
	adminAddr = testAddr(0x02)
	userAddr  = testAddr(0x03)
)

func vlc(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// newTestRouter wires the handler behind the same middleware stack as
// cmd/server.
func newTestRouter(t *testing.T) (*chi.Mux, *token.Service) {
	t.Helper()
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 1)

	engine, err := token.NewService(token.Config{
		Owner:         ownerAddr,
		Admin:         adminAddr,
		InitialSupply: vlc(1000),
	})
	require.NoError(t, err)

	h := NewTokenHandler(engine, services.NewJournalService(nil))

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/supply", h.TotalSupply)
		r.Get("/accounts/{address}/balance", h.BalanceEnquiry)

		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)
			r.Post("/transfer", h.Transfer)
			r.Post("/supply/increase", h.IncreaseSupply)
			r.Get("/payments/{paymentId}", h.GetPayment)
			r.Put("/payments/{paymentId}", h.UpdateDetails)
			r.Get("/accounts/{address}/payments", h.ListAccountPayments)
			r.Get("/accounts/{address}/payments/{index}", h.GetAccountPayment)
		})
	})
	return r, engine
}

func doJSON(t *testing.T, router http.Handler, method, path string, as *models.Address, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	r := httptest.NewRequest(method, path, &buf)
	if as != nil {
		tok, err := mW.IssueToken(*as)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestTokenHandler_Transfer(t *testing.T) {
	t.Run("successful transfer", func(t *testing.T) {
		router, engine := newTestRouter(t)

		w := doJSON(t, router, "POST", "/api/v1/transfer", &ownerAddr, map[string]any{
			"recipient": adminAddr.String(),
			"amount":    "100",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Success   bool   `json:"success"`
			PaymentID uint64 `json:"paymentId"`
			Amount    string `json:"amount"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, uint64(0), resp.PaymentID)
		assert.Equal(t, "100", resp.Amount)

		assert.Zero(t, engine.BalanceOf(adminAddr).Cmp(vlc(100)))
		assert.Zero(t, engine.BalanceOf(ownerAddr).Cmp(vlc(900)))
	})

	t.Run("insufficient balance surfaces as 422", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := doJSON(t, router, "POST", "/api/v1/transfer", &userAddr, map[string]any{
			"recipient": adminAddr.String(),
			"amount":    "1",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp services.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "insufficient balance", resp.Error)
	})

	t.Run("self transfer rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := doJSON(t, router, "POST", "/api/v1/transfer", &ownerAddr, map[string]any{
			"recipient": ownerAddr.String(),
			"amount":    "1",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no token", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := doJSON(t, router, "POST", "/api/v1/transfer", nil, map[string]any{
			"recipient": adminAddr.String(),
			"amount":    "1",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := doJSON(t, router, "POST", "/api/v1/transfer", &ownerAddr, map[string]any{
			"recipient": adminAddr.String(),
			"amount":    "1",
			"extra":     true,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed amount rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := doJSON(t, router, "POST", "/api/v1/transfer", &ownerAddr, map[string]any{
			"recipient": adminAddr.String(),
			"amount":    "ten",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTokenHandler_IncreaseSupply(t *testing.T) {
	t.Run("owner doubles supply", func(t *testing.T) {
		router, engine := newTestRouter(t)

		w := doJSON(t, router, "POST", "/api/v1/supply/increase", &ownerAddr, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Display string `json:"display"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "2000", resp.Display)
		assert.Zero(t, engine.TotalSupply().Cmp(vlc(2000)))
	})

	t.Run("admin forbidden", func(t *testing.T) {
		router, engine := newTestRouter(t)

		w := doJSON(t, router, "POST", "/api/v1/supply/increase", &adminAddr, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Zero(t, engine.TotalSupply().Cmp(vlc(1000)))
	})
}

func TestTokenHandler_UpdateDetails(t *testing.T) {
	setup := func(t *testing.T) (*chi.Mux, *token.Service) {
		router, engine := newTestRouter(t)
		_, err := engine.Transfer(ownerAddr, userAddr, vlc(100)) // id 0
		require.NoError(t, err)
		_, err = engine.Transfer(userAddr, adminAddr, vlc(50)) // id 1
		require.NoError(t, err)
		return router, engine
	}

	t.Run("sender edits own record verbatim", func(t *testing.T) {
		router, _ := setup(t)

		w := doJSON(t, router, "PUT", "/api/v1/payments/1", &userAddr, map[string]any{
			"paymentType": 2,
			"comment":     "note",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var rec models.PaymentRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
		assert.Equal(t, models.PaymentTypeTravel, rec.PaymentType)
		assert.Equal(t, "note", rec.Comment)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		router, _ := setup(t)

		w := doJSON(t, router, "PUT", "/api/v1/payments/1", &ownerAddr, map[string]any{
			"paymentType": 2,
			"comment":     "x",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin edit stores audit suffix", func(t *testing.T) {
		router, _ := setup(t)

		w := doJSON(t, router, "PUT", "/api/v1/payments/1", &adminAddr, map[string]any{
			"paymentType": 2,
			"comment":     "x",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var rec models.PaymentRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
		assert.Equal(t, "x (updated by "+adminAddr.String()+")", rec.Comment)
	})

	t.Run("unknown id", func(t *testing.T) {
		router, _ := setup(t)

		w := doJSON(t, router, "PUT", "/api/v1/payments/99", &ownerAddr, map[string]any{
			"paymentType": 1,
			"comment":     "",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTokenHandler_Reads(t *testing.T) {
	router, engine := newTestRouter(t)
	_, err := engine.Transfer(ownerAddr, userAddr, vlc(100))
	require.NoError(t, err)

	t.Run("balance enquiry is public", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/accounts/"+userAddr.String()+"/balance", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Balance string `json:"balance"`
			Display string `json:"display"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, vlc(100).String(), resp.Balance)
		assert.Equal(t, "100", resp.Display)
	})

	t.Run("unknown account balance reads zero", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/accounts/"+testAddr(0x77).String()+"/balance", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"display":"0"`)
	})

	t.Run("total supply is public", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/supply", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"display":"1000"`)
	})

	t.Run("payment by global id", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/payments/0", &userAddr, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var rec models.PaymentRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
		assert.Equal(t, ownerAddr, rec.Sender)
		assert.Equal(t, userAddr, rec.Recipient)
	})

	t.Run("payment by account and index", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/accounts/"+ownerAddr.String()+"/payments/0", &userAddr, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("stale id yields 404", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/payments/42", &userAddr, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list payments by account", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/accounts/"+ownerAddr.String()+"/payments", &userAddr, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
	})

	t.Run("bad address rejected", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/accounts/nonsense/balance", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
