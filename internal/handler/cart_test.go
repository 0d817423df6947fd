package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addItemBody(productID string, qty int) string {
	return fmt.Sprintf(`{"productId": %q, "quantity": %d}`, productID, qty)
}

func TestGetCartEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/carts/session-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var c cartResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "session-1", c.ID)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.TotalItems)
}

func TestAddCartItemMergesLines(t *testing.T) {
	p := testProduct(uuid.New().String(), "Waffle Maker", "20.00", 5)
	env := newTestEnv(t, p)

	rec := env.do(http.MethodPost, "/api/carts/session-1/items", addItemBody(p.ID, 2), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/carts/session-1/items", addItemBody(p.ID, 2), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var c cartResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 4, c.Items[0].Quantity)
	assert.InDelta(t, 80.0, c.TotalPrice, 0.001)
}

func TestAddCartItemOverStockRejected(t *testing.T) {
	p := testProduct(uuid.New().String(), "Waffle Maker", "20.00", 3)
	env := newTestEnv(t, p)

	rec := env.do(http.MethodPost, "/api/carts/session-1/items", addItemBody(p.ID, 3), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/carts/session-1/items", addItemBody(p.ID, 1), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The rejected mutation left the cart unchanged.
	rec = env.do(http.MethodGet, "/api/carts/session-1", "", nil)
	var c cartResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestAddCartItemUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/carts/session-1/items", addItemBody(uuid.New().String(), 1), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateCartItemQuantity(t *testing.T) {
	p := testProduct(uuid.New().String(), "Waffle Maker", "20.00", 5)
	env := newTestEnv(t, p)

	rec := env.do(http.MethodPost, "/api/carts/session-1/items", addItemBody(p.ID, 2), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPut, "/api/carts/session-1/items/"+p.ID, `{"quantity": 5}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var c cartResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, 5, c.Items[0].Quantity)

	// Zero removes the line.
	rec = env.do(http.MethodPut, "/api/carts/session-1/items/"+p.ID, `{"quantity": 0}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Empty(t, c.Items)
}

func TestUpdateCartItemNotInCart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPut, "/api/carts/session-1/items/"+uuid.New().String(), `{"quantity": 2}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveCartItem(t *testing.T) {
	p := testProduct(uuid.New().String(), "Waffle Maker", "20.00", 5)
	env := newTestEnv(t, p)

	rec := env.do(http.MethodPost, "/api/carts/session-1/items", addItemBody(p.ID, 2), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, "/api/carts/session-1/items/"+p.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var c cartResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Empty(t, c.Items)
}

func TestClearCart(t *testing.T) {
	p := testProduct(uuid.New().String(), "Waffle Maker", "20.00", 5)
	env := newTestEnv(t, p)

	rec := env.do(http.MethodPost, "/api/carts/session-1/items", addItemBody(p.ID, 2), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, "/api/carts/session-1", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/carts/session-1", "", nil)
	var c cartResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Empty(t, c.Items)
}

func TestCartsAreIsolatedBySession(t *testing.T) {
	p := testProduct(uuid.New().String(), "Waffle Maker", "20.00", 5)
	env := newTestEnv(t, p)

	rec := env.do(http.MethodPost, "/api/carts/session-a/items", addItemBody(p.ID, 1), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/carts/session-b", "", nil)
	var c cartResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Empty(t, c.Items)
}
