package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProducts(t *testing.T) {
	env := newTestEnv(t,
		testProduct(uuid.New().String(), "Waffle Maker", "20.00", 5),
		testProduct(uuid.New().String(), "Toaster", "35.50", 3),
	)

	rec := env.do(http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page productPageResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Products, 2)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 12, page.Limit)
}

func TestGetProductBySlugFallback(t *testing.T) {
	p := testProduct(uuid.New().String(), "Waffle Maker", "20.00", 5)
	env := newTestEnv(t, p)

	rec := env.do(http.MethodGet, "/api/products/waffle-maker", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got productResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, p.ID, got.ID)
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/products/"+uuid.New().String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProductRequiresAdminKey(t *testing.T) {
	env := newTestEnv(t)
	body := `{"name": "Kettle", "slug": "kettle", "sku": "K-1", "price": 25.00, "stock": 10}`

	rec := env.do(http.MethodPost, "/api/products", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/products", body, map[string]string{"api_key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/products", body, asAdmin())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got productResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "ACTIVE", got.Status)
	assert.InDelta(t, 25.00, got.Price, 0.001)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	env := newTestEnv(t)
	body := `{"name": "Kettle", "slug": "kettle", "sku": "K-1", "price": 25.00, "stock": 10}`

	rec := env.do(http.MethodPost, "/api/products", body, asAdmin())
	require.Equal(t, http.StatusCreated, rec.Code)

	dup := `{"name": "Kettle Two", "slug": "kettle-two", "sku": "K-1", "price": 30.00, "stock": 2}`
	rec = env.do(http.MethodPost, "/api/products", dup, asAdmin())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"slug": "kettle", "sku": "K-1", "price": 25.00}`},
		{"missing sku", `{"name": "Kettle", "slug": "kettle", "price": 25.00}`},
		{"negative price", `{"name": "Kettle", "slug": "kettle", "sku": "K-1", "price": -1}`},
		{"bad status", `{"name": "Kettle", "slug": "kettle", "sku": "K-1", "price": 1, "status": "GONE"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/products", tt.body, asAdmin())
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	p := testProduct(uuid.New().String(), "Waffle Maker", "20.00", 5)
	env := newTestEnv(t, p)

	body := `{"name": "Waffle Maker Pro", "slug": "waffle-maker", "sku": "` + p.SKU + `", "price": 29.99, "stock": 8}`
	rec := env.do(http.MethodPut, "/api/products/"+p.ID, body, asAdmin())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got productResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Waffle Maker Pro", got.Name)
	assert.Equal(t, 8, got.Stock)
}

func TestUpdateProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	body := `{"name": "Ghost", "slug": "ghost", "sku": "G-1", "price": 1, "stock": 1}`
	rec := env.do(http.MethodPut, "/api/products/"+uuid.New().String(), body, asAdmin())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	p := testProduct(uuid.New().String(), "Waffle Maker", "20.00", 5)
	env := newTestEnv(t, p)

	rec := env.do(http.MethodDelete, "/api/products/"+p.ID, "", asAdmin())
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/products/"+p.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
