package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/auth"
	"github.com/oakmart/storefront/internal/domain/order"
	"github.com/oakmart/storefront/internal/domain/pricing"
	"github.com/oakmart/storefront/internal/domain/product"
)

const testPepper = "test-pepper"
const adminKey = "admin-secret"

// memProducts is an in-memory product.Repository for handler tests.
type memProducts struct {
	mu    sync.Mutex
	items map[string]product.Product
}

func newMemProducts(ps ...product.Product) *memProducts {
	m := &memProducts{items: make(map[string]product.Product)}
	for _, p := range ps {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) List(_ context.Context, f product.Filter) (*product.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []product.Product
	for _, p := range m.items {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if !f.IncludeInactive && p.Status != product.StatusActive {
			continue
		}
		out = append(out, p)
	}
	return &product.Page{Products: out, Total: len(out)}, nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.items[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) GetBySlug(_ context.Context, slug string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *memProducts) GetBySKU(_ context.Context, sku string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *memProducts) Create(_ context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.SKU == p.SKU {
			return product.ErrDuplicateSKU
		}
		if existing.Slug == p.Slug {
			return product.ErrDuplicateSlug
		}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	m.items[p.ID] = *p
	return nil
}

func (m *memProducts) Update(_ context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID]; !ok {
		return product.ErrNotFound
	}
	m.items[p.ID] = *p
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return product.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memProducts) HasOrders(_ context.Context, _ string) (bool, error) {
	return false, nil
}

var _ product.Repository = (*memProducts)(nil)

// memOrders is an in-memory order.Repository.
type memOrders struct {
	mu     sync.Mutex
	orders map[string]order.Order
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]order.Order)}
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) NumberExists(_ context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

var _ order.Repository = (*memOrders)(nil)

// memSnapshots is an in-memory cart.Snapshots store.
type memSnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{data: make(map[string][]byte)}
}

func (m *memSnapshots) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memSnapshots) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *memSnapshots) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// memImages records uploads without touching disk.
type memImages struct {
	saved []string
}

func (m *memImages) Save(_ context.Context, originalName string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	url := "/uploads/products/" + uuid.New().String()
	m.saved = append(m.saved, originalName)
	return url, nil
}

// memKeys serves a single admin API key.
type memKeys struct {
	hash string
}

func newMemKeys(key string) *memKeys {
	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(key))
	return &memKeys{hash: hex.EncodeToString(mac.Sum(nil))}
}

func (m *memKeys) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	if hash != m.hash {
		return nil, errors.New("api key not found")
	}
	return &auth.APIKeyInfo{
		ID:      "key-1",
		KeyHash: m.hash,
		Name:    "test admin",
		Scopes:  []string{auth.ScopeAdmin},
	}, nil
}

var _ auth.Repository = (*memKeys)(nil)

type testEnv struct {
	mux      *http.ServeMux
	products *memProducts
	orders   *memOrders
	carts    *memSnapshots
	images   *memImages
}

func newTestEnv(t *testing.T, products ...product.Product) *testEnv {
	t.Helper()

	env := &testEnv{
		products: newMemProducts(products...),
		orders:   newMemOrders(),
		carts:    newMemSnapshots(),
		images:   &memImages{},
	}

	policy := pricing.Policy{
		TaxRate:        decimal.RequireFromString("0.05"),
		ShippingFee:    decimal.RequireFromString("9.99"),
		FreeShippingAt: decimal.RequireFromString("100"),
	}
	svc := order.NewService(env.products, env.orders, policy, nil, nil)

	h := New(
		Config{},
		env.products,
		svc,
		env.carts,
		env.images,
		newMemKeys(adminKey),
		[]byte(testPepper),
	)
	env.mux = h.Routes()
	return env
}

func (e *testEnv) do(method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func asAdmin() map[string]string {
	return map[string]string{"api_key": adminKey}
}

func testProduct(id, name string, price string, stock int) product.Product {
	return product.Product{
		ID:     id,
		Name:   name,
		Slug:   strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		SKU:    "SKU-" + id[:8],
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: product.StatusActive,
	}
}
