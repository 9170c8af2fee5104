package controllers

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/foodorder-backend/internal/cart"
	"github.com/angelmondragon/foodorder-backend/internal/catalog"
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
)

type memSlot struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memSlot) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memSlot) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	}
	return nil
}

func (m *memSlot) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type cartKeys struct{}

func (cartKeys) CartKey(userID string) string { return "cart:" + userID }

func newCartService(t *testing.T) cart.Service {
	t.Helper()
	svc, err := cart.NewService(cart.ServiceParams{
		Slot:    &memSlot{data: map[string]string{}},
		Keys:    cartKeys{},
		Catalog: catalog.NewProvider(),
		Logger:  logger.Nop(),
	})
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	return svc
}

func TestCartRequiresUser(t *testing.T) {
	resp := serve(t, http.MethodGet, "/cart", "/cart", "", CartGet(newCartService(t), nil), nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddUpdateRemove(t *testing.T) {
	svc := newCartService(t)
	claims := testClaims(enums.UserRoleCustomer)

	resp := serve(t, http.MethodPost, "/cart/items", "/cart/items",
		`{"restaurant":"jollibee","item":"Chickenjoy with Coke Float","quantity":2}`, CartAddItem(svc, nil), claims)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var view struct {
		Items          []cart.Item `json:"items"`
		TotalItemCount int         `json:"total_item_count"`
	}
	decodeData(t, resp, &view)
	if view.TotalItemCount != 2 || len(view.Items) != 1 {
		t.Fatalf("unexpected cart %+v", view)
	}

	escaped := url.PathEscape(cart.ItemID("Jollibee", "Chickenjoy with Coke Float"))
	resp = serve(t, http.MethodPatch, "/cart/items/{itemId}", "/cart/items/"+escaped, `{"quantity":5}`, CartSetQuantity(svc, nil), claims)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	decodeData(t, resp, &view)
	if view.TotalItemCount != 5 {
		t.Fatalf("expected quantity 5, got %d", view.TotalItemCount)
	}

	resp = serve(t, http.MethodDelete, "/cart/items/{itemId}", "/cart/items/"+escaped, "", CartRemoveItem(svc, nil), claims)
	decodeData(t, resp, &view)
	if view.TotalItemCount != 0 || len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestCartSetQuantityRequiresValue(t *testing.T) {
	resp := serve(t, http.MethodPatch, "/cart/items/{itemId}", "/cart/items/x", `{}`, CartSetQuantity(newCartService(t), nil), testClaims(enums.UserRoleCustomer))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClearReturnsNoContent(t *testing.T) {
	resp := serve(t, http.MethodDelete, "/cart", "/cart", "", CartClear(newCartService(t), nil), testClaims(enums.UserRoleCustomer))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
}
