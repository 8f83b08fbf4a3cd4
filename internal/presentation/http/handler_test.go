package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	appCatalog "github.com/alxiri/fulfillment/internal/application/catalog"
	appOrder "github.com/alxiri/fulfillment/internal/application/order"
	appReceipt "github.com/alxiri/fulfillment/internal/application/receipt"
	"github.com/alxiri/fulfillment/internal/domain/rbac"
	"github.com/alxiri/fulfillment/internal/infrastructure/memory"
	"github.com/alxiri/fulfillment/internal/infrastructure/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server *httptest.Server
	client *http.Client
}

// newFixture wires the full stack behind an httptest server: catalog and order
// role tables, token ledger, receipt log, no event bus. The admin account holds
// PRODUCT on the catalog, as does the engine treasury.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	catalogAuth := memory.NewRoleStore()
	catalogSvc := appCatalog.NewService(memory.NewCatalogRepository(), catalogAuth)
	require.NoError(t, catalogAuth.Grant(ctx, rbac.RoleProduct, "admin"))
	require.NoError(t, catalogAuth.Grant(ctx, rbac.RoleProduct, "treasury"))

	orderAuth := memory.NewRoleStore()
	coin := token.New()
	orderSvc := appOrder.NewService(
		memory.NewOrderRepository(), catalogSvc, coin, orderAuth, nil, nil, "treasury",
	)
	receiptSvc := appReceipt.NewService(memory.NewReceiptStore(), nil)

	handler := NewHandler(catalogSvc, orderSvc, receiptSvc, coin, catalogAuth, orderAuth, "admin", nil, nil)
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	return &fixture{server: server, client: server.Client()}
}

func (f *fixture) do(t *testing.T, method, path, account string, body any) *http.Response {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, f.server.URL+path, payload)
	require.NoError(t, err)
	if account != "" {
		req.Header.Set("X-Account", account)
	}

	resp, err := f.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func (f *fixture) registerPijamas(t *testing.T) {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/catalog/products", "admin", map[string]any{
		"name":        "pijamas",
		"description": "pijamas de algodon",
		"total":       5000,
		"price":       3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func (f *fixture) fundBuyer(t *testing.T, balance, allowance int64) {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/token/mint", "admin", map[string]any{
		"account": "bob", "amount": balance,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/token/approve", "bob", map[string]any{
		"spender": "treasury", "amount": allowance,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (f *fixture) grantOrderRole(t *testing.T, role, identity string) {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/roles/orders", "admin", map[string]any{
		"role": role, "identity": identity,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (f *fixture) placePijamasOrder(t *testing.T) int64 {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/orders", "bob", map[string]any{
		"product":          "pijamas",
		"quantity":         30,
		"delivery_address": "Lince/Av Arenales 1120",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var placed struct {
		OrderID int64  `json:"order_id"`
		Stage   string `json:"stage"`
		Amount  int64  `json:"amount"`
	}
	decode(t, resp, &placed)
	assert.Equal(t, "creado", placed.Stage)
	assert.Equal(t, int64(90), placed.Amount)
	return placed.OrderID
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/health", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterProductRequiresAccountHeader(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/catalog/products", "", map[string]any{
		"name": "polo", "total": 10, "price": 1,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterProductRequiresProductRole(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/catalog/products", "mallory", map[string]any{
		"name": "polo", "total": 10, "price": 1,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRegisterAndGetProduct(t *testing.T) {
	f := newFixture(t)
	f.registerPijamas(t)

	resp := f.do(t, http.MethodGet, "/catalog/products/pijamas", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var product struct {
		Name  string `json:"name"`
		Total int    `json:"total"`
		State string `json:"state"`
		Price int64  `json:"price"`
	}
	decode(t, resp, &product)
	assert.Equal(t, "pijamas", product.Name)
	assert.Equal(t, 5000, product.Total)
	assert.Equal(t, int64(3), product.Price)
}

func TestGetUnknownProduct(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/catalog/products/ghost", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture(t)
	f.registerPijamas(t)

	resp := f.do(t, http.MethodPut, "/catalog/products/pijamas", "admin", map[string]any{
		"total": 6000, "price": 0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var product struct {
		Total int   `json:"total"`
		Price int64 `json:"price"`
	}
	decode(t, resp, &product)
	assert.Equal(t, 6000, product.Total)
	assert.Equal(t, int64(3), product.Price)
}

func TestPlaceOrderInsufficientAllowance(t *testing.T) {
	f := newFixture(t)
	f.registerPijamas(t)
	f.fundBuyer(t, 90, 10)

	resp := f.do(t, http.MethodPost, "/orders", "bob", map[string]any{
		"product": "pijamas", "quantity": 30, "delivery_address": "Lince/Av Arenales 1120",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	f.registerPijamas(t)
	f.fundBuyer(t, 90, 90)
	f.grantOrderRole(t, "WORKFLOW_ROLE", "carl")
	f.grantOrderRole(t, "COURIER_ROLE", "deysi")

	id := f.placePijamasOrder(t)
	assert.Equal(t, int64(0), id)

	// Stock got decremented as part of the placement.
	resp := f.do(t, http.MethodGet, "/catalog/products/pijamas", "", nil)
	var product struct {
		Total int `json:"total"`
	}
	decode(t, resp, &product)
	assert.Equal(t, 4970, product.Total)

	// Buyer balance is drained by the order.
	resp = f.do(t, http.MethodGet, "/token/balances/bob", "", nil)
	var balance struct {
		Balance int64 `json:"balance"`
	}
	decode(t, resp, &balance)
	assert.Zero(t, balance.Balance)

	for _, stage := range []string{"corte", "acabados", "despacho"} {
		resp = f.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/advance", id), "carl", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var advanced struct {
			Stage string `json:"stage"`
		}
		decode(t, resp, &advanced)
		assert.Equal(t, stage, advanced.Stage)
	}

	// Past despacho, advancing conflicts; delivery is the courier's call.
	resp = f.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/advance", id), "carl", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/deliver", id), "deysi", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var delivered struct {
		Stage   string `json:"stage"`
		History []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"history"`
	}
	decode(t, resp, &delivered)
	assert.Equal(t, "cliente", delivered.Stage)
	require.Len(t, delivered.History, 4)
	assert.Equal(t, "despacho", delivered.History[3].From)
	assert.Equal(t, "cliente", delivered.History[3].To)

	resp = f.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", id), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tracked struct {
		Buyer           string `json:"buyer"`
		Stage           string `json:"stage"`
		DeliveryAddress string `json:"delivery_address"`
	}
	decode(t, resp, &tracked)
	assert.Equal(t, "bob", tracked.Buyer)
	assert.Equal(t, "cliente", tracked.Stage)
	assert.Equal(t, "Lince/Av Arenales 1120", tracked.DeliveryAddress)
}

func TestAdvanceWithoutWorkflowRole(t *testing.T) {
	f := newFixture(t)
	f.registerPijamas(t)
	f.fundBuyer(t, 90, 90)
	id := f.placePijamasOrder(t)

	resp := f.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/advance", id), "mallory", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTrackUnknownOrder(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/orders/42", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrackOrderRejectsNonNumericID(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/orders/abc", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGrantRoleRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/roles/orders", "admin", map[string]any{
		"role": "SUPERUSER", "identity": "mallory",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGrantRoleRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	// A caller cannot grant a role to themselves.
	resp := f.do(t, http.MethodPost, "/roles/orders", "mallory", map[string]any{
		"role": "WORKFLOW_ROLE", "identity": "mallory",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/roles/catalog", "mallory", map[string]any{
		"role": "PRODUCT_ROLE", "identity": "mallory",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Anonymous grants are rejected outright.
	resp = f.do(t, http.MethodPost, "/roles/orders", "", map[string]any{
		"role": "WORKFLOW_ROLE", "identity": "mallory",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMintRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/token/mint", "mallory", map[string]any{
		"account": "mallory", "amount": 1000000,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The refused mint left no funds behind.
	resp = f.do(t, http.MethodGet, "/token/balances/mallory", "", nil)
	var balance struct {
		Balance int64 `json:"balance"`
	}
	decode(t, resp, &balance)
	assert.Zero(t, balance.Balance)
}

func TestDepositAndListReceipts(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/receipts/deposit", "bob", map[string]any{
		"concept": "monthly top up", "amount": 500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var entry struct {
		ID      string `json:"id"`
		Account string `json:"account"`
		Amount  int64  `json:"amount"`
	}
	decode(t, resp, &entry)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "bob", entry.Account)

	resp = f.do(t, http.MethodGet, "/receipts?account=bob", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []struct {
		Concept string `json:"concept"`
	}
	decode(t, resp, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "monthly top up", entries[0].Concept)
}

func TestMintRejectsNegativeAmount(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/token/mint", "admin", map[string]any{
		"account": "bob", "amount": -1,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
