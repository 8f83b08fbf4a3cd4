package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	appCatalog "github.com/alxiri/fulfillment/internal/application/catalog"
	appOrder "github.com/alxiri/fulfillment/internal/application/order"
	appReceipt "github.com/alxiri/fulfillment/internal/application/receipt"
	domainCatalog "github.com/alxiri/fulfillment/internal/domain/catalog"
	domainLedger "github.com/alxiri/fulfillment/internal/domain/ledger"
	domainOrder "github.com/alxiri/fulfillment/internal/domain/order"
	"github.com/alxiri/fulfillment/internal/domain/rbac"
	domainReceipt "github.com/alxiri/fulfillment/internal/domain/receipt"
	"github.com/alxiri/fulfillment/internal/observability"
	"github.com/go-chi/chi/v5"
)

const (
	componentHTTPHandler = "http_server"
	// headerAccount carries the caller identity, the wallet address analog.
	headerAccount = "X-Account"
)

// TokenAdmin is the operator surface of the payment ledger: issuing funds and
// managing allowances on behalf of callers.
type TokenAdmin interface {
	Mint(ctx context.Context, account string, amount int64) error
	Approve(ctx context.Context, owner, spender string, amount int64) error
	BalanceOf(ctx context.Context, account string) (int64, error)
	Allowance(ctx context.Context, owner, spender string) (int64, error)
}

type Handler struct {
	catalogService *appCatalog.Service
	orderService   *appOrder.Service
	receiptService *appReceipt.Service
	token          TokenAdmin
	catalogAuth    rbac.Authorizer
	orderAuth      rbac.Authorizer

	// admin is the only identity allowed to grant roles and mint funds.
	admin string

	log observability.Logger
	tel observability.Telemetry
}

func NewHandler(
	catalogSvc *appCatalog.Service,
	orderSvc *appOrder.Service,
	receiptSvc *appReceipt.Service,
	token TokenAdmin,
	catalogAuth rbac.Authorizer,
	orderAuth rbac.Authorizer,
	admin string,
	logger observability.Logger,
	tel observability.Telemetry,
) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Handler{
		catalogService: catalogSvc,
		orderService:   orderSvc,
		receiptService: receiptSvc,
		token:          token,
		catalogAuth:    catalogAuth,
		orderAuth:      orderAuth,
		admin:          admin,
		log:            logger.With(observability.F("component", componentHTTPHandler)),
		tel:            tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Observability(h.log, h.tel))

	r.Get("/health", h.handleHealth)

	r.Route("/catalog/products", func(r chi.Router) {
		r.Post("/", h.handleRegisterProduct)
		r.Get("/", h.handleListProducts)
		r.Put("/{name}", h.handleUpdateProduct)
		r.Get("/{name}", h.handleGetProduct)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.handlePlaceOrder)
		r.Get("/{id}", h.handleTrackOrder)
		r.Post("/{id}/advance", h.handleAdvanceOrder)
		r.Post("/{id}/deliver", h.handleDeliverOrder)
	})

	r.Post("/roles/catalog", h.grantRole(h.catalogAuth))
	r.Post("/roles/orders", h.grantRole(h.orderAuth))

	r.Route("/token", func(r chi.Router) {
		r.Post("/mint", h.handleMint)
		r.Post("/approve", h.handleApprove)
		r.Get("/balances/{account}", h.handleBalance)
	})

	r.Post("/receipts/deposit", h.handleDeposit)
	r.Get("/receipts", h.handleListReceipts)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type registerProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Total       int    `json:"total"`
	Price       int64  `json:"price"`
}

type productResponse struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Total       int                 `json:"total"`
	State       domainCatalog.State `json:"state"`
	Price       int64               `json:"price"`
}

func toProductResponse(p *domainCatalog.Product) productResponse {
	return productResponse{
		Name:        p.Name,
		Description: p.Description,
		Total:       p.Total,
		State:       p.State,
		Price:       p.Price,
	}
}

func (h *Handler) handleRegisterProduct(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.account(w, r)
	if !ok {
		return
	}

	var req registerProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.catalogService.Register(r.Context(), caller, appCatalog.RegisterInput{
		Name:        req.Name,
		Description: req.Description,
		Total:       req.Total,
		Price:       req.Price,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

type updateProductRequest struct {
	Total int   `json:"total"`
	Price int64 `json:"price"`
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.account(w, r)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.catalogService.Update(r.Context(), caller, chi.URLParam(r, "name"), req.Total, req.Price)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogService.GetDetail(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type placeOrderRequest struct {
	Product         string `json:"product"`
	Quantity        int    `json:"quantity"`
	DeliveryAddress string `json:"delivery_address"`
}

type placeOrderResponse struct {
	OrderID int64             `json:"order_id"`
	Stage   domainOrder.Stage `json:"stage"`
	Amount  int64             `json:"amount"`
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.account(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.orderService.PlaceOrder(r.Context(), buyer, appOrder.PlaceOrderInput{
		Product:         req.Product,
		Quantity:        req.Quantity,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, placeOrderResponse{
		OrderID: result.OrderID,
		Stage:   result.Stage,
		Amount:  result.Amount,
	})
}

type stageChangeResponse struct {
	From domainOrder.Stage `json:"from"`
	To   domainOrder.Stage `json:"to"`
	At   time.Time         `json:"at"`
}

type orderResponse struct {
	OrderID         int64                 `json:"order_id"`
	Buyer           string                `json:"buyer"`
	Product         string                `json:"product"`
	Quantity        int                   `json:"quantity"`
	DeliveryAddress string                `json:"delivery_address"`
	Amount          int64                 `json:"amount"`
	Stage           domainOrder.Stage     `json:"stage"`
	CreatedAt       time.Time             `json:"created_at"`
	History         []stageChangeResponse `json:"history"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	history := make([]stageChangeResponse, 0, len(o.History))
	for _, c := range o.History {
		history = append(history, stageChangeResponse{From: c.From, To: c.To, At: c.At})
	}
	return orderResponse{
		OrderID:         o.ID,
		Buyer:           o.Buyer,
		Product:         o.Product,
		Quantity:        o.Quantity,
		DeliveryAddress: o.DeliveryAddress,
		Amount:          o.Amount,
		Stage:           o.Stage,
		CreatedAt:       o.CreatedAt,
		History:         history,
	}
}

func (h *Handler) handleAdvanceOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.account(w, r)
	if !ok {
		return
	}
	id, err := orderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entity, err := h.orderService.AdvanceOrder(r.Context(), caller, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(entity))
}

func (h *Handler) handleDeliverOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.account(w, r)
	if !ok {
		return
	}
	id, err := orderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entity, err := h.orderService.DeliverToCustomer(r.Context(), caller, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(entity))
}

func (h *Handler) handleTrackOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entity, err := h.orderService.TrackOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(entity))
}

type grantRoleRequest struct {
	Role     string `json:"role"`
	Identity string `json:"identity"`
}

func (h *Handler) grantRole(auth rbac.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w, r) {
			return
		}

		var req grantRoleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		role := rbac.Role(req.Role)
		switch role {
		case rbac.RoleProduct, rbac.RoleWorkflow, rbac.RoleCourier:
		default:
			writeError(w, http.StatusBadRequest, errors.New("unknown role"))
			return
		}
		if req.Identity == "" {
			writeError(w, http.StatusBadRequest, errors.New("identity is required"))
			return
		}

		if err := auth.Grant(r.Context(), role, req.Identity); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"role": req.Role, "identity": req.Identity})
	}
}

type mintRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req mintRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.token.Mint(r.Context(), req.Account, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": req.Account, "amount": req.Amount})
}

type approveRequest struct {
	Spender string `json:"spender"`
	Amount  int64  `json:"amount"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.account(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.token.Approve(r.Context(), owner, req.Spender, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owner": owner, "spender": req.Spender, "amount": req.Amount})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	balance, err := h.token.BalanceOf(r.Context(), account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": account, "balance": balance})
}

type depositRequest struct {
	Concept string `json:"concept"`
	Amount  int64  `json:"amount"`
}

type receiptResponse struct {
	ID         string    `json:"id"`
	Account    string    `json:"account"`
	Concept    string    `json:"concept"`
	Amount     int64     `json:"amount"`
	RecordedAt time.Time `json:"recorded_at"`
}

func toReceiptResponse(entry *domainReceipt.Receipt) receiptResponse {
	return receiptResponse{
		ID:         entry.ID,
		Account:    entry.Account,
		Concept:    entry.Concept,
		Amount:     entry.Amount,
		RecordedAt: entry.RecordedAt,
	}
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}

	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entry, err := h.receiptService.Deposit(r.Context(), account, req.Concept, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReceiptResponse(entry))
}

func (h *Handler) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	entries, err := h.receiptService.ListByAccount(r.Context(), r.URL.Query().Get("account"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]receiptResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toReceiptResponse(entry))
	}
	writeJSON(w, http.StatusOK, out)
}

// requireAdmin admits only the configured admin identity.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	caller, ok := h.account(w, r)
	if !ok {
		return false
	}
	if caller != h.admin {
		writeDomainError(w, fmt.Errorf("%w: %s is not the admin account", rbac.ErrUnauthorized, caller))
		return false
	}
	return true
}

// account reads the caller identity header, rejecting anonymous requests.
func (h *Handler) account(w http.ResponseWriter, r *http.Request) (string, bool) {
	account := r.Header.Get(headerAccount)
	if account == "" {
		writeError(w, http.StatusBadRequest, errors.New("X-Account header is required"))
		return "", false
	}
	return account, true
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.New("order id must be an integer")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rbac.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domainCatalog.ErrNotFound),
		errors.Is(err, domainOrder.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainCatalog.ErrDuplicateProduct),
		errors.Is(err, domainOrder.ErrAlreadyTerminal),
		errors.Is(err, domainOrder.ErrNotReadyForDelivery):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domainLedger.ErrInsufficientFunds),
		errors.Is(err, domainLedger.ErrInsufficientAllowance):
		writeError(w, http.StatusPaymentRequired, err)
	case errors.Is(err, domainCatalog.ErrInvalidQuantity),
		errors.Is(err, domainCatalog.ErrInsufficientStock),
		errors.Is(err, domainOrder.ErrInvalidQuantity),
		errors.Is(err, domainLedger.ErrInvalidAmount),
		errors.Is(err, domainReceipt.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
