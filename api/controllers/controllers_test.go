package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/catalog"
	"github.com/cleanmatch/cleanmatch-backend/internal/orders"
	"github.com/cleanmatch/cleanmatch-backend/internal/otp"
	"github.com/cleanmatch/cleanmatch-backend/internal/reviews"
	"github.com/cleanmatch/cleanmatch-backend/internal/users"
	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
)

type errorBody struct {
	Error        string         `json:"error"`
	Code         string         `json:"code"`
	Details      map[string]any `json:"details"`
	ShouldSignIn bool           `json:"shouldSignIn"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body
}

type stubUserService struct {
	input users.UpsertUserInput
	actor authz.Actor
	getID string
	err   error
}

func (s *stubUserService) Upsert(_ context.Context, actor authz.Actor, input users.UpsertUserInput) (*users.UserDTO, error) {
	s.actor = actor
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: input.ID, Email: input.Email, Role: enums.RoleCustomer}, nil
}

func (s *stubUserService) Get(_ context.Context, _ authz.Actor, id string) (*users.UserDTO, error) {
	s.getID = id
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: id, HasShop: true}, nil
}

func TestUserUpsertMapsBody(t *testing.T) {
	svc := &stubUserService{}
	handler := UserUpsert(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"uid":"u1","email":"a@example.com","name":"Ann","role":"shop_owner","intent":"signup","age":"34","dob":"1990-01-01"}`))
	actor := authz.Actor{UserID: "u1", Authenticated: true}
	req = req.WithContext(authz.WithActor(req.Context(), actor))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.actor != actor {
		t.Fatalf("actor not forwarded: %+v", svc.actor)
	}
	if svc.input.ID != "u1" || svc.input.Role != "shop_owner" || svc.input.Intent != "signup" {
		t.Fatalf("unexpected input %+v", svc.input)
	}
	if svc.input.Age == nil || *svc.input.Age != 34 {
		t.Fatalf("expected age 34 from string, got %v", svc.input.Age)
	}
	if svc.input.DateOfBirth == nil || *svc.input.DateOfBirth != "1990-01-01" {
		t.Fatalf("expected dob forwarded")
	}
}

func TestUserUpsertRejectsMissingAndUnknownFields(t *testing.T) {
	svc := &stubUserService{}
	handler := UserUpsert(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"email":"a@example.com"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Error != "Missing required fields" || body.Details["uid"] != "is required" {
		t.Fatalf("unexpected error body %+v", body)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"uid":"u1","email":"a@example.com","isAdmin":true}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"uid":"u1","email":"a@example.com","age":-1}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative age got %d", rec.Code)
	}
}

func TestUserUpsertAccountExistsSignalsSignIn(t *testing.T) {
	svc := &stubUserService{err: pkgerrors.New(pkgerrors.CodeAccountExists, "An account with this email already exists. Please sign in.")}
	rec := httptest.NewRecorder()
	UserUpsert(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"uid":"u1","email":"a@example.com","intent":"signup"}`)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if body := decodeError(t, rec); !body.ShouldSignIn || body.Code != string(pkgerrors.CodeAccountExists) {
		t.Fatalf("expected shouldSignIn, got %+v", body)
	}
}

func TestUserGetReadsPathParam(t *testing.T) {
	svc := &stubUserService{}
	r := chi.NewRouter()
	r.Get("/api/users/{userId}", UserGet(svc, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/u42", nil))
	if rec.Code != http.StatusOK || svc.getID != "u42" {
		t.Fatalf("expected lookup of u42, code=%d id=%q", rec.Code, svc.getID)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/missing", nil))
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Error != "User not found" {
		t.Fatalf("expected 404 User not found, got %d %s", rec.Code, rec.Body.String())
	}
}

type stubCatalogService struct {
	filter catalog.ListFilter
	added  catalog.AddServiceInput
}

func (s *stubCatalogService) List(_ context.Context, filter catalog.ListFilter) ([]catalog.ServiceDTO, error) {
	s.filter = filter
	return []catalog.ServiceDTO{}, nil
}

func (s *stubCatalogService) Add(_ context.Context, _ authz.Actor, input catalog.AddServiceInput) (*catalog.ServiceDTO, error) {
	s.added = input
	return &catalog.ServiceDTO{ID: uuid.New(), Name: input.Name, Price: input.Price}, nil
}

func TestServiceAddRequiresPrice(t *testing.T) {
	svc := &stubCatalogService{}
	handler := ServiceAdd(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/services", strings.NewReader(`{"uid":"o1","name":"Wash"}`)))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Details["price"] != "is required" {
		t.Fatalf("expected price required, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/services", strings.NewReader(`{"uid":"o1","name":"Wash","price":0}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("zero price is allowed, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/services", strings.NewReader(`{"uid":"o1","name":"Dry clean","price":"12.50","category":"Dry"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !svc.added.Price.Equal(decimal.RequireFromString("12.5")) || svc.added.Category != "Dry" {
		t.Fatalf("unexpected input %+v", svc.added)
	}
}

func TestServiceListForwardsFilters(t *testing.T) {
	svc := &stubCatalogService{}
	rec := httptest.NewRecorder()
	ServiceList(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/services?uid=%20o1%20&shopId=s1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.filter.OwnerID != "o1" || svc.filter.ShopID != "s1" {
		t.Fatalf("unexpected filter %+v", svc.filter)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

type stubOrderService struct {
	filter  orders.ListFilter
	created orders.CreateOrderInput
	orderID string
	status  string
	err     error
}

func (s *stubOrderService) Create(_ context.Context, _ authz.Actor, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &orders.OrderDTO{ID: uuid.New(), CustomerID: input.CustomerID, TotalAmount: input.TotalAmount, Status: enums.OrderStatusPending}, nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ authz.Actor, orderID, status string) (*orders.OrderDTO, error) {
	s.orderID, s.status = orderID, status
	if s.err != nil {
		return nil, s.err
	}
	return &orders.OrderDTO{Status: enums.OrderStatus(status)}, nil
}

func (s *stubOrderService) List(_ context.Context, _ authz.Actor, filter orders.ListFilter) ([]orders.OrderDTO, error) {
	s.filter = filter
	return []orders.OrderDTO{}, nil
}

func (s *stubOrderService) CancelStalePending(context.Context, time.Time, int) (int, error) {
	return 0, nil
}

func TestOrderListLimit(t *testing.T) {
	svc := &stubOrderService{}
	handler := OrderList(svc, 20, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders?shopId=s1&customerId=c1", nil))
	if rec.Code != http.StatusOK || svc.filter.Limit != 20 || svc.filter.ShopID != "s1" || svc.filter.CustomerID != "c1" {
		t.Fatalf("unexpected result %d %+v", rec.Code, svc.filter)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders?customerId=c1&limit=5", nil))
	if svc.filter.Limit != 5 {
		t.Fatalf("expected limit 5, got %d", svc.filter.Limit)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders?customerId=c1&limit=21", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit above cap, got %d", rec.Code)
	}
}

func TestOrderCreateDecodesMoneyAndItems(t *testing.T) {
	svc := &stubOrderService{}
	rec := httptest.NewRecorder()
	OrderCreate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"customerId":"c1","shopId":"s1","totalAmount":19.99,"items":{"svc-1":2}}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.created.TotalAmount.Equal(decimal.RequireFromString("19.99")) || svc.created.Items["svc-1"] != 2 {
		t.Fatalf("unexpected input %+v", svc.created)
	}

	rec = httptest.NewRecorder()
	OrderCreate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"customerId":"c1","shopId":"s1"}`)))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error != "Missing required fields" {
		t.Fatalf("expected missing total to fail, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestOrderUpdateStatusRendersInvalidTransition(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "Cannot move order from COMPLETED to PENDING").
		WithDetails(map[string]any{"from": "COMPLETED", "to": "PENDING"})}
	rec := httptest.NewRecorder()
	OrderUpdateStatus(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/orders", strings.NewReader(`{"orderId":"o1","status":"PENDING"}`)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Details["from"] != "COMPLETED" || body.Details["to"] != "PENDING" {
		t.Fatalf("expected transition details, got %+v", body)
	}
	if svc.orderID != "o1" || svc.status != "PENDING" {
		t.Fatalf("unexpected call %q %q", svc.orderID, svc.status)
	}
}

type stubReviewService struct {
	input reviews.CreateReviewInput
}

func (s *stubReviewService) Create(_ context.Context, _ authz.Actor, input reviews.CreateReviewInput) (*reviews.ReviewDTO, error) {
	s.input = input
	if input.Rating < reviews.MinRating || input.Rating > reviews.MaxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rating must be 1-5")
	}
	return &reviews.ReviewDTO{ID: uuid.New(), Rating: input.Rating, Comment: input.Comment}, nil
}

func (s *stubReviewService) List(context.Context, string) ([]reviews.ReviewDTO, error) {
	return []reviews.ReviewDTO{}, nil
}

func TestReviewCreateLeavesRatingToService(t *testing.T) {
	svc := &stubReviewService{}
	rec := httptest.NewRecorder()
	ReviewCreate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{"customerId":"c1","shopId":"s1","rating":0}`)))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error != "Rating must be 1-5" {
		t.Fatalf("expected rating error, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ReviewCreate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{"customerId":"c1","shopId":"s1","rating":5,"comment":"  great  "}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.input.Comment == nil || *svc.input.Comment != "great" {
		t.Fatalf("expected trimmed comment, got %v", svc.input.Comment)
	}
}

type stubOTPService struct {
	email, code string
	err         error
}

func (s *stubOTPService) Issue(_ context.Context, email, _ string) (*otp.IssueResult, error) {
	s.email = email
	if s.err != nil {
		return nil, s.err
	}
	return &otp.IssueResult{Success: true, Message: "OTP sent successfully", ExpiresIn: 600}, nil
}

func (s *stubOTPService) Verify(_ context.Context, email, code string) (*otp.VerifyResult, error) {
	s.email, s.code = email, code
	if s.err != nil {
		return nil, s.err
	}
	return &otp.VerifyResult{Success: true, Message: "OTP verified successfully"}, nil
}

func TestAuthSendOTP(t *testing.T) {
	svc := &stubOTPService{}
	rec := httptest.NewRecorder()
	AuthSendOTP(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", strings.NewReader(`{"email":"a@example.com","name":"Ann"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var result otp.IssueResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Success || result.ExpiresIn != 600 {
		t.Fatalf("unexpected result %+v", result)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeRateLimit, "Too many OTP requests. Please try again later.")
	rec = httptest.NewRecorder()
	AuthSendOTP(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", strings.NewReader(`{"email":"a@example.com"}`)))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
}

func TestAuthVerifyOTPDistinguishesExpiry(t *testing.T) {
	svc := &stubOTPService{err: pkgerrors.New(pkgerrors.CodeOTPExpired, "OTP has expired. Please request a new code.")}
	rec := httptest.NewRecorder()
	AuthVerifyOTP(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", strings.NewReader(`{"email":"a@example.com","otp":"123456"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != string(pkgerrors.CodeOTPExpired) {
		t.Fatalf("expected OTP_EXPIRED, got %+v", body)
	}
	if svc.code != "123456" {
		t.Fatalf("code not forwarded")
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("refused") })

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": up, "redis": nil}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}
	if rec.Header().Get("X-CleanMatch-Env") != "test" {
		t.Fatalf("expected env header")
	}

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": up, "redis": down}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestNilServicesAreInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	ShopList(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/shops", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected body %+v", body)
	}
}
