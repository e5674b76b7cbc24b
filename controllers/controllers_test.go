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

	"lendingdesk/middleware"
	"lendingdesk/models"
	"lendingdesk/services"
	"lendingdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	testTenantID = uuid.New()
	testUser     = models.User{ID: uuid.New(), Email: "op@lending.test", Role: models.RoleOperator, TenantID: &testTenantID}
)

func withCaller(c *gin.Context) {
	middleware.SetClaims(c, &utils.AccessClaims{UserID: testUser.ID, Email: testUser.Email, Role: string(testUser.Role)})
	middleware.SetRequestContext(c, services.NewRequestContext(testUser, &testTenantID))
	c.Next()
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

type fakeLedger struct {
	deposit      services.DepositInput
	disbursement services.DisbursementInput
	err          error
}

func (f *fakeLedger) Deposit(_ context.Context, rc services.RequestContext, in services.DepositInput) (*services.EntryResult, error) {
	f.deposit = in
	if f.err != nil {
		return nil, f.err
	}
	return &services.EntryResult{
		Account:     models.Account{ID: in.AccountID, TenantID: *rc.TenantID, CurrentBalance: decimal.RequireFromString("51500")},
		Transaction: models.AccountTransaction{AccountID: in.AccountID, Type: models.TransactionTypeCredit, Amount: in.Amount, Description: in.Description},
	}, nil
}

func (f *fakeLedger) Withdraw(context.Context, services.RequestContext, services.WithdrawalInput) (*services.EntryResult, error) {
	return nil, f.err
}

func (f *fakeLedger) DisburseLoan(_ context.Context, _ services.RequestContext, in services.DisbursementInput) (*models.Loan, error) {
	f.disbursement = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Loan{ID: uuid.New(), ClientID: in.ClientID, PrincipalAmount: in.PrincipalAmount, Status: models.LoanStatusActive, DueDate: in.DueDate}, nil
}

func (f *fakeLedger) RegisterLoanPayment(context.Context, services.RequestContext, services.LoanPaymentInput) (*services.LoanPaymentResult, error) {
	return nil, f.err
}

func ledgerRouter(ledger *fakeLedger) *gin.Engine {
	lc := NewLedgerController(ledger)
	r := gin.New()
	r.Use(withCaller)
	r.POST("/accounts/:id/deposit", lc.Deposit)
	r.POST("/loans", lc.DisburseLoan)
	return r
}

func TestDeposit_CreatedEnvelope(t *testing.T) {
	ledger := &fakeLedger{}
	accountID := uuid.New()

	w := doJSON(ledgerRouter(ledger), http.MethodPost, "/accounts/"+accountID.String()+"/deposit", `{"amount": 1500, "description": "cash"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body, "account")
	assert.Contains(t, body, "transaction")
	assert.Equal(t, accountID, ledger.deposit.AccountID)
	assert.Equal(t, "1500", ledger.deposit.Amount.String())
	assert.Equal(t, "cash", ledger.deposit.Description)
}

func TestDeposit_ErrorMapping(t *testing.T) {
	w := doJSON(ledgerRouter(&fakeLedger{}), http.MethodPost, "/accounts/not-a-uuid/deposit", `{"amount": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["details"])

	w = doJSON(ledgerRouter(&fakeLedger{}), http.MethodPost, "/accounts/"+uuid.NewString()+"/deposit", `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	notFound := &fakeLedger{err: services.NewNotFound("account not found")}
	w = doJSON(ledgerRouter(notFound), http.MethodPost, "/accounts/"+uuid.NewString()+"/deposit", `{"amount": 10}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "account not found", decodeBody(t, w)["message"])

	invalid := &fakeLedger{err: services.NewValidationError("validation failed", utils.FieldError{Field: "amount", Message: "must be greater than 0"})}
	w = doJSON(ledgerRouter(invalid), http.MethodPost, "/accounts/"+uuid.NewString()+"/deposit", `{"amount": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	details := decodeBody(t, w)["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "amount", details[0].(map[string]interface{})["field"])
}

func TestDisburseLoan_ParsesDueDate(t *testing.T) {
	ledger := &fakeLedger{}
	clientID := uuid.New()

	w := doJSON(ledgerRouter(ledger), http.MethodPost, "/loans",
		`{"clientId":"`+clientID.String()+`","principalAmount":"10000","interestRate":5,"dueDate":"2030-06-30"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])
	assert.Equal(t, clientID, ledger.disbursement.ClientID)
	assert.Nil(t, ledger.disbursement.AccountID)
	assert.Equal(t, time.Date(2030, 6, 30, 0, 0, 0, 0, time.UTC), ledger.disbursement.DueDate)

	w = doJSON(ledgerRouter(ledger), http.MethodPost, "/loans",
		`{"clientId":"`+clientID.String()+`","principalAmount":"10000","interestRate":5,"dueDate":"30/06/2030"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondError_HidesInternalDetailInProduction(t *testing.T) {
	failing := &fakeLedger{err: errors.New("pq: connection refused")}

	SetExposeInternalErrors(false)
	w := doJSON(ledgerRouter(failing), http.MethodPost, "/accounts/"+uuid.NewString()+"/deposit", `{"amount": 10}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "internal server error", body["message"])
	assert.NotContains(t, w.Body.String(), "connection refused")

	SetExposeInternalErrors(true)
	defer SetExposeInternalErrors(false)
	w = doJSON(ledgerRouter(failing), http.MethodPost, "/accounts/"+uuid.NewString()+"/deposit", `{"amount": 10}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

type fakeAuth struct {
	logoutErr   error
	loggedOut   string
	forgotCalls int
}

func (f *fakeAuth) Login(_ context.Context, in services.LoginInput) (*services.Session, error) {
	if in.Password != "Secret#123" {
		return nil, services.NewUnauthorized("invalid credentials")
	}
	return &services.Session{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900, User: testUser}, nil
}

func (f *fakeAuth) Refresh(context.Context, string) (*services.Session, error) {
	return nil, services.NewUnauthorized("invalid refresh token")
}

func (f *fakeAuth) Logout(_ context.Context, _ uuid.UUID, raw string) error {
	f.loggedOut = raw
	return f.logoutErr
}

func (f *fakeAuth) ForgotPassword(context.Context, services.ForgotPasswordInput) error {
	f.forgotCalls++
	return nil
}

func (f *fakeAuth) ResetPassword(_ context.Context, in services.ResetPasswordInput) error {
	if in.Token != "good" {
		return services.NewValidationError("invalid or expired reset token")
	}
	return nil
}

func (f *fakeAuth) ChangePassword(context.Context, uuid.UUID, services.ChangePasswordInput) error {
	return nil
}

type fakeProfiles struct{}

func (fakeProfiles) Profile(_ context.Context, id uuid.UUID) (*models.User, error) {
	if id != testUser.ID {
		return nil, services.NewNotFound("user not found")
	}
	u := testUser
	return &u, nil
}

func authRouter(auth *fakeAuth) *gin.Engine {
	ac := NewAuthController(auth, fakeProfiles{})
	r := gin.New()
	r.POST("/auth/login", ac.Login)
	r.POST("/auth/refresh", ac.Refresh)
	r.POST("/auth/forgot-password", ac.ForgotPassword)
	r.POST("/auth/reset-password", ac.ResetPassword)
	authed := r.Group("/", withCaller)
	authed.POST("/auth/logout", ac.Logout)
	authed.GET("/auth/me", ac.Me)
	return r
}

func TestLogin_ResponseShape(t *testing.T) {
	r := authRouter(&fakeAuth{})

	w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"op@lending.test","password":"Secret#123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "access", body["token"])
	assert.Equal(t, "refresh", body["refreshToken"])
	assert.Equal(t, float64(900), body["expiresIn"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, testUser.Email, user["email"])
	assert.NotContains(t, user, "passwordHash")

	w = doJSON(r, http.MethodPost, "/auth/login", `{"email":"op@lending.test","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/refresh", `{"refreshToken":"used"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_IsBestEffort(t *testing.T) {
	auth := &fakeAuth{logoutErr: errors.New("database down")}

	w := doJSON(authRouter(auth), http.MethodPost, "/auth/logout", `{"refreshToken":"abc"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "abc", auth.loggedOut)

	w = doJSON(authRouter(auth), http.MethodPost, "/auth/logout", ``)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "", auth.loggedOut)
}

func TestPasswordResetFlowStatuses(t *testing.T) {
	auth := &fakeAuth{}
	r := authRouter(auth)

	w := doJSON(r, http.MethodPost, "/auth/forgot-password", `{"email":"unknown@lending.test"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, auth.forgotCalls)

	w = doJSON(r, http.MethodPost, "/auth/reset-password", `{"token":"good","password":"NewSecret#456"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/reset-password", `{"token":"used","password":"NewSecret#456"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe(t *testing.T) {
	w := doJSON(authRouter(&fakeAuth{}), http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, testUser.ID.String(), data["id"])
}

type fakeBalances struct {
	owner *uuid.UUID
}

func (f *fakeBalances) TotalBalance(_ context.Context, _ services.RequestContext, ownerID *uuid.UUID) (decimal.Decimal, error) {
	f.owner = ownerID
	return decimal.RequireFromString("41500"), nil
}

func (f *fakeBalances) ListTransactions(context.Context, services.RequestContext, uuid.UUID, utils.Page) ([]models.AccountTransaction, utils.PageMeta, error) {
	return []models.AccountTransaction{}, utils.Page{Page: 1, PageSize: 20}.Meta(0), nil
}

func TestTotalBalance(t *testing.T) {
	balances := &fakeBalances{}
	ac := NewAccountController(nil, balances)
	r := gin.New()
	r.Use(withCaller)
	r.GET("/v1/accounts/total-balance", ac.TotalBalance)
	r.GET("/v1/accounts/:id/transactions", ac.Transactions)

	w := doJSON(r, http.MethodGet, "/v1/accounts/total-balance", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "41500.00", data["balance"])
	assert.Nil(t, balances.owner)

	owner := uuid.New()
	w = doJSON(r, http.MethodGet, "/v1/accounts/total-balance?ownerId="+owner.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, balances.owner)
	assert.Equal(t, owner, *balances.owner)

	w = doJSON(r, http.MethodGet, "/v1/accounts/total-balance?ownerId=bad", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/v1/accounts/"+uuid.NewString()+"/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	meta := decodeBody(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, float64(20), meta["pageSize"])
}

type fakePostal struct{}

func (fakePostal) Lookup(_ context.Context, raw string) (*services.PostalAddress, error) {
	if raw != "01310-100" {
		return nil, services.NewValidationError("postal code not found")
	}
	return &services.PostalAddress{PostalCode: "01310100", City: "São Paulo", State: "SP"}, nil
}

func TestPostalCodeAndHealth(t *testing.T) {
	sc := NewSystemController(fakePostal{}, nil)
	r := gin.New()
	r.GET("/health", sc.Health)
	r.GET("/v1/postal-codes/:code", sc.PostalCode)

	w := doJSON(r, http.MethodGet, "/v1/postal-codes/01310-100", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "01310100", decodeBody(t, w)["data"].(map[string]interface{})["postalCode"])

	w = doJSON(r, http.MethodGet, "/v1/postal-codes/99999999", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}
