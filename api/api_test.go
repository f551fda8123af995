package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mitrahub/mitra"
	"github.com/mitrahub/mitra/config"
	"github.com/mitrahub/mitra/database/mocks"
	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

const testPassword = "rahasia-123"

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	if s.Response != nil {
		if err := json.NewDecoder(resp.Body).Decode(s.Response); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func setupRouter(t *testing.T, overrides ...func(*config.Configuration)) (*gin.Engine, *mocks.MockDataSource) {
	t.Helper()
	mr := miniredis.RunT(t)
	cnf := &config.Configuration{
		ProjectName: "mitra-api-test",
		Redis:       config.RedisConfig{Dns: mr.Addr()},
		Queue:       config.QueueConfig{WebhookQueue: config.DEFAULT_WEBHOOK_QUEUE, MaxRetryAttempts: 3},
		Session:     config.SessionConfig{TTLMinutes: 60},
	}
	for _, override := range overrides {
		override(cnf)
	}
	config.MockConfig(cnf)

	ds := new(mocks.MockDataSource)
	m, err := mitra.NewMitra(ds)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return NewAPI(m).Router(), ds
}

// login registers an admin lookup on ds and returns a live bearer header.
func login(t *testing.T, router *gin.Engine, ds *mocks.MockDataSource) map[string]string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	ds.On("GetAdminByUsername", mock.Anything, "root").
		Return(&model.AdminCredential{Username: "root", PasswordHash: string(hash)}, nil)

	var session model.Session
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/auth/login",
		Payload:  jsonBody(t, map[string]string{"username": "root", "password": testPassword}),
		Response: &session,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotEmpty(t, session.Token)
	return map[string]string{"Authorization": "Bearer " + session.Token}
}

func TestHealthIsOpen(t *testing.T) {
	router, _ := setupRouter(t)
	resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAdminRoutesRequireSession(t *testing.T) {
	router, _ := setupRouter(t)
	var body map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/topups/pending", Response: &body})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestLoginSessionLogout(t *testing.T) {
	router, ds := setupRouter(t)
	auth := login(t, router, ds)

	var session model.Session
	resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/auth/session", Header: auth, Response: &session})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "root", session.Username)

	resp, err = SetUpTestRequest(TestRequest{Router: router, Method: http.MethodPost, Route: "/auth/logout", Header: auth, Response: &map[string]interface{}{}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp, err = SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/auth/session", Header: auth, Response: &map[string]interface{}{}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	router, ds := setupRouter(t)
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	ds.On("GetAdminByUsername", mock.Anything, "root").
		Return(&model.AdminCredential{Username: "root", PasswordHash: string(hash)}, nil)

	var body map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/auth/login",
		Payload:  jsonBody(t, map[string]string{"username": "root", "password": "salah-sandi"}),
		Response: &body,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestRegisterClosedOnceAnAdminExists(t *testing.T) {
	router, ds := setupRouter(t)
	ds.On("CountAdmins", mock.Anything).Return(int64(1), nil)

	var body map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/auth/register",
		Payload:  jsonBody(t, map[string]string{"username": "kedua", "password": testPassword}),
		Response: &body,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	ds.AssertNotCalled(t, "CreateAdmin", mock.Anything, mock.Anything)
}

func TestRegisterFirstAdmin(t *testing.T) {
	router, ds := setupRouter(t)
	ds.On("CountAdmins", mock.Anything).Return(int64(0), nil)
	ds.On("CreateAdmin", mock.Anything, mock.MatchedBy(func(a model.AdminCredential) bool {
		return a.Username == "root" && bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(testPassword)) == nil
	})).Return(&model.AdminCredential{Username: "root"}, nil)

	var admin model.AdminCredential
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/auth/register",
		Payload:  jsonBody(t, map[string]string{"username": "root", "password": testPassword}),
		Response: &admin,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "root", admin.Username)
	ds.AssertExpectations(t)
}

func TestApproveTopUp(t *testing.T) {
	router, ds := setupRouter(t)
	auth := login(t, router, ds)

	ds.On("ApproveTopUp", mock.Anything, model.Settlement{TopUpID: "tup_1", PartnerID: "mtr_1", Amount: 50000, Actor: "root"}).
		Return(
			&model.TopUp{TopUpID: "tup_1", PartnerID: "mtr_1", Amount: 50000, Status: model.TopUpApproved, SettledBy: "root"},
			&model.Credit{CreditID: "cr_tup_1", PartnerID: "mtr_1", Amount: 50000, BalanceBefore: 100000, BalanceAfter: 150000},
			nil,
		)

	var topUp model.TopUp
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPut,
		Route:    "/topups/tup_1/approve",
		Header:   auth,
		Payload:  jsonBody(t, map[string]interface{}{"partner_id": "mtr_1", "amount": 50000}),
		Response: &topUp,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, model.TopUpApproved, topUp.Status)
	assert.Equal(t, "root", topUp.SettledBy)
}

func TestApproveTopUpErrors(t *testing.T) {
	tests := []struct {
		name         string
		body         map[string]interface{}
		storeErr     error
		expectedCode int
		expectedKind string
	}{
		{"already settled", map[string]interface{}{"partner_id": "mtr_1", "amount": 50000}, apierror.NewAPIError(apierror.ErrConflict, "top-up is not pending", nil), http.StatusConflict, "CONFLICT"},
		{"amount mismatch", map[string]interface{}{"partner_id": "mtr_1", "amount": 50000}, apierror.NewAPIError(apierror.ErrInvalidInput, "amount does not match the request", nil), http.StatusBadRequest, "INVALID_INPUT"},
		{"store down", map[string]interface{}{"partner_id": "mtr_1", "amount": 50000}, apierror.NewAPIError(apierror.ErrTransient, "database unavailable", nil), http.StatusServiceUnavailable, "TRANSIENT"},
		{"fractional amount", map[string]interface{}{"partner_id": "mtr_1", "amount": 100.5}, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"negative amount", map[string]interface{}{"partner_id": "mtr_1", "amount": -5}, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing partner", map[string]interface{}{"amount": 5000}, nil, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, ds := setupRouter(t)
			auth := login(t, router, ds)
			if tt.storeErr != nil {
				ds.On("ApproveTopUp", mock.Anything, mock.Anything).Return(nil, nil, tt.storeErr)
			}

			var body map[string]interface{}
			resp, err := SetUpTestRequest(TestRequest{
				Router:   router,
				Method:   http.MethodPut,
				Route:    "/topups/tup_1/approve",
				Header:   auth,
				Payload:  jsonBody(t, tt.body),
				Response: &body,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCode, resp.Code)
			assert.Equal(t, tt.expectedKind, body["code"])
			if tt.storeErr == nil {
				ds.AssertNotCalled(t, "ApproveTopUp", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRejectTopUp(t *testing.T) {
	router, ds := setupRouter(t)
	auth := login(t, router, ds)
	ds.On("RejectTopUp", mock.Anything, "tup_2", "bukti transfer tidak valid", "root").
		Return(&model.TopUp{TopUpID: "tup_2", Status: model.TopUpRejected, RejectionReason: "bukti transfer tidak valid"}, nil)

	var topUp model.TopUp
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPut,
		Route:    "/topups/tup_2/reject",
		Header:   auth,
		Payload:  jsonBody(t, map[string]string{"reason": "bukti transfer tidak valid"}),
		Response: &topUp,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, model.TopUpRejected, topUp.Status)
}

func TestGetTopUpNotFound(t *testing.T) {
	router, ds := setupRouter(t)
	auth := login(t, router, ds)
	ds.On("GetTopUp", mock.Anything, "tup_missing").Return(nil, apierror.NewAPIError(apierror.ErrNotFound, "top-up not found", nil))

	var body map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/topups/tup_missing", Header: auth, Response: &body})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Equal(t, "top-up not found", body["error"])
}

func TestGetAllPartnersRejectsMalformedFilters(t *testing.T) {
	router, ds := setupRouter(t)
	auth := login(t, router, ds)

	var body map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodGet,
		Route:    "/partners?created_at_between=2024-01-01",
		Header:   auth,
		Response: &body,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.NotEmpty(t, body["details"])
	ds.AssertNotCalled(t, "GetAllPartners", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAllPartnersPassesFilters(t *testing.T) {
	router, ds := setupRouter(t)
	auth := login(t, router, ds)
	ds.On("GetAllPartners", mock.Anything,
		mock.MatchedBy(func(f *filter.QueryFilterSet) bool { return f.Len() == 1 }),
		mock.Anything, 10, 20,
	).Return([]model.Partner{{PartnerID: "mtr_1", Name: "Budi"}}, nil)

	var partners []model.Partner
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodGet,
		Route:    "/partners?verification_status_eq=verified&limit=10&offset=20&sort=-balance",
		Header:   auth,
		Response: &partners,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, partners, 1)
	ds.AssertExpectations(t)
}

func TestGetPendingTopUpsPages(t *testing.T) {
	router, ds := setupRouter(t)
	auth := login(t, router, ds)
	ds.On("GetAllTopUps", mock.Anything, mock.Anything, mock.Anything, 50, 100).
		Return([]model.TopUp{{TopUpID: "tup_151", Status: model.TopUpPending}}, nil)

	var topUps []model.TopUp
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodGet,
		Route:    "/topups/pending?limit=50&offset=100",
		Header:   auth,
		Response: &topUps,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, topUps, 1)
	ds.AssertExpectations(t)
}

func TestGetInvoicesBadFrom(t *testing.T) {
	router, ds := setupRouter(t)
	auth := login(t, router, ds)

	var body map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/invoices?from=kemarin", Header: auth, Response: &body})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestSendChatMessage(t *testing.T) {
	router, ds := setupRouter(t)
	auth := login(t, router, ds)
	ds.On("GetPartnerByID", mock.Anything, "mtr_1").Return(&model.Partner{PartnerID: "mtr_1"}, nil)
	ds.On("CreateChatMessage", mock.Anything, mock.MatchedBy(func(msg model.ChatMessage) bool {
		return msg.ToID == "mtr_1" && msg.FromID == model.AdminID && msg.Message == "Saldo sudah masuk"
	})).Return(&model.ChatMessage{ChatID: "cht_1", FromID: model.AdminID, ToID: "mtr_1", Message: "Saldo sudah masuk"}, nil)

	var msg model.ChatMessage
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/chats",
		Header:   auth,
		Payload:  jsonBody(t, map[string]string{"to_id": "mtr_1", "message": "Saldo sudah masuk"}),
		Response: &msg,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "cht_1", msg.ChatID)
}

func TestUnclassifiedErrorsAreHidden(t *testing.T) {
	router, ds := setupRouter(t)
	auth := login(t, router, ds)
	ds.On("GetDashboardStats", mock.Anything).Return(nil, assert.AnError)

	var body map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/dashboard/stats", Header: auth, Response: &body})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "internal server error", body["error"])
}
