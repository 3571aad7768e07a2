package staff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/constants"
	handlershared "github.com/optical-member/internal/http/handlers/shared"
	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/provider"
	"github.com/optical-member/internal/repository"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type redemptionHandlerEnv struct {
	db      *gorm.DB
	handler *Handler
	router  *gin.Engine
}

func setupRedemptionHandlerTest(t *testing.T, name string) *redemptionHandlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:staff_handler_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.MigrateAll(db))

	cfg := &config.Config{Redemption: config.RedemptionConfig{TokenTTLSeconds: 300, QRCodeSize: 128}}
	customerRepo := repository.NewCustomerRepository(db)
	lotteryRepo := repository.NewLotteryRepository(db)
	container := &provider.Container{
		Config:            cfg,
		RedemptionService: service.NewRedemptionService(cfg.Redemption, repository.NewRedemptionTokenRepository(db), customerRepo, lotteryRepo),
		SettlementService: service.NewSettlementService(repository.NewSettlementRepository(db), customerRepo, lotteryRepo, nil),
	}
	h := New(container)

	r := gin.New()
	authed := r.Group("/staff", func(c *gin.Context) {
		c.Set(handlershared.ContextStaffID, uint(7))
		c.Set(handlershared.ContextStaffName, "李店员")
		c.Set(handlershared.ContextStaffRole, constants.RoleStaff)
		c.Next()
	})
	authed.POST("/redemption/validate", h.ValidateRedemption)
	authed.POST("/redemption/settle", h.Settle)
	r.POST("/anonymous/settle", h.Settle)

	return &redemptionHandlerEnv{db: db, handler: h, router: r}
}

func (e *redemptionHandlerEnv) post(t *testing.T, path string, body interface{}) response.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (e *redemptionHandlerEnv) createCustomer(t *testing.T, identity string, balance int64) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		Identity:    identity,
		MemberCode:  "M" + identity,
		NickName:    "会员" + identity,
		Balance:     balance,
		MemberLevel: constants.MemberLevelNormal,
		Role:        constants.RoleCustomer,
	}
	require.NoError(t, e.db.Create(customer).Error)
	return customer
}

func TestValidateRedemptionHandler(t *testing.T) {
	env := setupRedemptionHandlerTest(t, "validate")
	customer := env.createCustomer(t, "openid-scan", 8800)

	issued, err := env.handler.RedemptionService.Issue(context.Background(), customer.ID)
	require.NoError(t, err)

	resp := env.post(t, "/staff/redemption/validate", ValidateRequest{Payload: issued.Payload})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, customer.ID, data["customer_id"])
	assert.EqualValues(t, 8800, data["balance"])
	assert.Equal(t, "88.00", data["balance_yuan"])

	resp = env.post(t, "/staff/redemption/validate", ValidateRequest{Payload: "not-json"})
	assert.Equal(t, response.CodeBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid redemption code", resp.Msg)

	resp = env.post(t, "/staff/redemption/validate", map[string]string{})
	assert.Equal(t, response.CodeBadRequest, resp.StatusCode)
}

func TestSettleHandler(t *testing.T) {
	env := setupRedemptionHandlerTest(t, "settle")
	customer := env.createCustomer(t, "openid-settle", 1000)

	resp := env.post(t, "/staff/redemption/settle", SettleRequest{CustomerID: customer.ID, DeductAmount: 400, Remark: "镜片", Reference: "ref-handler-1"})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	record, ok := data["record"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 400, record["deduct_amount"])
	assert.EqualValues(t, 7, record["staff_id"])
	assert.Equal(t, "李店员", record["staff_name"])
	assert.Equal(t, false, data["replayed"])

	// 同一编号重试返回原记录，不重复扣款
	resp = env.post(t, "/staff/redemption/settle", SettleRequest{CustomerID: customer.ID, DeductAmount: 400, Remark: "镜片", Reference: "ref-handler-1"})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	assert.Equal(t, true, resp.Data.(map[string]interface{})["replayed"])

	resp = env.post(t, "/staff/redemption/settle", SettleRequest{CustomerID: customer.ID, DeductAmount: 700})
	assert.Equal(t, response.CodeInsufficientBalance, resp.StatusCode)
	assert.Equal(t, "Insufficient balance", resp.Msg)

	resp = env.post(t, "/staff/redemption/settle", map[string]interface{}{"customer_id": customer.ID, "deduct_amount": -1})
	assert.Equal(t, response.CodeBadRequest, resp.StatusCode)

	resp = env.post(t, "/anonymous/settle", SettleRequest{CustomerID: customer.ID})
	assert.Equal(t, response.CodeUnauthorized, resp.StatusCode)

	var reloaded models.Customer
	require.NoError(t, env.db.First(&reloaded, customer.ID).Error)
	assert.Equal(t, int64(600), reloaded.Balance)
}
