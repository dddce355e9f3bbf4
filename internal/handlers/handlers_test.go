package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/middleware"
	"github.com/coffeeforfeedback/platform_be/internal/models"
	"github.com/coffeeforfeedback/platform_be/internal/realtime"
	"github.com/coffeeforfeedback/platform_be/internal/services/payment"
	"github.com/coffeeforfeedback/platform_be/internal/services/wallet"
	"github.com/coffeeforfeedback/platform_be/internal/services/workflow"
)

const (
	testJWTSecret   = "test-secret"
	testCallbackKey = "test-callback-key"
)

type okGateway struct{ charges int }

func (g *okGateway) Charge(merchantRef string, amount int64, customerName, customerEmail, itemName string) (*payment.ChargeResult, error) {
	g.charges++
	return &payment.ChargeResult{
		Reference:   fmt.Sprintf("T%08d", g.charges),
		MerchantRef: merchantRef,
		Amount:      amount,
		CheckoutURL: "https://pay.example.com/" + merchantRef,
	}, nil
}

type decliningGateway struct{}

func (decliningGateway) Charge(string, int64, string, string, string) (*payment.ChargeResult, error) {
	return nil, errors.New("card declined")
}

func setupTestApp(t *testing.T, gw payment.Gateway) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Project{},
		&models.Application{},
		&models.Interview{},
		&models.EscrowTransaction{},
	))

	hub := realtime.NewHub()
	go hub.Run()

	wf := workflow.NewService(db, wallet.NewWalletService(db), gw, 10)

	authH := &AuthHandler{DB: db, JWTSecret: testJWTSecret, Expires: 60}
	projectH := NewProjectHandler(db, wf)
	applicationH := NewApplicationHandler(db, wf, hub, nil)
	interviewH := NewInterviewHandler(db, wf, hub, nil)
	walletH := NewWalletHandler(db)
	paymentH := NewPaymentHandler(db, &payment.HTTPGateway{PrivateKey: testCallbackKey})

	app := fiber.New()
	api := app.Group("/api")

	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Get("/projects", projectH.ListPublic)
	api.Get("/projects/:id", projectH.GetDetail)
	api.Post("/payments/callback", paymentH.HandleCallback)

	protected := api.Group("/",
		middleware.JWTFromCookie(testJWTSecret),
		middleware.AttachJWTLocals(),
	)
	protected.Get("/wallet", walletH.GetBalance)
	protected.Post("/founder/projects", middleware.RequireRoles("founder"), projectH.Create)
	protected.Post("/founder/projects/:id/fund", middleware.RequireRoles("founder"), projectH.Fund)
	protected.Patch("/founder/applications/:id/review", middleware.RequireRoles("founder"), applicationH.Review)
	protected.Patch("/founder/interviews/:id/complete", middleware.RequireRoles("founder"), interviewH.Complete)
	protected.Post("/professional/projects/:id/apply", middleware.RequireRoles("professional"), applicationH.Apply)

	return app, db
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  FieldErrors     `json:"errors"`
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, cookie *http.Cookie) (*http.Response, envelope) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}

func authCookie(t *testing.T, resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "cff_token" {
			return c
		}
	}
	t.Fatal("cff_token cookie not set")
	return nil
}

func registerUser(t *testing.T, app *fiber.App, name, email, role string) *http.Cookie {
	resp, env := doJSON(t, app, "POST", "/api/auth/register", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"role":     role,
	}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)
	return authCookie(t, resp)
}

func TestRegisterValidationErrors(t *testing.T) {
	app, _ := setupTestApp(t, &okGateway{})

	resp, env := doJSON(t, app, "POST", "/api/auth/register", fiber.Map{
		"name":     "",
		"email":    "not-an-email",
		"password": "123",
		"role":     "admin",
	}, nil)

	// validation failures come back 200 with success=false
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Contains(t, env.Errors, "name")
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "password")
	assert.Contains(t, env.Errors, "role")
}

func TestRegisterCreatesWalletAndProfile(t *testing.T) {
	app, db := setupTestApp(t, &okGateway{})
	registerUser(t, app, "Asha", "asha@example.com", "professional")

	var user models.User
	require.NoError(t, db.Preload("Wallet").Preload("Profile").First(&user, "email = ?", "asha@example.com").Error)
	assert.Equal(t, models.RoleProfessional, user.Role)
	require.NotNil(t, user.Wallet)
	assert.Zero(t, user.Wallet.Balance)
	require.NotNil(t, user.Profile)

	// duplicate email is a validation failure
	resp, env := doJSON(t, app, "POST", "/api/auth/register", fiber.Map{
		"name":     "Asha Again",
		"email":    "asha@example.com",
		"password": "secret123",
		"role":     "professional",
	}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Contains(t, env.Errors, "email")
}

func TestLogin(t *testing.T) {
	app, _ := setupTestApp(t, &okGateway{})
	registerUser(t, app, "Ravi", "ravi@example.com", "founder")

	resp, env := doJSON(t, app, "POST", "/api/auth/login", fiber.Map{
		"email":    "ravi@example.com",
		"password": "secret123",
	}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	authCookie(t, resp)

	_, env = doJSON(t, app, "POST", "/api/auth/login", fiber.Map{
		"email":    "ravi@example.com",
		"password": "wrong-password",
	}, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "Wrong email or password", env.Message)
}

func TestProtectedRoutesNeedCookie(t *testing.T) {
	app, _ := setupTestApp(t, &okGateway{})

	resp, _ := doJSON(t, app, "GET", "/api/wallet", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestFounderRoutesRejectProfessionals(t *testing.T) {
	app, _ := setupTestApp(t, &okGateway{})
	proCookie := registerUser(t, app, "Asha", "asha@example.com", "professional")

	resp, _ := doJSON(t, app, "POST", "/api/founder/projects", fiber.Map{
		"title": "nope",
	}, proCookie)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestFullMarketplaceFlow(t *testing.T) {
	gw := &okGateway{}
	app, db := setupTestApp(t, gw)

	founderCookie := registerUser(t, app, "Ravi", "ravi@example.com", "founder")
	proCookie := registerUser(t, app, "Asha", "asha@example.com", "professional")

	// founder creates a draft project
	resp, env := doJSON(t, app, "POST", "/api/founder/projects", fiber.Map{
		"title":               "B2B SaaS discovery interviews",
		"description":         "Talk to PMs about onboarding pains",
		"target_persona":      "Product managers at seed-stage startups",
		"interview_duration":  30,
		"total_pool_amount":   500000,
		"num_participants":    5,
		"per_participant_pay": 100000,
	}, founderCookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)

	var project ProjectResponse
	require.NoError(t, json.Unmarshal(env.Data, &project))
	assert.Equal(t, "DRAFT", project.Status)
	assert.Equal(t, "₹1,000", project.PayDisplay)

	// a draft project is not listed publicly
	_, listEnv := doJSON(t, app, "GET", "/api/projects", nil, nil)
	var listed []ProjectResponse
	require.NoError(t, json.Unmarshal(listEnv.Data, &listed))
	assert.Empty(t, listed)

	// fund it
	resp, env = doJSON(t, app, "POST", "/api/founder/projects/"+project.ID+"/fund", nil, founderCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &project))
	assert.Equal(t, "ACTIVE", project.Status)
	assert.Equal(t, int64(500000), project.EscrowAmount)
	assert.Equal(t, 1, gw.charges)

	// funding twice conflicts
	resp, _ = doJSON(t, app, "POST", "/api/founder/projects/"+project.ID+"/fund", nil, founderCookie)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// now it shows up publicly
	_, listEnv = doJSON(t, app, "GET", "/api/projects", nil, nil)
	require.NoError(t, json.Unmarshal(listEnv.Data, &listed))
	require.Len(t, listed, 1)

	// professional applies
	resp, env = doJSON(t, app, "POST", "/api/professional/projects/"+project.ID+"/apply", fiber.Map{
		"cover_letter": "I ran onboarding at two startups",
		"availability": "Weekdays after 6pm",
	}, proCookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var application ApplicationResponse
	require.NoError(t, json.Unmarshal(env.Data, &application))
	assert.Equal(t, "PENDING", application.Status)

	// applying twice conflicts
	resp, _ = doJSON(t, app, "POST", "/api/professional/projects/"+project.ID+"/apply", fiber.Map{}, proCookie)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// founder accepts
	resp, env = doJSON(t, app, "PATCH", "/api/founder/applications/"+application.ID+"/review", fiber.Map{
		"decision": "ACCEPT",
	}, founderCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &application))
	assert.Equal(t, "ACCEPTED", application.Status)

	var interview models.Interview
	require.NoError(t, db.First(&interview, "application_id = ?", application.ID).Error)
	assert.Equal(t, int64(100000), interview.PayoutAmount)

	// founder confirms completion, escrow is released minus the 10% fee
	resp, env = doJSON(t, app, "PATCH", "/api/founder/interviews/"+interview.ID.String()+"/complete", nil, founderCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var done InterviewResponse
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, "COMPLETED", done.Status)

	_, env = doJSON(t, app, "GET", "/api/wallet", nil, proCookie)
	var w struct {
		Balance        int64  `json:"balance"`
		BalanceDisplay string `json:"balance_display"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &w))
	assert.Equal(t, int64(90000), w.Balance)
	assert.Equal(t, "₹900", w.BalanceDisplay)

	// the professional cannot confirm their own interview
	resp, _ = doJSON(t, app, "PATCH", "/api/founder/interviews/"+interview.ID.String()+"/complete", nil, proCookie)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func signCallback(body []byte) string {
	h := hmac.New(sha256.New, []byte(testCallbackKey))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func postCallback(t *testing.T, app *fiber.App, body []byte, signature string) *http.Response {
	req := httptest.NewRequest("POST", "/api/payments/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Callback-Signature", signature)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestGatewayCallback(t *testing.T) {
	app, db := setupTestApp(t, &okGateway{})
	founderCookie := registerUser(t, app, "Ravi", "ravi@example.com", "founder")

	_, env := doJSON(t, app, "POST", "/api/founder/projects", fiber.Map{
		"title":               "Edtech parent interviews",
		"description":         "How parents pick tutoring apps",
		"target_persona":      "Parents of school-age kids",
		"interview_duration":  30,
		"total_pool_amount":   200000,
		"num_participants":    2,
		"per_participant_pay": 100000,
	}, founderCookie)
	var project ProjectResponse
	require.NoError(t, json.Unmarshal(env.Data, &project))
	_, _ = doJSON(t, app, "POST", "/api/founder/projects/"+project.ID+"/fund", nil, founderCookie)

	var trx models.EscrowTransaction
	require.NoError(t, db.First(&trx, "project_id = ?", project.ID).Error)

	body, _ := json.Marshal(fiber.Map{
		"reference": trx.Reference,
		"status":    "REFUND",
		"note":      "chargeback",
	})

	// missing and wrong signatures are rejected
	resp := postCallback(t, app, body, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp = postCallback(t, app, body, "not-the-right-signature")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// a status outside the known set never lands in the column
	badBody, _ := json.Marshal(fiber.Map{
		"reference": trx.Reference,
		"status":    "OWNED",
	})
	resp = postCallback(t, app, badBody, signCallback(badBody))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var unchanged models.EscrowTransaction
	require.NoError(t, db.First(&unchanged, "id = ?", trx.ID).Error)
	assert.Equal(t, models.EscrowTrxStatusPaid, unchanged.Status)

	// a properly signed known status updates the row
	resp = postCallback(t, app, body, signCallback(body))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.EscrowTransaction
	require.NoError(t, db.First(&updated, "id = ?", trx.ID).Error)
	assert.Equal(t, models.EscrowTrxStatusRefund, updated.Status)
	assert.Equal(t, "chargeback", updated.Note)
}

func TestFundWithDecliningGatewayReturns402(t *testing.T) {
	app, db := setupTestApp(t, decliningGateway{})
	founderCookie := registerUser(t, app, "Ravi", "ravi@example.com", "founder")

	_, env := doJSON(t, app, "POST", "/api/founder/projects", fiber.Map{
		"title":               "Fintech user interviews",
		"description":         "UPI payment habits",
		"target_persona":      "Urban UPI power users",
		"interview_duration":  45,
		"total_pool_amount":   300000,
		"num_participants":    3,
		"per_participant_pay": 100000,
	}, founderCookie)

	var project ProjectResponse
	require.NoError(t, json.Unmarshal(env.Data, &project))

	resp, _ := doJSON(t, app, "POST", "/api/founder/projects/"+project.ID+"/fund", nil, founderCookie)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)

	// declined charge leaves the project fundable
	var reloaded models.Project
	require.NoError(t, db.First(&reloaded, "id = ?", project.ID).Error)
	assert.Equal(t, models.ProjectStatusDraft, reloaded.Status)
}
