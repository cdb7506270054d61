package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agromart/internal/handlers"
	"agromart/internal/middleware"
	"agromart/internal/repositories"
	"agromart/internal/services"
)

// captureMailer records outgoing email and signals each delivery so tests
// can wait for the background dispatcher.
type captureMailer struct {
	mu       sync.Mutex
	messages []string
	delivery chan string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{delivery: make(chan string, 16)}
}

func (m *captureMailer) SendEmail(_ context.Context, _, _, html string) error {
	m.mu.Lock()
	m.messages = append(m.messages, html)
	m.mu.Unlock()
	m.delivery <- html
	return nil
}

// waitForOTP blocks until the next email arrives and extracts the 6-digit
// code from it.
func (m *captureMailer) waitForOTP(t *testing.T) string {
	t.Helper()
	select {
	case html := <-m.delivery:
		otp := regexp.MustCompile(`\d{6}`).FindString(html)
		require.NotEmpty(t, otp, "email should contain a 6-digit code")
		return otp
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OTP email")
		return ""
	}
}

type testEnv struct {
	app    *fiber.App
	mailer *captureMailer
}

// setupApp wires the full application against in-memory repositories.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	zlog := zap.NewNop().Sugar()

	userRepo := repositories.NewMockUserRepository()
	productRepo := repositories.NewMockProductRepository()
	orderRepo := repositories.NewMockOrderRepository()

	mail := newCaptureMailer()
	notifier := services.NewNotifier(mail, zlog)
	t.Cleanup(notifier.Close)

	authService := services.NewAuthService(userRepo, notifier, zlog, "test_jwt_secret")
	productService := services.NewProductService(productRepo, zlog)
	orderService := services.NewOrderService(orderRepo, userRepo, nil, notifier, zlog)

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, t.TempDir())
	orderHandler := handlers.NewOrderHandler(orderService)

	app := fiber.New()

	userAPI := app.Group("/api/user")
	authHandler.RegisterRoutes(userAPI)
	productHandler.RegisterPublicRoutes(userAPI)
	authed := userAPI.Group("", middleware.AuthRequired(authService))
	orderHandler.RegisterUserRoutes(authed)

	adminAPI := app.Group("/api/admin", middleware.AuthRequired(authService), middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(adminAPI)
	orderHandler.RegisterAdminRoutes(adminAPI)

	return &testEnv{app: app, mailer: mail}
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// doJSON sends a JSON request, optionally with a bearer token, and decodes
// the JSON response body.
func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

// registerAndVerify registers an account, completes OTP verification and
// returns a fresh login token.
func registerAndVerify(t *testing.T, env *testEnv, username, email, password, role string) string {
	t.Helper()
	payload := map[string]string{
		"username": username,
		"email":    email,
		"phone":    "9999999999",
		"password": password,
	}
	if role != "" {
		payload["role"] = role
	}
	status, _ := doJSON(t, env.app, http.MethodPost, "/api/user/register", payload, "")
	require.Equal(t, http.StatusCreated, status)

	otp := env.mailer.waitForOTP(t)
	status, verifyResp := doJSON(t, env.app, http.MethodPost, "/api/user/verify-otp", map[string]string{
		"email": email,
		"otp":   otp,
	}, "")
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, verifyResp["token"])

	status, loginResp := doJSON(t, env.app, http.MethodPost, "/api/user/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, status)
	token, _ := loginResp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	env := setupApp(t)

	// Weak password is rejected up front.
	status, _ := doJSON(t, env.app, http.MethodPost, "/api/user/register", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"phone":    "9999999999",
		"password": "password", // no digit
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	// Full happy path.
	status, _ = doJSON(t, env.app, http.MethodPost, "/api/user/register", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"phone":    "9999999999",
		"password": "Passw0rd",
	}, "")
	require.Equal(t, http.StatusCreated, status)

	// Duplicate registration.
	status, resp := doJSON(t, env.app, http.MethodPost, "/api/user/register", map[string]string{
		"username": "alice2",
		"email":    "a@x.com",
		"phone":    "9999999999",
		"password": "Passw0rd",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp["message"], "exists")

	otp := env.mailer.waitForOTP(t)

	// Wrong code first.
	status, _ = doJSON(t, env.app, http.MethodPost, "/api/user/verify-otp", map[string]string{
		"email": "a@x.com",
		"otp":   "000000",
	}, "")
	if otp == "000000" {
		t.Skip("generated OTP collides with the test's wrong guess")
	}
	assert.Equal(t, http.StatusBadRequest, status)

	// Correct code.
	status, verifyResp := doJSON(t, env.app, http.MethodPost, "/api/user/verify-otp", map[string]string{
		"email": "a@x.com",
		"otp":   otp,
	}, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, verifyResp["token"])

	// Login with bad password keeps the generic message.
	status, resp = doJSON(t, env.app, http.MethodPost, "/api/user/login", map[string]string{
		"email":    "a@x.com",
		"password": "WrongPass1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid email or password", resp["message"])

	// Unknown email gets the same message with 404.
	status, resp = doJSON(t, env.app, http.MethodPost, "/api/user/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "Passw0rd",
	}, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Invalid email or password", resp["message"])

	// Successful login returns the display fields.
	status, resp = doJSON(t, env.app, http.MethodPost, "/api/user/login", map[string]string{
		"email":    "a@x.com",
		"password": "Passw0rd",
	}, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, "alice", resp["username"])
	assert.Equal(t, "user", resp["role"])
}

func TestPurgeUnverifiedWithinWindow(t *testing.T) {
	env := setupApp(t)

	status, _ := doJSON(t, env.app, http.MethodPost, "/api/user/register", map[string]string{
		"username": "bob",
		"email":    "b@x.com",
		"phone":    "8888888888",
		"password": "Passw0rd",
	}, "")
	require.Equal(t, http.StatusCreated, status)

	// The OTP window is still open, so the purge is refused.
	status, resp := doJSON(t, env.app, http.MethodDelete, "/api/user/users/b@x.com", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp["message"], "not expired")

	// Unknown accounts yield 404.
	status, _ = doJSON(t, env.app, http.MethodDelete, "/api/user/users/ghost@x.com", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestOrderFlow(t *testing.T) {
	env := setupApp(t)
	userToken := registerAndVerify(t, env, "alice", "a@x.com", "Passw0rd", "")
	adminToken := registerAndVerify(t, env, "root", "admin@x.com", "Adm1nPass", "admin")

	// Unauthenticated order placement is rejected.
	status, _ := doJSON(t, env.app, http.MethodPost, "/api/user/orders", map[string]interface{}{}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	// Empty items list is a validation failure.
	status, _ = doJSON(t, env.app, http.MethodPost, "/api/user/orders", map[string]interface{}{
		"buyer_name":       "Alice",
		"buyer_contact":    "9999999999",
		"delivery_address": "12 Orchard Lane",
		"items":            []interface{}{},
	}, userToken)
	assert.Equal(t, http.StatusBadRequest, status)

	// Valid placement.
	status, resp := doJSON(t, env.app, http.MethodPost, "/api/user/orders", map[string]interface{}{
		"buyer_name":       "Alice",
		"buyer_contact":    "9999999999",
		"delivery_address": "12 Orchard Lane",
		"items": []map[string]interface{}{
			{"name": "Kiwi", "price": 90, "quantity": 2},
		},
	}, userToken)
	require.Equal(t, http.StatusCreated, status)
	order, ok := resp["order"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Pending", order["status"])
	orderID, _ := order["id"].(string)
	require.NotEmpty(t, orderID)

	// The caller sees exactly their own orders.
	req := httptest.NewRequest(http.MethodGet, "/api/user/orders", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	listResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	var orders []map[string]interface{}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&orders))
	listResp.Body.Close()
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0]["id"])

	// A plain user cannot reach the admin surface.
	status, _ = doJSON(t, env.app, http.MethodGet, "/api/admin/orders", nil, userToken)
	assert.Equal(t, http.StatusForbidden, status)

	// Admin status update persists and notifies the owner.
	status, resp = doJSON(t, env.app, http.MethodPut, "/api/admin/orders/"+orderID, map[string]string{
		"status": "Delivered",
	}, adminToken)
	require.Equal(t, http.StatusOK, status)
	updated, ok := resp["order"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Delivered", updated["status"])

	select {
	case html := <-env.mailer.delivery:
		assert.Contains(t, html, orderID)
		assert.Contains(t, html, "Delivered")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for status notification")
	}

	// Unknown order id.
	status, _ = doJSON(t, env.app, http.MethodPut, "/api/admin/orders/missing", map[string]string{
		"status": "Shipped",
	}, adminToken)
	assert.Equal(t, http.StatusNotFound, status)

	// Unknown status label.
	status, _ = doJSON(t, env.app, http.MethodPut, "/api/admin/orders/"+orderID, map[string]string{
		"status": "Teleported",
	}, adminToken)
	assert.Equal(t, http.StatusBadRequest, status)
}

// multipartRequest builds a multipart form request from fields and an
// optional file part.
func multipartRequest(t *testing.T, method, path string, fields map[string]string, fileField, fileName string, fileContent []byte, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestProductAdminFlow(t *testing.T) {
	env := setupApp(t)
	adminToken := registerAndVerify(t, env, "root", "admin@x.com", "Adm1nPass", "admin")

	// Add a product with an image URL.
	req := multipartRequest(t, http.MethodPost, "/api/admin/products", map[string]string{
		"name":  "Kiwi",
		"price": "90",
		"type":  "fruit",
		"img":   "https://example.com/kiwi.png",
	}, "", "", nil, adminToken)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Duplicate name is refused.
	req = multipartRequest(t, http.MethodPost, "/api/admin/products", map[string]string{
		"name":  "Kiwi",
		"price": "50",
		"type":  "fruit",
		"img":   "https://example.com/kiwi2.png",
	}, "", "", nil, adminToken)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Missing image reference is refused.
	req = multipartRequest(t, http.MethodPost, "/api/admin/products", map[string]string{
		"name":  "Mango",
		"price": "55",
		"type":  "fruit",
	}, "", "", nil, adminToken)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Bulk import skips the row without a price, keeps the rest.
	csvContent := []byte("name,price,type\nApple,30,fruit\nBanana,,fruit\nCarrot,12,vegetable\n")
	req = multipartRequest(t, http.MethodPost, "/api/admin/products/bulk", nil, "file", "products.csv", csvContent, adminToken)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var bulkResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bulkResp))
	resp.Body.Close()
	assert.Equal(t, float64(1), bulkResp["skipped"])

	// The public catalog now lists Kiwi, Apple, Carrot.
	listReq := httptest.NewRequest(http.MethodGet, "/api/user/products", nil)
	listResp, err := env.app.Test(listReq, -1)
	require.NoError(t, err)
	var products []map[string]interface{}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&products))
	listResp.Body.Close()
	assert.Len(t, products, 3)

	// Partial update touches only the price.
	var kiwiID string
	for _, p := range products {
		if p["name"] == "Kiwi" {
			kiwiID, _ = p["id"].(string)
		}
	}
	require.NotEmpty(t, kiwiID)
	status, updResp := doJSON(t, env.app, http.MethodPut, "/api/admin/products/"+kiwiID, map[string]interface{}{
		"price": 80,
	}, adminToken)
	require.Equal(t, http.StatusOK, status)
	updProduct := updResp["product"].(map[string]interface{})
	assert.Equal(t, float64(80), updProduct["price"])
	assert.Equal(t, "Kiwi", updProduct["name"])

	// Empty update payload is refused.
	status, _ = doJSON(t, env.app, http.MethodPut, "/api/admin/products/"+kiwiID, map[string]interface{}{}, adminToken)
	assert.Equal(t, http.StatusBadRequest, status)

	// Delete succeeds once, then 404s.
	status, delResp := doJSON(t, env.app, http.MethodDelete, "/api/admin/products/"+kiwiID, nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	deleted := delResp["product"].(map[string]interface{})
	assert.Equal(t, "Kiwi", deleted["name"])

	status, _ = doJSON(t, env.app, http.MethodDelete, "/api/admin/products/"+kiwiID, nil, adminToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	env := setupApp(t)

	// Missing header.
	status, resp := doJSON(t, env.app, http.MethodGet, "/api/user/orders", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, resp["message"], "Authorization header")

	// Malformed header.
	req := httptest.NewRequest(http.MethodGet, "/api/user/orders", nil)
	req.Header.Set("Authorization", "Token abc")
	r, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, r.StatusCode)
	r.Body.Close()

	// Garbage token.
	status, _ = doJSON(t, env.app, http.MethodGet, "/api/user/orders", nil, fmt.Sprintf("bogus.%d.token", time.Now().Unix()))
	assert.Equal(t, http.StatusUnauthorized, status)
}
