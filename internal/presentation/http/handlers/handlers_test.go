package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/logiclens/gatepass-go/internal/application/container"
	"github.com/logiclens/gatepass-go/internal/application/services"
	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/infrastructure/email"
	"github.com/logiclens/gatepass-go/internal/infrastructure/messaging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/performance"
	"github.com/logiclens/gatepass-go/internal/infrastructure/persistence/memory"
	"github.com/logiclens/gatepass-go/internal/presentation/http/routes"
)

type sinkMailer struct{}

func (sinkMailer) Send(_ email.Message) (string, error) { return "msg-id", nil }

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, _ *visitor.Request) ([]byte, error) {
	return []byte("%PDF-stub"), nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *services.VisitorService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToConsole = false
	cfg.DefaultLevel = 12
	logger, err := logging.NewChanneledLogger(cfg)
	if err != nil {
		t.Fatalf("NewChanneledLogger: %v", err)
	}

	store := memory.NewVisitorStore()
	broadcaster := messaging.NewBroadcaster(logger)

	dispatcher := services.NewDispatchService(
		sinkMailer{}, stubRenderer{}, logger, "http://localhost:5000/api", 10*time.Minute, "")
	visitorService := services.NewVisitorService(
		store, dispatcher, broadcaster, logger, performance.NewTracker(logger),
		services.VisitorServiceConfig{})
	authService := services.NewAdminAuthService(
		logger, "admin", "", "s3cret", "test-jwt-secret", time.Hour)

	c := container.NewContainer(
		visitorService, dispatcher, services.NewExportService(store, logger), authService,
		logger, performance.NewTracker(logger), broadcaster, nil)

	return routes.SetupRoutes(c), visitorService
}

func testPhoto(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 77, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test photo: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func registerVisitor(t *testing.T, router *gin.Engine) (id, code string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"name":      "Asha Verma",
		"email":     "asha@example.com",
		"mobile":    "9876543210",
		"aadhar":    "1234-5678-9012",
		"purpose":   "Vendor meeting",
		"toMeet":    "R. Iyer",
		"hostEmail": "iyer@example.com",
		"photo":     testPhoto(t),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/visitors/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID          string `json:"id"`
			Status      string `json:"status"`
			VisitorCode string `json:"visitorCode"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if !resp.Success || resp.Data.Status != "pending" {
		t.Fatalf("register response = %+v", resp)
	}
	return resp.Data.ID, resp.Data.VisitorCode
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	_, code := registerVisitor(t, router)
	if !strings.HasPrefix(code, "LOGIC-") {
		t.Errorf("visitor code = %q", code)
	}
}

func TestRegisterEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/visitors/register", strings.NewReader(`{"name":"Asha"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hostEmail") {
		t.Errorf("body should name the missing fields: %s", w.Body.String())
	}
}

func TestDecisionLinkFlow(t *testing.T) {
	router, visitorService := newTestRouter(t)

	id, _ := registerVisitor(t, router)
	stored, err := visitorService.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/visitors/decision/"+stored.ApprovalToken+"?status=approved", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("content type = %q, want html", ct)
	}
	if !strings.Contains(w.Body.String(), "Visitor Approved") {
		t.Error("success page missing confirmation heading")
	}

	// Reusing the link reports the recorded decision, not a new one.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet,
		"/api/visitors/decision/"+stored.ApprovalToken+"?status=rejected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("replay status = %d, want 409", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Already Processed") {
		t.Error("replay page missing already-processed heading")
	}

	final, _ := visitorService.Get(context.Background(), id)
	if final.Status != visitor.StatusApproved {
		t.Errorf("status = %s, replay must not mutate", final.Status)
	}
}

func TestDecisionLinkRejectsBadStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/visitors/decision/sometoken?status=maybe", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDecisionLinkUnknownToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/visitors/decision/feedface?status=approved", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/visitors", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list status = %d, want 401", w.Code)
	}

	// Login, then list with the bearer token.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}

	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil || login.Token == "" {
		t.Fatalf("login response: %v, %s", err, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/admin/visitors", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated list status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestAdminDecisionEndpoint(t *testing.T) {
	router, visitorService := newTestRouter(t)

	id, _ := registerVisitor(t, router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("login: %v", err)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/admin/visitors/"+id+"/decision",
		strings.NewReader(`{"status":"rejected"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+login.Token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("decision status = %d, body %s", w.Code, w.Body.String())
	}

	stored, _ := visitorService.Get(context.Background(), id)
	if stored.Status != visitor.StatusRejected {
		t.Errorf("status = %s, want rejected", stored.Status)
	}
}
