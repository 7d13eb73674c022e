package services_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/logiclens/gatepass-go/internal/application/services"
	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/infrastructure/email"
	"github.com/logiclens/gatepass-go/internal/infrastructure/messaging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/performance"
	"github.com/logiclens/gatepass-go/internal/infrastructure/persistence/memory"
)

type fakeMailer struct {
	mu       sync.Mutex
	messages []email.Message
	err      error
}

func (m *fakeMailer) Send(msg email.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.messages = append(m.messages, msg)
	return "msg-id", nil
}

func (m *fakeMailer) sent() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]email.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *fakeMailer) sentTo(addr string) []email.Message {
	var out []email.Message
	for _, msg := range m.sent() {
		if msg.To == addr {
			out = append(out, msg)
		}
	}
	return out
}

type fakeRenderer struct {
	pdf []byte
	err error
}

func (r *fakeRenderer) Render(_ context.Context, _ *visitor.Request) ([]byte, error) {
	return r.pdf, r.err
}

type fixture struct {
	svc    *services.VisitorService
	store  *memory.VisitorStore
	mailer *fakeMailer
	now    time.Time
	mu     sync.Mutex
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func quietLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToConsole = false
	cfg.OutputToFile = false
	cfg.DefaultLevel = 12
	logger, err := logging.NewChanneledLogger(cfg)
	if err != nil {
		t.Fatalf("NewChanneledLogger: %v", err)
	}
	return logger
}

func newFixture(t *testing.T, mailer *fakeMailer, renderer services.PassRenderer) *fixture {
	t.Helper()

	if mailer == nil {
		mailer = &fakeMailer{}
	}
	if renderer == nil {
		renderer = &fakeRenderer{pdf: []byte("%PDF-fake")}
	}

	logger := quietLogger(t)
	f := &fixture{
		store:  memory.NewVisitorStore(),
		mailer: mailer,
		now:    time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC),
	}

	dispatcher := services.NewDispatchService(
		mailer, renderer, logger, "http://localhost:5000/api", 10*time.Minute, "")

	f.svc = services.NewVisitorService(
		f.store, dispatcher, messaging.NewBroadcaster(logger), logger, performance.NewTracker(logger),
		services.VisitorServiceConfig{
			CodePrefix:    "LOGIC",
			RequestWindow: 10 * time.Minute,
			TokenWindow:   10 * time.Minute,
			Clock:         f.clock,
		})

	return f
}

func testPhoto(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: uint8(y % 255), B: 99, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test photo: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func registerInput(t *testing.T) services.RegisterInput {
	return services.RegisterInput{
		Name:       "Asha Verma",
		Email:      "asha@example.com",
		Mobile:     "9876543210",
		NationalID: "1234-5678-9012",
		Purpose:    "Vendor meeting",
		HostName:   "R. Iyer",
		HostEmail:  "iyer@example.com",
		Photo:      testPhoto(t),
	}
}

func TestRegisterHappyPath(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	req, err := f.svc.Register(ctx, registerInput(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if req.Status != visitor.StatusPending {
		t.Errorf("status = %s, want pending", req.Status)
	}
	if !strings.HasPrefix(req.VisitorCode, "LOGIC-2026-") {
		t.Errorf("visitor code = %q", req.VisitorCode)
	}
	if len(req.ApprovalToken) != 32 {
		t.Errorf("token length = %d, want 32", len(req.ApprovalToken))
	}
	if req.ApprovalToken == req.VisitorCode {
		t.Error("token and visitor code must never coincide")
	}
	if !strings.HasPrefix(req.QRCode, "data:image/png;base64,") {
		t.Error("QR artifact missing from registered record")
	}
	if !req.ExpiresAt.Equal(f.clock().Add(10 * time.Minute)) {
		t.Errorf("expiresAt = %v", req.ExpiresAt)
	}

	// Host got the approval request with both decision links.
	hostMail := f.mailer.sentTo("iyer@example.com")
	if len(hostMail) != 1 {
		t.Fatalf("host mails = %d, want 1", len(hostMail))
	}
	for _, needle := range []string{
		"/visitors/decision/" + req.ApprovalToken + "?status=approved",
		"/visitors/decision/" + req.ApprovalToken + "?status=rejected",
	} {
		if !strings.Contains(hostMail[0].HTML, needle) {
			t.Errorf("host mail missing link %q", needle)
		}
	}

	stored, err := f.store.FindByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Status != visitor.StatusPending {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, nil, nil)

	in := registerInput(t)
	in.Name = ""
	in.HostEmail = " "

	_, err := f.svc.Register(context.Background(), in)
	var verr *visitor.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	fields := strings.Join(verr.Fields, ",")
	if !strings.Contains(fields, "name") || !strings.Contains(fields, "hostEmail") {
		t.Errorf("fields = %v", verr.Fields)
	}
	if len(f.mailer.sent()) != 0 {
		t.Error("no mail may be sent for a rejected registration")
	}
}

func TestRegisterBadPhoto(t *testing.T) {
	f := newFixture(t, nil, nil)

	in := registerInput(t)
	in.Photo = "data:image/png;base64,bm90IGFuIGltYWdl"

	_, err := f.svc.Register(context.Background(), in)
	var verr *visitor.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	f := newFixture(t, mailer, nil)

	req, err := f.svc.Register(context.Background(), registerInput(t))
	if err != nil {
		t.Fatalf("mail failure must not fail registration: %v", err)
	}
	if req.Status != visitor.StatusPending {
		t.Errorf("status = %s, want pending", req.Status)
	}
}

func TestDecideApprove(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	req, err := f.svc.Register(ctx, registerInput(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := f.svc.DecideByToken(ctx, req.ApprovalToken, visitor.DecisionApproved)
	if err != nil {
		t.Fatalf("DecideByToken: %v", err)
	}

	if updated.Status != visitor.StatusApproved {
		t.Errorf("status = %s, want approved", updated.Status)
	}
	if updated.ApprovedBy != "R. Iyer" {
		t.Errorf("approvedBy = %q", updated.ApprovedBy)
	}
	if updated.DecisionAt == nil {
		t.Error("decision timestamp missing")
	}

	visitorMail := f.mailer.sentTo("asha@example.com")
	if len(visitorMail) != 1 {
		t.Fatalf("visitor mails = %d, want 1", len(visitorMail))
	}
	if len(visitorMail[0].Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(visitorMail[0].Attachments))
	}
	att := visitorMail[0].Attachments[0]
	if att.Filename != "visitor-pass-"+req.VisitorCode+".pdf" {
		t.Errorf("attachment name = %q", att.Filename)
	}
	if !bytes.HasPrefix(att.Content, []byte("%PDF")) {
		t.Error("attachment is not a PDF")
	}
}

func TestDecideReject(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	req, err := f.svc.Register(ctx, registerInput(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := f.svc.DecideByToken(ctx, req.ApprovalToken, visitor.DecisionRejected)
	if err != nil {
		t.Fatalf("DecideByToken: %v", err)
	}
	if updated.Status != visitor.StatusRejected {
		t.Errorf("status = %s, want rejected", updated.Status)
	}

	visitorMail := f.mailer.sentTo("asha@example.com")
	if len(visitorMail) != 1 {
		t.Fatalf("visitor mails = %d, want 1", len(visitorMail))
	}
	if len(visitorMail[0].Attachments) != 0 {
		t.Error("rejection notice must carry no pass")
	}
}

func TestDecideIsIdempotent(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	req, err := f.svc.Register(ctx, registerInput(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := f.svc.DecideByToken(ctx, req.ApprovalToken, visitor.DecisionApproved); err != nil {
		t.Fatalf("first decision: %v", err)
	}

	// Second use of the link, opposite verdict: no mutation, no side effects.
	current, err := f.svc.DecideByToken(ctx, req.ApprovalToken, visitor.DecisionRejected)
	if !errors.Is(err, visitor.ErrAlreadyDecided) {
		t.Fatalf("err = %v, want ErrAlreadyDecided", err)
	}
	if current == nil || current.Status != visitor.StatusApproved {
		t.Error("second decision must report the recorded status, not mutate it")
	}

	if got := len(f.mailer.sentTo("asha@example.com")); got != 1 {
		t.Errorf("visitor notifications = %d, want exactly 1", got)
	}
}

func TestDecideUnknownToken(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.DecideByToken(context.Background(), "feedfacefeedfacefeedfacefeedface", visitor.DecisionApproved)
	if !errors.Is(err, visitor.ErrTokenNotFound) {
		t.Errorf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestDecideExpiredToken(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	req, err := f.svc.Register(ctx, registerInput(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	f.advance(11 * time.Minute)

	_, err = f.svc.DecideByToken(ctx, req.ApprovalToken, visitor.DecisionApproved)
	if !errors.Is(err, visitor.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}

	stored, _ := f.store.FindByID(ctx, req.ID)
	if stored.Status != visitor.StatusPending {
		t.Error("an expired token must not mutate the record")
	}
}

func TestExpireThenDecide(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	req, err := f.svc.Register(ctx, registerInput(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	expired, err := f.svc.Expire(ctx, req.ID)
	if err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if expired.Status != visitor.StatusExpired {
		t.Errorf("status = %s, want expired", expired.Status)
	}

	_, err = f.svc.DecideByToken(ctx, req.ApprovalToken, visitor.DecisionApproved)
	if !errors.Is(err, visitor.ErrAlreadyDecided) {
		t.Errorf("decision after expiry = %v, want ErrAlreadyDecided", err)
	}
}

func TestExpireIsNoOpOnDecidedRecord(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	req, err := f.svc.Register(ctx, registerInput(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.svc.DecideByToken(ctx, req.ApprovalToken, visitor.DecisionApproved); err != nil {
		t.Fatalf("DecideByToken: %v", err)
	}

	out, err := f.svc.Expire(ctx, req.ID)
	if err != nil {
		t.Fatalf("Expire on decided record must not error: %v", err)
	}
	if out.Status != visitor.StatusApproved {
		t.Errorf("status = %s, approved records never expire", out.Status)
	}
}

func TestDecideByIDNotFound(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.DecideByID(context.Background(), "ghost", visitor.DecisionApproved)
	if !errors.Is(err, visitor.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDecideByID(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	req, err := f.svc.Register(ctx, registerInput(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := f.svc.DecideByID(ctx, req.ID, visitor.DecisionRejected)
	if err != nil {
		t.Fatalf("DecideByID: %v", err)
	}
	if updated.Status != visitor.StatusRejected {
		t.Errorf("status = %s, want rejected", updated.Status)
	}
}

func TestApprovalSurvivesRenderFailure(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("chrome crashed")}
	f := newFixture(t, nil, renderer)
	ctx := context.Background()

	req, err := f.svc.Register(ctx, registerInput(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := f.svc.DecideByToken(ctx, req.ApprovalToken, visitor.DecisionApproved)
	if err != nil {
		t.Fatalf("render failure must not fail the decision: %v", err)
	}
	if updated.Status != visitor.StatusApproved {
		t.Errorf("status = %s, want approved", updated.Status)
	}

	visitorMail := f.mailer.sentTo("asha@example.com")
	if len(visitorMail) != 1 {
		t.Fatalf("visitor mails = %d, want 1", len(visitorMail))
	}
	if len(visitorMail[0].Attachments) != 0 {
		t.Error("notice must go out without an attachment when rendering fails")
	}
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	req, err := f.svc.Register(ctx, registerInput(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	f.advance(11 * time.Minute)

	n, err := f.svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("expired = %d, want 1", n)
	}

	stored, _ := f.store.FindByID(ctx, req.ID)
	if stored.Status != visitor.StatusExpired {
		t.Errorf("status = %s, want expired", stored.Status)
	}

	// A second sweep finds nothing.
	n, err = f.svc.SweepExpired(ctx)
	if err != nil || n != 0 {
		t.Errorf("second sweep = %d, %v; want 0, nil", n, err)
	}
}
