// Package services provides the application services orchestrating the
// visitor approval workflow.
package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/domain/repositories"
	"github.com/logiclens/gatepass-go/internal/infrastructure/media"
	"github.com/logiclens/gatepass-go/internal/infrastructure/messaging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/performance"
	"github.com/logiclens/gatepass-go/internal/infrastructure/security"
)

const maxCodeAttempts = 5

// RegisterInput carries the fields captured by the registration kiosk.
type RegisterInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile"`
	NationalID string `json:"aadhar"`
	Purpose    string `json:"purpose"`
	HostName   string `json:"toMeet"`
	HostEmail  string `json:"hostEmail"`
	Photo      string `json:"photo"`
}

// VisitorServiceConfig tunes lifecycle windows; zero values fall back to
// production defaults. Clock is injectable for tests.
type VisitorServiceConfig struct {
	CodePrefix    string
	RequestWindow time.Duration
	TokenWindow   time.Duration
	ArtifactsDir  string
	Clock         func() time.Time
}

// VisitorService is the visitor lifecycle state machine: it owns every
// transition of a request between pending and its terminal states and
// triggers the notification side effects of each transition.
type VisitorService struct {
	repo        repositories.VisitorRepository
	dispatcher  *DispatchService
	broadcaster *messaging.Broadcaster
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker

	codePrefix    string
	requestWindow time.Duration
	tokenWindow   time.Duration
	artifactsDir  string
	now           func() time.Time
}

// NewVisitorService creates the lifecycle service.
func NewVisitorService(
	repo repositories.VisitorRepository,
	dispatcher *DispatchService,
	broadcaster *messaging.Broadcaster,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	cfg VisitorServiceConfig,
) *VisitorService {
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = "LOGIC"
	}
	if cfg.RequestWindow <= 0 {
		cfg.RequestWindow = 10 * time.Minute
	}
	if cfg.TokenWindow <= 0 {
		cfg.TokenWindow = 10 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &VisitorService{
		repo:          repo,
		dispatcher:    dispatcher,
		broadcaster:   broadcaster,
		logger:        logger,
		perfTracker:   perfTracker,
		codePrefix:    cfg.CodePrefix,
		requestWindow: cfg.RequestWindow,
		tokenWindow:   cfg.TokenWindow,
		artifactsDir:  cfg.ArtifactsDir,
		now:           cfg.Clock,
	}
}

// Register validates the input, builds the QR artifact and decision token,
// persists the pending record, and notifies the host. Host notification
// failure does not fail registration; the stored record is the source of
// truth and the operator is warned instead.
func (s *VisitorService) Register(ctx context.Context, in RegisterInput) (*visitor.Request, error) {
	marker := s.perfTracker.StartOperation("register_visitor", "new")
	defer marker.Complete()

	if err := validateRegisterInput(in); err != nil {
		marker.SetError(err)
		return nil, err
	}

	photo, err := media.NormalizePhoto(in.Photo)
	if err != nil {
		verr := &visitor.ValidationError{Fields: []string{"photo"}}
		marker.SetError(verr)
		s.logger.Visitor().Warn("Rejected unreadable visitor photo", "error", err)
		return nil, verr
	}

	now := s.now().UTC()

	code, err := s.uniqueVisitorCode(ctx, now)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	expiresAt := now.Add(s.requestWindow)

	// QR generation precedes persistence: a record must never exist
	// without its QR artifact.
	qr, err := media.EncodeVisitorQR(code, in.Name, expiresAt)
	if err != nil {
		marker.SetError(err)
		s.logger.Visitor().Error("QR encoding failed during registration", "error", err)
		return nil, err
	}

	token, err := security.GenerateDecisionToken()
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	req := &visitor.Request{
		ID:             security.GenerateULID(),
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.TrimSpace(in.Email),
		Mobile:         strings.TrimSpace(in.Mobile),
		NationalID:     strings.TrimSpace(in.NationalID),
		Purpose:        strings.TrimSpace(in.Purpose),
		HostName:       strings.TrimSpace(in.HostName),
		HostEmail:      strings.TrimSpace(in.HostEmail),
		Photo:          photo,
		VisitorCode:    code,
		QRCode:         qr,
		Status:         visitor.StatusPending,
		ApprovalToken:  token,
		TokenExpiresAt: now.Add(s.tokenWindow),
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.SubjectID = req.ID
	s.logger.Visitor().Info("Visitor registered",
		"visitorId", req.ID, "visitorCode", req.VisitorCode, "host", req.HostEmail)

	s.cacheQRArtifact(req)
	s.broadcaster.Publish(messaging.EventVisitorRegistered, req)

	if err := s.dispatcher.NotifyHost(ctx, req); err != nil {
		// At-least-attempted delivery: the record stands, the operator hears
		// about the miss.
		s.logger.Alert().Warn("Host notification failed after registration",
			"visitorId", req.ID, "host", req.HostEmail, "error", err)
	}

	marker.SetSuccess(true)
	return req, nil
}

// DecideByToken resolves the email-link decision path: the token is the
// bearer credential. Validation order matches the link lifecycle: existence,
// expiry, then current status.
func (s *VisitorService) DecideByToken(ctx context.Context, token string, decision visitor.Decision) (*visitor.Request, error) {
	marker := s.perfTracker.StartOperation("decide_by_token", "unknown")
	defer marker.Complete()

	req, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	marker.SubjectID = req.ID

	if req.TokenExpired(s.now()) {
		// An expired token on an already-decided record reads as decided,
		// not expired; the decision is the more useful answer.
		if req.Status != visitor.StatusPending {
			marker.SetError(visitor.ErrAlreadyDecided)
			return req, visitor.ErrAlreadyDecided
		}
		marker.SetError(visitor.ErrTokenExpired)
		return nil, visitor.ErrTokenExpired
	}

	if req.Status != visitor.StatusPending {
		marker.SetError(visitor.ErrAlreadyDecided)
		return req, visitor.ErrAlreadyDecided
	}

	out, err := s.applyDecision(ctx, req, decision)
	if err != nil {
		marker.SetError(err)
		return out, err
	}
	marker.SetSuccess(true)
	return out, nil
}

// DecideByID resolves the id-addressed decision path used by the admin
// console. Authorization happens upstream; the transition rules are the same.
func (s *VisitorService) DecideByID(ctx context.Context, id string, decision visitor.Decision) (*visitor.Request, error) {
	marker := s.perfTracker.StartOperation("decide_by_id", id)
	defer marker.Complete()

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if req.Status != visitor.StatusPending {
		marker.SetError(visitor.ErrAlreadyDecided)
		return req, visitor.ErrAlreadyDecided
	}

	out, err := s.applyDecision(ctx, req, decision)
	if err != nil {
		marker.SetError(err)
		return out, err
	}
	marker.SetSuccess(true)
	return out, nil
}

// applyDecision commits the pending→terminal transition and runs its side
// effects. The conditional update is the concurrency guard: whichever of two
// racing decisions loses sees zero rows affected and reports AlreadyDecided
// with no side effects of its own.
func (s *VisitorService) applyDecision(ctx context.Context, req *visitor.Request, decision visitor.Decision) (*visitor.Request, error) {
	next := decision.Status()
	fields := &repositories.DecisionFields{DecisionAt: s.now().UTC()}
	if decision == visitor.DecisionApproved {
		fields.ApprovedBy = req.HostName
		if fields.ApprovedBy == "" {
			fields.ApprovedBy = "Host"
		}
	}

	applied, err := s.repo.ConditionalUpdateStatus(ctx, req.ID, visitor.StatusPending, next, fields)
	if err != nil {
		return nil, err
	}
	if !applied {
		current, ferr := s.repo.FindByID(ctx, req.ID)
		if ferr != nil {
			return nil, ferr
		}
		return current, visitor.ErrAlreadyDecided
	}

	updated, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Decision().Info("Visitor decision recorded",
		"visitorId", updated.ID, "status", updated.Status, "approvedBy", updated.ApprovedBy)

	// The transition is committed; notification failures from here on are
	// logged, never unwound.
	switch next {
	case visitor.StatusApproved:
		if err := s.dispatcher.NotifyVisitorApproved(ctx, updated); err != nil {
			s.logger.Alert().Warn("Approval notification failed",
				"visitorId", updated.ID, "error", err)
		}
	case visitor.StatusRejected:
		if err := s.dispatcher.NotifyVisitorRejected(ctx, updated); err != nil {
			s.logger.Alert().Warn("Rejection notification failed",
				"visitorId", updated.ID, "error", err)
		}
	}

	s.broadcaster.Publish(messaging.EventVisitorDecision, updated)
	return updated, nil
}

// Expire moves a still-pending record to expired. Calling it on an already
// decided or already expired record is a silent no-op, not an error.
func (s *VisitorService) Expire(ctx context.Context, id string) (*visitor.Request, error) {
	marker := s.perfTracker.StartOperation("expire_visitor", id)
	defer marker.Complete()

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if req.Status != visitor.StatusPending {
		marker.SetSuccess(true)
		return req, nil
	}

	applied, err := s.repo.ConditionalUpdateStatus(ctx, id, visitor.StatusPending, visitor.StatusExpired, nil)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if applied {
		s.logger.Visitor().Info("Visitor request expired", "visitorId", id)
	}
	marker.SetSuccess(true)
	return updated, nil
}

// SweepExpired expires every pending record past its deadline. It backs the
// background sweep so abandoned requests cannot stay pending forever.
func (s *VisitorService) SweepExpired(ctx context.Context) (int, error) {
	marker := s.perfTracker.StartOperation("sweep_expired", "system")
	defer marker.Complete()

	ids, err := s.repo.ListOverduePending(ctx, s.now().UTC())
	if err != nil {
		marker.SetError(err)
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		applied, err := s.repo.ConditionalUpdateStatus(ctx, id, visitor.StatusPending, visitor.StatusExpired, nil)
		if err != nil {
			s.logger.Visitor().Error("Failed to expire overdue visitor", "visitorId", id, "error", err)
			continue
		}
		if applied {
			expired++
		}
	}

	if expired > 0 {
		s.logger.Visitor().Info("Expiry sweep completed", "expired", expired)
	}
	marker.SetSuccess(true)
	return expired, nil
}

// Get loads a single visitor record.
func (s *VisitorService) Get(ctx context.Context, id string) (*visitor.Request, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all visitor records, newest first.
func (s *VisitorService) List(ctx context.Context) ([]*visitor.Request, error) {
	return s.repo.ListAll(ctx)
}

func (s *VisitorService) uniqueVisitorCode(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := security.GenerateVisitorCode(s.codePrefix, now)
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		s.logger.Visitor().Debug("Visitor code collision, regenerating", "code", code)
	}
	return "", fmt.Errorf("could not generate a unique visitor code after %d attempts", maxCodeAttempts)
}

// cacheQRArtifact writes the QR PNG to the artifacts dir keyed by visitor
// id. The file is disposable; the stored data URI stays authoritative.
func (s *VisitorService) cacheQRArtifact(req *visitor.Request) {
	if s.artifactsDir == "" {
		return
	}
	raw := req.QRCode
	if idx := strings.IndexByte(raw, ','); idx >= 0 {
		raw = raw[idx+1:]
	}
	png, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return
	}
	if err := os.MkdirAll(s.artifactsDir, 0755); err != nil {
		return
	}
	path := filepath.Join(s.artifactsDir, fmt.Sprintf("qr_%s.png", req.ID))
	if err := os.WriteFile(path, png, 0644); err != nil {
		s.logger.Visitor().Debug("Failed to cache QR artifact", "path", path, "error", err)
	}
}

func validateRegisterInput(in RegisterInput) error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Mobile) == "" {
		missing = append(missing, "mobile")
	}
	if strings.TrimSpace(in.NationalID) == "" {
		missing = append(missing, "aadhar")
	}
	if strings.TrimSpace(in.Purpose) == "" {
		missing = append(missing, "purpose")
	}
	if strings.TrimSpace(in.Photo) == "" {
		missing = append(missing, "photo")
	}
	if strings.TrimSpace(in.HostEmail) == "" {
		missing = append(missing, "hostEmail")
	}
	if len(missing) > 0 {
		return &visitor.ValidationError{Fields: missing}
	}
	return nil
}
