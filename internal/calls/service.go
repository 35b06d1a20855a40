package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voice-gateway/internal/audit"
	"voice-gateway/internal/telephony"
	"voice-gateway/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Service orchestrates outbound calls through the provider facade and keeps
// the durable history in step with normalized webhook events.
//
// Concurrency model: each call-control operation and each inbound event is an
// independent task; nothing here blocks an unrelated call. The per-workspace
// concurrency cap is enforced atomically in Redis so multiple API instances
// agree on the count.
type Service struct {
	provider telephony.VoiceProvider
	repo     Repository
	rdb      *redis.Client
	audit    *audit.Service

	maxConcurrent int
	clock         func() time.Time
}

type ServiceConfig struct {
	Provider telephony.VoiceProvider
	Repo     Repository

	// Redis and MaxConcurrentCalls are optional; without them the cap is
	// disabled.
	Redis              *redis.Client
	MaxConcurrentCalls int

	// Audit is optional and best-effort.
	Audit *audit.Service
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Provider == nil {
		return nil, errors.New("calls: provider is required")
	}
	if cfg.Repo == nil {
		return nil, errors.New("calls: repository is required")
	}
	return &Service{
		provider:      cfg.Provider,
		repo:          cfg.Repo,
		rdb:           cfg.Redis,
		audit:         cfg.Audit,
		maxConcurrent: cfg.MaxConcurrentCalls,
		clock:         time.Now,
	}, nil
}

var ErrTooManyCalls = errors.New("calls: workspace concurrent call limit reached")

// capTTL bounds a leaked cap slot if a process dies between acquire and
// release. Generous relative to any realistic call duration.
const capTTL = 2 * time.Hour

func capKey(workspaceID string) string {
	return "calls:concurrency:" + workspaceID
}

type StartCallRequest struct {
	WorkspaceID      string `json:"workspace_id"`
	From             string `json:"from"`
	To               string `json:"to"`
	AnnouncementText string `json:"announcement_text,omitempty"`
}

// StartCall places an outbound call and records it.
func (s *Service) StartCall(ctx context.Context, req StartCallRequest) (Call, error) {
	if req.WorkspaceID == "" {
		return Call{}, errors.New("calls: workspace_id is required")
	}
	if req.From == "" || req.To == "" {
		return Call{}, errors.New("calls: from and to are required")
	}

	if err := s.acquireCap(ctx, req.WorkspaceID); err != nil {
		return Call{}, err
	}

	callID := uuid.NewString()
	res, err := s.provider.InitiateCall(ctx, telephony.InitiateCallRequest{
		CallID:           callID,
		From:             req.From,
		To:               req.To,
		AnnouncementText: req.AnnouncementText,
	})
	if err != nil {
		s.releaseCap(ctx, req.WorkspaceID)
		return Call{}, err
	}

	now := s.clock().UTC()
	c := Call{
		CallID:         callID,
		WorkspaceID:    req.WorkspaceID,
		ProviderCallID: res.ProviderCallID,
		From:           req.From,
		To:             req.To,
		Status:         CallStatusInitiated,
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		// The vendor call is already live; tear it down rather than leak it.
		_ = s.provider.HangupCall(ctx, callID, res.ProviderCallID)
		s.releaseCap(ctx, req.WorkspaceID)
		return Call{}, fmt.Errorf("calls: recording call failed: %w", err)
	}

	s.auditCall(ctx, c, audit.EventTypeCallInitiated, "call initiated")
	return c, nil
}

// HangupCall tears a call down. It is idempotent: hanging up a call that is
// already gone (or was never recorded) succeeds quietly.
func (s *Service) HangupCall(ctx context.Context, workspaceID, callID string) error {
	c, err := s.repo.Get(ctx, workspaceID, callID)
	if errors.Is(err, ErrNotFound) {
		// Still ask the provider to drop any tracked session for this id.
		_ = s.provider.HangupCall(ctx, callID, "")
		return nil
	}
	if err != nil {
		return err
	}

	// Best-effort teardown: local state is released regardless.
	hangupErr := s.provider.HangupCall(ctx, callID, c.ProviderCallID)
	if hangupErr != nil {
		s.auditCall(ctx, c, audit.EventTypeCallHangup, "hangup command failed: "+hangupErr.Error())
	} else {
		s.auditCall(ctx, c, audit.EventTypeCallHangup, "call hung up")
	}

	if c.Status != CallStatusEnded {
		now := s.clock().UTC()
		if err := s.repo.UpdateStatus(ctx, callID, CallStatusEnded, string(telephony.EndReasonHangupBot), &now); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		s.releaseCap(ctx, workspaceID)
	}
	return nil
}

// Announce speaks text into a live call.
func (s *Service) Announce(ctx context.Context, workspaceID, callID, text string) error {
	if text == "" {
		return errors.New("calls: announcement text is required")
	}
	c, err := s.repo.Get(ctx, workspaceID, callID)
	if err != nil {
		return err
	}
	if c.Status == CallStatusEnded {
		return errors.New("calls: call already ended")
	}
	return s.provider.PlayAnnouncement(ctx, c.ProviderCallID, text)
}

// Get returns one workspace-scoped call record.
func (s *Service) Get(ctx context.Context, workspaceID, callID string) (Call, error) {
	return s.repo.Get(ctx, workspaceID, callID)
}

// HandleEvent implements telephony.EventConsumer. Events for calls that are
// no longer (or were never) recorded are dropped: events can race teardown.
func (s *Service) HandleEvent(ctx context.Context, ev telephony.Event) error {
	if ev.CallID == "" {
		return nil
	}
	status, ok := statusForEvent(ev.Type)
	if !ok {
		return nil
	}

	c, err := s.repo.GetByCallID(ctx, ev.CallID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if c.Status == CallStatusEnded {
		return nil
	}

	var endedAt *time.Time
	var reason string
	if status == CallStatusEnded {
		t := ev.OccurredAt
		if t.IsZero() {
			t = s.clock().UTC()
		}
		endedAt = &t
		reason = string(ev.Reason)
		s.releaseCap(ctx, c.WorkspaceID)
	}

	if err := s.repo.UpdateStatus(ctx, ev.CallID, status, reason, endedAt); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) acquireCap(ctx context.Context, workspaceID string) error {
	if s.rdb == nil || s.maxConcurrent <= 0 {
		return nil
	}
	ok, err := utils.AcquireCallSlot(ctx, s.rdb, capKey(workspaceID), s.maxConcurrent, capTTL)
	if err != nil {
		// Fail open: a broken cap store must not take calling down.
		return nil
	}
	if !ok {
		return ErrTooManyCalls
	}
	return nil
}

func (s *Service) releaseCap(ctx context.Context, workspaceID string) {
	if s.rdb == nil || s.maxConcurrent <= 0 {
		return
	}
	_ = utils.ReleaseCallSlot(ctx, s.rdb, capKey(workspaceID))
}

func (s *Service) auditCall(ctx context.Context, c Call, typ audit.EventType, message string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Append(ctx, audit.Event{
		WorkspaceID: c.WorkspaceID,
		Type:        typ,
		CallID:      c.CallID,
		Message:     message,
	})
}
