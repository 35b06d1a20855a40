package reporting

import (
	"context"
	"errors"
	"time"

	"voice-gateway/internal/calls"
	"voice-gateway/internal/telephony"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Methods must enforce workspace filtering.
// - Implementations should query the immutable call history, never live
//   adapter state.
type Repository interface {
	ListCalls(ctx context.Context, workspaceID string, from, to time.Time) ([]calls.Call, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.WorkspaceID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListCalls(ctx, req.WorkspaceID, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{WorkspaceID: req.WorkspaceID}
	for _, c := range rows {
		out.TotalCalls++

		if c.EndedAt != nil && c.EndedAt.After(c.StartedAt) {
			out.TotalDurationSeconds += int(c.EndedAt.Sub(c.StartedAt).Seconds())
		}

		if c.Status != calls.CallStatusEnded {
			if c.Status == calls.CallStatusInProgress {
				out.InProgressCalls++
			}
			continue
		}
		switch telephony.EndReason(c.Reason) {
		case telephony.EndReasonCompleted:
			out.CompletedCalls++
		case telephony.EndReasonFailed:
			out.FailedCalls++
		case telephony.EndReasonNoAnswer:
			out.NoAnswerCalls++
		case telephony.EndReasonBusy:
			out.BusyCalls++
		case telephony.EndReasonHangupUser, telephony.EndReasonHangupBot:
			out.HangupCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}
