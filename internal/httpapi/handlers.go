package httpapi

import (
	"errors"
	"net/http"
	"time"

	"voice-gateway/internal/auth"
	"voice-gateway/internal/calls"
	"voice-gateway/internal/reporting"
	"voice-gateway/internal/telephony"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Calls     *calls.Service
	Reporting *reporting.Service
}

// --- Auth ---

type loginRequest struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: Real systems must validate credentials before issuing tokens; the
// credential store is an external collaborator here.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.WorkspaceID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, workspace_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.WorkspaceID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Calls ---

type startCallRequest struct {
	From             string `json:"from"`
	To               string `json:"to"`
	AnnouncementText string `json:"announcement_text,omitempty"`
}

func (h Handlers) StartCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}

	var req startCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.From == "" || req.To == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from and to required"})
		return
	}

	call, err := h.Calls.StartCall(c.Request.Context(), calls.StartCallRequest{
		WorkspaceID:      workspaceID,
		From:             req.From,
		To:               req.To,
		AnnouncementText: req.AnnouncementText,
	})
	if err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

func (h Handlers) GetCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}
	call, err := h.Calls.Get(c.Request.Context(), workspaceID, c.Param("call_id"))
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h Handlers) HangupCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}
	// Hangup is idempotent; unknown ids still return 200.
	if err := h.Calls.HangupCall(c.Request.Context(), workspaceID, c.Param("call_id")); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "hangup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

type announceRequest struct {
	Text string `json:"text"`
}

func (h Handlers) Announce(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}
	var req announceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "text required"})
		return
	}
	if err := h.Calls.Announce(c.Request.Context(), workspaceID, c.Param("call_id"), req.Text); err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "queued"})
}

// --- Reporting ---

// CallsSummary aggregates call history for a workspace over a time window.
// Window bounds arrive as RFC3339 `from`/`to` query parameters.
func (h Handlers) CallsSummary(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return
	}

	sum, err := h.Reporting.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		WorkspaceID: workspaceID,
		Range:       reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid report window"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// writeCallError maps service/adapter failures onto HTTP statuses without
// leaking vendor internals beyond what operators need.
func writeCallError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calls.ErrTooManyCalls):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "concurrent call limit reached"})
	default:
		var appErr *telephony.ApplicationError
		if errors.As(err, &appErr) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": appErr.Message, "vendor_code": appErr.Code})
			return
		}
		var tErr *telephony.TransportError
		if errors.As(err, &tErr) {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "provider unreachable"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
