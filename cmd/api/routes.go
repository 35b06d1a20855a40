package main

import (
	"voice-gateway/internal/audit"
	"voice-gateway/internal/auth"
	"voice-gateway/internal/calls"
	"voice-gateway/internal/httpapi"
	"voice-gateway/internal/rbac"
	"voice-gateway/internal/reporting"
	"voice-gateway/internal/telephony"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	Auth      *auth.Manager
	Provider  telephony.VoiceProvider
	Calls     *calls.Service
	Audit     *audit.Service
	Reporting *reporting.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public). Trust is established by the provider's
	// own verification policy, not by bearer auth.
	{
		wh := telephony.WebhookHandler{
			Provider: deps.Provider,
			Events:   deps.Calls,
			OnRejected: func(c *gin.Context, reason string) {
				_ = deps.Audit.LogWebhookRejected(c.Request.Context(), c.ClientIP(), reason, "")
			},
		}
		r.POST("/webhooks/voice/callback", wh.HandleCallback)
	}

	h := httpapi.Handlers{
		Auth:      deps.Auth,
		Calls:     deps.Calls,
		Reporting: deps.Reporting,
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(deps.Auth))
	{
		// Placeholder route to demonstrate identity extraction via context.
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			wid, _ := auth.WorkspaceID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "workspace_id": wid, "role": role})
		})

		// CALLS routes
		callsGroup := v1.Group("/calls")
		callsGroup.Use(rbac.RequireWorkspace())
		{
			write := callsGroup.Group("")
			write.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleSuperAdmin))
			{
				write.POST("", h.StartCall)
				write.DELETE("/:call_id", h.HangupCall)
				write.POST("/:call_id/announce", h.Announce)
			}

			read := callsGroup.Group("")
			read.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
			{
				read.GET("/:call_id", h.GetCall)
			}
		}

		// REPORTING routes
		reports := v1.Group("/reports")
		reports.Use(rbac.RequireWorkspace())
		reports.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
		{
			reports.GET("/calls", h.CallsSummary)
		}
	}

	// AUTH routes (token issuance) stay outside the bearer-protected group.
	r.POST("/v1/auth/login", h.Login)
}
