package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/takehome/internal/services"
	"github.com/hireloop/takehome/pkg/response"
)

// InviteHandler exposes the admin invite API.
type InviteHandler struct {
	invites *services.InviteService
}

// NewInviteHandler constructs an InviteHandler.
func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// Get handles GET /api/invites/:id.
func (h *InviteHandler) Get(c *gin.Context) {
	invite, err := h.invites.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"invite":    invite,
		"start_url": h.invites.StartURL(invite.StartURLSlug),
	})
}

// Delete handles DELETE /api/invites/:id. Removes the invite and every row it
// owns; the hosted repository itself is left to manual cleanup.
func (h *InviteHandler) Delete(c *gin.Context) {
	if err := h.invites.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ResendEmail handles POST /api/invites/:id/resend-email.
func (h *InviteHandler) ResendEmail(c *gin.Context) {
	if err := h.invites.ResendInviteEmail(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true})
}
