package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/takehome/internal/services"
	"github.com/hireloop/takehome/pkg/response"
)

// AssessmentHandler exposes the admin assessment API.
type AssessmentHandler struct {
	assessments *services.AssessmentService
	invites     *services.InviteService
}

// NewAssessmentHandler constructs an AssessmentHandler.
func NewAssessmentHandler(assessments *services.AssessmentService, invites *services.InviteService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments, invites: invites}
}

// Create handles POST /api/assessments.
func (h *AssessmentHandler) Create(c *gin.Context) {
	input, ok := bindAndValidate[services.CreateAssessmentInput](c)
	if !ok {
		return
	}

	assessment, err := h.assessments.Create(c.Request.Context(), *input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, assessment)
}

// List handles GET /api/assessments. Pass ?archived=true to include archived
// assessments.
func (h *AssessmentHandler) List(c *gin.Context) {
	includeArchived := c.Query("archived") == "true"

	assessments, err := h.assessments.List(c.Request.Context(), includeArchived)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, assessments)
}

// Get handles GET /api/assessments/:id.
func (h *AssessmentHandler) Get(c *gin.Context) {
	assessment, err := h.assessments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, assessment)
}

// Update handles PATCH /api/assessments/:id.
func (h *AssessmentHandler) Update(c *gin.Context) {
	input, ok := bindAndValidate[services.UpdateAssessmentInput](c)
	if !ok {
		return
	}

	assessment, err := h.assessments.Update(c.Request.Context(), c.Param("id"), *input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, assessment)
}

// Archive handles POST /api/assessments/:id/archive.
func (h *AssessmentHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

// Unarchive handles POST /api/assessments/:id/unarchive.
func (h *AssessmentHandler) Unarchive(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *AssessmentHandler) setArchived(c *gin.Context, archived bool) {
	assessment, err := h.assessments.SetArchived(c.Request.Context(), c.Param("id"), archived)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, assessment)
}

// Delete handles DELETE /api/assessments/:id.
func (h *AssessmentHandler) Delete(c *gin.Context) {
	if err := h.assessments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// CreateInvite handles POST /api/assessments/:id/invites.
func (h *AssessmentHandler) CreateInvite(c *gin.Context) {
	type createInviteBody struct {
		CandidateEmail string `json:"candidate_email" validate:"required,email"`
		CandidateName  string `json:"candidate_name,omitempty"`
	}

	body, ok := bindAndValidate[createInviteBody](c)
	if !ok {
		return
	}

	invite, err := h.invites.CreateInvite(c.Request.Context(), services.CreateInviteInput{
		AssessmentID:   c.Param("id"),
		CandidateEmail: body.CandidateEmail,
		CandidateName:  body.CandidateName,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"invite":    invite,
		"start_url": h.invites.StartURL(invite.StartURLSlug),
	})
}

// ListInvites handles GET /api/assessments/:id/invites.
func (h *AssessmentHandler) ListInvites(c *gin.Context) {
	invites, err := h.invites.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, invites)
}
