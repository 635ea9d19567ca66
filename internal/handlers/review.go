package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/takehome/internal/services"
	"github.com/hireloop/takehome/pkg/response"
)

// ReviewHandler exposes the reviewer-facing API.
type ReviewHandler struct {
	review *services.ReviewService
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(review *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{review: review}
}

// Overview handles GET /api/review/:inviteID/overview.
func (h *ReviewHandler) Overview(c *gin.Context) {
	overview, err := h.review.GetOverview(c.Request.Context(), c.Param("inviteID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, overview)
}

// Diff handles GET /api/review/:inviteID/diff.
func (h *ReviewHandler) Diff(c *gin.Context) {
	diff, err := h.review.GetDiff(c.Request.Context(), c.Param("inviteID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, diff)
}

// ListComments handles GET /api/review/:inviteID/comments.
func (h *ReviewHandler) ListComments(c *gin.Context) {
	comments, err := h.review.ListComments(c.Request.Context(), c.Param("inviteID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}

// AddComment handles POST /api/review/:inviteID/comments.
func (h *ReviewHandler) AddComment(c *gin.Context) {
	input, ok := bindAndValidate[services.AddCommentInput](c)
	if !ok {
		return
	}

	comment, err := h.review.AddComment(c.Request.Context(), c.Param("inviteID"), *input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

// ListInlineComments handles GET /api/review/:inviteID/inline-comments.
func (h *ReviewHandler) ListInlineComments(c *gin.Context) {
	comments, err := h.review.ListInlineComments(c.Request.Context(), c.Param("inviteID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}

// AddInlineComment handles POST /api/review/:inviteID/inline-comments.
func (h *ReviewHandler) AddInlineComment(c *gin.Context) {
	input, ok := bindAndValidate[services.AddInlineCommentInput](c)
	if !ok {
		return
	}

	comment, err := h.review.AddInlineComment(c.Request.Context(), c.Param("inviteID"), *input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

// DeleteInlineComment handles DELETE /api/review/:inviteID/inline-comments/:commentID.
func (h *ReviewHandler) DeleteInlineComment(c *gin.Context) {
	err := h.review.DeleteInlineComment(c.Request.Context(), c.Param("inviteID"), c.Param("commentID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// EmailInlineComments handles POST /api/review/:inviteID/inline-comments/email.
func (h *ReviewHandler) EmailInlineComments(c *gin.Context) {
	if err := h.review.SendInlineCommentsEmail(c.Request.Context(), c.Param("inviteID")); err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true})
}

// ListFollowUps handles GET /api/review/:inviteID/followups.
func (h *ReviewHandler) ListFollowUps(c *gin.Context) {
	followUps, err := h.review.ListFollowUps(c.Request.Context(), c.Param("inviteID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, followUps)
}

// SendFollowUp handles POST /api/review/:inviteID/followups.
func (h *ReviewHandler) SendFollowUp(c *gin.Context) {
	record, err := h.review.SendFollowUp(c.Request.Context(), c.Param("inviteID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, record)
}

// GetFollowUpTemplate handles GET /api/email/followup-template.
func (h *ReviewHandler) GetFollowUpTemplate(c *gin.Context) {
	template, err := h.review.GetFollowUpTemplate(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, template)
}

// UpdateFollowUpTemplate handles PUT /api/email/followup-template.
func (h *ReviewHandler) UpdateFollowUpTemplate(c *gin.Context) {
	input, ok := bindAndValidate[services.FollowUpTemplate](c)
	if !ok {
		return
	}

	if err := h.review.UpdateFollowUpTemplate(c.Request.Context(), *input); err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, input)
}
