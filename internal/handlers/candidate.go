package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/takehome/internal/services"
	"github.com/hireloop/takehome/pkg/response"
)

// CandidateHandler exposes the candidate-facing API. The unguessable slug in
// the URL is the sole authorization for these endpoints.
type CandidateHandler struct {
	lifecycle *services.LifecycleService
	invites   *services.InviteService
	review    *services.ReviewService
}

// NewCandidateHandler constructs a CandidateHandler.
func NewCandidateHandler(lifecycle *services.LifecycleService, invites *services.InviteService, review *services.ReviewService) *CandidateHandler {
	return &CandidateHandler{lifecycle: lifecycle, invites: invites, review: review}
}

// GetStartInfo handles GET /api/candidate/:slug. Each read on a started
// invite mints a fresh clone token.
func (h *CandidateHandler) GetStartInfo(c *gin.Context) {
	info, err := h.lifecycle.GetStartInfo(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, info)
}

// Start handles POST /api/candidate/:slug/start.
func (h *CandidateHandler) Start(c *gin.Context) {
	result, err := h.lifecycle.StartAssessment(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Submit handles POST /api/candidate/:slug/submit.
func (h *CandidateHandler) Submit(c *gin.Context) {
	result, err := h.lifecycle.SubmitAssessment(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ListCommits handles GET /api/candidate/:slug/commits. Lets the candidate
// confirm what the reviewer will see.
func (h *CandidateHandler) ListCommits(c *gin.Context) {
	invite, err := h.invites.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	overview, err := h.review.GetOverview(c.Request.Context(), invite.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, overview.Commits)
}

// ListComments handles GET /api/candidate/:slug/comments.
func (h *CandidateHandler) ListComments(c *gin.Context) {
	invite, err := h.invites.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	comments, err := h.review.ListComments(c.Request.Context(), invite.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}

// AddComment handles POST /api/candidate/:slug/comments. The author is always
// the invite's candidate.
func (h *CandidateHandler) AddComment(c *gin.Context) {
	type candidateCommentBody struct {
		Message string `json:"message" validate:"required,min=1"`
	}

	body, ok := bindAndValidate[candidateCommentBody](c)
	if !ok {
		return
	}

	invite, err := h.invites.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if invite.Candidate == nil {
		handleServiceError(c, services.ErrInviteNotFound)
		return
	}

	comment, err := h.review.AddComment(c.Request.Context(), invite.ID, services.AddCommentInput{
		AuthorType:  "candidate",
		AuthorEmail: invite.Candidate.Email,
		AuthorName:  invite.Candidate.FullName,
		Message:     body.Message,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}
