package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hireloop/takehome/internal/github"
	"github.com/hireloop/takehome/internal/services"
	appErrors "github.com/hireloop/takehome/pkg/errors"
	"github.com/hireloop/takehome/pkg/logger"
	"github.com/hireloop/takehome/pkg/mail"
	"github.com/hireloop/takehome/pkg/response"
	"github.com/hireloop/takehome/pkg/validator"
)

// bindAndValidate decodes the JSON body into T and runs struct validation,
// writing the error response itself on failure.
func bindAndValidate[T any](c *gin.Context) (*T, bool) {
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload").WithInternal(err))
		return nil, false
	}
	if err := validator.ValidateStruct(payload); err != nil {
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return nil, false
	}
	return &payload, true
}

// serviceError maps service sentinels onto transport-level errors. Anything
// unrecognised becomes a 500 with the cause kept internal.
func serviceError(err error) *appErrors.AppError {
	switch {
	case errors.Is(err, services.ErrAssessmentNotFound),
		errors.Is(err, services.ErrInviteNotFound),
		errors.Is(err, services.ErrCandidateRepoNotFound),
		errors.Is(err, services.ErrCommentNotFound):
		return appErrors.ErrNotFound.WithInternal(err)

	case errors.Is(err, services.ErrInvalidSeedRepoURL):
		return appErrors.NewBadRequest("seed_repo_url must reference a GitHub repository").WithInternal(err)

	case errors.Is(err, services.ErrInviteAlreadyStarted):
		return appErrors.ErrPreconditionFailed.
			WithMessage("Assessment has already been started").
			WithInternal(err)

	case errors.Is(err, services.ErrInviteNotStarted):
		return appErrors.ErrPreconditionFailed.
			WithMessage("Assessment is not in progress").
			WithInternal(err)

	case errors.Is(err, services.ErrStartDeadlinePassed):
		return appErrors.ErrDeadlineExceeded.
			WithMessage("The window to start this assessment has passed").
			WithInternal(err)

	case errors.Is(err, mail.ErrSMTPDisabled):
		return appErrors.ErrConfiguration.
			WithMessage("Email delivery is not configured").
			WithInternal(err)

	case errors.Is(err, github.ErrNotConfigured):
		return appErrors.ErrConfiguration.
			WithMessage("Git hosting credentials are not configured").
			WithInternal(err)

	case errors.Is(err, services.ErrProvisionFailed):
		return appErrors.ErrUpstream.
			WithMessage("Could not provision the candidate repository").
			WithInternal(err)

	case errors.Is(err, services.ErrDiffUnavailable):
		return appErrors.ErrUpstream.
			WithMessage("Could not load the diff from the hosting provider").
			WithInternal(err)

	default:
		return appErrors.ErrInternalServer.WithInternal(err)
	}
}

// handleServiceError logs server-side failures and writes the mapped response.
func handleServiceError(c *gin.Context, err error) {
	appErr := serviceError(err)
	if appErr.StatusCode >= 500 {
		logger.WithModule("http").Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Error(c, appErr)
}
