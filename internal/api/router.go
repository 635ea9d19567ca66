package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/hireloop/takehome/internal/app"
	"github.com/hireloop/takehome/internal/handlers"
	"github.com/hireloop/takehome/internal/middleware"
	"github.com/hireloop/takehome/internal/services"
)

// Services bundles the service layer for route registration.
type Services struct {
	Assessments *services.AssessmentService
	Invites     *services.InviteService
	Lifecycle   *services.LifecycleService
	Review      *services.ReviewService
}

// NewRouter wires middleware and all route groups onto a gin engine.
func NewRouter(cfg *app.Config, db *gorm.DB, svcs Services) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.CORS(cfg.Server.AllowedOrigins),
	)

	if cfg.Monitoring.Health.Enabled {
		health := handlers.NewHealthHandler(db)
		router.GET("/health", health.Check)
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		router.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	assessmentHandler := handlers.NewAssessmentHandler(svcs.Assessments, svcs.Invites)
	inviteHandler := handlers.NewInviteHandler(svcs.Invites)
	candidateHandler := handlers.NewCandidateHandler(svcs.Lifecycle, svcs.Invites, svcs.Review)
	reviewHandler := handlers.NewReviewHandler(svcs.Review)

	api := router.Group("/api")
	{
		assessments := api.Group("/assessments")
		{
			assessments.POST("", assessmentHandler.Create)
			assessments.GET("", assessmentHandler.List)
			assessments.GET("/:id", assessmentHandler.Get)
			assessments.PATCH("/:id", assessmentHandler.Update)
			assessments.DELETE("/:id", assessmentHandler.Delete)
			assessments.POST("/:id/archive", assessmentHandler.Archive)
			assessments.POST("/:id/unarchive", assessmentHandler.Unarchive)
			assessments.POST("/:id/invites", assessmentHandler.CreateInvite)
			assessments.GET("/:id/invites", assessmentHandler.ListInvites)
		}

		invites := api.Group("/invites")
		{
			invites.GET("/:id", inviteHandler.Get)
			invites.DELETE("/:id", inviteHandler.Delete)
			invites.POST("/:id/resend-email", inviteHandler.ResendEmail)
		}

		candidate := api.Group("/candidate")
		{
			candidate.GET("/:slug", candidateHandler.GetStartInfo)
			candidate.POST("/:slug/start", candidateHandler.Start)
			candidate.POST("/:slug/submit", candidateHandler.Submit)
			candidate.GET("/:slug/commits", candidateHandler.ListCommits)
			candidate.GET("/:slug/comments", candidateHandler.ListComments)
			candidate.POST("/:slug/comments", candidateHandler.AddComment)
		}

		review := api.Group("/review")
		{
			review.GET("/:inviteID/overview", reviewHandler.Overview)
			review.GET("/:inviteID/diff", reviewHandler.Diff)
			review.GET("/:inviteID/comments", reviewHandler.ListComments)
			review.POST("/:inviteID/comments", reviewHandler.AddComment)
			review.GET("/:inviteID/inline-comments", reviewHandler.ListInlineComments)
			review.POST("/:inviteID/inline-comments", reviewHandler.AddInlineComment)
			review.DELETE("/:inviteID/inline-comments/:commentID", reviewHandler.DeleteInlineComment)
			review.POST("/:inviteID/inline-comments/email", reviewHandler.EmailInlineComments)
			review.GET("/:inviteID/followups", reviewHandler.ListFollowUps)
			review.POST("/:inviteID/followups", reviewHandler.SendFollowUp)
		}

		email := api.Group("/email")
		{
			email.GET("/followup-template", reviewHandler.GetFollowUpTemplate)
			email.PUT("/followup-template", reviewHandler.UpdateFollowUpTemplate)
		}
	}

	return router
}
