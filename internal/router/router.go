// Package router mounts every HTTP route of the marketplace API.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/handler"
	"github.com/noah-isme/event-idea-marketplace/internal/middleware"
	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

var (
	superAdmin = string(models.RoleSuperAdmin)
	clubAdmin  = string(models.RoleClubAdmin)
)

// Handlers groups the HTTP handlers routed by Register.
type Handlers struct {
	Auth               *handler.AuthHandler
	Users              *handler.UserHandler
	Clubs              *handler.ClubHandler
	Events             *handler.EventHandler
	Ideas              *handler.IdeaHandler
	Problems           *handler.ProblemHandler
	Votes              *handler.VoteHandler
	Comments           *handler.CommentHandler
	Halls              *handler.HallHandler
	SuperAdminRequests *handler.SuperAdminRequestHandler
	Notifications      *handler.NotificationHandler
	Achievements       *handler.AchievementHandler
	Registrations      *handler.RegistrationHandler
	Analytics          *handler.AnalyticsHandler
	Uploads            *handler.UploadHandler
	Exports            *handler.ExportHandler
}

// Options carries the cross-cutting middleware routes depend on.
type Options struct {
	// Authenticate places *models.JWTClaims on the context or aborts.
	Authenticate gin.HandlerFunc
	// Audit builds an audit-log middleware for privileged mutations. Nil disables auditing.
	Audit func(action, resource string) gin.HandlerFunc
}

func (o Options) audit(action, resource string) gin.HandlerFunc {
	if o.Audit == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return o.Audit(action, resource)
}

// Register mounts all routes on api.
func Register(api *gin.RouterGroup, h Handlers, opts Options) {
	auth := opts.Authenticate
	onlySuperAdmin := middleware.RBAC(superAdmin)
	admins := middleware.RBAC(clubAdmin, superAdmin)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.GET("/google/url", h.Auth.GoogleURL)
	authGroup.POST("/google", h.Auth.GoogleLogin)
	authGroup.POST("/logout", auth, h.Auth.Logout)
	authGroup.POST("/change-password", auth, h.Auth.ChangePassword)
	authGroup.GET("/me", auth, h.Auth.Me)

	users := api.Group("/users", auth)
	users.GET("", onlySuperAdmin, h.Users.List)
	users.GET("/by-role/:role", onlySuperAdmin, h.Users.ByRole)
	users.GET("/count", onlySuperAdmin, h.Users.Count)
	users.GET("/analytics", onlySuperAdmin, h.Users.Analytics)
	users.GET("/me/memberships", h.Clubs.MyMemberships)
	users.GET("/:id", middleware.RBAC(middleware.Self, superAdmin), h.Users.Get)

	clubs := api.Group("/clubs")
	clubs.GET("", h.Clubs.List)
	clubs.GET("/search", h.Clubs.Search)
	clubs.GET("/mine", auth, admins, h.Clubs.Mine)
	clubs.GET("/pending", auth, onlySuperAdmin, h.Clubs.Pending)
	clubs.GET("/:id", h.Clubs.Get)
	clubs.POST("", auth, admins, h.Clubs.Create)
	clubs.PUT("/:id", auth, admins, h.Clubs.Update)
	clubs.DELETE("/:id", auth, admins, opts.audit(models.AuditActionDelete, "club"), h.Clubs.Delete)
	clubs.POST("/:id/approve", auth, onlySuperAdmin, opts.audit(models.AuditActionApprove, "club"), h.Clubs.Approve)
	clubs.POST("/:id/reject", auth, onlySuperAdmin, opts.audit(models.AuditActionReject, "club"), h.Clubs.Reject)
	clubs.GET("/:id/members", h.Clubs.Members)
	clubs.POST("/:id/members/join", auth, h.Clubs.Join)
	clubs.POST("/:id/members/leave", auth, h.Clubs.Leave)
	clubs.PUT("/:id/members/:membershipId/role", auth, h.Clubs.UpdateMemberRole)
	clubs.DELETE("/:id/members/:membershipId", auth, h.Clubs.RemoveMember)

	events := api.Group("/events")
	events.GET("", h.Events.List)
	events.GET("/search", h.Events.Search)
	events.GET("/upcoming", h.Events.Upcoming)
	events.GET("/ongoing", h.Events.Ongoing)
	events.GET("/active", h.Events.Active)
	events.GET("/club/:clubId", h.Events.ByClub)
	events.GET("/club/:clubId/count", h.Events.CountByClub)
	events.GET("/club/:clubId/topics", h.Events.ClubTopics)
	events.GET("/pending-approval", auth, onlySuperAdmin, h.Events.PendingApproval)
	events.GET("/approved", auth, onlySuperAdmin, h.Events.Approved)
	events.GET("/rejected", auth, onlySuperAdmin, h.Events.Rejected)
	events.GET("/rejected/:clubId", auth, admins, h.Events.RejectedByClub)
	events.POST("", auth, admins, h.Events.Create)
	events.POST("/submit-for-approval", auth, admins, h.Events.SubmitForApproval)
	events.POST("/resubmit-rejected/:id", auth, admins, h.Events.Resubmit)
	events.POST("/approve/:id", auth, onlySuperAdmin, opts.audit(models.AuditActionApprove, "event"), h.Events.Approve)
	events.POST("/reject/:id", auth, onlySuperAdmin, opts.audit(models.AuditActionReject, "event"), h.Events.Reject)
	events.GET("/:id", h.Events.Get)
	events.GET("/:id/submission-state", h.Events.SubmissionState)
	events.PUT("/:id", auth, admins, h.Events.Update)
	events.DELETE("/:id", auth, admins, opts.audit(models.AuditActionDelete, "event"), h.Events.Delete)
	events.POST("/:id/approve-proposal", auth, onlySuperAdmin, opts.audit(models.AuditActionApprove, "event"), h.Events.ApproveProposal)
	events.PUT("/:id/publish", auth, admins, h.Events.Publish)
	events.PUT("/:id/status", auth, admins, h.Events.ChangeStatus)

	ideas := api.Group("/ideas")
	ideas.GET("", h.Ideas.List)
	ideas.GET("/top", h.Ideas.Top)
	ideas.GET("/featured", h.Ideas.Featured)
	ideas.GET("/search", h.Ideas.Search)
	ideas.GET("/problem/:id", h.Ideas.ByProblem)
	ideas.GET("/event/:eventId", h.Ideas.ByEvent)
	ideas.GET("/event/:eventId/submission-status", auth, h.Ideas.SubmissionStatus)
	ideas.GET("/user/:id", h.Ideas.ByUser)
	ideas.GET("/status/:status", h.Ideas.ByStatus)
	ideas.GET("/:id", h.Ideas.Get)
	ideas.POST("", auth, h.Ideas.Create)
	ideas.PUT("/:id", auth, h.Ideas.Update)
	ideas.PUT("/:id/status", auth, admins, h.Ideas.ChangeStatus)
	ideas.DELETE("/:id", auth, h.Ideas.Delete)

	problems := api.Group("/problems")
	problems.GET("", h.Problems.List)
	problems.GET("/trending", h.Problems.Trending)
	problems.GET("/search", h.Problems.Search)
	problems.GET("/club/:id", h.Problems.ByClub)
	problems.GET("/category/:category", h.Problems.ByCategory)
	problems.GET("/:id", h.Problems.Get)
	problems.POST("", auth, admins, h.Problems.Create)
	problems.PUT("/:id", auth, admins, h.Problems.Update)
	problems.DELETE("/:id", auth, admins, h.Problems.Delete)

	votes := api.Group("/votes/idea/:ideaId")
	votes.POST("", auth, h.Votes.Cast)
	votes.GET("/stats", h.Votes.Stats)
	votes.GET("/user/:userId", h.Votes.UserVote)
	votes.DELETE("/user/:userId", auth, middleware.RBAC(middleware.Self, superAdmin), h.Votes.Remove)

	comments := api.Group("/comments")
	comments.GET("/idea/:id", h.Comments.ByIdea)
	comments.GET("/user/:id", h.Comments.ByUser)
	comments.GET("/reply/:parentId", h.Comments.Replies)
	comments.GET("/:id", h.Comments.Get)
	comments.POST("", auth, h.Comments.Create)
	comments.PUT("/:id", auth, h.Comments.Update)
	comments.DELETE("/:id", auth, h.Comments.Delete)

	halls := api.Group("/halls")
	halls.GET("", h.Halls.List)
	halls.GET("/available", h.Halls.Available)
	halls.GET("/best-fit", h.Halls.BestFit)
	halls.GET("/:id", h.Halls.Get)
	halls.POST("", auth, onlySuperAdmin, opts.audit(models.AuditActionCreate, "hall"), h.Halls.Create)
	halls.PUT("/:id", auth, onlySuperAdmin, opts.audit(models.AuditActionUpdate, "hall"), h.Halls.Update)
	halls.DELETE("/:id", auth, onlySuperAdmin, opts.audit(models.AuditActionDelete, "hall"), h.Halls.Delete)

	requests := api.Group("/super-admin-requests")
	requests.POST("", h.SuperAdminRequests.Submit)
	requests.GET("/pending", auth, onlySuperAdmin, h.SuperAdminRequests.Pending)
	requests.GET("/all", auth, onlySuperAdmin, h.SuperAdminRequests.All)
	requests.GET("/count", auth, onlySuperAdmin, h.SuperAdminRequests.Count)
	requests.POST("/:id/approve", auth, onlySuperAdmin, opts.audit(models.AuditActionApprove, "super_admin_request"), h.SuperAdminRequests.Approve)
	requests.POST("/:id/reject", auth, onlySuperAdmin, opts.audit(models.AuditActionReject, "super_admin_request"), h.SuperAdminRequests.Reject)

	notifications := api.Group("/notifications", auth)
	notifications.GET("", h.Notifications.List)
	notifications.GET("/unread-count", h.Notifications.UnreadCount)
	notifications.PUT("/read-all", h.Notifications.MarkAllRead)
	notifications.PUT("/:id/read", h.Notifications.MarkRead)

	achievements := api.Group("/achievements", auth)
	achievements.GET("", h.Achievements.List)
	achievements.GET("/points", h.Achievements.Points)
	achievements.POST("/check", h.Achievements.Check)

	registrations := api.Group("/event-registrations")
	registrations.POST("/register", auth, h.Registrations.Register)
	registrations.DELETE("/cancel", auth, h.Registrations.Cancel)
	registrations.GET("/event/:id", auth, h.Registrations.ByEvent)
	registrations.GET("/event/:id/count", h.Registrations.Count)
	registrations.GET("/user/:id", auth, middleware.RBAC(middleware.Self, superAdmin), h.Registrations.ByUser)
	registrations.PUT("/:id/status", auth, admins, h.Registrations.UpdateStatus)

	analytics := api.Group("/analytics", auth, onlySuperAdmin)
	analytics.GET("/dashboard", h.Analytics.Dashboard)
	analytics.GET("/system", h.Analytics.System)

	uploads := api.Group("/upload", auth)
	uploads.POST("/poster", h.Uploads.Poster)
	uploads.POST("/ppt", h.Uploads.Slides)
	api.GET("/files/:token", h.Uploads.Download)

	exports := api.Group("/exports", auth)
	exports.GET("/events", onlySuperAdmin, h.Exports.Events)
	exports.GET("/events/:id/ideas", admins, h.Exports.IdeaLeaderboard)
}
