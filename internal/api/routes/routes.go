package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/intervuehq/intervue/internal/api/handlers"
	"github.com/intervuehq/intervue/internal/api/middleware"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Log *logrus.Logger

	Auth      *handlers.AuthHandler
	Interview *handlers.InterviewHandler
	Report    *handlers.ReportHandler
	Media     *handlers.MediaHandler
	Resume    *handlers.ResumeHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Log == nil {
		d.Log = logrus.New()
	}
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/auth/register", d.Auth.Register)
	r.POST("/auth/login", d.Auth.Login)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.GET("/auth/profile", d.Auth.Profile)

	auth.POST("/interview/start", d.Interview.Start)
	auth.POST("/interview/submit_answer", d.Interview.SubmitAnswer)
	auth.POST("/interview/end_interview", d.Interview.EndInterview)
	auth.GET("/interview/templates", d.Interview.Templates)
	auth.POST("/interview/templates", middleware.RequireOrgAdmin(), d.Interview.CreateTemplate)
	auth.GET("/interview/:session_id/transcript", d.Interview.Transcript)

	auth.POST("/interview/transcribe", d.Media.Transcribe)
	auth.POST("/interview/speak", d.Media.Speak)

	auth.GET("/interview/reports", d.Report.List)
	auth.GET("/interview/reports/:report_id", d.Report.Detail)
	auth.GET("/interview/compare-candidates/:template_id", middleware.RequireOrgAdmin(), d.Report.CompareCandidates)

	auth.GET("/profile/me", d.Resume.Me)
	auth.PUT("/profile/update", d.Resume.UpdateProfile)
	auth.POST("/profile/resume", d.Resume.Upload)

	// WebSocket
	auth.GET("/ws/interview/:session_id", d.WS.InterviewWS)
}
