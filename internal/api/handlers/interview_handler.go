package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/intervuehq/intervue/internal/services"
	"github.com/intervuehq/intervue/internal/utils"
)

type InterviewHandler struct {
	sessions   services.SessionService
	templates  services.TemplateService
	transcript services.TranscriptService
}

func NewInterviewHandler(sessions services.SessionService, templates services.TemplateService, transcript services.TranscriptService) *InterviewHandler {
	return &InterviewHandler{sessions: sessions, templates: templates, transcript: transcript}
}

type StartInterviewRequest struct {
	TemplateID string `json:"template_id"`
	Role       string `json:"role"`
	Experience string `json:"experience"`
	UseWhisper bool   `json:"use_whisper"`
}

type SubmitAnswerRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Answer    string `json:"answer" binding:"required"`
	// Question is accepted for older clients; the ledger already carries
	// the interviewer turns, so it is not re-recorded.
	Question       string `json:"question"`
	IsLastQuestion bool   `json:"is_last_question"`
}

type EndInterviewRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

func completionPayload(comp *services.Completion) gin.H {
	return gin.H{
		"report_id":     comp.ReportID,
		"overall_score": comp.OverallScore,
		"message":       "Interview completed and report generated",
	}
}

func (h *InterviewHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Start", "invalid request body", err))
		return
	}

	res, err := h.sessions.Start(c.Request.Context(), userID, services.StartInput{
		TemplateID: req.TemplateID,
		Role:       req.Role,
		Experience: req.Experience,
		UseWhisper: req.UseWhisper,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id":     res.Session.ID,
		"first_question": res.FirstQuestion,
		"message":        "Interview session started successfully",
	})
}

func (h *InterviewHandler) SubmitAnswer(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.SubmitAnswer", "invalid request body", err))
		return
	}

	res, err := h.sessions.SubmitAnswer(c.Request.Context(), req.SessionID, req.Answer, req.IsLastQuestion)
	if err != nil {
		writeError(c, err)
		return
	}

	if res.Completion != nil {
		c.JSON(http.StatusCreated, completionPayload(res.Completion))
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_question": res.NextQuestion})
}

func (h *InterviewHandler) EndInterview(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req EndInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.EndInterview", "invalid request body", err))
		return
	}

	comp, err := h.sessions.End(c.Request.Context(), req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, completionPayload(comp))
}

func (h *InterviewHandler) Templates(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	rows, err := h.templates.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": rows})
}

type CreateTemplateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Role        string   `json:"role" binding:"required"`
	Description string   `json:"description"`
	Rules       string   `json:"rules"`
	Questions   []string `json:"questions"`
}

func (h *InterviewHandler) CreateTemplate(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.CreateTemplate", "invalid request body", err))
		return
	}

	tpl, err := h.templates.Create(c.Request.Context(), services.CreateTemplateInput{
		Name:        req.Name,
		Role:        req.Role,
		Description: req.Description,
		Rules:       req.Rules,
		Questions:   req.Questions,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (h *InterviewHandler) Transcript(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "InterviewHandler.Transcript", "forbidden", nil))
		return
	}

	turns, err := h.transcript.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "turns": turns})
}
