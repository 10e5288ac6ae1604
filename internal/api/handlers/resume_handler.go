package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/services"
	"github.com/intervuehq/intervue/internal/utils"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const maxResumeBytes = 10 << 20

type ResumeHandler struct {
	svc services.ProfileService
}

func NewResumeHandler(svc services.ProfileService) *ResumeHandler {
	return &ResumeHandler{svc: svc}
}

func (h *ResumeHandler) Upload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ResumeHandler.Upload", "missing file", err))
		return
	}
	if fileHeader.Size > maxResumeBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ResumeHandler.Upload", "file too large", nil))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "ResumeHandler.Upload", "failed to open upload", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxResumeBytes))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "ResumeHandler.Upload", "failed to read upload", err))
		return
	}

	mime := fileHeader.Header.Get("Content-Type")
	row, err := h.svc.UploadResume(c.Request.Context(), userID, fileHeader.Filename, mime, data)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

func (h *ResumeHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, err := h.svc.GetMe(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type UpdateProfileRequest struct {
	FullName   string          `json:"full_name"`
	Skills     []string        `json:"skills"`
	Experience json.RawMessage `json:"experience"`
	Education  json.RawMessage `json:"education"`
}

func (h *ResumeHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ResumeHandler.UpdateProfile", "invalid request body", err))
		return
	}

	p := &models.CandidateProfile{
		UserID:     userID,
		FullName:   req.FullName,
		Skills:     pq.StringArray(req.Skills),
		Experience: datatypes.JSON(req.Experience),
		Education:  datatypes.JSON(req.Education),
	}
	if err := h.svc.Update(c.Request.Context(), p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
