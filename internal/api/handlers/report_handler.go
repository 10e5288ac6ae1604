package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/intervuehq/intervue/internal/services"
)

type ReportHandler struct {
	svc services.ReportService
}

func NewReportHandler(svc services.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.svc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": rows})
}

func (h *ReportHandler) Detail(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	report, err := h.svc.GetForUser(c.Request.Context(), userID, c.Param("report_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h *ReportHandler) CompareCandidates(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	cmp, err := h.svc.CompareCandidates(c.Request.Context(), c.Param("template_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}
