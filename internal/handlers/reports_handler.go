package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tgreceiver/internal/services"
)

type ReportHandler struct {
	Service      *services.ReportService
	Verification *services.VerificationService
}

func NewReportHandler(service *services.ReportService, verification *services.VerificationService) *ReportHandler {
	return &ReportHandler{Service: service, Verification: verification}
}

// @Summary      Outcome totals by status
// @Tags         Reports
// @Produce      json
// @Success      200  {object}  map[string]int
// @Router       /reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	data, err := h.Service.GetSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

// @Summary      List verification outcomes
// @Tags         Reports
// @Produce      json
// @Param        status  query  string  false  "pending|verified|rejected|completed|failed"
// @Param        page    query  int     false  "страница"
// @Param        size    query  int     false  "размер страницы"
// @Success      200  {array}  models.Outcome
// @Router       /reports/verifications [get]
func (h *ReportHandler) ListVerifications(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "100"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}
	offset := (page - 1) * size

	outcomes, err := h.Service.ListOutcomes(c.Request.Context(), status, size, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcomes)
}

// @Summary      PDF report
// @Tags         Reports
// @Produce      application/pdf
// @Success      200
// @Router       /reports/verifications.pdf [get]
func (h *ReportHandler) DownloadPDF(c *gin.Context) {
	path, err := h.Service.GeneratePDF(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.FileAttachment(path, "verifications.pdf")
}

// @Summary      Re-export the session of the last verified attempt
// @Tags         Reports
// @Produce      json
// @Param        user_id  path  int  true  "telegram user id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /verifications/{user_id}/export [post]
func (h *ReportHandler) ExportSession(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
		return
	}

	if err := h.Verification.Finalize(c.Request.Context(), userID); err != nil {
		if errors.Is(err, services.ErrNothingToExport) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no verified session for user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session exported to verified channel"})
}
