package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"issue-detection-service/internal/service"
)

// Submitted images are capped well above what phone cameras produce.
const maxImageBytes = 20 << 20

type Handler struct {
	reports *service.ReportService
	log     zerolog.Logger
}

func NewHandler(reports *service.ReportService, log zerolog.Logger) *Handler {
	return &Handler{
		reports: reports,
		log:     log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.POST("/predict", h.predict)
	r.POST("/feedback", h.submitFeedback)
	r.GET("/reports", h.listReports)
	r.GET("/reports/export", h.exportReports)
	r.GET("/analytics", h.analytics)
	r.DELETE("/reports/:id", h.deleteReport)
	r.DELETE("/reports", h.deleteAllReports)
}

// predict accepts a multipart image upload with optional coordinates, runs
// the detection pipeline and responds with the annotated image plus the
// persisted report outcome.
func (h *Handler) predict(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("no image provided"))
		return
	}
	if fileHeader.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, errorResponse("image too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("cannot read image"))
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("cannot read image"))
		return
	}

	latitude, longitude := parseCoordinates(c.PostForm("latitude"), c.PostForm("longitude"))

	start := time.Now()
	result, err := h.reports.ProcessImage(c.Request.Context(), imageData, latitude, longitude)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().
		Uint("report_id", result.ReportID).
		Str("severity", string(result.Severity)).
		Dur("elapsed", time.Since(start)).
		Msg("processed image submission")

	c.JSON(http.StatusCreated, result)
}

type feedbackRequest struct {
	ReportID uint   `json:"report_id" binding:"required"`
	Feedback string `json:"feedback" binding:"required"`
}

func (h *Handler) submitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := h.reports.SubmitFeedback(c.Request.Context(), req.ReportID, req.Feedback); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "feedback saved",
		"report_id": req.ReportID,
	})
}

func (h *Handler) listReports(c *gin.Context) {
	reports, err := h.reports.ListReports(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(reports))
}

func (h *Handler) analytics(c *gin.Context) {
	snapshot, err := h.reports.Snapshot(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) exportReports(c *gin.Context) {
	workbook, err := h.reports.ExportReports(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	filename := fmt.Sprintf("reports_export_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}

func (h *Handler) deleteReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid report id"))
		return
	}

	if err := h.reports.DeleteReport(c.Request.Context(), uint(id)); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "report_id": id})
}

func (h *Handler) deleteAllReports(c *gin.Context) {
	deleted, err := h.reports.DeleteAllReports(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "deleted": deleted})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInference):
		h.log.Error().Err(err).Msg("inference error")
		c.JSON(http.StatusBadGateway, errorResponse("inference failed"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

// parseCoordinates enforces the all-or-nothing geolocation rule: a missing
// or unparsable value drops both coordinates.
func parseCoordinates(latValue, lonValue string) (*float64, *float64) {
	latValue = strings.TrimSpace(latValue)
	lonValue = strings.TrimSpace(lonValue)
	if latValue == "" || lonValue == "" {
		return nil, nil
	}
	latitude, err := strconv.ParseFloat(latValue, 64)
	if err != nil {
		return nil, nil
	}
	longitude, err := strconv.ParseFloat(lonValue, 64)
	if err != nil {
		return nil, nil
	}
	return &latitude, &longitude
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
