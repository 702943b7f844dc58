// internal/handler/job_handler.go
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"receipt-emulator/internal/model"
	"receipt-emulator/internal/receipt"
	"receipt-emulator/internal/repository"
	"receipt-emulator/internal/service"
	"receipt-emulator/internal/utils"
)

// JobHandler handles print job HTTP requests
type JobHandler struct {
	jobService   *service.JobService
	maxBodyBytes int64
	logger       *utils.ServiceLogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService *service.JobService, maxBodyBytes int64, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobService:   jobService,
		maxBodyBytes: maxBodyBytes,
		logger:       utils.NewServiceLogger(logger, "job-handler"),
	}
}

// SubmitJob handles raw ESC/POS uploads
// @Summary Submit a print job
// @Description Process the request body as if it had arrived on a printer port
// @Tags Jobs
// @Accept application/octet-stream
// @Produce json
// @Param format query string false "Body encoding: raw (default) or hex"
// @Success 201 {object} utils.APIResponse{data=model.PrintJob} "Job processed"
// @Success 200 {object} utils.APIResponse "Job produced no output"
// @Failure 400 {object} utils.APIResponse "Invalid body"
// @Failure 413 {object} utils.APIResponse "Body too large"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /jobs [post]
func (h *JobHandler) SubmitJob(c *gin.Context) {
	data, err := readPayload(c, h.maxBodyBytes)
	if err != nil {
		utils.ErrorResponse(c, payloadStatus(err), "Invalid request body", err)
		return
	}

	record, err := h.jobService.Submit(c.Request.Context(), model.SourceHTTP, c.ClientIP(), data)
	if err != nil {
		h.logger.Error("Failed to process submitted job", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to process job", err)
		return
	}
	if record == nil {
		utils.SuccessResponse(c, http.StatusOK, "Job produced no output", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Job processed successfully", record)
}

// SubmitSample prints a generated receipt through the emulator
// @Summary Print a test receipt
// @Description Lay out the receipt in the body (or a built-in sample when the body is empty) as ESC/POS and process it as an HTTP job
// @Tags Jobs
// @Accept json
// @Produce json
// @Param receipt body receipt.Receipt false "Receipt to print"
// @Success 201 {object} utils.APIResponse{data=model.PrintJob} "Job processed"
// @Failure 400 {object} utils.APIResponse "Invalid receipt"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /jobs/sample [post]
func (h *JobHandler) SubmitSample(c *gin.Context) {
	r := receipt.Sample()
	if c.Request.ContentLength != 0 {
		r = &receipt.Receipt{}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
		if err := c.ShouldBindJSON(r); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid receipt", err)
			return
		}
	}

	data, err := receipt.Build(r)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid receipt", err)
		return
	}

	record, err := h.jobService.Submit(c.Request.Context(), model.SourceHTTP, c.ClientIP(), data)
	if err != nil {
		h.logger.Error("Failed to process sample job", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to process job", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Sample receipt printed", record)
}

// ListJobs handles job listing
// @Summary List print jobs
// @Tags Jobs
// @Produce json
// @Param source_type query string false "TCP, SERIAL, HTTP or FILE"
// @Param since query string false "Only jobs received after this time (RFC3339)"
// @Param limit query int false "Page size (default 50, max 500)"
// @Param offset query int false "Page offset"
// @Success 200 {object} utils.APIResponse{data=object{jobs=[]model.PrintJob,total=int}} "Jobs retrieved successfully"
// @Failure 400 {object} utils.APIResponse "Invalid filter"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	filter, invalid := parseJobFilter(c)
	if invalid != nil {
		utils.ValidationErrorResponse(c, invalid)
		return
	}

	jobs, total, err := h.jobService.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Jobs retrieved successfully", gin.H{
		"jobs":   jobs,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetJob handles single job lookup
// @Summary Get a print job
// @Tags Jobs
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} utils.APIResponse{data=model.PrintJob} "Job retrieved successfully"
// @Failure 400 {object} utils.APIResponse "Invalid job ID"
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /jobs/{job_id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	job, err := h.jobService.GetJob(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job retrieved successfully", job)
}

// GetJobStats handles job statistics
// @Summary Job statistics
// @Tags Jobs
// @Produce json
// @Success 200 {object} utils.APIResponse{data=repository.JobStats} "Statistics retrieved successfully"
// @Router /jobs/stats [get]
func (h *JobHandler) GetJobStats(c *gin.Context) {
	stats, err := h.jobService.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get job stats", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get job stats", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved successfully", stats)
}

// GetRawArtifact returns the bytes exactly as received
// @Summary Raw job bytes
// @Tags Jobs
// @Produce application/octet-stream
// @Param job_id path string true "Job ID"
// @Success 200 {file} binary
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /jobs/{job_id}/raw [get]
func (h *JobHandler) GetRawArtifact(c *gin.Context) {
	h.serveArtifact(c, service.ArtifactRaw, "application/octet-stream")
}

// GetRichTextArtifact returns the UTF-8 rich text rendering
// @Summary Rich text rendering
// @Tags Jobs
// @Produce plain
// @Param job_id path string true "Job ID"
// @Success 200 {string} string
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /jobs/{job_id}/rich [get]
func (h *JobHandler) GetRichTextArtifact(c *gin.Context) {
	h.serveArtifact(c, service.ArtifactRich, "text/plain; charset=utf-8")
}

// GetPlainTextArtifact returns the plain text in the output codepage
// @Summary Plain text rendering
// @Tags Jobs
// @Produce plain
// @Param job_id path string true "Job ID"
// @Success 200 {string} string
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /jobs/{job_id}/plain [get]
func (h *JobHandler) GetPlainTextArtifact(c *gin.Context) {
	charset := h.jobService.Options().OutputCodepage.String()
	h.serveArtifact(c, service.ArtifactPlain, "text/plain; charset="+charset)
}

func (h *JobHandler) serveArtifact(c *gin.Context, kind service.ArtifactKind, contentType string) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	data, err := h.jobService.ReadArtifact(c.Request.Context(), id, kind)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

func (h *JobHandler) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrJobNotFound) {
		utils.ErrorResponse(c, http.StatusNotFound, "Job not found", err)
		return
	}
	h.logger.Error("Failed to get job", zap.Error(err))
	utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get job", err)
}

func parseJobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid job ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func parseJobFilter(c *gin.Context) (*model.JobFilter, map[string]string) {
	filter := &model.JobFilter{Limit: 50}
	invalid := make(map[string]string)

	if sourceType := c.Query("source_type"); sourceType != "" {
		st := model.SourceType(sourceType)
		switch st {
		case model.SourceTCP, model.SourceSerial, model.SourceHTTP, model.SourceFile:
			filter.SourceType = &st
		default:
			invalid["source_type"] = "must be one of TCP, SERIAL, HTTP, FILE"
		}
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			invalid["since"] = "must be an RFC3339 timestamp"
		} else {
			filter.Since = &t
		}
	}
	if limit := c.Query("limit"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil || l <= 0 {
			invalid["limit"] = "must be a positive integer"
		} else {
			filter.Limit = min(l, 500)
		}
	}
	if offset := c.Query("offset"); offset != "" {
		o, err := strconv.Atoi(offset)
		if err != nil || o < 0 {
			invalid["offset"] = "must be a non-negative integer"
		} else {
			filter.Offset = o
		}
	}

	if len(invalid) > 0 {
		return nil, invalid
	}
	return filter, nil
}
