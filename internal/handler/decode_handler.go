// internal/handler/decode_handler.go
package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"receipt-emulator/internal/escpos"
	"receipt-emulator/internal/service"
	"receipt-emulator/internal/utils"
)

// DecodeHandler handles stateless decoding requests
type DecodeHandler struct {
	jobService   *service.JobService
	maxBodyBytes int64
	logger       *utils.ServiceLogger
}

// NewDecodeHandler creates a new decode handler
func NewDecodeHandler(jobService *service.JobService, maxBodyBytes int64, logger *zap.Logger) *DecodeHandler {
	return &DecodeHandler{
		jobService:   jobService,
		maxBodyBytes: maxBodyBytes,
		logger:       utils.NewServiceLogger(logger, "decode-handler"),
	}
}

// DecodeResponse is the decoded form of a request body
type DecodeResponse struct {
	Codepage       string         `json:"codepage"`
	OutputCodepage string         `json:"output_codepage"`
	ByteCount      int            `json:"byte_count"`
	TokenCount     int            `json:"token_count"`
	Tokens         []escpos.Token `json:"tokens"`
	RichText       string         `json:"rich_text"`
	PlainText      string         `json:"plain_text"`
}

// Decode decodes the request body without storing it
// @Summary Decode ESC/POS bytes
// @Description Decode the body into tokens, rich text and plain text. Nothing is stored.
// @Tags Decode
// @Accept application/octet-stream
// @Produce json
// @Param format query string false "Body encoding: raw (default) or hex"
// @Param codepage query string false "Initial codepage (default from configuration)"
// @Param output_codepage query string false "Plain text codepage (default from configuration)"
// @Success 200 {object} utils.APIResponse{data=DecodeResponse} "Decoded successfully"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 413 {object} utils.APIResponse "Body too large"
// @Router /decode [post]
func (h *DecodeHandler) Decode(c *gin.Context) {
	options, err := h.decodeOptions(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid codepage", err)
		return
	}

	data, err := readPayload(c, h.maxBodyBytes)
	if err != nil {
		utils.ErrorResponse(c, payloadStatus(err), "Invalid request body", err)
		return
	}

	tr := h.jobService.Decode(data, options)
	plain, _ := options.OutputCodepage.Decode(tr.PlainText)
	tokens := tr.Tokens
	if tokens == nil {
		tokens = []escpos.Token{}
	}

	utils.SuccessResponse(c, http.StatusOK, "Decoded successfully", &DecodeResponse{
		Codepage:       options.DefaultCodepage.String(),
		OutputCodepage: options.OutputCodepage.String(),
		ByteCount:      len(data),
		TokenCount:     tr.TokenCount,
		Tokens:         tokens,
		RichText:       tr.RichText,
		PlainText:      plain,
	})
}

// ListCodepages returns the code table ids understood by the decoder
// @Summary List code tables
// @Tags Decode
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]escpos.CodeTable} "Code tables retrieved successfully"
// @Router /codepages [get]
func (h *DecodeHandler) ListCodepages(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Code tables retrieved successfully", escpos.CodeTables())
}

func (h *DecodeHandler) decodeOptions(c *gin.Context) (escpos.Options, error) {
	options := h.jobService.Options()

	if name := c.Query("codepage"); name != "" {
		cp, err := escpos.ParseCodepage(name)
		if err != nil {
			return options, err
		}
		options.DefaultCodepage = cp
	}
	if name := c.Query("output_codepage"); name != "" {
		cp, err := escpos.ParseCodepage(name)
		if err != nil {
			return options, err
		}
		options.OutputCodepage = cp
	}

	return options, nil
}

var errBodyTooLarge = errors.New("request body too large")

// payloadStatus maps a readPayload error to an HTTP status
func payloadStatus(err error) int {
	if errors.Is(err, errBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// readPayload reads the request body, decoding it from hex when format=hex
func readPayload(c *gin.Context, maxBytes int64) ([]byte, error) {
	body := c.Request.Body
	if maxBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, maxBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	switch c.DefaultQuery("format", "raw") {
	case "raw":
		return data, nil
	case "hex":
		return escpos.ParseHex(string(data))
	default:
		return nil, fmt.Errorf("unknown format: %s", c.Query("format"))
	}
}
