package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/engine"
	"solana-wallet-risk/internal/explain"
	"solana-wallet-risk/internal/ingestion"
)

// MaxBatchSize caps one batch request.
const MaxBatchSize = 1000

type handlers struct {
	engine    *engine.Engine
	explainer explain.Explainer
	logger    zerolog.Logger
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AssessRequest is the body of POST /api/v1/assess.
type AssessRequest struct {
	WalletAddress      string `json:"wallet_address" binding:"required"`
	IncludeExplanation bool   `json:"include_explanation"`
}

// AssessResponse wraps one assessment with request timing.
type AssessResponse struct {
	*domain.WalletRiskAssessment
	Explanation      *domain.RiskExplanation `json:"explanation,omitempty"`
	ProcessingTimeMs float64                 `json:"processing_time_ms"`
}

// BatchRequest is the body of POST /api/v1/assess/batch.
type BatchRequest struct {
	WalletAddresses []string `json:"wallet_addresses" binding:"required,min=1,max=1000"`
}

// BatchResponse carries per-wallet results; failed wallets land in Errors
// instead of failing the batch.
type BatchResponse struct {
	Assessments      []*domain.WalletRiskAssessment `json:"assessments"`
	Errors           map[string]string              `json:"errors,omitempty"`
	ProcessingTimeMs float64                        `json:"processing_time_ms"`
}

// ExplainRequest is the body of POST /api/v1/explain.
type ExplainRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}

// validateAddress checks the Solana address shape: 32-44 base58 characters
// decoding to a 32-byte public key.
func validateAddress(address string) error {
	if len(address) < 32 || len(address) > 44 {
		return fmt.Errorf("wallet address must be 32-44 characters, got %d", len(address))
	}
	decoded, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("wallet address is not valid base58: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("wallet address must decode to 32 bytes, got %d", len(decoded))
	}
	return nil
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) assess(c *gin.Context) {
	start := time.Now()

	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
		return
	}
	if err := validateAddress(req.WalletAddress); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	assessment, err := h.engine.Assess(c.Request.Context(), req.WalletAddress)
	if err != nil {
		h.writeAssessError(c, req.WalletAddress, err)
		return
	}

	resp := AssessResponse{
		WalletRiskAssessment: assessment,
		ProcessingTimeMs:     float64(time.Since(start).Microseconds()) / 1000,
	}

	if req.IncludeExplanation && h.explainer != nil {
		explanation, err := h.explainer.Explain(c.Request.Context(), assessment)
		if err != nil {
			// Explanations are additive; the assessment still goes out
			h.logger.Warn().Err(err).Str("wallet", req.WalletAddress).Msg("explanation failed")
		} else {
			resp.Explanation = explanation
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handlers) assessBatch(c *gin.Context) {
	start := time.Now()

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
		return
	}
	for _, wallet := range req.WalletAddresses {
		if err := validateAddress(wallet); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{
				Error:   "validation_error",
				Message: fmt.Sprintf("%s: %v", wallet, err),
			})
			return
		}
	}

	results := h.engine.AssessBatch(c.Request.Context(), req.WalletAddresses)

	resp := BatchResponse{
		Assessments: make([]*domain.WalletRiskAssessment, 0, len(results)),
	}
	for _, r := range results {
		if r.Err != nil {
			if resp.Errors == nil {
				resp.Errors = make(map[string]string)
			}
			resp.Errors[r.WalletAddress] = r.Err.Error()
			continue
		}
		resp.Assessments = append(resp.Assessments, r.Assessment)
	}
	resp.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000

	c.JSON(http.StatusOK, resp)
}

func (h *handlers) explain(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
		return
	}
	if err := validateAddress(req.WalletAddress); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
		return
	}
	if h.explainer == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{
			Error:   "explainer_unavailable",
			Message: "explanation service is not configured",
		})
		return
	}

	assessment, err := h.engine.Assess(c.Request.Context(), req.WalletAddress)
	if err != nil {
		h.writeAssessError(c, req.WalletAddress, err)
		return
	}

	explanation, err := h.explainer.Explain(c.Request.Context(), assessment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "explanation_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, explanation)
}

// writeAssessError maps pipeline failures onto status codes. A failed
// balance fetch is an upstream fault, everything else is internal.
func (h *handlers) writeAssessError(c *gin.Context, wallet string, err error) {
	h.logger.Error().Err(err).Str("wallet", wallet).Msg("assessment failed")

	if errors.Is(err, ingestion.ErrBalanceFetch) {
		c.JSON(http.StatusBadGateway, errorResponse{
			Error:   "balance_fetch_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, errorResponse{
		Error:   "assessment_failed",
		Message: err.Error(),
	})
}
