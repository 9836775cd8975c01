package handlers

import (
	"log"
	"net/http"
	"strconv"

	"scotustician-pipeline/client"
	"scotustician-pipeline/storage"

	"github.com/gin-gonic/gin"
)

// CorpusHandler handles HTTP requests for the corpus read-through API
type CorpusHandler struct {
	api    *client.Oyez
	corpus *storage.CorpusStore
}

// NewCorpusHandler creates a new corpus handler
func NewCorpusHandler(api *client.Oyez, corpus *storage.CorpusStore) *CorpusHandler {
	return &CorpusHandler{api: api, corpus: corpus}
}

// Health handles GET /health
func (h *CorpusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CasesByTerm handles GET /cases/:term and proxies the upstream term
// listing through the rate-limited client.
func (h *CorpusHandler) CasesByTerm(c *gin.Context) {
	term, err := strconv.Atoi(c.Param("term"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TERM",
				"message": "term must be an integer",
			},
		})
		return
	}

	body, err := h.api.CasesByTermRaw(c.Request.Context(), term)
	if err != nil {
		log.Printf("Failed to fetch term %d: %v", term, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPSTREAM_ERROR",
				"message": "failed to fetch term listing",
			},
		})
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

// CaseByDocket handles GET /cases/:term/:docket
func (h *CorpusHandler) CaseByDocket(c *gin.Context) {
	term, err := strconv.Atoi(c.Param("term"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TERM",
				"message": "term must be an integer",
			},
		})
		return
	}

	body, err := h.api.CaseFullRaw(c.Request.Context(), term, c.Param("docket"))
	if err != nil {
		log.Printf("Failed to fetch case %d/%s: %v", term, c.Param("docket"), err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPSTREAM_ERROR",
				"message": "failed to fetch case",
			},
		})
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

// CaseSummary handles GET /case-summary
func (h *CorpusHandler) CaseSummary(c *gin.Context) {
	body, err := h.api.CaseSummaryRaw(c.Request.Context())
	if err != nil {
		log.Printf("Failed to fetch case summary: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPSTREAM_ERROR",
				"message": "failed to fetch case summary",
			},
		})
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

// SyncCaseSummary handles POST /sync/case-summary: fetch the corpus-wide
// listing and persist it to object storage.
func (h *CorpusHandler) SyncCaseSummary(c *gin.Context) {
	body, err := h.api.CaseSummaryRaw(c.Request.Context())
	if err != nil {
		log.Printf("Failed to fetch case summary: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPSTREAM_ERROR",
				"message": "failed to fetch case summary",
			},
		})
		return
	}

	if err := h.corpus.PutCaseSummary(c.Request.Context(), body); err != nil {
		log.Printf("Failed to store case summary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "failed to store case summary",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bytes":   len(body),
	})
}
