package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RosShpakovskiy/bc2-as3/models"
	"github.com/RosShpakovskiy/bc2-as3/services"
)

// TurnHandler answers one chat turn within a session.
type TurnHandler interface {
	HandleTurn(ctx context.Context, session *models.Session, query string) models.AskResponse
}

// Ingester rebuilds the passage index.
type Ingester interface {
	Ingest(ctx context.Context, force bool) (services.IngestResult, error)
}

// RAGController handles the HTTP requests for the constitution assistant.
type RAGController struct {
	assistant TurnHandler
	sessions  *services.SessionStore
	corpus    *services.Corpus
	ingester  Ingester
	logger    *zap.Logger
}

// NewRAGController is called from the serve command to inject the service dependencies.
func NewRAGController(assistant TurnHandler, sessions *services.SessionStore, corpus *services.Corpus, ingester Ingester, logger *zap.Logger) *RAGController {
	return &RAGController{
		assistant: assistant,
		sessions:  sessions,
		corpus:    corpus,
		ingester:  ingester,
		logger:    logger.Named("http"),
	}
}

// RegisterRoutes mounts the health check and the /api/v1 group.
func (c *RAGController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", c.Health)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/ask", c.Ask)
		apiV1.GET("/sessions/:id", c.GetSession)
		apiV1.GET("/passages", c.GetPassages)
		apiV1.POST("/index", c.Reindex)
	}
}

// Health is the Gin handler for GET /health.
func (c *RAGController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "constitution assistant",
		"passages": c.corpus.Len(),
	})
}

// Ask is the Gin handler for POST /api/v1/ask. Query failures are reported
// inside the answer, so a bound request always gets 200.
func (c *RAGController) Ask(ctx *gin.Context) {
	var req models.AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	session := c.sessions.GetOrCreate(req.SessionID)
	response := c.assistant.HandleTurn(ctx.Request.Context(), session, req.Query)
	ctx.JSON(http.StatusOK, response)
}

// GetSession is the Gin handler for GET /api/v1/sessions/:id.
func (c *RAGController) GetSession(ctx *gin.Context) {
	id := ctx.Param("id")
	turns, ok := c.sessions.Transcript(id)
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	ctx.JSON(http.StatusOK, &models.Session{ID: id, Turns: turns})
}

// GetPassages is the Gin handler for GET /api/v1/passages, optionally
// filtered with ?article=N.
func (c *RAGController) GetPassages(ctx *gin.Context) {
	article := ctx.Query("article")

	passages := make([]models.Passage, 0)
	for _, p := range c.corpus.Passages() {
		if article == "" || p.Article == article {
			passages = append(passages, p)
		}
	}

	ctx.JSON(http.StatusOK, models.GetPassagesResponse{
		Count:    len(passages),
		Passages: passages,
	})
}

// Reindex is the Gin handler for POST /api/v1/index[?force=true].
func (c *RAGController) Reindex(ctx *gin.Context) {
	force := false
	if v := ctx.Query("force"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid force flag: " + v})
			return
		}
		force = parsed
	}

	result, err := c.ingester.Ingest(ctx.Request.Context(), force)
	if err != nil {
		c.logger.Warn("re-index failed", zap.Error(err))
		status := http.StatusInternalServerError
		var loadErr *services.LoadError
		if errors.As(err, &loadErr) {
			status = http.StatusServiceUnavailable
		}
		ctx.JSON(status, models.IndexResponse{
			Message:  "Indexing failed",
			Passages: result.Passages,
			Error:    err.Error(),
		})
		return
	}

	message := "Document indexed"
	if result.Skipped {
		message = "Document unchanged, index is up to date"
	}
	ctx.JSON(http.StatusOK, models.IndexResponse{Message: message, Passages: result.Passages})
}
