package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chat-app/internal/ai"
	"github.com/suPer8Hu/chat-app/internal/chat"
	"github.com/suPer8Hu/chat-app/internal/settings"
)

type Handler struct {
	Conv   *chat.Conversation
	Store  *settings.Store
	Models ai.ModelLister
	Logger *slog.Logger
}

func NewHandler(conv *chat.Conversation, store *settings.Store, models ai.ModelLister, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Conv: conv, Store: store, Models: models, Logger: logger}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

func fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}

func (h *Handler) Ping(c *gin.Context) {
	ok(c, gin.H{"pong": true})
}
