package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chat-app/internal/ai"
	"github.com/suPer8Hu/chat-app/internal/chat"
	"github.com/suPer8Hu/chat-app/internal/session"
	"github.com/suPer8Hu/chat-app/internal/settings"
)

func (h *Handler) State(c *gin.Context) {
	st := h.Conv.State()
	model, _ := st.SelectedModel()
	hist := h.Conv.History()
	ok(c, gin.H{
		"selected_model": model,
		"selected_index": st.SelectedIndex(),
		"input_disabled": st.InputDisabled(),
		"session_id":     hist.SessionID(),
		"provider":       hist.Provider(),
	})
}

func (h *Handler) ListModels(c *gin.Context) {
	ok(c, gin.H{"models": ai.ModelsOrFallback(c.Request.Context(), h.Models, h.Logger)})
}

func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.Conv.History().Messages(c.Request.Context())
	if err != nil {
		h.Logger.Error("list messages failed", "error", err)
		fail(c, http.StatusInternalServerError, 50002, "failed to list messages")
		return
	}
	ok(c, gin.H{"messages": msgs})
}

type sendMessageReq struct {
	Message string `json:"message" binding:"required"`
}

// SendMessage runs one turn and streams tokens as server-sent events:
// "token" per chunk, then "done" or "error".
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	reply, err := h.Conv.Submit(c.Request.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrTurnInFlight):
			fail(c, http.StatusConflict, 40901, err.Error())
		case errors.Is(err, chat.ErrNoModelSelected):
			fail(c, http.StatusBadRequest, 40002, err.Error())
		case errors.Is(err, chat.ErrEmptyMessage):
			fail(c, http.StatusBadRequest, 40005, err.Error())
		case errors.Is(err, chat.ErrGeneration):
			fail(c, http.StatusBadGateway, 50201, err.Error())
		default:
			h.Logger.Error("submit failed", "error", err)
			fail(c, http.StatusInternalServerError, 50001, "failed to send message")
		}
		return
	}
	defer reply.Close()

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx

	// avoid gin writing a JSON response later
	c.Status(http.StatusOK)

	flusher, canFlush := c.Writer.(http.Flusher)

	writeJSON := func(event string, payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			// last-resort: send a simple error that won't break SSE framing
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":\"json marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\n", event)
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(b))
		if canFlush {
			flusher.Flush()
		}
	}

	for reply.Next() {
		writeJSON("token", gin.H{
			"type":  "token",
			"delta": reply.Token(),
		})
	}

	if err := reply.Err(); err != nil {
		writeJSON("error", gin.H{
			"type":    "error",
			"turn_id": reply.ID,
			"message": err.Error(),
		})
		return
	}
	writeJSON("done", gin.H{
		"type":    "done",
		"turn_id": reply.ID,
		"content": reply.Content(),
	})
}

func (h *Handler) GetConfig(c *gin.Context) {
	rec, err := h.Store.Read()
	if err != nil {
		h.Logger.Error("read config failed", "error", err)
		fail(c, http.StatusInternalServerError, 50003, err.Error())
		return
	}
	if rec == nil {
		d := settings.Default()
		rec = &d
	}
	ok(c, rec)
}

type updateConfigReq struct {
	Value any `json:"value"`
}

// UpdateConfig writes one settings key. Selecting a model also checks it
// against the current listing and updates the session.
func (h *Handler) UpdateConfig(c *gin.Context) {
	key := c.Param("key")

	var req updateConfigReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var models []string

	if key == "selected_model" {
		model, isString := req.Value.(string)
		if !isString || model == "" {
			fail(c, http.StatusBadRequest, 40003, "selected_model must be a model name")
			return
		}
		models = ai.ModelsOrFallback(c.Request.Context(), h.Models, h.Logger)
		if !slices.Contains(models, model) {
			fail(c, http.StatusNotFound, 40401, fmt.Sprintf("%v: %q", session.ErrModelNotFound, model))
			return
		}
	}

	if err := h.Store.Write(key, req.Value); err != nil {
		switch {
		case errors.Is(err, settings.ErrConfigValidation):
			fail(c, http.StatusBadRequest, 40004, err.Error())
		default:
			h.Logger.Error("write config failed", "key", key, "error", err)
			fail(c, http.StatusInternalServerError, 50003, err.Error())
		}
		return
	}

	// persisted first; the session follows only an accepted write
	if key == "selected_model" {
		if err := h.Conv.State().Select(req.Value.(string), models); err != nil {
			h.Logger.Error("select model failed", "error", err)
			fail(c, http.StatusInternalServerError, 50001, err.Error())
			return
		}
	}
	h.GetConfig(c)
}
