// README: Trip chat handlers: history, send, read receipts, presence, live stream, reply suggestions.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"copool/internal/ai"
	"copool/internal/http/middleware"
	"copool/internal/modules/chat"
	"copool/internal/types"
)

type ChatHandler struct {
	chat      *chat.Service
	suggester ai.ReplySuggester
}

// NewChatHandler builds the chat handler. suggester may be nil when no
// generative API key is configured; the suggestions route then returns 404.
func NewChatHandler(svc *chat.Service, suggester ai.ReplySuggester) *ChatHandler {
	return &ChatHandler{chat: svc, suggester: suggester}
}

func (h *ChatHandler) History(c *gin.Context) {
	conv, err := h.chat.Open(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": chat.GroupByDay(conv.View(), nil)})
}

type sendMessageReq struct {
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ctx := c.Request.Context()
	conv, err := h.chat.Open(ctx, types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	id, err := conv.Send(ctx, types.ID(req.ReceiverID), req.Text)
	if err != nil {
		writeChatError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message_id": id})
}

func (h *ChatHandler) Read(c *gin.Context) {
	err := h.chat.ReadMessage(c.Request.Context(), types.ID(c.Param("id")), types.ID(c.Param("messageID")))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

func (h *ChatHandler) Presence(c *gin.Context) {
	online, err := h.chat.Presence(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": online})
}

// Stream pushes live chat events to the client as server-sent events until
// the client disconnects.
func (h *ChatHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	conv, err := h.chat.Open(ctx, types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events := make(chan chat.Event, 16)
	go func() {
		defer close(events)
		_ = conv.Listen(ctx, func(ev chat.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
	}()

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(string(ev.Kind), ev.Message)
		return true
	})
}

func (h *ChatHandler) Suggestions(c *gin.Context) {
	if h.suggester == nil {
		writeError(c, http.StatusNotFound, "reply suggestions not enabled")
		return
	}
	ctx := c.Request.Context()
	conv, err := h.chat.Open(ctx, types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	msgs := conv.View()
	history := make([]string, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, fmt.Sprintf("%s: %s", m.SenderID, m.Text))
	}
	suggestions, err := h.suggester.SuggestReplies(ctx, history)
	if err != nil {
		writeError(c, http.StatusBadGateway, "suggestions unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func writeChatError(c *gin.Context, err error) {
	var delivery chat.DeliveryError
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &delivery):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: delivery.Error(), Retryable: true})
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
