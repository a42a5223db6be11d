// Chat HTTP handlers.
//
// This file exposes REST endpoints for chat resources:
//   - POST /chats                    (create or resolve the pair's chat)
//   - GET  /chats                    (list, ETag support)
//   - GET  /chats/{id}/messages      (ordered log, paginated)
//   - POST /chats/{id}/messages      (append; the durability point)
//
// Appending here is what persists a message. The websocket relay never
// writes: clients append over REST first and then ask the relay to notify
// the other participant.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
	"github.com/SravanamCharan20/EcoBites2/internal/repo"
	"github.com/SravanamCharan20/EcoBites2/internal/services"
)

// ChatService defines chat lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ChatService interface {
	// CreateOrGet resolves the chat for a donor/requester pair, creating
	// it when absent.
	CreateOrGet(ctx context.Context, donorID, requesterID string) (*domain.Chat, error)
	// List returns the chats the user participates in.
	List(ctx context.Context, userID string) ([]domain.Chat, error)
	// Append persists one message to a chat's log.
	Append(ctx context.Context, chatID, senderID, content string) (*domain.ChatMessage, error)
	// MessagesPage returns a page of a chat's log and the total count.
	MessagesPage(ctx context.Context, chatID, userID string, page, pageSize int) ([]domain.ChatMessage, int64, error)
}

// CreateChatRequest is the JSON payload for opening a chat with another user.
type CreateChatRequest struct {
	// PeerID is the other participant (the donor when the caller is the
	// requester, and vice versa).
	PeerID string `json:"peer_id" binding:"required" format:"uuid"`
}

// AppendMessageRequest is the JSON payload for appending one message.
type AppendMessageRequest struct {
	Content string `json:"content" binding:"required" example:"Is the donation still available?"`
}

// ListMessagesResponse wraps a page of messages and pagination information.
type ListMessagesResponse struct {
	Messages   []domain.ChatMessage `json:"messages"`
	Pagination Pagination           `json:"pagination"`
}

// CreateChat godoc
// @ID          createChat
// @Summary     Open (or resolve) a chat
// @Description Returns the chat between the current user and peer_id,
// @Description creating it when none exists. The pair is unordered, so both
// @Description sides resolve to the same chat.
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CreateChatRequest  true  "Chat payload"
//
// @Success     200  {object}  domain.Chat
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     409  {object}  handlers.ErrorResponse  "Self chat"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chats [post]
func (h *Handlers) CreateChat(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}

	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.PeerID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "peer_id required")
		return
	}

	chat, err := h.chatSvc.CreateOrGet(c.Request.Context(), req.PeerID, uid)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, chat)
}

// ListChats godoc
// @ID          listChats
// @Summary     List the current user's chats
// @Description Returns the user's chats, most recent activity first.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chats
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}  domain.Chat
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	ctx := c.Request.Context()
	uid, okID := requireUserID(c)
	if !okID {
		return
	}

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isConcrete := h.chatSvc.(*services.ChatService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ChatsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"chats:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	chats, err := h.chatSvc.List(ctx, uid)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, chats)
}

// ListChatMessages godoc
// @ID          listChatMessages
// @Summary     Read a chat's message log
// @Description Returns one page of the chat's ordered log. Only the chat's
// @Description participants may read it.
// @Tags        Chats
// @Produce     json
// @Security    BearerAuth
//
// @Param       id         path   string  true  "Chat ID (UUID)"  format(uuid)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListMessagesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Chat not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chats/{id}/messages [get]
func (h *Handlers) ListChatMessages(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	chatID := c.Param("id")
	if _, err := uuid.Parse(chatID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.chatSvc.MessagesPage(c.Request.Context(), chatID, uid, page, pageSize)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// AppendChatMessage godoc
// @ID          appendChatMessage
// @Summary     Append a message
// @Description Persists one message to the chat's log and returns it with
// @Description the server-assigned timestamp. This endpoint is the
// @Description durability point; realtime notification happens separately
// @Description over the websocket.
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Chat ID (UUID)"  format(uuid)
// @Param       body  body  handlers.AppendMessageRequest  true  "Message payload"
//
// @Success     201  {object}  domain.ChatMessage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Chat not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chats/{id}/messages [post]
func (h *Handlers) AppendChatMessage(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	chatID := c.Param("id")
	if _, err := uuid.Parse(chatID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return
	}

	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.chatSvc.Append(c.Request.Context(), chatID, uid, req.Content)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, msg)
}
