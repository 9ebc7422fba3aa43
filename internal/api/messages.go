package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/npezzotti/go-estately/internal/database"
	"github.com/npezzotti/go-estately/internal/types"
)

const maxMessageBodyLength = 5000

type SendMessageRequest struct {
	ReceiverId int    `json:"receiver_id"`
	Body       string `json:"body"`
	PropertyId int    `json:"property_id,omitempty"`
}

type MessageResponse struct {
	Success bool          `json:"success"`
	Message types.Message `json:"message"`
}

type ConversationsResponse struct {
	Success       bool                        `json:"success"`
	Conversations []types.ConversationSummary `json:"conversations"`
}

type ConversationResponse struct {
	Success    bool             `json:"success"`
	Messages   []types.Message  `json:"messages"`
	Pagination types.Pagination `json:"pagination"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DeleteConversationResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}

// sendMessage is the synchronous path for sending a chat message. The
// write is identical to the live-channel path; if the receiver has a live
// connection they are notified after the message is committed.
func (s *EstatelyApp) sendMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	body := strings.TrimSpace(req.Body)
	if req.ReceiverId == 0 || body == "" || len(body) > maxMessageBodyLength {
		errResp := NewValidationError("receiver and message body are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.db.CreateMessage(database.CreateMessageParams{
		SenderId:   userId,
		ReceiverId: req.ReceiverId,
		PropertyId: req.PropertyId,
		Body:       body,
	})
	if err != nil {
		s.log.Println("create message:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifier.NotifyMessageReceived(apiMessage(msg))

	s.writeJson(w, http.StatusCreated, MessageResponse{
		Success: true,
		Message: apiMessage(msg),
	})
}

func (s *EstatelyApp) getConversations(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	summaries, err := s.db.ListConversations(userId)
	if err != nil {
		s.log.Println("list conversations:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conversations := make([]types.ConversationSummary, 0, len(summaries))
	for _, sum := range summaries {
		conv := types.ConversationSummary{
			Peer: types.User{
				Id:   sum.PeerId,
				Name: sum.PeerName,
			},
			LastMessage: apiMessage(sum.LastMessage),
			UnreadCount: sum.UnreadCount,
		}
		if sum.PeerAvatar.Valid {
			conv.Peer.Avatar = sum.PeerAvatar.String
		}

		conversations = append(conversations, conv)
	}

	s.writeJson(w, http.StatusOK, ConversationsResponse{
		Success:       true,
		Conversations: conversations,
	})
}

func (s *EstatelyApp) getConversation(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	peerId, err := strconv.Atoi(r.PathValue("peerId"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	page, limit := 1, 50
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if page, err = strconv.Atoi(pageStr); err != nil || page < 1 {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil || limit < 1 {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	messages, total, err := s.db.GetConversationMessages(userId, peerId, page, limit)
	if err != nil {
		s.log.Println("get conversation:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	apiMessages := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		apiMessages = append(apiMessages, apiMessage(msg))
	}

	s.writeJson(w, http.StatusOK, ConversationResponse{
		Success:  true,
		Messages: apiMessages,
		Pagination: types.Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: (total + limit - 1) / limit,
		},
	})
}

func (s *EstatelyApp) markMessageRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messageId, err := strconv.Atoi(r.PathValue("messageId"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.db.GetMessageById(messageId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// Only the receiver can observe a message as read.
	if msg.ReceiverId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err = s.db.MarkMessageRead(messageId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifier.NotifyMessageRead(msg.SenderId, msg.Id)

	s.writeJson(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: apiMessage(msg),
	})
}

func (s *EstatelyApp) markConversationRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	peerId, err := strconv.Atoi(r.PathValue("peerId"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.db.MarkConversationRead(userId, peerId)
	if err != nil {
		s.log.Println("mark conversation read:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// nothing changed, do not ping the peer
	if updated > 0 {
		s.notifier.NotifyMessagesRead(peerId, userId)
	}

	s.writeJson(w, http.StatusOK, StatusResponse{
		Success: true,
		Message: "conversation marked as read",
	})
}

func (s *EstatelyApp) deleteMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messageId, err := strconv.Atoi(r.PathValue("messageId"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.db.GetMessageById(messageId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// Only a participant may delete a message.
	if msg.SenderId != userId && msg.ReceiverId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteMessage(messageId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	otherId := msg.SenderId
	if otherId == userId {
		otherId = msg.ReceiverId
	}
	s.notifier.NotifyMessageDeleted(otherId, messageId)

	s.writeJson(w, http.StatusOK, StatusResponse{
		Success: true,
		Message: "message deleted",
	})
}

func (s *EstatelyApp) deleteConversation(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	peerId, err := strconv.Atoi(r.PathValue("peerId"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	deleted, err := s.db.DeleteConversation(userId, peerId)
	if err != nil {
		s.log.Println("delete conversation:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if deleted > 0 {
		s.notifier.NotifyConversationDeleted(peerId, userId)
	}

	s.writeJson(w, http.StatusOK, DeleteConversationResponse{
		Success:      true,
		Message:      "conversation deleted",
		DeletedCount: deleted,
	})
}

func apiMessage(m database.Message) types.Message {
	msg := types.Message{
		Id:         m.Id,
		SenderId:   m.SenderId,
		ReceiverId: m.ReceiverId,
		Body:       m.Body,
		Read:       m.Read,
		Timestamp:  m.CreatedAt,
	}
	if m.PropertyId.Valid {
		msg.PropertyId = int(m.PropertyId.Int64)
	}

	return msg
}
