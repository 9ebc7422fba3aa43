package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/npezzotti/go-estately/internal/database"
	"github.com/npezzotti/go-estately/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func authedRequest(method, target string, body []byte, userId int) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(WithUserId(req.Context(), userId))
}

// mockNotifier replaces the dispatcher behind the handlers so tests can
// assert which live notifications a request triggers.
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyMessageReceived(msg types.Message) {
	m.Called(msg)
}
func (m *mockNotifier) NotifyMessageRead(senderId, messageId int) {
	m.Called(senderId, messageId)
}
func (m *mockNotifier) NotifyMessagesRead(peerId, readByUserId int) {
	m.Called(peerId, readByUserId)
}
func (m *mockNotifier) NotifyMessageDeleted(userId, messageId int) {
	m.Called(userId, messageId)
}
func (m *mockNotifier) NotifyConversationDeleted(userId, deletedByUserId int) {
	m.Called(userId, deletedByUserId)
}

func TestSendMessageHandler(t *testing.T) {
	now := time.Now().UTC()

	tcases := []struct {
		name        string
		body        any
		mockMsg     database.Message
		mockErr     error
		callsRepo   bool
		expectedErr *ApiError
	}{
		{
			name: "successfully sends a message",
			body: SendMessageRequest{ReceiverId: 2, Body: "is the flat still available?"},
			mockMsg: database.Message{
				Id:         10,
				SenderId:   1,
				ReceiverId: 2,
				Body:       "is the flat still available?",
				CreatedAt:  now,
			},
			callsRepo: true,
		},
		{
			name:        "fails with missing receiver",
			body:        SendMessageRequest{Body: "hello"},
			expectedErr: NewValidationError("receiver and message body are required"),
		},
		{
			name:        "fails with blank body",
			body:        SendMessageRequest{ReceiverId: 2, Body: "   "},
			expectedErr: NewValidationError("receiver and message body are required"),
		},
		{
			name:        "fails with oversized body",
			body:        SendMessageRequest{ReceiverId: 2, Body: strings.Repeat("a", maxMessageBodyLength+1)},
			expectedErr: NewValidationError("receiver and message body are required"),
		},
		{
			name:        "fails when persistence fails",
			body:        SendMessageRequest{ReceiverId: 2, Body: "hello"},
			mockErr:     errors.New("db error"),
			callsRepo:   true,
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockEstatelyRepository{}
			defer mockRepo.AssertExpectations(t)
			if tc.callsRepo {
				mockRepo.On("CreateMessage", database.CreateMessageParams{
					SenderId:   1,
					ReceiverId: 2,
					Body:       strings.TrimSpace(tc.body.(SendMessageRequest).Body),
				}).Return(tc.mockMsg, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo)

			body, _ := json.Marshal(tc.body)
			req := authedRequest(http.MethodPost, "/api/messages", body, 1)
			rr := httptest.NewRecorder()
			app.sendMessage(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected error status code")
				return
			}

			assert.Equal(t, http.StatusCreated, rr.Code, "expected status code to be 201")

			var resp MessageResponse
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected valid json response")
			assert.True(t, resp.Success, "expected success to be true")
			assert.Equal(t, tc.mockMsg.Id, resp.Message.Id, "expected stored message id")
			assert.False(t, resp.Message.Read, "expected new message to be unread")
		})
	}
}

func TestGetConversationsHandler(t *testing.T) {
	mockRepo := &database.MockEstatelyRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("ListConversations", 1).Return([]database.ConversationSummary{
		{
			PeerId:     2,
			PeerName:   "alice",
			PeerAvatar: sql.NullString{String: "avatar.png", Valid: true},
			LastMessage: database.Message{
				Id:         10,
				SenderId:   2,
				ReceiverId: 1,
				Body:       "hello",
			},
			UnreadCount: 3,
		},
		{
			PeerId:   3,
			PeerName: "bob",
			LastMessage: database.Message{
				Id:         8,
				SenderId:   1,
				ReceiverId: 3,
				Body:       "thanks",
				Read:       true,
			},
		},
	}, nil).Once()

	app := newTestApp(t, mockRepo)

	req := authedRequest(http.MethodGet, "/api/messages/conversations", nil, 1)
	rr := httptest.NewRecorder()
	app.getConversations(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

	var resp ConversationsResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected valid json response")
	assert.True(t, resp.Success, "expected success to be true")
	assert.Len(t, resp.Conversations, 2, "expected two conversations")
	assert.Equal(t, "alice", resp.Conversations[0].Peer.Name, "expected peer name")
	assert.Equal(t, "avatar.png", resp.Conversations[0].Peer.Avatar, "expected peer avatar")
	assert.Equal(t, 3, resp.Conversations[0].UnreadCount, "expected unread count")
	assert.Equal(t, 10, resp.Conversations[0].LastMessage.Id, "expected last message id")
	assert.Zero(t, resp.Conversations[1].UnreadCount, "expected fully read conversation")
}

func TestGetConversationHandler(t *testing.T) {
	t.Run("returns paginated messages", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetConversationMessages", 1, 2, 2, 10).Return([]database.Message{
			{Id: 11, SenderId: 2, ReceiverId: 1, Body: "hello"},
		}, 11, nil).Once()

		app := newTestApp(t, mockRepo)

		req := authedRequest(http.MethodGet, "/api/messages/2?page=2&limit=10", nil, 1)
		req.SetPathValue("peerId", "2")
		rr := httptest.NewRecorder()
		app.getConversation(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

		var resp ConversationResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected valid json response")
		assert.Len(t, resp.Messages, 1, "expected one message on page")
		assert.Equal(t, 11, resp.Pagination.Total, "expected total message count")
		assert.Equal(t, 2, resp.Pagination.Page, "expected requested page")
		assert.Equal(t, 2, resp.Pagination.Pages, "expected page count to round up")
	})

	t.Run("rejects invalid pagination", func(t *testing.T) {
		app := newTestApp(t, &database.MockEstatelyRepository{})

		req := authedRequest(http.MethodGet, "/api/messages/2?page=0", nil, 1)
		req.SetPathValue("peerId", "2")
		rr := httptest.NewRecorder()
		app.getConversation(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "expected status code to be 400")
	})

	t.Run("rejects non-numeric peer id", func(t *testing.T) {
		app := newTestApp(t, &database.MockEstatelyRepository{})

		req := authedRequest(http.MethodGet, "/api/messages/abc", nil, 1)
		req.SetPathValue("peerId", "abc")
		rr := httptest.NewRecorder()
		app.getConversation(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "expected status code to be 400")
	})
}

func TestMarkMessageReadHandler(t *testing.T) {
	storedMsg := database.Message{
		Id:         10,
		SenderId:   2,
		ReceiverId: 1,
		Body:       "hello",
	}

	t.Run("receiver marks message as read", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)

		readMsg := storedMsg
		readMsg.Read = true
		mockRepo.On("GetMessageById", 10).Return(storedMsg, nil).Once()
		mockRepo.On("MarkMessageRead", 10).Return(readMsg, nil).Once()

		notifier := &mockNotifier{}
		defer notifier.AssertExpectations(t)
		notifier.On("NotifyMessageRead", 2, 10).Once()

		app := newTestApp(t, mockRepo)
		app.notifier = notifier

		req := authedRequest(http.MethodPut, "/api/messages/10/read", nil, 1)
		req.SetPathValue("messageId", "10")
		rr := httptest.NewRecorder()
		app.markMessageRead(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

		var resp MessageResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected valid json response")
		assert.True(t, resp.Message.Read, "expected message to be marked read")
	})

	t.Run("sender cannot mark own message as read", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetMessageById", 10).Return(storedMsg, nil).Once()

		app := newTestApp(t, mockRepo)

		req := authedRequest(http.MethodPut, "/api/messages/10/read", nil, 2)
		req.SetPathValue("messageId", "10")
		rr := httptest.NewRecorder()
		app.markMessageRead(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code, "expected status code to be 403")
		mockRepo.AssertNotCalled(t, "MarkMessageRead", mock.Anything)
	})

	t.Run("third party is forbidden", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetMessageById", 10).Return(storedMsg, nil).Once()

		app := newTestApp(t, mockRepo)

		req := authedRequest(http.MethodPut, "/api/messages/10/read", nil, 3)
		req.SetPathValue("messageId", "10")
		rr := httptest.NewRecorder()
		app.markMessageRead(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code, "expected status code to be 403")
	})

	t.Run("returns not found for unknown message", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetMessageById", 99).Return(database.Message{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo)

		req := authedRequest(http.MethodPut, "/api/messages/99/read", nil, 1)
		req.SetPathValue("messageId", "99")
		rr := httptest.NewRecorder()
		app.markMessageRead(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code, "expected status code to be 404")
	})
}

func TestMarkConversationReadHandler(t *testing.T) {
	t.Run("marks conversation as read and notifies peer", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("MarkConversationRead", 1, 2).Return(int64(3), nil).Once()

		notifier := &mockNotifier{}
		defer notifier.AssertExpectations(t)
		notifier.On("NotifyMessagesRead", 2, 1).Once()

		app := newTestApp(t, mockRepo)
		app.notifier = notifier

		req := authedRequest(http.MethodPut, "/api/messages/conversation/2/read", nil, 1)
		req.SetPathValue("peerId", "2")
		rr := httptest.NewRecorder()
		app.markConversationRead(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

		var resp StatusResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected valid json response")
		assert.True(t, resp.Success, "expected success to be true")
	})

	t.Run("no unread messages skips notification", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)

		// zero updated rows is still success, the operation is idempotent
		mockRepo.On("MarkConversationRead", 1, 2).Return(int64(0), nil).Once()

		notifier := &mockNotifier{}
		defer notifier.AssertExpectations(t)

		app := newTestApp(t, mockRepo)
		app.notifier = notifier

		req := authedRequest(http.MethodPut, "/api/messages/conversation/2/read", nil, 1)
		req.SetPathValue("peerId", "2")
		rr := httptest.NewRecorder()
		app.markConversationRead(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")
		notifier.AssertNotCalled(t, "NotifyMessagesRead", mock.Anything, mock.Anything)
	})
}

func TestDeleteMessageHandler(t *testing.T) {
	storedMsg := database.Message{
		Id:         10,
		SenderId:   1,
		ReceiverId: 2,
		Body:       "hello",
	}

	tcases := []struct {
		name           string
		userId         int
		notifiedUserId int
		mockMsg        database.Message
		mockGetErr     error
		expectDelete   bool
		expectedCode   int
	}{
		{
			name:           "sender deletes own message",
			userId:         1,
			notifiedUserId: 2,
			mockMsg:        storedMsg,
			expectDelete:   true,
			expectedCode:   http.StatusOK,
		},
		{
			name:           "receiver deletes message",
			userId:         2,
			notifiedUserId: 1,
			mockMsg:        storedMsg,
			expectDelete:   true,
			expectedCode:   http.StatusOK,
		},
		{
			name:         "third party is forbidden",
			userId:       3,
			mockMsg:      storedMsg,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "unknown message is not found",
			userId:       1,
			mockGetErr:   sql.ErrNoRows,
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockEstatelyRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("GetMessageById", 10).Return(tc.mockMsg, tc.mockGetErr).Once()
			if tc.expectDelete {
				mockRepo.On("DeleteMessage", 10).Return(nil).Once()
			}

			notifier := &mockNotifier{}
			defer notifier.AssertExpectations(t)
			if tc.expectDelete {
				notifier.On("NotifyMessageDeleted", tc.notifiedUserId, 10).Once()
			}

			app := newTestApp(t, mockRepo)
			app.notifier = notifier

			req := authedRequest(http.MethodDelete, "/api/messages/message/10", nil, tc.userId)
			req.SetPathValue("messageId", "10")
			rr := httptest.NewRecorder()
			app.deleteMessage(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
		})
	}
}

func TestDeleteConversationHandler(t *testing.T) {
	t.Run("deletes conversation and notifies peer", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("DeleteConversation", 1, 2).Return(int64(5), nil).Once()

		notifier := &mockNotifier{}
		defer notifier.AssertExpectations(t)
		notifier.On("NotifyConversationDeleted", 2, 1).Once()

		app := newTestApp(t, mockRepo)
		app.notifier = notifier

		req := authedRequest(http.MethodDelete, "/api/messages/conversation/2", nil, 1)
		req.SetPathValue("peerId", "2")
		rr := httptest.NewRecorder()
		app.deleteConversation(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

		var resp DeleteConversationResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected valid json response")
		assert.True(t, resp.Success, "expected success to be true")
		assert.Equal(t, int64(5), resp.DeletedCount, "expected deleted message count")
	})

	t.Run("empty conversation skips notification", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("DeleteConversation", 1, 2).Return(int64(0), nil).Once()

		notifier := &mockNotifier{}
		defer notifier.AssertExpectations(t)

		app := newTestApp(t, mockRepo)
		app.notifier = notifier

		req := authedRequest(http.MethodDelete, "/api/messages/conversation/2", nil, 1)
		req.SetPathValue("peerId", "2")
		rr := httptest.NewRecorder()
		app.deleteConversation(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")
		notifier.AssertNotCalled(t, "NotifyConversationDeleted", mock.Anything, mock.Anything)

		var resp DeleteConversationResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected valid json response")
		assert.Zero(t, resp.DeletedCount, "expected zero deleted messages")
	})
}
