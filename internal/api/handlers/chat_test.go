package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChatService is a mock implementation of ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func chatRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
}

func TestChatHandler_Completion(t *testing.T) {
	t.Run("proxies the completion and returns the raw response", func(t *testing.T) {
		mockSvc := new(MockChatService)
		handler := NewChatHandler(mockSvc, "gpt-4o-mini")

		resp := openai.ChatCompletionResponse{
			ID: "chatcmpl-1",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "Hello!"}},
			},
		}
		mockSvc.On("ChatCompletion", mock.Anything, mock.Anything).Return(resp, nil)

		rec := httptest.NewRecorder()
		handler.Completion(rec, chatRequest(`{"messages":[{"role":"user","content":"Hi"}]}`))

		assert.Equal(t, http.StatusOK, rec.Code)

		var got openai.ChatCompletionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "chatcmpl-1", got.ID)
		// The upstream payload goes out as-is, without the data envelope.
		assert.NotContains(t, rec.Body.String(), `"data"`)
	})

	t.Run("pins the model and disables streaming", func(t *testing.T) {
		mockSvc := new(MockChatService)
		handler := NewChatHandler(mockSvc, "gpt-4o-mini")

		mockSvc.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
			return req.Model == "gpt-4o-mini" && !req.Stream
		})).Return(openai.ChatCompletionResponse{}, nil)

		rec := httptest.NewRecorder()
		handler.Completion(rec, chatRequest(`{"model":"gpt-4","stream":true,"messages":[{"role":"user","content":"Hi"}]}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing messages is a 400", func(t *testing.T) {
		mockSvc := new(MockChatService)
		handler := NewChatHandler(mockSvc, "gpt-4o-mini")

		rec := httptest.NewRecorder()
		handler.Completion(rec, chatRequest(`{"messages":[]}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockSvc.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything)
	})

	t.Run("message without a role is a 400", func(t *testing.T) {
		mockSvc := new(MockChatService)
		handler := NewChatHandler(mockSvc, "gpt-4o-mini")

		rec := httptest.NewRecorder()
		handler.Completion(rec, chatRequest(`{"messages":[{"content":"Hi"}]}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockSvc.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		mockSvc := new(MockChatService)
		handler := NewChatHandler(mockSvc, "gpt-4o-mini")

		rec := httptest.NewRecorder()
		handler.Completion(rec, chatRequest(`not json`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream failure is a 502", func(t *testing.T) {
		mockSvc := new(MockChatService)
		handler := NewChatHandler(mockSvc, "gpt-4o-mini")

		mockSvc.On("ChatCompletion", mock.Anything, mock.Anything).
			Return(openai.ChatCompletionResponse{}, errors.New("connection refused"))

		rec := httptest.NewRecorder()
		handler.Completion(rec, chatRequest(`{"messages":[{"role":"user","content":"Hi"}]}`))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}
