package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sagepath-app/sagepath/internal/api"
	"github.com/sagepath-app/sagepath/internal/telemetry"
)

type ChatService interface {
	ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatHandler proxies chat completion requests to the upstream model with
// the server-held API key, so clients never see the credential.
type ChatHandler struct {
	svc   ChatService
	model string
}

func NewChatHandler(svc ChatService, model string) *ChatHandler {
	return &ChatHandler{svc: svc, model: model}
}

// Completion handles POST /api/chat. The body is forwarded as-is apart from
// the model, which the server pins.
func (h *ChatHandler) Completion(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		api.Error(w, http.StatusBadRequest, "messages is required")
		return
	}
	for _, msg := range req.Messages {
		if msg.Role == "" {
			api.Error(w, http.StatusBadRequest, "message role is required")
			return
		}
	}

	// Clients do not get to pick the model or streaming mode.
	req.Model = h.model
	req.Stream = false

	resp, err := h.svc.ChatCompletion(r.Context(), req)
	if err != nil {
		telemetry.CaptureError(r.Context(), err)
		api.Error(w, http.StatusBadGateway, "chat completion failed")
		return
	}

	api.JSON(w, http.StatusOK, resp)
}
