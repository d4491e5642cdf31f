package common

import (
	"context"
	"time"

	"fluxcareer/internal/ai"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/history"
	"fluxcareer/internal/types"

	"github.com/google/uuid"
)

// ChatService runs one chat edit. *ai.Service implements it.
type ChatService interface {
	Chat(ctx context.Context, msgs []types.ChatMessage, chatCtx types.ChatContext, sel ai.Selection) (types.ChatMessage, types.ParsedReply, error)
}

// ChatTurnRequest describes one chat turn from the CLI or the HTTP API
type ChatTurnRequest struct {
	// SessionID continues a stored transcript. Empty starts a new one,
	// unless Messages carries the whole conversation.
	SessionID string
	// Messages are prior turns sent by the caller
	Messages []types.ChatMessage
	// Message is the new user request, appended after Messages
	Message   string
	Context   types.ChatContext
	Selection ai.Selection
}

// RunChatTurn loads the session transcript, runs the chat edit and stores
// the new turns. Nothing is stored when the edit fails.
func RunChatTurn(ctx context.Context, svc ChatService, sessions history.SessionStore, req ChatTurnRequest, now func() time.Time) (types.ChatOutput, error) {
	if now == nil {
		now = time.Now
	}

	sessionID := req.SessionID
	if sessions != nil && sessionID == "" && len(req.Messages) == 0 {
		sessionID = uuid.NewString()
	}

	newMsgs := append([]types.ChatMessage(nil), req.Messages...)
	if req.Message != "" {
		newMsgs = append(newMsgs, history.NewMessage(types.RoleUser, req.Message, now()))
	}
	if len(newMsgs) == 0 {
		return types.ChatOutput{}, errors.NewValidationError(errors.ErrCodeMissingInput, "A chat message is required.", nil)
	}

	var transcript []types.ChatMessage
	if sessions != nil && sessionID != "" {
		stored, err := sessions.Load(ctx, sessionID)
		if err != nil {
			return types.ChatOutput{}, err
		}
		transcript = stored
	}
	transcript = append(transcript, newMsgs...)

	reply, parsed, err := svc.Chat(ctx, transcript, req.Context, req.Selection)
	if err != nil {
		return types.ChatOutput{}, err
	}

	if sessions != nil && sessionID != "" {
		if err := sessions.Append(ctx, sessionID, append(newMsgs, reply)...); err != nil {
			return types.ChatOutput{}, err
		}
	}

	return types.ChatOutput{
		SessionID: sessionID,
		Reply:     reply,
		Parsed:    parsed,
		Messages:  append(transcript, reply),
	}, nil
}
