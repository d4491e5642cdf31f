package common

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fluxcareer/internal/ai"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/history"
	"fluxcareer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoChat struct {
	seen [][]types.ChatMessage
	err  error
}

func (e *echoChat) Chat(_ context.Context, msgs []types.ChatMessage, _ types.ChatContext, _ ai.Selection) (types.ChatMessage, types.ParsedReply, error) {
	e.seen = append(e.seen, msgs)
	if e.err != nil {
		return types.ChatMessage{}, types.ParsedReply{}, e.err
	}
	text := fmt.Sprintf("reply %d", len(msgs))
	return types.ChatMessage{ID: "r", Role: types.RoleAssistant, Content: text}, types.ParsedReply{DisplayMessage: text}, nil
}

func fixedNow() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func TestRunChatTurnSession(t *testing.T) {
	ctx := context.Background()
	sessions := history.NewMemorySessionStore(50)
	svc := &echoChat{}

	first, err := RunChatTurn(ctx, svc, sessions, ChatTurnRequest{Message: "Make it shorter"}, fixedNow)
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionID)
	assert.Equal(t, "reply 1", first.Reply.Content)
	assert.Len(t, first.Messages, 2)

	second, err := RunChatTurn(ctx, svc, sessions, ChatTurnRequest{SessionID: first.SessionID, Message: "Now friendlier"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, "reply 3", second.Reply.Content)

	stored, err := sessions.Load(ctx, first.SessionID)
	require.NoError(t, err)
	require.Len(t, stored, 4)
	assert.Equal(t, types.RoleUser, stored[2].Role)
	assert.Equal(t, "Now friendlier", stored[2].Content)
	assert.Equal(t, fixedNow().UnixMilli(), stored[2].Timestamp)
}

func TestRunChatTurnStateless(t *testing.T) {
	svc := &echoChat{}
	prior := []types.ChatMessage{{Role: types.RoleUser, Content: "hi"}, {Role: types.RoleAssistant, Content: "hello"}}

	out, err := RunChatTurn(context.Background(), svc, history.NewMemorySessionStore(50),
		ChatTurnRequest{Messages: prior, Message: "edit"}, fixedNow)
	require.NoError(t, err)
	assert.Empty(t, out.SessionID)
	assert.Len(t, svc.seen[0], 3)
}

func TestRunChatTurnFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	sessions := history.NewMemorySessionStore(50)
	svc := &echoChat{err: errors.NewProviderError("gemini", "Gemini Error: boom", nil)}

	_, err := RunChatTurn(ctx, svc, sessions, ChatTurnRequest{SessionID: "s1", Message: "x"}, fixedNow)
	require.Error(t, err)

	stored, err := sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRunChatTurnRequiresMessage(t *testing.T) {
	_, err := RunChatTurn(context.Background(), &echoChat{}, nil, ChatTurnRequest{}, fixedNow)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingInput))
}
