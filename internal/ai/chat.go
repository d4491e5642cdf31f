package ai

import (
	"strings"

	"fluxcareer/internal/types"
)

// Sentinels that wrap a full document replacement in a chat reply
const (
	DocumentOpenTag  = "<DOCUMENT_CONTENT>"
	DocumentCloseTag = "</DOCUMENT_CONTENT>"
)

const chatRules = `CRITICAL RULES:
1. You are helpful and concise.
2. If the user asks for an edit, correction, or rewrite, you MUST return the **FULL, COMPLETE DOCUMENT** with the changes applied. Do NOT return just a snippet.
3. When returning document content, you MUST wrap it strictly in these tags:
   ` + DocumentOpenTag + `
   ... full document text/html here ...
   ` + DocumentCloseTag + `
4. Put your conversational reply (e.g., "I've corrected the dates...") OUTSIDE the tags.
5. If the document is a Resume, strictly maintain the HTML structure (<h3>, <ul>, <li>, <strong>) inside the tags.
6. Do NOT include markdown code blocks (like ` + "```html" + `) inside the ` + DocumentOpenTag + ` tags.`

// BuildChatPrompt builds the prompt for one chat edit turn. Only the newest
// ChatHistoryWindow messages are embedded and the current document is cut
// to ChatDocumentLimit characters.
func BuildChatPrompt(history []types.ChatMessage, ctx types.ChatContext) types.Prompt {
	var sb strings.Builder
	sb.WriteString("You are a professional editor assisting a candidate with their ")
	sb.WriteString(string(ctx.DocumentType))
	sb.WriteString(".\n\nCONTEXT:\n")
	sb.WriteString("- Job Description Provided: " + yesNo(ctx.JobDescription != "") + "\n")
	sb.WriteString("- Resume Provided: " + yesNo(ctx.ResumeText != "") + "\n\n")
	sb.WriteString("CURRENT DOCUMENT CONTENT:\n\"\"\"\n")
	sb.WriteString(truncate(ctx.CurrentDocument, ChatDocumentLimit))
	sb.WriteString("\n\"\"\"\n\n")
	sb.WriteString(chatRules)

	return types.Prompt{
		System: sb.String(),
		User:   "CHAT HISTORY:\n" + Conversation(history) + "\n\nUSER'S LATEST REQUEST: (See history)",
	}
}

// Conversation renders the newest messages of history as a transcript
func Conversation(history []types.ChatMessage) string {
	if len(history) > ChatHistoryWindow {
		history = history[len(history)-ChatHistoryWindow:]
	}
	turns := make([]string, 0, len(history))
	for _, m := range history {
		speaker := "ASSISTANT"
		if m.Role == types.RoleUser {
			speaker = "USER"
		}
		turns = append(turns, speaker+": "+m.Content)
	}
	return strings.Join(turns, "\n\n")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
