package ai

import (
	"strings"

	"fluxcareer/internal/types"
)

// ParseChatReply splits an assistant reply into conversational text and an
// optional document replacement.
//
// It fails closed: a missing close tag, a close tag before the open tag or
// an empty document leave HasDocument false and return raw as the display
// message. A truncated generation is never applied as a complete document.
func ParseChatReply(raw string) types.ParsedReply {
	noDocument := types.ParsedReply{DisplayMessage: raw}

	start := strings.Index(raw, DocumentOpenTag)
	if start < 0 {
		return noDocument
	}
	bodyStart := start + len(DocumentOpenTag)
	end := strings.Index(raw[bodyStart:], DocumentCloseTag)
	if end < 0 {
		return noDocument
	}
	end += bodyStart

	content := StripCodeFences(raw[bodyStart:end])
	if content == "" {
		return noDocument
	}

	display := raw[:start] + raw[end+len(DocumentCloseTag):]
	return types.ParsedReply{
		HasDocument:     true,
		DocumentContent: &content,
		DisplayMessage:  strings.TrimSpace(display),
	}
}
