package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChatReply(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		hasDocument bool
		document    string
		display     string
	}{
		{
			name:        "well formed",
			raw:         "I've corrected the dates.\n<DOCUMENT_CONTENT>\nDear Hiring Manager,\n</DOCUMENT_CONTENT>\nAnything else?",
			hasDocument: true,
			document:    "Dear Hiring Manager,",
			display:     "I've corrected the dates.\n\nAnything else?",
		},
		{
			name:        "fence remnants stripped",
			raw:         "Updated.<DOCUMENT_CONTENT>```html\n<h3>Summary</h3>\n```</DOCUMENT_CONTENT>",
			hasDocument: true,
			document:    "<h3>Summary</h3>",
			display:     "Updated.",
		},
		{
			name:    "no sentinels",
			raw:     "  Sure, what should I change?  ",
			display: "  Sure, what should I change?  ",
		},
		{
			name:    "missing close tag",
			raw:     "Here you go <DOCUMENT_CONTENT>Dear Hiring",
			display: "Here you go <DOCUMENT_CONTENT>Dear Hiring",
		},
		{
			name:    "close before open",
			raw:     "</DOCUMENT_CONTENT> oops <DOCUMENT_CONTENT>",
			display: "</DOCUMENT_CONTENT> oops <DOCUMENT_CONTENT>",
		},
		{
			name:    "empty interior",
			raw:     "Nothing <DOCUMENT_CONTENT>  \n ```  </DOCUMENT_CONTENT>",
			display: "Nothing <DOCUMENT_CONTENT>  \n ```  </DOCUMENT_CONTENT>",
		},
		{
			name:    "case sensitive",
			raw:     "<document_content>x</document_content>",
			display: "<document_content>x</document_content>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseChatReply(tt.raw)
			assert.Equal(t, tt.hasDocument, got.HasDocument)
			assert.Equal(t, tt.display, got.DisplayMessage)
			if tt.hasDocument {
				require.NotNil(t, got.DocumentContent)
				assert.Equal(t, tt.document, *got.DocumentContent)
			} else {
				assert.Nil(t, got.DocumentContent)
			}
		})
	}
}

func TestParseChatReplyIdempotent(t *testing.T) {
	raw := "Done.\n<DOCUMENT_CONTENT>Body</DOCUMENT_CONTENT>"
	assert.Equal(t, ParseChatReply(raw), ParseChatReply(raw))

	first := ParseChatReply(raw)
	again := ParseChatReply(first.DisplayMessage)
	assert.False(t, again.HasDocument)
	assert.Equal(t, first.DisplayMessage, again.DisplayMessage)
}
