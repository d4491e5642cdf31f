package types

import "strings"

// Provider identifies an AI backend
type Provider string

const (
	ProviderGemini     Provider = "gemini"
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
)

// KnownProviders lists every provider with an adapter, in display order
var KnownProviders = []Provider{ProviderGemini, ProviderOpenAI, ProviderOpenRouter}

// ParseProvider normalizes s. Unknown identifiers are returned as-is so the
// dispatcher can decide whether the legacy key fallback applies.
func ParseProvider(s string) Provider {
	return Provider(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether p has an adapter
func (p Provider) Known() bool {
	switch p {
	case ProviderGemini, ProviderOpenAI, ProviderOpenRouter:
		return true
	}
	return false
}

// ProviderConfig is the read-only configuration handed to the dispatcher
type ProviderConfig struct {
	Provider Provider            `json:"provider"`
	Model    string              `json:"model,omitempty"`
	APIKeys  map[Provider]string `json:"-"`
	// LegacyAPIKey predates multi-provider support and is routed to Gemini
	LegacyAPIKey string `json:"-"`
	// Referer is sent to OpenRouter as HTTP-Referer
	Referer string `json:"referer,omitempty"`
}

// Key returns the configured credential for p
func (c ProviderConfig) Key(p Provider) string {
	if c.APIKeys == nil {
		return ""
	}
	return c.APIKeys[p]
}

// Request is a single prompt sent through the dispatcher
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Config       ProviderConfig
}

// Role of a chat participant
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one immutable turn of a chat session
type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ParsedReply separates an assistant reply into display text and an
// optional full document replacement
type ParsedReply struct {
	HasDocument     bool    `json:"hasDocument"`
	DocumentContent *string `json:"documentContent"`
	DisplayMessage  string  `json:"displayMessage"`
}

// Prompt is the output of every prompt builder
type Prompt struct {
	System string `json:"systemPrompt"`
	User   string `json:"userPrompt"`
}

// Tone of a cover letter
type Tone string

const (
	ToneProfessional Tone = "Professional"
	ToneEnthusiastic Tone = "Enthusiastic"
	ToneConfident    Tone = "Confident"
	ToneDirect       Tone = "Direct"
)

var Tones = []Tone{ToneProfessional, ToneEnthusiastic, ToneConfident, ToneDirect}

// Length of a cover letter
type Length string

const (
	LengthShort  Length = "Short"
	LengthMedium Length = "Medium"
	LengthLong   Length = "Long"
)

var Lengths = []Length{LengthShort, LengthMedium, LengthLong}

// Language of a cover letter
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageSpanish Language = "Spanish"
	LanguageFrench  Language = "French"
	LanguageGerman  Language = "German"
	LanguageHindi   Language = "Hindi"
)

var Languages = []Language{LanguageEnglish, LanguageSpanish, LanguageFrench, LanguageGerman, LanguageHindi}

// DocumentType is the document a chat session edits
type DocumentType string

const (
	DocumentCoverLetter    DocumentType = "Cover Letter"
	DocumentTailoredResume DocumentType = "Tailored Resume"
)

// ParseDocumentType accepts the display names plus short CLI aliases
func ParseDocumentType(s string) (DocumentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cover letter", "cover-letter", "coverletter", "letter":
		return DocumentCoverLetter, true
	case "tailored resume", "tailored-resume", "resume", "tailor":
		return DocumentTailoredResume, true
	}
	return "", false
}

// CoverLetterInput holds the cover letter builder inputs
type CoverLetterInput struct {
	JobDescription string   `json:"jobDescription"`
	ResumeText     string   `json:"resumeText,omitempty"`
	UserName       string   `json:"userName,omitempty"`
	Tone           Tone     `json:"tone"`
	Length         Length   `json:"length"`
	Language       Language `json:"language"`
}

// InterviewInput holds the interview question builder input
type InterviewInput struct {
	JobDescription string `json:"jobDescription"`
}

// TailorInput holds the tailored resume builder inputs
type TailorInput struct {
	JobDescription string `json:"jobDescription"`
	ResumeText     string `json:"resumeText"`
}

// ChatContext is the document state a chat edit works against
type ChatContext struct {
	JobDescription  string       `json:"jobDescription,omitempty"`
	ResumeText      string       `json:"resumeText,omitempty"`
	CurrentDocument string       `json:"currentDocument"`
	DocumentType    DocumentType `json:"documentType"`
}

// CoverLetterOutput is a generated cover letter
type CoverLetterOutput struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
}

// InterviewOutput holds generated interview questions
type InterviewOutput struct {
	Content string `json:"content"`
}

// TailorOutput is a tailored resume in the constrained HTML subset
type TailorOutput struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
}

// ChatOutput is the result of one chat turn
type ChatOutput struct {
	SessionID string        `json:"sessionId,omitempty"`
	Reply     ChatMessage   `json:"reply"`
	Parsed    ParsedReply   `json:"parsed"`
	Messages  []ChatMessage `json:"messages,omitempty"`
}

// HistoryItem is a stored generated artifact
type HistoryItem struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	JobTitle  string `json:"jobTitle"`
	Content   string `json:"content"`
}

// SheetPayload is the row sent to the spreadsheet webhook
type SheetPayload struct {
	Timestamp      string `json:"timestamp"`
	JobDescription string `json:"jobDescription"`
	CoverLetter    string `json:"coverLetter"`
	ExtractedEmail string `json:"extractedEmail"`
	SenderName     string `json:"senderName"`
	SenderEmail    string `json:"senderEmail"`
	SheetName      string `json:"sheetName"`
}
