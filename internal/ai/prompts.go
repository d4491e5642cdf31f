package ai

import (
	"fmt"
	"strings"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"
)

// Prompt bounds, in characters. They cap prompt size and token cost.
const (
	InterviewJobDescriptionLimit = 2000
	ChatDocumentLimit            = 15000
	ChatHistoryWindow            = 10
)

const defaultSignOffName = "[Your Name]"

// lengthInstructions maps a cover letter length to its word count instruction
var lengthInstructions = map[types.Length]string{
	types.LengthShort:  "under 200 words",
	types.LengthMedium: "approx 300 words",
	types.LengthLong:   "approx 500 words",
}

// LengthInstruction returns the word count instruction for length. Unknown
// values get the Medium instruction.
func LengthInstruction(length types.Length) string {
	if s, ok := lengthInstructions[length]; ok {
		return s
	}
	return lengthInstructions[types.LengthMedium]
}

const interviewSystemPrompt = "You are a hiring manager. Generate 5 specific interview questions based on the job description provided. For each, add a brief 'Tip' on how to answer."

const tailorSystemPrompt = `You are an ATS Optimization Expert.
Rewrite the resume to target the Job Description.
Output Format: Clean HTML tags only (<h3>, <ul>, <li>, <p>, <strong>).
NO <html> or <body> tags. NO markdown.
Structure: Summary, Core Competencies, Experience.
Prioritize achievements matching the JD.`

// BuildCoverLetterPrompt builds the cover letter prompt. The resume, when
// present, is the only allowed source of skills.
func BuildCoverLetterPrompt(in types.CoverLetterInput) types.Prompt {
	var contextSection string
	if in.ResumeText != "" {
		contextSection = "CANDIDATE'S RESUME:\n\"" + in.ResumeText + "\"\n\nINSTRUCTION: Use the candidate's actual skills. Do not invent experience."
	} else {
		contextSection = "INSTRUCTION: The candidate has not provided a resume. Generalize based on the JD. Do not use bracketed placeholders."
	}

	signOff := in.UserName
	if signOff == "" {
		signOff = defaultSignOffName
	}

	system := fmt.Sprintf(`You are an expert career counselor. Write a %s cover letter in %s.
Length: %s.
Structure: Hook -> Skills -> Fit -> CTA.
Sign off: "Best regards, %s".
NO header info (address/date). Start with Salutation.
NO bracketed placeholders. Fill them in or omit the section.`,
		in.Tone, in.Language, LengthInstruction(in.Length), signOff)

	return types.Prompt{
		System: system,
		User:   "JOB DESCRIPTION:\n" + in.JobDescription + "\n\n" + contextSection,
	}
}

// BuildInterviewPrompt builds the interview question prompt
func BuildInterviewPrompt(in types.InterviewInput) types.Prompt {
	return types.Prompt{
		System: interviewSystemPrompt,
		User:   "Job Description:\n" + truncate(in.JobDescription, InterviewJobDescriptionLimit),
	}
}

// BuildTailorPrompt builds the tailored resume prompt. It fails without a
// resume, before anything is sent.
func BuildTailorPrompt(in types.TailorInput) (types.Prompt, error) {
	if strings.TrimSpace(in.ResumeText) == "" {
		return types.Prompt{}, errors.NewValidationError(errors.ErrCodeMissingInput, "Resume text required.", nil)
	}
	return types.Prompt{
		System: tailorSystemPrompt,
		User:   "JOB DESCRIPTION:\n" + in.JobDescription + "\n\nORIGINAL RESUME:\n" + in.ResumeText,
	}, nil
}

// truncate keeps the first limit characters of s
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// StripCodeFences removes markdown fence markers a model sometimes wraps HTML in
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```html", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
