package ai

import (
	"strings"
	"testing"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLengthInstruction(t *testing.T) {
	tests := []struct {
		length types.Length
		want   string
	}{
		{types.LengthShort, "under 200 words"},
		{types.LengthMedium, "approx 300 words"},
		{types.LengthLong, "approx 500 words"},
		{"Epic", "approx 300 words"},
		{"", "approx 300 words"},
	}

	for _, tt := range tests {
		t.Run(string(tt.length), func(t *testing.T) {
			assert.Equal(t, tt.want, LengthInstruction(tt.length))
		})
	}
}

func TestBuildCoverLetterPrompt(t *testing.T) {
	in := types.CoverLetterInput{
		JobDescription: "Backend Engineer at Acme",
		ResumeText:     "5 years of Go",
		UserName:       "Jane Doe",
		Tone:           types.ToneConfident,
		Length:         types.LengthShort,
		Language:       types.LanguageSpanish,
	}

	t.Run("with resume", func(t *testing.T) {
		p := BuildCoverLetterPrompt(in)
		assert.Contains(t, p.System, "Write a Confident cover letter in Spanish.")
		assert.Contains(t, p.System, "Length: under 200 words.")
		assert.Contains(t, p.System, "Hook -> Skills -> Fit -> CTA")
		assert.Contains(t, p.System, `Sign off: "Best regards, Jane Doe".`)
		assert.Contains(t, p.System, "Start with Salutation.")
		assert.Contains(t, p.System, "NO bracketed placeholders.")
		assert.True(t, strings.HasPrefix(p.User, "JOB DESCRIPTION:\nBackend Engineer at Acme\n\n"))
		assert.Contains(t, p.User, "CANDIDATE'S RESUME:\n\"5 years of Go\"")
		assert.Contains(t, p.User, "Use the candidate's actual skills.")
		assert.NotContains(t, p.User, "has not provided a resume")
	})

	t.Run("without resume", func(t *testing.T) {
		noResume := in
		noResume.ResumeText = ""
		noResume.UserName = ""
		p := BuildCoverLetterPrompt(noResume)
		assert.Contains(t, p.System, `Sign off: "Best regards, [Your Name]".`)
		assert.Contains(t, p.User, "The candidate has not provided a resume. Generalize based on the JD.")
		assert.NotContains(t, p.User, "CANDIDATE'S RESUME")
	})

	t.Run("pure", func(t *testing.T) {
		assert.Equal(t, BuildCoverLetterPrompt(in), BuildCoverLetterPrompt(in))
	})
}

func TestBuildInterviewPromptTruncates(t *testing.T) {
	jd := strings.Repeat("é", InterviewJobDescriptionLimit+500)
	p := BuildInterviewPrompt(types.InterviewInput{JobDescription: jd})

	assert.Contains(t, p.System, "Generate 5 specific interview questions")
	body := strings.TrimPrefix(p.User, "Job Description:\n")
	assert.Equal(t, InterviewJobDescriptionLimit, len([]rune(body)))

	short := BuildInterviewPrompt(types.InterviewInput{JobDescription: "SRE"})
	assert.Equal(t, "Job Description:\nSRE", short.User)
}

func TestBuildTailorPrompt(t *testing.T) {
	for _, resume := range []string{"", "   \n\t"} {
		_, err := BuildTailorPrompt(types.TailorInput{JobDescription: "JD", ResumeText: resume})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		assert.Equal(t, "Resume text required.", errors.UserMessage(err))
	}

	p, err := BuildTailorPrompt(types.TailorInput{JobDescription: "JD", ResumeText: "My resume"})
	require.NoError(t, err)
	assert.Contains(t, p.System, "<h3>, <ul>, <li>, <p>, <strong>")
	assert.Contains(t, p.System, "NO <html> or <body> tags. NO markdown.")
	assert.Contains(t, p.System, "Structure: Summary, Core Competencies, Experience.")
	assert.Equal(t, "JOB DESCRIPTION:\nJD\n\nORIGINAL RESUME:\nMy resume", p.User)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "<h3>Hi</h3>", StripCodeFences("```html\n<h3>Hi</h3>\n```"))
	assert.Equal(t, "plain", StripCodeFences("  plain  "))
}
