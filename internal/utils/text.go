package utils

import (
	"regexp"
	"strings"
	"unicode"

	"fluxcareer/internal/types"
)

// Tried in order; the first pattern with a match wins
var emailPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`),
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
}

// ExtractEmail returns the first email address in text, lowercased
func ExtractEmail(text string) (string, bool) {
	for _, re := range emailPatterns {
		if m := re.FindString(text); m != "" {
			return strings.ToLower(m), true
		}
	}
	return "", false
}

const (
	defaultFilenameName    = "Candidate"
	defaultFilenameContext = "Job_Application"
	filenameContextLimit   = 30
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

// DocumentFilename builds the export name Name_Context_Type.pdf. Context is
// the first non-blank line of the job description.
func DocumentFilename(userName, jobDescription string, docType types.DocumentType) string {
	name := strings.TrimSpace(userName)
	if name == "" {
		name = defaultFilenameName
	}

	context := defaultFilenameContext
	for _, line := range strings.Split(jobDescription, "\n") {
		if strings.TrimSpace(line) != "" {
			context = line
			break
		}
	}
	runes := []rune(context)
	if len(runes) > filenameContextLimit {
		runes = runes[:filenameContextLimit]
	}
	context = strings.TrimFunc(string(runes), unicode.IsSpace)

	kind := "Cover_Letter"
	if docType == types.DocumentTailoredResume {
		kind = "Resume"
	}

	return sanitizeFilenamePart(name) + "_" + sanitizeFilenamePart(context) + "_" + kind + ".pdf"
}

func sanitizeFilenamePart(s string) string {
	s = whitespaceRun.ReplaceAllString(s, "_")
	return unsafeFilename.ReplaceAllString(s, "")
}

// HTMLToText flattens the resume HTML subset into plain text for export
func HTMLToText(html string) string {
	replacer := strings.NewReplacer(
		"<li>", "- ", "</li>", "\n",
		"<h3>", "", "</h3>", "\n",
		"<p>", "", "</p>", "\n",
		"<ul>", "", "</ul>", "\n",
		"<strong>", "", "</strong>", "",
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
	)
	text := replacer.Replace(html)
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
