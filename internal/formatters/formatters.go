package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"fluxcareer/internal/types"
	"fluxcareer/internal/utils"
)

// Formatter renders one result type in one output format
type Formatter interface {
	Format(data any) (string, error)
}

// FormatterFunc adapts a function to Formatter
type FormatterFunc func(data any) (string, error)

func (f FormatterFunc) Format(data any) (string, error) { return f(data) }

const anyType = "any"

// FormatterRegistry maps an output format and result type to a formatter
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a registry with json, text and markdown
// renderings of every command result
func NewFormatterRegistry() *FormatterRegistry {
	r := &FormatterRegistry{formatters: make(map[string]map[string]Formatter)}

	r.RegisterFormatter("json", anyType, FormatterFunc(formatJSON))

	r.RegisterFormatter("text", "CoverLetterOutput", typed(func(o types.CoverLetterOutput) string { return o.Content + "\n" }))
	r.RegisterFormatter("markdown", "CoverLetterOutput", typed(coverLetterMarkdown))
	r.RegisterFormatter("text", "InterviewOutput", typed(func(o types.InterviewOutput) string { return o.Content + "\n" }))
	r.RegisterFormatter("markdown", "InterviewOutput", typed(func(o types.InterviewOutput) string {
		return "# Interview Preparation\n\n" + o.Content + "\n"
	}))
	r.RegisterFormatter("text", "TailorOutput", typed(func(o types.TailorOutput) string { return utils.HTMLToText(o.Content) + "\n" }))
	r.RegisterFormatter("html", "TailorOutput", typed(func(o types.TailorOutput) string { return o.Content + "\n" }))
	r.RegisterFormatter("markdown", "TailorOutput", typed(tailorMarkdown))
	r.RegisterFormatter("text", "ChatOutput", typed(chatText))
	r.RegisterFormatter("markdown", "ChatOutput", typed(chatMarkdown))
	r.RegisterFormatter("text", "HistoryList", typed(historyListText))
	r.RegisterFormatter("markdown", "HistoryList", typed(historyListMarkdown))
	r.RegisterFormatter("text", "HistoryItem", typed(historyItemText))
	r.RegisterFormatter("markdown", "HistoryItem", typed(historyItemMarkdown))

	return r
}

// typed wraps a function over one concrete result type
func typed[T any](fn func(T) string) Formatter {
	return FormatterFunc(func(data any) (string, error) {
		v, ok := data.(T)
		if !ok {
			var zero T
			return "", fmt.Errorf("expected %T, got %T", zero, data)
		}
		return fn(v), nil
	})
}

// RegisterFormatter registers a formatter for format and dataType
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format renders data in format, falling back to the generic formatter of
// that format when no type specific one exists
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, ok := fr.formatters[format]; ok {
		if f, ok := formatters[dataType]; ok {
			return f.Format(data)
		}
		if f, ok := formatters[anyType]; ok {
			return f.Format(data)
		}
	}
	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all registered formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.CoverLetterOutput:
		return "CoverLetterOutput"
	case types.InterviewOutput:
		return "InterviewOutput"
	case types.TailorOutput:
		return "TailorOutput"
	case types.ChatOutput:
		return "ChatOutput"
	case []types.HistoryItem:
		return "HistoryList"
	case types.HistoryItem:
		return "HistoryItem"
	default:
		return anyType
	}
}

func formatJSON(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func coverLetterMarkdown(o types.CoverLetterOutput) string {
	var b strings.Builder
	b.WriteString("# Cover Letter\n\n")
	b.WriteString(o.Content)
	b.WriteString("\n")
	if o.Filename != "" {
		fmt.Fprintf(&b, "\n---\n_Export name: %s_\n", o.Filename)
	}
	return b.String()
}

// tailorMarkdown maps the resume HTML subset onto markdown
func tailorMarkdown(o types.TailorOutput) string {
	replacer := strings.NewReplacer(
		"<h3>", "\n### ", "</h3>", "\n",
		"<ul>", "\n", "</ul>", "\n",
		"<li>", "- ", "</li>", "\n",
		"<p>", "\n", "</p>", "\n",
		"<strong>", "**", "</strong>", "**",
	)
	md := replacer.Replace(o.Content)

	var lines []string
	blank := true
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		if strings.HasPrefix(line, "### ") && !blank {
			lines = append(lines, "")
		}
		lines = append(lines, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

func chatText(o types.ChatOutput) string {
	var b strings.Builder
	b.WriteString(o.Parsed.DisplayMessage)
	b.WriteString("\n")
	if o.Parsed.HasDocument && o.Parsed.DocumentContent != nil {
		b.WriteString("\n=== UPDATED DOCUMENT ===\n\n")
		b.WriteString(*o.Parsed.DocumentContent)
		b.WriteString("\n")
	}
	if o.SessionID != "" {
		fmt.Fprintf(&b, "\n(session %s)\n", o.SessionID)
	}
	return b.String()
}

func chatMarkdown(o types.ChatOutput) string {
	var b strings.Builder
	b.WriteString("**Assistant:** ")
	b.WriteString(o.Parsed.DisplayMessage)
	b.WriteString("\n")
	if o.Parsed.HasDocument && o.Parsed.DocumentContent != nil {
		b.WriteString("\n## Updated Document\n\n")
		b.WriteString(*o.Parsed.DocumentContent)
		b.WriteString("\n")
	}
	return b.String()
}

func historyListText(items []types.HistoryItem) string {
	if len(items) == 0 {
		return "No history yet.\n"
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s  %s  %s\n", item.ID, item.Timestamp, item.JobTitle)
	}
	return b.String()
}

func historyListMarkdown(items []types.HistoryItem) string {
	var b strings.Builder
	b.WriteString("| ID | Created | Job |\n|---|---|---|\n")
	for _, item := range items {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", item.ID, item.Timestamp, strings.ReplaceAll(item.JobTitle, "|", "\\|"))
	}
	return b.String()
}

func historyItemText(item types.HistoryItem) string {
	return fmt.Sprintf("%s (%s)\n\n%s\n", item.JobTitle, item.Timestamp, item.Content)
}

func historyItemMarkdown(item types.HistoryItem) string {
	return fmt.Sprintf("# %s\n\n_%s_\n\n%s\n", item.JobTitle, item.Timestamp, item.Content)
}
