// Package utils holds the terminal markdown renderer used for
// assistant answers.
package utils

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	orderedItemRe = regexp.MustCompile(`^(\d+)\.\s+(.*)`)
	inlineCodeRe  = regexp.MustCompile("`[^`]+`")
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	boldRe        = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe      = regexp.MustCompile(`_([^_]+)_`)
)

func codeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Background(lipgloss.Color("236")).Padding(0, 1)
}

func headingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

func linkStyle() lipgloss.Style {
	return lipgloss.NewStyle().Underline(true)
}

func listStyle() lipgloss.Style {
	return lipgloss.NewStyle().MarginLeft(2)
}

// RenderMarkdown applies lightweight markdown styling for terminal
// output: headings, lists, fenced and inline code, links, bold and
// italic. Anything else passes through unchanged.
func RenderMarkdown(text string) string {
	var result strings.Builder
	inCodeBlock := false

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			result.WriteString(codeStyle().Render(line) + "\n")
			continue
		}

		switch {
		case strings.HasPrefix(line, "#"):
			heading := strings.TrimSpace(strings.TrimLeft(line, "#"))
			result.WriteString(headingStyle().Render(renderInline(heading)) + "\n")
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			result.WriteString(listStyle().Render("• "+renderInline(line[2:])) + "\n")
		default:
			if m := orderedItemRe.FindStringSubmatch(line); m != nil {
				result.WriteString(listStyle().Render(m[1]+". "+renderInline(m[2])) + "\n")
			} else {
				result.WriteString(renderInline(line) + "\n")
			}
		}
	}

	return strings.TrimSuffix(result.String(), "\n")
}

func renderInline(line string) string {
	line = inlineCodeRe.ReplaceAllStringFunc(line, func(match string) string {
		return codeStyle().Render(strings.Trim(match, "`"))
	})
	line = linkRe.ReplaceAllStringFunc(line, func(match string) string {
		m := linkRe.FindStringSubmatch(match)
		return linkStyle().Render(m[1]) + " (" + m[2] + ")"
	})
	line = boldRe.ReplaceAllStringFunc(line, func(match string) string {
		return lipgloss.NewStyle().Bold(true).Render(strings.Trim(match, "*"))
	})
	line = italicRe.ReplaceAllStringFunc(line, func(match string) string {
		return lipgloss.NewStyle().Italic(true).Render(strings.Trim(match, "_"))
	})
	return line
}
