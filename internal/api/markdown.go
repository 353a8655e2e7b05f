package api

import (
	"strings"

	"sambou/models"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// renderMarkdown converts one advice section to HTML. Parsers are stateful, so
// each call builds its own.
func renderMarkdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(markdown.ToHTML([]byte(src), p, r))
}

func renderSnippets(s models.ApplicationSnippets) models.ApplicationSnippets {
	return models.ApplicationSnippets{
		PersonalStatementFocus:      renderMarkdown(s.PersonalStatementFocus),
		WhyThisProgram:              renderMarkdown(s.WhyThisProgram),
		RelevantSkillsHighlight:     renderMarkdown(s.RelevantSkillsHighlight),
		CareerGoalsAlignment:        renderMarkdown(s.CareerGoalsAlignment),
		PotentialQuestionsToPrepare: renderMarkdown(s.PotentialQuestionsToPrepare),
	}
}
