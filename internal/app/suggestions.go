package app

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2/widget"

	"yashubustudio/sedefinder/finder"
)

// entityCardSegments renders a suggestion card as rich text, one line per
// display field, with the parts matching query in bold.
func entityCardSegments(card finder.EntitySuggestion, query string) []widget.RichTextSegment {
	var segs []widget.RichTextSegment
	for _, line := range card.DisplayFields {
		lineSegs := []*widget.TextSegment{{
			Text:  line.Label + ": ",
			Style: widget.RichTextStyleInline,
		}}
		for _, part := range finder.Highlight(line.Value, query) {
			style := widget.RichTextStyleInline
			if part.Matched {
				style = widget.RichTextStyleStrong
			}
			lineSegs = append(lineSegs, &widget.TextSegment{Text: part.Text, Style: style})
		}
		lineSegs[len(lineSegs)-1].Style.Inline = false
		for _, s := range lineSegs {
			segs = append(segs, s)
		}
	}
	return segs
}

// entityCardText is the plain text form of a suggestion card.
func entityCardText(card finder.EntitySuggestion) string {
	lines := make([]string, len(card.DisplayFields))
	for i, line := range card.DisplayFields {
		lines[i] = line.Label + ": " + line.Value
	}
	return strings.Join(lines, "\n")
}

func categoryCardText(card finder.CategorySuggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s · %d sedes", card.BaseLabel, card.MatchingRowCount)
	if len(card.TopMunicipalities) > 0 {
		b.WriteString("\n")
		b.WriteString(formatCounts(card.TopMunicipalities))
	}
	return b.String()
}

func formatCounts(counts []finder.MunicipalityCount) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s (%d)", c.Name, c.Count)
	}
	return strings.Join(parts, ", ")
}

// kpiText summarises a selection or the whole dataset for the KPI panel.
func kpiText(s finder.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sedes: %d   Total: %s", s.Sites, finder.FormatTotal(s.TotalSum))
	if len(s.Municipalities) > 0 {
		b.WriteString("\nPor municipio: ")
		b.WriteString(formatCounts(s.Municipalities))
	}
	return b.String()
}
