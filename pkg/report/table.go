// Package report renders assessment results for terminals and machine
// consumers. Formatters only shape output; all scoring happens upstream.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/gradekit/repograde/pkg/assess"
	"github.com/gradekit/repograde/pkg/attribute"
	"github.com/gradekit/repograde/pkg/scoring"
)

var (
	headerColor   = color.New(color.FgCyan, color.Bold)
	platinumColor = color.New(color.FgHiCyan, color.Bold)
	goldColor     = color.New(color.FgHiYellow, color.Bold)
	silverColor   = color.New(color.FgHiWhite, color.Bold)
	bronzeColor   = color.New(color.FgYellow, color.Bold)
	poorColor     = color.New(color.FgRed, color.Bold)
	goodScore     = color.New(color.FgGreen)
	okScore       = color.New(color.FgYellow)
	badScore      = color.New(color.FgRed)
	dimText       = color.New(color.Faint)
	warnText      = color.New(color.FgYellow)
)

// TableFormatter writes a color-coded assessment table to a terminal.
type TableFormatter struct{}

// NewTableFormatter creates a terminal table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Format writes the result to the given writer.
func (f *TableFormatter) Format(w io.Writer, res *assess.Result) error {
	f.writeHeader(w, res)
	f.writeSummary(w, res)
	f.writeAttributes(w, res)
	f.writeWarnings(w, res)
	f.writeFooter(w, res)
	return nil
}

func (f *TableFormatter) writeHeader(w io.Writer, res *assess.Result) {
	rule := "══════════════════════════════════════════════════"
	title := "Repository Assessment"
	if res.Target != "" {
		title = fmt.Sprintf("Repository Assessment — %s", res.Target)
	}
	fmt.Fprintf(w, "\n%s\n", headerColor.Sprint(rule))
	fmt.Fprintf(w, "  %s\n", headerColor.Sprint(title))
	fmt.Fprintf(w, "%s\n\n", headerColor.Sprint(rule))
}

func (f *TableFormatter) writeSummary(w io.Writer, res *assess.Result) {
	line := fmt.Sprintf("Overall Score: %.1f/100  [%s]", res.OverallScore, res.Certification)
	fmt.Fprintf(w, "  %s\n\n", certificationColor(res.Certification).Sprint(line))
}

func (f *TableFormatter) writeAttributes(w io.Writer, res *assess.Result) {
	grouped := make(map[attribute.Tier][]assess.ScoredAttribute)
	for _, sa := range res.Attributes {
		grouped[sa.Tier] = append(grouped[sa.Tier], sa)
	}

	for tier := attribute.TierEssential; tier <= attribute.TierAdvanced; tier++ {
		lines, ok := grouped[tier]
		if !ok {
			continue
		}

		fmt.Fprintf(w, "  %s\n", headerColor.Sprintf("── Tier %d: %s ──", int(tier), tier))
		for _, sa := range lines {
			fmt.Fprintf(w, "    %-26s %-16s %s  %s\n",
				sa.AttributeID,
				sa.Status,
				formatScore(sa),
				dimText.Sprintf("weight %.4f", sa.Weight))
			if sa.Note != "" {
				fmt.Fprintf(w, "      %s\n", dimText.Sprint(sa.Note))
			}
		}
		fmt.Fprintln(w)
	}
}

func (f *TableFormatter) writeWarnings(w io.Writer, res *assess.Result) {
	if len(res.Warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", warnText.Sprintf("Warnings (%d)", len(res.Warnings)))
	for _, issue := range res.Warnings {
		fmt.Fprintf(w, "    %s\n", warnText.Sprint(issue.Message))
	}
	fmt.Fprintln(w)
}

func (f *TableFormatter) writeFooter(w io.Writer, res *assess.Result) {
	fmt.Fprintf(w, "  %s\n", dimText.Sprint("──────────────────────────────────────────────────"))
	fmt.Fprintf(w, "  %s\n", dimText.Sprintf("Assessed: %d/%d attributes | Weight covered: %.4f",
		res.AssessedCount(), len(res.Attributes), res.TotalWeightAssessed))
	if !res.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "  %s\n", dimText.Sprintf("Generated: %s", res.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	}
	fmt.Fprintln(w)
}

// formatScore renders the score column: a colored number for assessed
// attributes, a dash for everything else.
func formatScore(sa assess.ScoredAttribute) string {
	if sa.Score == nil {
		return dimText.Sprintf("%6s", "—")
	}
	return scoreColor(*sa.Score).Sprintf("%6.1f", *sa.Score)
}

// certificationColor returns the accent color for a certification level.
func certificationColor(g scoring.Grade) *color.Color {
	switch g {
	case scoring.GradePlatinum:
		return platinumColor
	case scoring.GradeGold:
		return goldColor
	case scoring.GradeSilver:
		return silverColor
	case scoring.GradeBronze:
		return bronzeColor
	default:
		return poorColor
	}
}

// scoreColor shades a sub-score using the certification boundaries.
func scoreColor(score float64) *color.Color {
	switch {
	case score >= 75:
		return goodScore
	case score >= 40:
		return okScore
	default:
		return badScore
	}
}
