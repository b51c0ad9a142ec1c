package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Yates-Labs/talecraft/internal/evaluation"
	"github.com/Yates-Labs/talecraft/internal/notify"
)

// outputEvaluations prints one row per character followed by the decision.
func outputEvaluations(evals []evaluation.CharacterEvaluation, d evaluation.Decision) {
	const (
		nameWidth  = 18
		scoreWidth = 8
		bandWidth  = 8
		noteWidth  = 60
	)

	cellHeader := headerStyle.Padding(0, 1)
	headers := []string{
		cellHeader.Width(nameWidth).Render("CHARACTER"),
		cellHeader.Width(scoreWidth).Render("SCORE"),
		cellHeader.Width(bandWidth).Render("BAND"),
		cellHeader.Width(noteWidth).Render("EVALUATION"),
	}
	fmt.Println(strings.Join(headers, borderStyle.Render("│")))

	separatorParts := []string{
		strings.Repeat("─", nameWidth),
		strings.Repeat("─", scoreWidth),
		strings.Repeat("─", bandWidth),
		strings.Repeat("─", noteWidth),
	}
	fmt.Println(borderStyle.Render(strings.Join(separatorParts, "┼")))

	nameStyle := lipgloss.NewStyle().Foreground(nameColor).Padding(0, 1).Width(nameWidth)
	scoreStyle := lipgloss.NewStyle().Foreground(numberColor).Padding(0, 1).Width(scoreWidth).Align(lipgloss.Right)
	bandStyle := lipgloss.NewStyle().Foreground(textColor).Padding(0, 1).Width(bandWidth)
	noteStyle := lipgloss.NewStyle().Foreground(textColor).Padding(0, 1).Width(noteWidth)

	for _, ev := range evals {
		cells := []string{
			nameStyle.Render(ev.CharacterName),
			scoreStyle.Render(evaluation.FormatScore(ev.TotalScore)),
			bandStyle.Render(evaluation.BandOf(ev.TotalScore).String()),
			noteStyle.Render(ev.Evaluation),
		}
		fmt.Println(strings.Join(cells, borderStyle.Render("│")))
	}

	fmt.Println()
	summary := fmt.Sprintf("Total: %d characters, min %s, average %.1f",
		len(evals), evaluation.FormatScore(d.MinScore), d.AverageScore)
	fmt.Println(summaryStyle.Render(summary))

	if d.NeedsRevision {
		fmt.Println(errorStyle.Render("Revision needed: ") + textStyle.Render(d.LowScoringSummary()))
		for _, line := range d.PriorityImprovements() {
			fmt.Println(textStyle.Render("  • " + line))
		}
	} else {
		fmt.Println(successStyle.Render("✓ No revision needed"))
	}
}

func outputDelivery(res notify.Result) {
	if res.Success {
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ Delivered via %s (message %s)", res.Channel, res.MessageID)))
		return
	}
	fmt.Println(errorStyle.Render("Delivery failed: ") + textStyle.Render(res.Error))
}
