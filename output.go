package main

import (
	"fmt"
	"io"
	"strings"

	"bid-advisor/internal/db"
	"bid-advisor/internal/engine"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

var reasonMarks = map[engine.ReasonKind]string{
	engine.Positive: "+",
	engine.Negative: "-",
	engine.Neutral:  "·",
}

func printRecommendation(w io.Writer, v engine.DecodedVehicle, rec engine.Recommendation) {
	fmt.Fprintf(w, "%d %s %s %s\n", v.Year, v.Make, v.Model, v.Trim)
	fmt.Fprintf(w, "  %-18s %s\n", "Recommendation", strings.ToUpper(rec.Tier.String()))
	fmt.Fprintf(w, "  %-18s %d%%\n", "Confidence", rec.ConfidenceScore)
	fmt.Fprintf(w, "  %-18s %s\n", "Max bid", engine.FormatUSD(rec.MaxBidSuggestion))
	fmt.Fprintf(w, "  %-18s %s\n", "Est. profit", engine.FormatUSD(rec.EstimatedProfit))
	fmt.Fprintf(w, "  %-18s %d\n", "Est. days to sale", rec.EstimatedDaysToSale)
	fmt.Fprintf(w, "  %-18s %d\n", "Comparable sales", rec.ComparableSales)
	fmt.Fprintln(w)
	for _, r := range rec.Reasons {
		fmt.Fprintf(w, "  %s %s\n", reasonMarks[r.Kind], r.Message)
	}
}

func printReport(w io.Writer, dealer string, s db.ScanSummary, scans []db.ScanRecord) {
	fmt.Fprintf(w, "Dealer %s: %s scans, average confidence %.0f%%\n",
		dealer, humanize.Comma(int64(s.Total)), s.AvgConfidence)
	fmt.Fprintf(w, "  buy %d · caution %d · pass %d · potential profit on buys %s\n\n",
		s.ByTier[engine.TierBuy], s.ByTier[engine.TierCaution], s.ByTier[engine.TierPass], engine.FormatUSD(s.BuyProfit))
	if len(scans) == 0 {
		return
	}

	headers := []string{"When", "VIN", "Vehicle", "Tier", "Conf", "Max bid", "Profit"}
	rows := make([][]string, 0, len(scans))
	for _, r := range scans {
		rows = append(rows, []string{
			humanize.Time(r.Timestamp),
			r.VIN,
			truncateName(fmt.Sprintf("%d %s %s", r.Year, r.Make, r.Model), 28),
			r.Tier.String(),
			fmt.Sprintf("%d%%", r.Confidence),
			engine.FormatUSD(r.MaxBid),
			engine.FormatUSD(r.EstimatedProfit),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			fmt.Fprint(w, padRight(cell, widths[i]))
		}
		fmt.Fprintln(w)
	}
	writeRow(headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = strings.Repeat("─", widths[i])
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
}

// truncateName shortens a name to maxLen runes, replacing the last rune with "…" if needed.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
