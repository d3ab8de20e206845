// Package export renders draw and grouping results for download and clipboard.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/message"

	"hrevent/internal/domain"
	"hrevent/internal/i18n"
)

// utf8BOM makes spreadsheet tools open the CSV as UTF-8
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVContentType is the content type of GroupsCSV output
const CSVContentType = "text/csv; charset=utf-8"

// GroupsCSV writes one (group, member) row per member under a localized header
func GroupsCSV(w io.Writer, groups []domain.Group, p *message.Printer) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	header := []string{p.Sprintf(i18n.KeyCSVGroupHeader), p.Sprintf(i18n.KeyCSVNameHeader)}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, g := range groups {
		for _, m := range g.Members {
			if err := cw.Write([]string{g.Name, m.Name}); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// GroupsCSVFilename embeds the export time in the download name
func GroupsCSVFilename(now time.Time) string {
	return fmt.Sprintf("grouping_result_%d.csv", now.UnixMilli())
}

// WinnersText lists winners as "rank. name", most recent first
func WinnersText(winners []domain.Winner) string {
	lines := make([]string, 0, len(winners))
	for _, w := range domain.Rank(winners) {
		lines = append(lines, fmt.Sprintf("%d. %s", w.Rank, w.Name))
	}
	return strings.Join(lines, "\n")
}

// GroupsText renders each group as a "[label]" line followed by indented
// member lines, with a blank line between groups
func GroupsText(groups []domain.Group) string {
	blocks := make([]string, 0, len(groups))
	for _, g := range groups {
		var b strings.Builder
		fmt.Fprintf(&b, "[%s]", g.Name)
		for _, m := range g.Members {
			fmt.Fprintf(&b, "\n - %s", m.Name)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
