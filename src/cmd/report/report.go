package main

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/llm"
)

/*
storeRow is the spend of one store in the period.
*/
type storeRow struct {
	StoreName string  `json:"store_name"`
	Amount    float64 `json:"amount"`
	Receipts  int     `json:"receipts"`
}

/*
monthlyReport is what the CSV and the email summarize.
*/
type monthlyReport struct {
	Receipts          []llm.Receipt `json:"receipts"`
	Stores            []storeRow    `json:"stores"`
	TotalSpent        float64       `json:"total_spent"`
	DateFallbackCount int           `json:"date_fallback_count"`
	SkippedCount      int           `json:"skipped_count"`
}

/*
buildMonthlyReport scans receipt.json files, filters them by the selected
month and aggregates spend per store. Receipts are ordered by date.

Filtering uses a "best available" date:
- the receipt date (YYYY-MM-DD and a few common layouts)
- run_metadata.started_at (Unix ms)
*/
func buildMonthlyReport(options reportOptions) (report monthlyReport, e *xerr.Error) {
	location, locationErr := time.LoadLocation(options.Timezone)
	if locationErr != nil {
		location = time.UTC
	}
	periodStart := time.Date(options.Year, options.Month, 1, 0, 0, 0, 0, location)
	periodEnd := periodStart.AddDate(0, 1, 0)

	jsonPaths, e := collectReceiptFiles(options.OutDir)
	if e != nil {
		return report, e
	}
	tl.Log(tl.Info1, palette.Cyan, "Found %d receipt files under '%s'", len(jsonPaths), options.OutDir)

	type dated struct {
		receipt llm.Receipt
		at      time.Time
	}
	var included []dated
	storeByName := make(map[string]*storeRow)

	for _, jsonPath := range jsonPaths {
		receipt, loadErr := loadReceipt(jsonPath)
		if loadErr != nil {
			report.SkippedCount++
			tl.Log(tl.Warning, palette.PurpleBright, "Skipping unreadable JSON '%s': %v", jsonPath, loadErr)
			continue
		}

		at, fromMetadata, ok := receiptTime(receipt, location)
		if !ok {
			report.SkippedCount++
			tl.Log(tl.Warning, palette.PurpleBright, "Skipping receipt with no usable date '%s'", jsonPath)
			continue
		}
		if !options.AllTime && (at.Before(periodStart) || !at.Before(periodEnd)) {
			continue
		}
		if fromMetadata {
			report.DateFallbackCount++
		}

		included = append(included, dated{receipt: receipt, at: at})

		amount := receiptAmount(receipt)
		report.TotalSpent += amount

		name := "Unknown store"
		if receipt.StoreName != nil {
			name = *receipt.StoreName
		}
		row, exists := storeByName[name]
		if !exists {
			row = &storeRow{StoreName: name}
			storeByName[name] = row
		}
		row.Amount += amount
		row.Receipts++
	}

	sort.SliceStable(included, func(i, j int) bool { return included[i].at.Before(included[j].at) })
	for _, d := range included {
		report.Receipts = append(report.Receipts, d.receipt)
	}

	for _, row := range storeByName {
		report.Stores = append(report.Stores, *row)
	}
	sort.Slice(report.Stores, func(i, j int) bool {
		if report.Stores[i].Amount != report.Stores[j].Amount {
			return report.Stores[i].Amount > report.Stores[j].Amount
		}
		return report.Stores[i].StoreName < report.Stores[j].StoreName
	})
	return report, nil
}

/*
collectReceiptFiles recursively walks outDir and returns all receipt.json paths.
*/
func collectReceiptFiles(outDir string) (paths []string, e *xerr.Error) {
	walkErr := filepath.WalkDir(outDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && strings.EqualFold(entry.Name(), "receipt.json") {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return paths, xerr.NewErrorEC(walkErr, "walk out directory", "outDir", outDir, false)
	}
	sort.Strings(paths)
	return paths, nil
}

func loadReceipt(jsonPath string) (receipt llm.Receipt, e *xerr.Error) {
	bytesRead, readErr := os.ReadFile(jsonPath)
	if readErr != nil {
		return receipt, xerr.NewErrorEC(readErr, "read JSON file", "path", jsonPath, false)
	}
	unmarshalErr := json.Unmarshal(bytesRead, &receipt)
	if unmarshalErr != nil {
		return receipt, xerr.NewErrorEC(unmarshalErr, "unmarshal receipt JSON", "path", jsonPath, false)
	}
	return receipt, nil
}

/*
receiptTime returns the receipt date at noon local time (avoids DST edges) or,
failing that, the time the LLM run started.
*/
func receiptTime(receipt llm.Receipt, location *time.Location) (at time.Time, fromMetadata bool, ok bool) {
	if receipt.Date != nil {
		for _, layout := range []string{"2006-01-02", "2006/01/02", "02/01/2006", "2006.01.02"} {
			value, err := time.ParseInLocation(layout, strings.TrimSpace(*receipt.Date), location)
			if err == nil {
				return time.Date(value.Year(), value.Month(), value.Day(), 12, 0, 0, 0, location), false, true
			}
		}
	}
	if receipt.RunMetadata != nil && receipt.RunMetadata.StartedAt > 0 {
		return time.UnixMilli(receipt.RunMetadata.StartedAt).In(location), true, true
	}
	return at, false, false
}

/*
receiptAmount prefers the printed total and falls back to the sum of known
item prices.
*/
func receiptAmount(receipt llm.Receipt) float64 {
	if receipt.Total != nil {
		return *receipt.Total
	}
	sum := 0.0
	for _, item := range receipt.Items {
		if item.Price != nil {
			sum += *item.Price
		}
	}
	return sum
}

func renderText(report monthlyReport) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Receipts: %d\nTotal spent: %s\n\n", len(report.Receipts), formatAmount(report.TotalSpent))
	for _, row := range report.Stores {
		fmt.Fprintf(&builder, "%-30s %12s  (%d receipts)\n", row.StoreName, formatAmount(row.Amount), row.Receipts)
	}
	if report.DateFallbackCount > 0 {
		fmt.Fprintf(&builder, "\n%d receipts had no readable date; the processing time was used instead.\n", report.DateFallbackCount)
	}
	return builder.String()
}

/*
renderHTML renders the store table with inline CSS only (email-safe).
*/
func renderHTML(report monthlyReport) string {
	var builder strings.Builder
	builder.WriteString(`<!doctype html><html><head><meta charset="utf-8"></head>`)
	builder.WriteString(`<body style="margin:0;padding:24px;background-color:#F3F4F6;font-family:-apple-system,Segoe UI,Roboto,Arial,sans-serif;color:#111827;">`)
	builder.WriteString(`<div style="font-size:12px;letter-spacing:0.10em;text-transform:uppercase;color:#6B7280;">Total spent</div>`)
	builder.WriteString(`<div style="margin:6px 0 18px 0;font-size:32px;font-weight:900;">` + html.EscapeString(formatAmount(report.TotalSpent)) + `</div>`)
	builder.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;background-color:#FFFFFF;">`)
	for _, row := range report.Stores {
		builder.WriteString(`<tr><td style="padding:10px 12px;border-bottom:1px solid #E5E7EB;font-weight:700;">` + html.EscapeString(row.StoreName) + `</td>`)
		builder.WriteString(`<td align="right" style="padding:10px 12px;border-bottom:1px solid #E5E7EB;">` + html.EscapeString(formatAmount(row.Amount)) + `</td>`)
		builder.WriteString(`<td align="right" style="padding:10px 12px;border-bottom:1px solid #E5E7EB;color:#6B7280;">` + strconv.Itoa(row.Receipts) + `</td></tr>`)
	}
	builder.WriteString(`</table>`)
	builder.WriteString(`<div style="margin-top:12px;font-size:12px;color:#6B7280;">The full item list is attached as CSV.</div>`)
	builder.WriteString(`</body></html>`)
	return builder.String()
}

/*
formatAmount groups thousands with commas and keeps two decimals only when
needed, e.g. 71630 -> "71,630" and 1234.5 -> "1,234.50".
*/
func formatAmount(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	raw := strconv.FormatFloat(amount, 'f', 2, 64)
	whole, fraction, _ := strings.Cut(raw, ".")
	grouped := groupThousands(whole, ",")
	if fraction == "00" {
		return sign + grouped
	}
	return sign + grouped + "." + fraction
}

/*
groupThousands groups digits in a base-10 string using the provided separator.
*/
func groupThousands(raw string, sep string) string {
	if len(raw) <= 3 {
		return raw
	}

	var builder strings.Builder
	firstGroupLen := len(raw) % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}
	builder.WriteString(raw[:firstGroupLen])
	for index := firstGroupLen; index < len(raw); index += 3 {
		builder.WriteString(sep)
		builder.WriteString(raw[index : index+3])
	}
	return builder.String()
}
