package main

import (
	"bytes"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/config"
	"receipt-digitizer/src/pkg/email"
	"receipt-digitizer/src/pkg/export"
)

/*
reportOptions controls which receipts are included and where output is written.
*/
type reportOptions struct {
	OutDir     string
	Year       int
	Month      time.Month
	AllTime    bool
	OutputPath string
	Timezone   string
	Recipients []string
	Send       bool
}

/*
main merges the receipt.json files under -out into one CSV, filtered to a
month, and optionally mails it.

Example:

	go run ./src/cmd/report -out ./out -year 2025 -month 12 -email me@example.com -send
*/
func main() {
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	options := parseFlags()
	config.InitializeConfig(*configPath)

	tl.Log(tl.Notice, palette.BlueBold, "Merging receipts for %s from '%s'", periodLabel(options), options.OutDir)

	report, e := buildMonthlyReport(options)
	e.QuitIf(xerr.ErrorTypeError)

	e = export.SaveCSV(options.OutputPath, report.Receipts, export.Cfg)
	e.QuitIf(xerr.ErrorTypeError)

	tl.Log(
		tl.Info1, palette.Green, "Included %d receipts, total spent %s",
		len(report.Receipts), formatAmount(report.TotalSpent),
	)

	if len(options.Recipients) == 0 {
		return
	}

	var csvBuffer bytes.Buffer
	e = export.WriteCSV(&csvBuffer, report.Receipts, export.Cfg)
	e.QuitIf(xerr.ErrorTypeError)

	subject := fmt.Sprintf("%s (%s)", email.Cfg.Subject, periodLabel(options))
	e = email.SendMessage(
		email.Cfg.Provider, &options.Send, email.Cfg.Sender, options.Recipients,
		subject, renderText(report), renderHTML(report),
		[]email.Attachment{{
			Filename:    filepath.Base(options.OutputPath),
			ContentType: "text/csv; charset=utf-8",
			Data:        csvBuffer.Bytes(),
		}},
	)
	e.QuitIf(xerr.ErrorTypeError)
}

/*
parseFlags parses CLI flags and returns validated reportOptions.

Defaults:
- current month/year in the selected timezone
- output path: ./tmp/receipts-YYYY-MM.csv
*/
func parseFlags() reportOptions {
	outDirFlag := flag.String("out", "./out", "Directory to scan recursively for receipt.json files")
	yearFlag := flag.Int("year", 0, "Year to report (default: current year)")
	monthFlag := flag.Int("month", 0, "Month to report 1-12 (default: current month)")
	allFlag := flag.Bool("all", false, "Include every receipt regardless of date")
	outputFlag := flag.String("o", "", "Output CSV path (default: ./tmp/receipts-YYYY-MM.csv)")
	timezoneFlag := flag.String("tz", "Asia/Tokyo", "IANA timezone used for dates without one")
	emailFlag := flag.String("email", "", "Comma separated recipients of the merged CSV")
	sendFlag := flag.Bool("send", false, "Actually send the email (dry run otherwise)")

	flag.Parse()

	location, locationErr := time.LoadLocation(*timezoneFlag)
	if locationErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Invalid timezone '%s'; falling back to UTC", *timezoneFlag)
		location = time.UTC
	}
	now := time.Now().In(location)

	yearValue := *yearFlag
	if yearValue == 0 {
		yearValue = now.Year()
	}
	monthValue := *monthFlag
	if monthValue == 0 {
		monthValue = int(now.Month())
	}
	monthValue = max(1, min(12, monthValue))

	outputPath := *outputFlag
	if outputPath == "" {
		if *allFlag {
			outputPath = "./tmp/receipts-all.csv"
		} else {
			outputPath = fmt.Sprintf("./tmp/receipts-%04d-%02d.csv", yearValue, monthValue)
		}
	}

	var recipients []string
	for _, recipient := range strings.Split(*emailFlag, ",") {
		if recipient = strings.TrimSpace(recipient); recipient != "" {
			recipients = append(recipients, recipient)
		}
	}

	return reportOptions{
		OutDir:     *outDirFlag,
		Year:       yearValue,
		Month:      time.Month(monthValue),
		AllTime:    *allFlag,
		OutputPath: outputPath,
		Timezone:   location.String(),
		Recipients: recipients,
		Send:       *sendFlag,
	}
}

func periodLabel(options reportOptions) string {
	if options.AllTime {
		return "all time"
	}
	return fmt.Sprintf("%s %d", options.Month, options.Year)
}
