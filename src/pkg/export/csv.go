package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/llm"
)

const utf8BOM = "\ufeff"

var Header = []string{"store_name", "date", "name", "quantity", "price", "total"}

/*
WriteCSV writes receipts as one row per item:

	store_name,date,name,quantity,price,total

Receipt level fields are repeated on every item row. A receipt without items
still gets one row with empty item columns. Nulls become empty cells.
*/
func WriteCSV(w io.Writer, receipts []llm.Receipt, cfg Config) (e *xerr.Error) {
	delimiter, e := parseDelimiter(cfg.Delimiter)
	if e != nil {
		return e
	}

	buffered := bufio.NewWriter(w)
	if !cfg.SkipBOM {
		_, err := buffered.WriteString(utf8BOM)
		if err != nil {
			return xerr.NewError(err, "write CSV byte order mark", nil)
		}
	}

	writer := csv.NewWriter(buffered)
	writer.Comma = delimiter

	err := writer.Write(Header)
	if err != nil {
		return xerr.NewError(err, "write CSV header", Header)
	}
	for _, row := range Rows(receipts) {
		err = writer.Write(row)
		if err != nil {
			return xerr.NewError(err, "write CSV row", row)
		}
	}

	writer.Flush()
	err = writer.Error()
	if err != nil {
		return xerr.NewError(err, "flush CSV writer", nil)
	}
	err = buffered.Flush()
	if err != nil {
		return xerr.NewError(err, "flush CSV output", nil)
	}
	return nil
}

// Rows flattens receipts into CSV records without the header.
func Rows(receipts []llm.Receipt) [][]string {
	var rows [][]string
	for _, receipt := range receipts {
		store, date, total := text(receipt.StoreName), text(receipt.Date), number(receipt.Total)
		if len(receipt.Items) == 0 {
			rows = append(rows, []string{store, date, "", "", "", total})
			continue
		}
		for _, item := range receipt.Items {
			rows = append(rows, []string{store, date, text(item.Name), number(item.Quantity), number(item.Price), total})
		}
	}
	return rows
}

// SaveCSV writes receipts to path, creating parent directories.
func SaveCSV(path string, receipts []llm.Receipt, cfg Config) (e *xerr.Error) {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return xerr.NewError(err, "create CSV output directory", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return xerr.NewError(err, "create CSV file", path)
	}
	defer file.Close()

	e = WriteCSV(file, receipts, cfg)
	if e != nil {
		return e
	}

	tl.Log(tl.Info1, palette.Green, "Saved %d receipts to '%s'", len(receipts), path)
	return nil
}

func parseDelimiter(s string) (rune, *xerr.Error) {
	if s == "" {
		return ',', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, xerr.NewError(fmt.Errorf("invalid delimiter %q", s), "parse CSV delimiter", s)
	}
	return r, nil
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func number(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
