// Package uploader copies marketplace template exports (BASIC, MEDIA and
// SALES xlsx files) into same-named worksheets of a spreadsheet.
package uploader

import (
	"context"
	"fmt"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sirupsen/logrus"
)

// Target tabs.
const (
	TabBasic = "BASIC"
	TabMedia = "MEDIA"
	TabSales = "SALES"
)

// Tabs lists every target tab.
var Tabs = []string{TabBasic, TabMedia, TabSales}

// File is one uploaded xlsx export.
type File struct {
	Name string
	Data []byte
}

// TargetTab routes a file name to its tab, or "" when it matches none.
func TargetTab(name string) string {
	low := strings.ToLower(name)
	switch {
	case strings.Contains(low, "basic"):
		return TabBasic
	case strings.Contains(low, "media"):
		return TabMedia
	case strings.Contains(low, "sales"):
		return TabSales
	}
	return ""
}

// Uploader writes parsed exports into a workbook.
type Uploader struct {
	// ChunkRows splits writes into slices of this many rows. Zero writes
	// everything at once.
	ChunkRows int
	Log       logrus.FieldLogger
}

// New creates an Uploader.
func New(chunkRows int, log logrus.FieldLogger) *Uploader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Uploader{ChunkRows: chunkRows, Log: log}
}

type logBook struct {
	lines []models.UploadLog
	log   logrus.FieldLogger
}

func (b *logBook) add(level models.LogLevel, format string, args ...any) {
	line := models.UploadLog{Level: level, Message: fmt.Sprintf(format, args...)}
	b.lines = append(b.lines, line)
	entry := b.log.WithField("level_tag", string(level))
	switch level {
	case models.LevelError:
		entry.Error(line.Message)
	case models.LevelWarn, models.LevelSkip:
		entry.Warn(line.Message)
	default:
		entry.Info(line.Message)
	}
}

func (b *logBook) anyOK() bool {
	for _, l := range b.lines {
		if l.Level == models.LevelOK {
			return true
		}
	}
	return false
}

// Apply parses every file and copies it into its routed tab. Problems with
// one file are logged and do not stop the others.
func (u *Uploader) Apply(ctx context.Context, wb store.Workbook, files []File) []models.UploadLog {
	book := &logBook{log: u.logger()}
	if len(files) == 0 {
		book.add(models.LevelWarn, "no files uploaded")
		return book.lines
	}

	for _, file := range files {
		tab := TargetTab(file.Name)
		if tab == "" {
			book.add(models.LevelSkip, "file name matches no tab: %s", file.Name)
			continue
		}

		values, err := ReadValues(file.Data)
		if err != nil {
			book.add(models.LevelError, "%s: failed to read %s: %v", tab, file.Name, err)
			continue
		}
		if degenerate(values) {
			rows, cols := parser.Dimensions(values)
			book.add(models.LevelWarn, "%s: data is unusually small (shape=%dx%d)", tab, rows, cols)
		}

		if err := u.write(ctx, wb, tab, values, book); err != nil {
			book.add(models.LevelError, "%s: failed to apply %s: %v", tab, file.Name, err)
		}
	}

	if err := store.Flush(ctx, wb); err != nil {
		book.add(models.LevelError, "flush %s: %v", wb.Title(), err)
	}
	if !book.anyOK() {
		book.add(models.LevelWarn, "no tab was updated; check file names and sheet permissions")
	}
	return book.lines
}

func (u *Uploader) write(ctx context.Context, wb store.Workbook, tab string, values [][]string, book *logBook) error {
	rows, cols := parser.Dimensions(values)
	book.add(models.LevelInfo, "%s: parsed shape = %dx%d", tab, rows, cols)
	if rows == 0 || cols == 0 {
		book.add(models.LevelWarn, "%s: input is empty, skipped", tab)
		return nil
	}

	if _, err := store.ResetWorksheet(ctx, wb, tab, max(rows+10, 100), max(cols+5, 26)); err != nil {
		return err
	}
	if err := store.EnsureSize(ctx, wb, tab, rows+10, cols+5); err != nil {
		return err
	}

	values = parser.PadRows(values, cols)
	if u.ChunkRows <= 0 {
		if err := wb.Write(ctx, tab, 1, values); err != nil {
			return err
		}
	} else {
		for start := 0; start < rows; start += u.ChunkRows {
			end := min(rows, start+u.ChunkRows)
			if err := wb.Write(ctx, tab, start+1, values[start:end]); err != nil {
				return fmt.Errorf("rows %d-%d: %w", start+1, end, err)
			}
		}
	}

	book.add(models.LevelOK, "%s: %dx%d applied", tab, rows, cols)
	return nil
}

func (u *Uploader) logger() logrus.FieldLogger {
	if u.Log == nil {
		return logrus.StandardLogger()
	}
	return u.Log
}
