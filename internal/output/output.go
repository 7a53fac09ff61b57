package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/critic/internal/review"
)

// Writer writes a review result in a specific format.
type Writer interface {
	Write(w io.Writer, res *review.Result) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{Width: 80}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "html":
		return &HTMLWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteResult writes res to outPath, or to stdout when outPath is empty.
func WriteResult(res *review.Result, format, outPath string) error {
	return WriteResultTo(os.Stdout, res, format, outPath)
}

// WriteResultTo is WriteResult with an explicit fallback writer.
func WriteResultTo(stdout io.Writer, res *review.Result, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	if outPath == "" {
		return writer.Write(stdout, res)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writer.Write(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
