package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/law-makers/seocrawl/pkg/models"
)

// Writer renders a report to w
type Writer func(w io.Writer, rep *models.SEOReport) error

// WriterFor returns the writer for a file extension or format name
func WriterFor(format string) (Writer, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "json", "":
		return WriteJSON, nil
	case "html", "htm":
		return WriteHTML, nil
	case "md", "markdown":
		return WriteMarkdown, nil
	case "csv":
		return WriteCSV, nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// Save writes the report to path in the format implied by its extension
func Save(rep *models.SEOReport, path string) error {
	write, err := WriterFor(filepath.Ext(path))
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file, rep); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
