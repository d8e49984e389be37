package http

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/xuri/excelize/v2"

	"cellviewer/internal/plots"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportName derives a download name from an uploaded file name
func exportName(original, suffix, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	if base == "" || base == "." {
		base = "export"
	}
	return base + suffix + ext
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

// writeWorkbook sends f as an xlsx download and closes it
func writeWorkbook(w http.ResponseWriter, f *excelize.File, filename string) error {
	defer f.Close()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	attachment(w, xlsxContentType, filename)
	_, err := buf.WriteTo(w)
	return err
}

// writePage renders charts into one HTML page. Rendering into a buffer keeps
// a failed render from sending a partial page.
func writePage(w http.ResponseWriter, title string, charts ...components.Charter) error {
	var buf bytes.Buffer
	if err := plots.RenderPage(&buf, title, charts...); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
