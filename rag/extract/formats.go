package extract

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/rag/preprocess"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// PDF reads every page's plain text. Pages that cannot be decoded (scanned
// images, broken fonts) contribute an empty string; pages are joined by "\n".
func PDF(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	logger := logging.WithComponent("extract")
	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, pageText(reader, i, logger.Warn))
	}
	return &Result{Source: path, Text: strings.Join(pages, "\n"), Pages: pages}, nil
}

func pageText(reader *pdf.Reader, n int, warn func(string, ...any)) (text string) {
	defer func() {
		if r := recover(); r != nil {
			warn("pdf page unreadable", "page", n, "panic", r)
			text = ""
		}
	}()
	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	txt, err := page.GetPlainText(nil)
	if err != nil {
		warn("pdf page unreadable", "page", n, "error", err)
		return ""
	}
	return txt
}

var (
	reDocxParagraphEnd = regexp.MustCompile(`</w:p>`)
	reDocxTab          = regexp.MustCompile(`<w:tab/>`)
	reXMLTag           = regexp.MustCompile(`<[^>]+>`)
)

// DOCX reads the main document body, one paragraph per line.
func DOCX(ctx context.Context, path string) (*Result, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	content = reDocxParagraphEnd.ReplaceAllString(content, "\n")
	content = reDocxTab.ReplaceAllString(content, "\t")
	content = reXMLTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	lines := strings.Split(content, "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return &Result{Source: path, Text: strings.Join(out, "\n")}, nil
}

// XLSX renders each sheet as a heading followed by tab-separated rows.
func XLSX(ctx context.Context, path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "## Sheet: %s\n", name)
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
		sheets = append(sheets, strings.TrimRight(b.String(), "\n"))
	}
	return &Result{Source: path, Text: strings.Join(sheets, "\n\n"), Pages: sheets}, nil
}

// HTML keeps headings, paragraphs, lists and tables.
func HTML(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := preprocess.HTMLToText(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Result{Source: path, Text: text}, nil
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
)

// Markdown renders to HTML first so tables and lists flatten like HTML sources.
func Markdown(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := markdown.Convert(data, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	text, err := preprocess.HTMLToText(buf.String())
	if err != nil {
		return nil, fmt.Errorf("parse rendered markdown: %w", err)
	}
	return &Result{Source: path, Text: text}, nil
}

// Text reads the file as-is.
func Text(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Result{Source: path, Text: string(data)}, nil
}
