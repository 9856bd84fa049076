package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var rePages = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(strings.TrimRight(text, "\f\n"), "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfPageCount(ctx context.Context, path string) (int, []string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdfinfo, path)
	if err != nil {
		return 0, []string{string(errb)}, err
	}
	m := rePages.FindSubmatch(out)
	if m == nil {
		return 0, []string{"pdfinfo reported no page count"}, fmt.Errorf("page count not found")
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, nil, fmt.Errorf("parse page count: %w", err)
	}
	return n, nil, nil
}

// pdfPagesText extracts every page on its own and joins them in page order.
func (e *Extractor) pdfPagesText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	n, warns, err := e.pdfPageCount(ctx, path)
	if err != nil {
		return "", 0, warns, err
	}
	if e.cfg.MaxPages > 0 && n > e.cfg.MaxPages {
		n = e.cfg.MaxPages
	}

	var b strings.Builder
	for i := 1; i <= n; i++ {
		p := strconv.Itoa(i)
		out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext,
			"-f", p, "-l", p, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
		if err != nil {
			return "", 0, append(warns, string(errb)), fmt.Errorf("page %d: %w", i, err)
		}
		page := strings.Trim(string(out), "\f")
		if strings.TrimSpace(page) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(page)
	}
	return b.String(), n, warns, nil
}
