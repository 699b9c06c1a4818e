package partition

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// pdfParser extracts page text with ledongthuc/pdf and, when enabled, falls
// back to pdftotext -layout. Column layout survives better through
// pdftotext, so it is also tried when the library finds no table.
func pdfParser(fallback bool) parseFunc {
	return func(ctx context.Context, path string) ([]element, error) {
		text, err := extractPDFText(path)
		if err != nil && !fallback {
			return nil, fmt.Errorf("extract pdf text: %w", err)
		}
		if err != nil || (fallback && strings.TrimSpace(text) == "") {
			text, err = extractPdftotext(ctx, path)
			if err != nil {
				return nil, fmt.Errorf("extract pdf text: %w", err)
			}
		}
		elements, err := pdfElements(text)
		if err != nil {
			return nil, err
		}
		if fallback && !hasTable(elements) {
			if layout, lerr := extractPdftotext(ctx, path); lerr == nil {
				if alt, aerr := pdfElements(layout); aerr == nil && hasTable(alt) {
					return alt, nil
				}
			}
		}
		return elements, nil
	}
}

func pdfElements(text string) ([]element, error) {
	var elements []element
	for _, page := range strings.Split(text, "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		pageElements, err := plainElements(strings.NewReader(page))
		if err != nil {
			return nil, err
		}
		elements = append(elements, pageElements...)
	}
	return elements, nil
}

func hasTable(elements []element) bool {
	for _, el := range elements {
		if el.kind == elemTable {
			return true
		}
	}
	return false
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f")
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
