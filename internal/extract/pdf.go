package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
	"github.com/billyribeiro-ux/build-ops/internal/shared/telemetry"
)

// pdfInfo is the document-information dictionary subset we surface.
type pdfInfo struct {
	title     string
	author    string
	pageCount int
}

func extractPDF(ctx context.Context, path, fileName string) (Document, error) {
	const op = "extract pdf"
	if _, err := os.Stat(path); err != nil {
		return Document{}, apperr.IO(op, fmt.Errorf("stat %s: %w", fileName, err))
	}

	pages, err := readPDFPages(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Document{}, ctxErr
		}
		return Document{}, apperr.External(op, fmt.Errorf("PDF extraction failed for %s: %w", fileName, err))
	}

	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		texts = append(texts, p.text)
	}
	raw := strings.Join(texts, "\n")

	b := newLineBuilder()
	pageCount := b.build(pages, false)
	doc := finish(fileName, raw, pageCount, b.sections, b.codeBlocks, b.languages)

	info, err := readPDFInfo(path)
	if err != nil {
		telemetry.Warn("extract.pdf_info_unavailable", map[string]any{
			"file_name": fileName,
			"error":     err,
		})
		return doc, nil
	}
	if info.title != "" {
		doc.Metadata.Title = strPtr(info.title)
	}
	if info.author != "" {
		doc.Metadata.Author = strPtr(info.author)
	}
	if doc.TotalPages == 0 && info.pageCount > 0 {
		doc.TotalPages = info.pageCount
		doc.Metadata.PageCount = info.pageCount
	}
	return doc, nil
}

// readPDFPages returns the plain text of each page, 1-based.
func readPDFPages(ctx context.Context, path string) (pages []page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, page{number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, page{number: i, text: text})
	}
	return pages, nil
}

func readPDFInfo(path string) (info pdfInfo, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdfcpu panic: %v", rec)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return pdfInfo{}, err
	}
	defer f.Close()

	pctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return pdfInfo{}, fmt.Errorf("pdfcpu read: %w", err)
	}
	return pdfInfo{
		title:     strings.TrimSpace(pctx.Title),
		author:    strings.TrimSpace(pctx.Author),
		pageCount: pctx.PageCount,
	}, nil
}
