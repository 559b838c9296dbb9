// Package docgen turns tailored content into resume PDFs using a headless
// Chrome print-to-PDF pipeline. Requires Chrome/Chromium on the system.
package docgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/jonathan/job-pipeline/internal/types"
)

// DefaultRenderTimeout bounds one browser print job.
const DefaultRenderTimeout = 45 * time.Second

// A4 in inches.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
)

// Generator renders a tailored resume for one job and returns the PDF path.
type Generator interface {
	Render(ctx context.Context, job *types.Job, content types.TailoredContent, projectIDs []string) (string, error)
}

// ChromePDF implements Generator with headless Chrome.
type ChromePDF struct {
	profile   *types.Profile
	outputDir string
	timeout   time.Duration
}

func NewChromePDF(profile *types.Profile, outputDir string) *ChromePDF {
	return &ChromePDF{profile: profile, outputDir: outputDir, timeout: DefaultRenderTimeout}
}

// WithTimeout overrides the per-render timeout.
func (g *ChromePDF) WithTimeout(d time.Duration) *ChromePDF {
	g.timeout = d
	return g
}

// Render produces the PDF for one job and writes it under the output
// directory. The temp HTML used as the print source is cleaned up on return.
func (g *ChromePDF) Render(ctx context.Context, job *types.Job, content types.TailoredContent, projectIDs []string) (string, error) {
	html, err := renderHTML(g.profile, content, projectIDs)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	htmlFile, err := os.CreateTemp("", "resume-*.html")
	if err != nil {
		return "", fmt.Errorf("failed to create temp HTML: %w", err)
	}
	defer os.Remove(htmlFile.Name())

	if _, err := htmlFile.WriteString(html); err != nil {
		htmlFile.Close()
		return "", fmt.Errorf("failed to write temp HTML: %w", err)
	}
	htmlFile.Close()

	pdf, err := g.printToPDF(ctx, "file://"+htmlFile.Name())
	if err != nil {
		return "", err
	}

	pdfPath := filepath.Join(g.outputDir, pdfFileName(job))
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}
	return pdfPath, nil
}

func (g *ChromePDF) printToPDF(ctx context.Context, url string) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, g.timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("browser rendering failed: %w", err)
	}
	return pdf, nil
}

// pdfFileName builds a stable, filesystem-safe name for a job's resume.
func pdfFileName(job *types.Job) string {
	base := sanitizeFileName(job.Company + "-" + job.Title)
	if base == "" {
		base = "resume"
	}

	id := job.ID.String()
	if len(id) > 8 {
		id = id[:8]
	}
	return base + "-" + id + ".pdf"
}

func sanitizeFileName(name string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}
