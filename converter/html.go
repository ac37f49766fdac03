package converter

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const DefaultHTMLTimeout = 30 * time.Second

var browserCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"chrome",
}

// FindBrowser returns the first Chrome-compatible executable on PATH.
func FindBrowser() (string, error) {
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no Chrome or Chromium executable found", ErrBackendUnavailable)
}

// HTMLPrinter prints an HTML document to PDF with a headless browser. A
// browser process is started per call.
type HTMLPrinter struct {
	ChromePath string
	Timeout    time.Duration
	Page       PageSize
}

func (h *HTMLPrinter) Print(ctx context.Context, html []byte) ([]byte, error) {
	browser := h.ChromePath
	if browser == "" {
		found, err := FindBrowser()
		if err != nil {
			return nil, err
		}
		browser = found
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultHTMLTimeout
	}
	paper := h.Page
	if paper.Width <= 0 || paper.Height <= 0 {
		paper = DefaultPage
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browser),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	taskCtx, cancel = context.WithTimeout(taskCtx, timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			width, height := paper.Points()
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(width / 72).
				WithPaperHeight(height / 72).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: print html: %v", ErrEncode, err)
	}
	return pdf, nil
}
