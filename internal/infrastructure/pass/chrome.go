package pass

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
)

// A4 paper size in inches for PrintToPDF.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
)

// readySelector is the element the frontend pass page inserts once fonts,
// the photo, and the QR image have all loaded.
const readySelector = "#pass-ready"

// ChromeStrategy captures the styled frontend pass page as a print-quality
// PDF through headless Chrome.
type ChromeStrategy struct {
	frontendBaseURL string
	execPath        string // empty means whatever chromedp discovers
	navTimeout      time.Duration
	readyTimeout    time.Duration
}

// NewChromeStrategy creates the primary rendering strategy.
func NewChromeStrategy(frontendBaseURL, execPath string, navTimeout, readyTimeout time.Duration) *ChromeStrategy {
	return &ChromeStrategy{
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
		execPath:        execPath,
		navTimeout:      navTimeout,
		readyTimeout:    readyTimeout,
	}
}

func (s *ChromeStrategy) Name() string { return "chrome" }

// Render navigates to the pass page for the visitor, waits for the readiness
// marker, and prints the page to PDF with print CSS applied. Every wait is
// bounded so a wedged renderer surfaces as an error, not a hang.
func (s *ChromeStrategy) Render(ctx context.Context, req *visitor.Request) ([]byte, error) {
	if s.frontendBaseURL == "" {
		return nil, fmt.Errorf("no frontend base URL configured")
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.NoSandbox)
	if s.execPath != "" {
		opts = append(opts, chromedp.ExecPath(s.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, s.navTimeout)
	defer cancelRun()

	url := fmt.Sprintf("%s/qrcode/%s", s.frontendBaseURL, req.ID)

	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		s.waitReady(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetEmulatedMedia().WithMedia("print").Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(paperWidthInches).
				WithPaperHeight(paperHeightInches).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome pdf capture failed for %s: %w", url, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("chrome produced an empty pdf for %s", url)
	}
	return pdf, nil
}

// waitReady bounds the readiness wait separately from the overall navigation
// ceiling, mirroring the page-load/selector split of the capture flow.
func (s *ChromeStrategy) waitReady() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, s.readyTimeout)
		defer cancel()
		if err := chromedp.WaitVisible(readySelector, chromedp.ByID).Do(waitCtx); err != nil {
			return fmt.Errorf("pass page never became ready: %w", err)
		}
		return nil
	})
}
