// Package fetcher downloads the KPI dataset from the ONC dashboard with a
// headless Chrome session.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

// Downloader clicks the dataset link on a dashboard page and saves the file
// the browser receives.
type Downloader struct {
	pageURL  string
	fileName string
	visible  bool
	timeout  time.Duration
}

// New creates a downloader for the link to fileName on pageURL.
func New(pageURL, fileName string, visible bool, timeout time.Duration) *Downloader {
	return &Downloader{
		pageURL:  pageURL,
		fileName: fileName,
		visible:  visible,
		timeout:  timeout,
	}
}

// Download saves the dataset to destPath and returns its size in bytes.
// destPath is only replaced once the download has completed.
func (d *Downloader) Download(ctx context.Context, destPath string) (int64, error) {
	downloadDir, err := os.MkdirTemp("", "ehrkpi-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(downloadDir)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !d.visible),
		chromedp.Flag("no-sandbox", true),            // Required for running as root on Linux
		chromedp.Flag("disable-gpu", true),           // Recommended for headless Linux
		chromedp.Flag("disable-dev-shm-usage", true), // Avoid /dev/shm issues on Linux
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, d.timeout)
	defer cancel()

	// With AllowAndName the browser stores the file under its download GUID.
	done := make(chan string, 1)
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *browser.EventDownloadWillBegin:
			slog.Debug("download started", "url", ev.URL, "suggested_name", ev.SuggestedFilename)
		case *browser.EventDownloadProgress:
			switch ev.State {
			case browser.DownloadProgressStateCompleted:
				select {
				case done <- ev.GUID:
				default:
				}
			case browser.DownloadProgressStateCanceled:
				select {
				case done <- "":
				default:
				}
			}
		}
	})

	selector := linkSelector(d.fileName)
	slog.Info("opening dataset page", "url", d.pageURL)

	if err := chromedp.Run(browserCtx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(downloadDir).
			WithEventsEnabled(true),
		chromedp.Navigate(d.pageURL),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	); err != nil {
		return 0, fmt.Errorf("clicking dataset link %s: %w", selector, err)
	}

	var guid string
	select {
	case guid = <-done:
	case <-browserCtx.Done():
		return 0, fmt.Errorf("waiting for download: %w", browserCtx.Err())
	}
	if guid == "" {
		return 0, fmt.Errorf("download of %s was canceled by the browser", d.fileName)
	}

	return copyFile(filepath.Join(downloadDir, guid), destPath)
}

// linkSelector matches an anchor whose href ends in fileName.
func linkSelector(fileName string) string {
	return fmt.Sprintf(`a[href$=%q]`, fileName)
}

// copyFile writes src to dst through a temporary sibling so a failed copy
// never leaves a truncated dataset behind.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening download: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("creating dataset directory: %w", err)
	}

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", tmp, err)
	}

	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("writing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("moving download into place: %w", err)
	}

	return n, nil
}
