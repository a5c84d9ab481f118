// Package specfetch downloads the published API document and persists it as
// the JSON file the tool generator reads at startup.
package specfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
)

// RawFileName is the name of the unprocessed download kept next to the document.
const RawFileName = "swagger-spec.js"

const maxDownload = 20 << 20

// Result describes what a Fetch did.
type Result struct {
	DocumentPath string
	RawPath      string
	Bytes        int
	// Fallback is set when the download failed and an existing document was kept.
	Fallback bool
	Cause    error
}

// Fetcher downloads and persists API documents.
type Fetcher struct {
	httpClient *http.Client
	logger     *common.Logger
}

// NewFetcher creates a Fetcher. A nil httpClient gets a client with a 60s timeout.
func NewFetcher(httpClient *http.Client, logger *common.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{httpClient: httpClient, logger: logger}
}

// Fetch downloads sourceURL, keeps the raw body beside docPath and writes the
// extracted document to docPath. When any step fails and docPath already
// exists, the existing document is kept and the returned Result has Fallback
// set; with no existing document the error is returned.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL, docPath string) (*Result, error) {
	result := &Result{
		DocumentPath: docPath,
		RawPath:      filepath.Join(filepath.Dir(docPath), RawFileName),
	}

	f.logger.Info().Str("url", sourceURL).Msg("Fetching API specification")

	err := f.fetch(ctx, sourceURL, result)
	if err == nil {
		f.logger.Info().
			Str("path", docPath).
			Int("bytes", result.Bytes).
			Msg("API specification updated")
		return result, nil
	}

	if _, statErr := os.Stat(docPath); statErr == nil {
		f.logger.Warn().
			Err(err).
			Str("path", docPath).
			Msg("Fetch failed, using existing document")
		result.Fallback = true
		result.Cause = err
		return result, nil
	}

	return nil, fmt.Errorf("failed to fetch %s and no existing document at %s: %w", sourceURL, docPath, err)
}

func (f *Fetcher) fetch(ctx context.Context, sourceURL string, result *Result) error {
	body, err := f.download(ctx, sourceURL)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(result.RawPath, body); err != nil {
		return err
	}
	f.logger.Debug().Str("path", result.RawPath).Int("bytes", len(body)).Msg("Raw download saved")

	doc, err := Extract(body)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(result.DocumentPath, doc); err != nil {
		return err
	}
	result.Bytes = len(doc)
	return nil
}

func (f *Fetcher) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "PurelyMail MCP Server/"+common.GetVersion())

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download failed: HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload))
	if err != nil {
		return nil, fmt.Errorf("failed to read download: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("download failed: empty body")
	}
	return body, nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
