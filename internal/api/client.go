// Package api uploads exported journal files to a collector service.
package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ethria/headlamp/internal/storage"
)

const (
	// UploadPath is the collector endpoint journals are posted to.
	UploadPath = "/api/v1/journals"
	// HealthPath answers 200 while the collector accepts uploads.
	HealthPath = "/healthcheck"
)

// StatusError is returned when the collector answers with a non 200 status.
type StatusError struct {
	Op   string
	Code int
	Body string // first bytes of the response
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Body)
}

// Client talks to the journal collector.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client. The key is sent as a bearer token.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the collector is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return err
	}
	return c.do(req, "healthcheck")
}

// Upload streams a journal file as multipart form data.
func (c *Client) Upload(ctx context.Context, path string, meta storage.UploadMetadata) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, f, filepath.Base(path), meta))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UploadPath, pr)
	if err != nil {
		_ = pr.Close()
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return c.do(req, "upload "+filepath.Base(path))
}

func writeForm(form *multipart.Writer, src io.Reader, name string, meta storage.UploadMetadata) error {
	fields := []struct{ key, value string }{
		{"filename", name},
		{"session", meta.Session},
		{"server", meta.Server},
		{"duration", strconv.FormatFloat(meta.Duration, 'f', -1, 64)},
		{"tag", meta.Tag},
	}
	for _, fl := range fields {
		if err := form.WriteField(fl.key, fl.value); err != nil {
			return err
		}
	}

	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return form.Close()
}

func (c *Client) do(req *http.Request, op string) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
