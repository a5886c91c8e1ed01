package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client is a thin HTTP client over the ordersense API.
type Client struct {
	// Addr points at the root flag value so the resolved address is seen
	// after flag and env precedence is applied.
	Addr *string

	httpClient *http.Client
}

func (c *Client) client() *http.Client {
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return c.httpClient
}

func (c *Client) url(path string) string {
	return strings.TrimRight(*c.Addr, "/") + path
}

// apiError mirrors the server's error object.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func decodeError(resp *http.Response) error {
	var e apiError
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return fmt.Errorf("%s (status %d)", e.Message, resp.StatusCode)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}

// PostJSON posts a JSON body and decodes the JSON response into out.
func (c *Client) PostJSON(path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.client().Post(c.url(path), "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetJSON fetches a JSON response into out.
func (c *Client) GetJSON(path string, out interface{}) error {
	resp, err := c.client().Get(c.url(path))
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Delete issues a DELETE and decodes the JSON response into out.
func (c *Client) Delete(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodDelete, c.url(path), nil)
	if err != nil {
		return err
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// UploadFiles posts files as a multipart form to the upload endpoint.
func (c *Client) UploadFiles(path string, source string, paths []string, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, p := range paths {
		f, err := os.Open(p) //nolint:gosec // user-supplied upload path
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		part, err := mw.CreateFormFile("files", filepath.Base(p))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("add %s to upload: %w", p, err)
		}
	}
	if source != "" {
		if err := mw.WriteField("dataSource", source); err != nil {
			return fmt.Errorf("write dataSource field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finish multipart form: %w", err)
	}

	resp, err := c.client().Post(c.url(path), mw.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Download fetches a binary response body.
func (c *Client) Download(path string) ([]byte, error) {
	resp, err := c.client().Get(c.url(path))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}
