package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const userAgent = "mokomoko-cli/1.0"

// TokenSource supplies the current bearer token and can force a refresh. In
// the application it is the auth session listener.
type TokenSource interface {
	// Token returns the current token and whether one is present.
	Token() (string, bool)

	// ForceRefresh obtains a fresh token from the identity provider.
	ForceRefresh(ctx context.Context) (string, error)
}

// Client issues authenticated requests against the MokoMoko API.
//
// When a token is present it is attached as a bearer header; public endpoints
// work without one. A 401 on a request that carried a token triggers exactly
// one forced refresh and one re-issue of the identical request. A failed
// refresh surfaces the original 401; a failed retry surfaces the retry's
// error. Non-401 failures are never retried here.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Request sends a JSON request and returns the raw response body. A nil body
// sends no payload. path may carry a query string.
func (c *Client) Request(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	return c.send(ctx, method, path, func() (io.Reader, string) {
		if payload == nil {
			return nil, ""
		}
		return bytes.NewReader(payload), "application/json"
	})
}

// Get is shorthand for a GET Request.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.Request(ctx, http.MethodGet, path, nil)
}

// FilePart is one file field of a multipart upload, held in memory so the
// request can be replayed on the 401 retry path.
type FilePart struct {
	FieldName string
	FileName  string
	Content   []byte
}

// PostMultipart uploads form fields and files with the same auth and retry
// semantics as Request.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, files []FilePart) ([]byte, error) {
	build := func() (io.Reader, string) {
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for name, value := range fields {
			w.WriteField(name, value)
		}
		for _, f := range files {
			part, err := w.CreateFormFile(f.FieldName, f.FileName)
			if err != nil {
				continue
			}
			part.Write(f.Content)
		}
		w.Close()
		return buf, w.FormDataContentType()
	}

	return c.send(ctx, http.MethodPost, path, build)
}

// send runs the request once, and at most once more after a forced token
// refresh when the first attempt carried a token and came back 401.
func (c *Client) send(ctx context.Context, method, path string, buildBody func() (io.Reader, string)) ([]byte, error) {
	// One correlation id for the logical request, shared with the retry.
	requestID := uuid.NewString()

	token, hadToken := c.tokens.Token()

	body, reqErr := c.attempt(ctx, method, path, token, requestID, buildBody)
	if reqErr == nil {
		return body, nil
	}

	if reqErr.Status != http.StatusUnauthorized || !hadToken {
		return nil, reqErr
	}

	freshToken, err := c.tokens.ForceRefresh(ctx)
	if err != nil {
		// The refresh failure would only mask the real problem; the
		// original 401 is what the caller needs to see.
		return nil, reqErr
	}

	body, retryErr := c.attempt(ctx, method, path, freshToken, requestID, buildBody)
	if retryErr != nil {
		return nil, retryErr
	}
	return body, nil
}

func (c *Client) attempt(ctx context.Context, method, path, token, requestID string, buildBody func() (io.Reader, string)) ([]byte, *RequestError) {
	fullURL, err := joinURL(c.baseURL, path)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Method: method, Path: path, cause: err}
	}

	reqBody, contentType := buildBody()
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Method: method, Path: path, cause: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(method, path, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &RequestError{
			Kind:   KindHTTP,
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   body,
		}
	}
	return body, nil
}

func joinURL(base, p string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	ref, err := url.Parse(p)
	if err != nil {
		return "", err
	}

	u.Path = joinPath(u.Path, ref.Path)
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

func joinPath(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if a[len(a)-1] == '/' {
		a = a[:len(a)-1]
	}
	if b[0] != '/' {
		b = "/" + b
	}
	return a + b
}
