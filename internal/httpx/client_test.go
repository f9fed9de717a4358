package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTokens is a controllable TokenSource.
type stubTokens struct {
	mu           sync.Mutex
	token        string
	refreshed    string
	refreshErr   error
	refreshCalls int
}

func (s *stubTokens) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *stubTokens) ForceRefresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++
	if s.refreshErr != nil {
		return "", s.refreshErr
	}
	s.token = s.refreshed
	return s.refreshed, nil
}

func newTestClient(serverURL string, tokens TokenSource) *Client {
	return NewClient(serverURL, 5*time.Second, tokens)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, &stubTokens{token: "tok-1"})
	body, err := client.Get(context.Background(), "/posts")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestClient_OmitsHeaderWithoutToken(t *testing.T) {
	var hasAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, &stubTokens{})
	_, err := client.Get(context.Background(), "/posts")
	require.NoError(t, err)
	assert.False(t, hasAuth, "public requests must not carry an Authorization header")
}

func TestClient_RetriesOnceAfter401(t *testing.T) {
	var calls int
	var tokens []string
	var requestIDs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		tokens = append(tokens, r.Header.Get("Authorization"))
		requestIDs = append(requestIDs, r.Header.Get("X-Request-Id"))
		if calls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	source := &stubTokens{token: "stale", refreshed: "fresh"}
	client := newTestClient(server.URL, source)

	body, err := client.Get(context.Background(), "/posts/my")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, source.refreshCalls)
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, tokens)

	// The retry is the same logical request.
	require.Len(t, requestIDs, 2)
	assert.Equal(t, requestIDs[0], requestIDs[1])
	assert.NotEmpty(t, requestIDs[0])
}

func TestClient_AtMostOneRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer server.Close()

	source := &stubTokens{token: "stale", refreshed: "fresh"}
	client := newTestClient(server.URL, source)

	_, err := client.Get(context.Background(), "/posts/my")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnauthorized, reqErr.Status)
	assert.Equal(t, 2, calls, "a second 401 must not loop")
	assert.Equal(t, 1, source.refreshCalls)
}

func TestClient_NoRetryWithoutToken(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source := &stubTokens{}
	client := newTestClient(server.URL, source)

	_, err := client.Get(context.Background(), "/posts/my")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 1, calls, "refreshing without a token would not change the outcome")
	assert.Equal(t, 0, source.refreshCalls)
}

func TestClient_RefreshFailureSurfacesOriginalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"expired"}`))
	}))
	defer server.Close()

	source := &stubTokens{token: "stale", refreshErr: errors.New("refresh broke")}
	client := newTestClient(server.URL, source)

	_, err := client.Get(context.Background(), "/posts/my")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnauthorized, reqErr.Status)
	assert.Contains(t, string(reqErr.Body), "expired")
	assert.NotContains(t, err.Error(), "refresh broke")
}

func TestClient_NoRetryOnOtherStatuses(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	source := &stubTokens{token: "tok"}
	client := newTestClient(server.URL, source)

	_, err := client.Get(context.Background(), "/posts")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, KindHTTP, reqErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, reqErr.Status)
	assert.Contains(t, string(reqErr.Body), "boom")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, source.refreshCalls)
}

func TestClient_TransportClassification(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		client := newTestClient(url, &stubTokens{})
		_, err := client.Get(context.Background(), "/posts")

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, KindConnectionRefused, reqErr.Kind)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := NewClient(server.URL, 20*time.Millisecond, &stubTokens{})
		_, err := client.Get(context.Background(), "/posts")

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, KindTimeout, reqErr.Kind)
	})
}

func TestClient_PostMultipart(t *testing.T) {
	var calls int
	var gotField, gotFile string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotField = r.FormValue("title")
		file, _, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		content, err := io.ReadAll(file)
		require.NoError(t, err)
		gotFile = string(content)
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	source := &stubTokens{token: "stale", refreshed: "fresh"}
	client := newTestClient(server.URL, source)

	body, err := client.PostMultipart(context.Background(), "/profiles/upload_image",
		map[string]string{"title": "blanket"},
		[]FilePart{{FieldName: "image", FileName: "blanket.jpg", Content: []byte("jpeg-bytes")}},
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(body))

	// The multipart body must be rebuilt for the 401 retry.
	assert.Equal(t, 2, calls)
	assert.Equal(t, "blanket", gotField)
	assert.Equal(t, "jpeg-bytes", gotFile)
}

func TestClient_QueryStringPreserved(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, &stubTokens{})
	_, err := client.Get(context.Background(), "/posts?season=winter&page=2")
	require.NoError(t, err)
	assert.Equal(t, "season=winter&page=2", gotQuery)
}
