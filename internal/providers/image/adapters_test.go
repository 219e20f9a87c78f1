package image

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptpix/internal/domain"
)

type memorySink struct {
	mu    sync.Mutex
	blobs map[string][]byte
	mimes map[string]string
}

func newMemorySink() *memorySink {
	return &memorySink{blobs: map[string][]byte{}, mimes: map[string]string{}}
}

func (m *memorySink) Put(_ context.Context, data []byte, mime string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := "/v1/blobs/test-" + string(rune('a'+len(m.blobs)))
	m.blobs[ref] = data
	m.mimes[ref] = mime
	return ref, nil
}

func testRequest(prompt string) Request {
	return NewRequest(domain.GenerationRequest{
		Prompt: prompt,
		Size:   domain.Size{Width: 512, Height: 512},
		Style:  domain.StyleRealistic,
	})
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) *domain.ClassifiedError {
	t.Helper()
	require.Error(t, err)
	var ce *domain.ClassifiedError
	require.True(t, errors.As(err, &ce), "expected classified error, got %T", err)
	assert.Equal(t, kind, ce.Kind)
	return ce
}

func TestPollinationsBuildsURLAndReturnsIt(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
	}))
	defer srv.Close()

	a := NewPollinationsAdapter(PollinationsOptions{
		Endpoint: srv.URL + "/prompt/",
		Seed:     func() int { return 42 },
	})
	req := testRequest("a red fox")
	records, err := a.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "/prompt/"+req.EnhancedPrompt, gotPath)
	assert.Equal(t, "width=512&height=512&seed=42&enhance=true&model=flux", gotQuery)
	assert.Equal(t, a.ImageURL(req, 42), records[0].URL)
	assert.Equal(t, "Pollinations.ai (Free)", records[0].Source)
	assert.Equal(t, "a red fox", records[0].Prompt)
}

func TestPollinationsClassifiesStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   domain.ErrorKind
	}{
		{http.StatusInternalServerError, domain.KindServerError},
		{http.StatusTooManyRequests, domain.KindServerError},
		{http.StatusUnauthorized, domain.KindServerError},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		a := NewPollinationsAdapter(PollinationsOptions{Endpoint: srv.URL})
		_, err := a.Generate(context.Background(), testRequest("cat"))
		ce := requireKind(t, err, tc.kind)
		assert.Equal(t, tc.status, ce.Status)
		srv.Close()
	}
}

func TestPollinationsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	a := NewPollinationsAdapter(PollinationsOptions{Endpoint: srv.URL, RequestTimeout: 50 * time.Millisecond})
	_, err := a.Generate(context.Background(), testRequest("cat"))
	requireKind(t, err, domain.KindTimeout)
}

func TestPollinationsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	a := NewPollinationsAdapter(PollinationsOptions{Endpoint: endpoint})
	_, err := a.Generate(context.Background(), testRequest("cat"))
	requireKind(t, err, domain.KindNetwork)
}

func TestHuggingFaceSkipsWithoutToken(t *testing.T) {
	for _, token := range []string{"", HuggingFacePlaceholder} {
		a := NewHuggingFaceAdapter(HuggingFaceOptions{Token: token, Blobs: newMemorySink()})
		assert.False(t, a.HasCredentials())
		_, err := a.Generate(context.Background(), testRequest("cat"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnconfigured)
	}
}

func TestHuggingFaceStoresImageBytes(t *testing.T) {
	var payload inferenceRequest
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	}))
	defer srv.Close()

	sink := newMemorySink()
	a := NewHuggingFaceAdapter(HuggingFaceOptions{
		Token:    "hf_test",
		Endpoint: srv.URL,
		Blobs:    sink,
		Pick:     func(int) int { return 2 },
	})
	req := testRequest("castle")
	records, err := a.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Bearer hf_test", gotAuth)
	assert.Equal(t, "/prompthero/openjourney-v4", gotPath)
	assert.Equal(t, req.EnhancedPrompt, payload.Inputs)
	assert.Equal(t, "blurry, low quality, bad anatomy", payload.Parameters.NegativePrompt)
	assert.Equal(t, 20, payload.Parameters.NumInferenceSteps)
	assert.InDelta(t, 7.5, payload.Parameters.GuidanceScale, 1e-9)

	assert.Equal(t, "Hugging Face (openjourney-v4)", records[0].Source)
	assert.Contains(t, sink.blobs, records[0].URL)
	assert.Equal(t, "image/png", sink.mimes[records[0].URL])
}

func TestHuggingFaceModelLoading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"loading"}`)
	}))
	defer srv.Close()

	a := NewHuggingFaceAdapter(HuggingFaceOptions{Token: "hf", Endpoint: srv.URL, Blobs: newMemorySink()})
	_, err := a.Generate(context.Background(), testRequest("cat"))
	ce := requireKind(t, err, domain.KindUnknown)
	assert.ErrorIs(t, err, domain.ErrModelLoading)
	assert.Equal(t, "Model is loading, please try again in a few minutes", ce.Message)
}

func TestHuggingFaceRejectsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"error":"nope"}`)
	}))
	defer srv.Close()

	a := NewHuggingFaceAdapter(HuggingFaceOptions{Token: "hf", Endpoint: srv.URL, Blobs: newMemorySink()})
	_, err := a.Generate(context.Background(), testRequest("cat"))
	requireKind(t, err, domain.KindServerError)
}

func TestDeepAIPostsFormAndReadsOutputURL(t *testing.T) {
	var gotKey, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		gotText = r.FormValue("text")
		_, _ = io.WriteString(w, `{"id":"abc","output_url":"https://deepai.example/out.jpg"}`)
	}))
	defer srv.Close()

	a := NewDeepAIAdapter(DeepAIOptions{APIKey: "k-1", Endpoint: srv.URL})
	req := testRequest("lighthouse")
	records, err := a.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "k-1", gotKey)
	assert.Equal(t, req.EnhancedPrompt, gotText)
	assert.Equal(t, "https://deepai.example/out.jpg", records[0].URL)
	assert.Equal(t, "DeepAI (Free - with watermark)", records[0].Source)
}

func TestDeepAIErrors(t *testing.T) {
	a := NewDeepAIAdapter(DeepAIOptions{APIKey: DeepAIPlaceholder})
	_, err := a.Generate(context.Background(), testRequest("cat"))
	assert.ErrorIs(t, err, domain.ErrUnconfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	a = NewDeepAIAdapter(DeepAIOptions{APIKey: "k", Endpoint: srv.URL})
	_, err = a.Generate(context.Background(), testRequest("cat"))
	ce := requireKind(t, err, domain.KindServerError)
	assert.Equal(t, "DeepAI error: 403", ce.Message)
}

func TestDeepAIStatusIsAlwaysServerError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		a := NewDeepAIAdapter(DeepAIOptions{APIKey: "k", Endpoint: srv.URL})
		_, err := a.Generate(context.Background(), testRequest("cat"))
		ce := requireKind(t, err, domain.KindServerError)
		assert.Equal(t, status, ce.Status)
		srv.Close()
	}
}

func TestReplicatePollsUntilSucceeded(t *testing.T) {
	var polls atomic.Int32
	var created predictionRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/predictions":
			_ = json.NewDecoder(r.Body).Decode(&created)
			_, _ = io.WriteString(w, `{"id":"p1","status":"starting"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/predictions/p1":
			if polls.Add(1) < 3 {
				_, _ = io.WriteString(w, `{"id":"p1","status":"processing"}`)
				return
			}
			_, _ = io.WriteString(w, `{"id":"p1","status":"succeeded","output":["https://replicate.example/1.png"]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := NewReplicateAdapter(ReplicateOptions{Token: "r8", Endpoint: srv.URL, PollInterval: time.Millisecond})
	req := testRequest("robot")
	records, err := a.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Token r8", gotAuth)
	assert.Equal(t, int32(3), polls.Load())
	assert.Equal(t, DefaultReplicateVersion, created.Version)
	assert.Equal(t, req.EnhancedPrompt, created.Input.Prompt)
	assert.Equal(t, "blurry, bad quality", created.Input.NegativePrompt)
	assert.Equal(t, 512, created.Input.Width)
	assert.Equal(t, "https://replicate.example/1.png", records[0].URL)
	assert.Equal(t, "Replicate (Free credits)", records[0].Source)
}

func TestReplicateStringOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"p2","status":"succeeded","output":"https://replicate.example/2.png"}`)
	}))
	defer srv.Close()

	a := NewReplicateAdapter(ReplicateOptions{Token: "r8", Endpoint: srv.URL})
	records, err := a.Generate(context.Background(), testRequest("robot"))
	require.NoError(t, err)
	assert.Equal(t, "https://replicate.example/2.png", records[0].URL)
}

func TestReplicateFailedPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = io.WriteString(w, `{"id":"p3","status":"processing"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"p3","status":"failed","error":"nsfw"}`)
	}))
	defer srv.Close()

	a := NewReplicateAdapter(ReplicateOptions{Token: "r8", Endpoint: srv.URL, PollInterval: time.Millisecond})
	_, err := a.Generate(context.Background(), testRequest("robot"))
	ce := requireKind(t, err, domain.KindUnknown)
	assert.Equal(t, "Generation failed", ce.Message)
	assert.ErrorIs(t, err, ErrPredictionFailed)
}

func TestReplicatePollBudgetIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"p4","status":"processing"}`)
	}))
	defer srv.Close()

	a := NewReplicateAdapter(ReplicateOptions{Token: "r8", Endpoint: srv.URL, PollInterval: time.Millisecond, MaxPolls: 4})
	_, err := a.Generate(context.Background(), testRequest("robot"))
	requireKind(t, err, domain.KindTimeout)
}

func TestReplicateSkipsPlaceholderToken(t *testing.T) {
	a := NewReplicateAdapter(ReplicateOptions{Token: ReplicatePlaceholder})
	_, err := a.Generate(context.Background(), testRequest("robot"))
	assert.ErrorIs(t, err, domain.ErrUnconfigured)
}

func TestLocalAdapterReturnsDataURL(t *testing.T) {
	a := NewLocalAdapter(nil, nil)
	req := NewRequest(domain.GenerationRequest{Prompt: "A circle sun", Size: domain.Size{Width: 128, Height: 96}})
	records, err := a.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, strings.HasPrefix(records[0].URL, "data:image/png;base64,"))
	assert.Equal(t, "Student Demo Mode", records[0].Source)
	assert.Equal(t, domain.Size{Width: 128, Height: 96}, records[0].Size)
}
