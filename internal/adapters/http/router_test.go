package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/LYRARO/lyraro-voice-server/internal/config"
)

func testRouterServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		Mode:         "release",
		PublicHost:   "bridge.example.com",
		OpenAIAPIKey: "test-key",
		Voice:        "alloy",
		GreetingRole: "user",
	}
	srv := httptest.NewServer(SetupRouter(ctx, cfg))
	t.Cleanup(srv.Close)
	return srv
}

func TestLivenessProbe(t *testing.T) {
	srv := testRouterServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Fatalf("unexpected status body %q", body)
	}
}

func TestVoiceEndpointRendersHandoffDocument(t *testing.T) {
	srv := testRouterServer(t)

	resp, err := http.Post(srv.URL+"/voice?systemPrompt=hello&greeting=hi+you", "", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Fatalf("expected text/xml content type, got %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	doc := string(body)
	if !strings.Contains(doc, "wss://bridge.example.com/media-stream") {
		t.Fatalf("document missing media-stream address:\n%s", doc)
	}
	if !strings.Contains(doc, "systemPrompt=hello") || !strings.Contains(doc, "greeting=hi+you") {
		t.Fatalf("parameters not re-encoded into stream url:\n%s", doc)
	}
}
