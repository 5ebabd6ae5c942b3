package fal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"reelcraft/internal/pipeline"
)

// queueServer fakes fal.ai's queue API: one submit, a scripted number of
// pending polls, then the result payload.
func queueServer(t *testing.T, pendingPolls int, result map[string]any) *httptest.Server {
	t.Helper()
	var polls int32
	mux := http.NewServeMux()
	var ts *httptest.Server

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Key test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}
		switch {
		case r.Method == http.MethodPost:
			_ = json.NewEncoder(w).Encode(queueSubmitResp{
				RequestID:   "req-1",
				StatusURL:   ts.URL + "/status/req-1",
				ResponseURL: ts.URL + "/result/req-1",
			})
		case r.URL.Path == "/status/req-1":
			status := "COMPLETED"
			if atomic.AddInt32(&polls, 1) <= int32(pendingPolls) {
				status = "IN_PROGRESS"
			}
			_ = json.NewEncoder(w).Encode(queueStatusResp{Status: status})
		case r.URL.Path == "/result/req-1":
			_ = json.NewEncoder(w).Encode(result)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ts = httptest.NewServer(mux)
	return ts
}

func testClient(ts *httptest.Server) *Client {
	return NewClient(Options{
		BaseURL:      ts.URL,
		APIKey:       "test-key",
		PollInterval: time.Millisecond,
	})
}

func TestClientRunPollsUntilComplete(t *testing.T) {
	ts := queueServer(t, 2, map[string]any{"results": "a caption"})
	defer ts.Close()

	out, err := testClient(ts).Run(context.Background(), "fal-ai/florence-2-large/detailed-caption", map[string]any{"image_url": "in"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out["results"] != "a caption" {
		t.Fatalf("unexpected result: %v", out)
	}
}

func TestClientMissingKey(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.Run(context.Background(), "fal-ai/birefnet/v2", nil); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestClientFailedRequest(t *testing.T) {
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(queueSubmitResp{
				RequestID:   "req-1",
				StatusURL:   ts.URL + "/status/req-1",
				ResponseURL: ts.URL + "/result/req-1",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(queueStatusResp{Status: "FAILED", Error: "content policy"})
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	_, err := testClient(ts).Run(context.Background(), "fal-ai/kling-video/v1.6/pro/image-to-video", map[string]any{})
	if err == nil {
		t.Fatal("expected error for failed queue request")
	}
}

func TestFlorenceCaptionerPassesImageThrough(t *testing.T) {
	ts := queueServer(t, 0, map[string]any{"results": "a green ceramic mug"})
	defer ts.Close()

	inv := NewFlorenceCaptioner(testClient(ts))
	out, err := inv.Invoke(context.Background(), pipeline.Invocation{
		JobID:    "job-1",
		InputURL: "https://cdn.test/uploads/u1/photo.jpg",
	})
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if out.OutputURL != "https://cdn.test/uploads/u1/photo.jpg" {
		t.Fatalf("analyzer must pass the image through, got %q", out.OutputURL)
	}
	if out.Metadata["product_description"] != "a green ceramic mug" {
		t.Fatalf("caption not carried in metadata: %v", out.Metadata)
	}
}

func TestBirefnetExtractorReadsImageURL(t *testing.T) {
	ts := queueServer(t, 0, map[string]any{
		"image": map[string]any{"url": "https://tmp.fal.test/cutout.png"},
	})
	defer ts.Close()

	inv := NewBirefnetExtractor(testClient(ts))
	out, err := inv.Invoke(context.Background(), pipeline.Invocation{JobID: "job-1", InputURL: "in"})
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if out.OutputURL != "https://tmp.fal.test/cutout.png" {
		t.Fatalf("unexpected output url: %q", out.OutputURL)
	}
}

func TestKlingVideoRequiresPrompt(t *testing.T) {
	inv := NewKlingVideoGenerator(NewClient(Options{APIKey: "test-key"}))
	if _, err := inv.Invoke(context.Background(), pipeline.Invocation{JobID: "job-1", InputURL: "in"}); err == nil {
		t.Fatal("expected error without a prompt")
	}
}

func TestKlingVideoReadsVideoURL(t *testing.T) {
	ts := queueServer(t, 1, map[string]any{
		"video": map[string]any{"url": "https://tmp.fal.test/clip.mp4"},
	})
	defer ts.Close()

	inv := NewKlingVideoGenerator(testClient(ts))
	out, err := inv.Invoke(context.Background(), pipeline.Invocation{
		JobID:          "job-1",
		InputURL:       "in",
		Prompt:         "slow orbit around the product",
		NegativePrompt: "blur, warped",
	})
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if out.OutputURL != "https://tmp.fal.test/clip.mp4" {
		t.Fatalf("unexpected output url: %q", out.OutputURL)
	}
}

func TestWanVideoReadsVideoURL(t *testing.T) {
	ts := queueServer(t, 1, map[string]any{
		"video": map[string]any{"url": "https://tmp.fal.test/wan.mp4"},
	})
	defer ts.Close()

	inv := NewWanVideoGenerator(testClient(ts))
	out, err := inv.Invoke(context.Background(), pipeline.Invocation{
		JobID:    "job-1",
		InputURL: "in",
		Prompt:   "slow dolly toward the product",
	})
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if out.OutputURL != "https://tmp.fal.test/wan.mp4" {
		t.Fatalf("unexpected output url: %q", out.OutputURL)
	}
}

func TestWanVideoAppliesTunablesAndDefaultPrompt(t *testing.T) {
	var submitted map[string]any
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&submitted)
			_ = json.NewEncoder(w).Encode(queueSubmitResp{
				RequestID:   "req-1",
				StatusURL:   ts.URL + "/status/req-1",
				ResponseURL: ts.URL + "/result/req-1",
			})
		case r.URL.Path == "/status/req-1":
			_ = json.NewEncoder(w).Encode(queueStatusResp{Status: "COMPLETED"})
		case r.URL.Path == "/result/req-1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"video": map[string]any{"url": "https://tmp.fal.test/wan.mp4"},
			})
		}
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	inv := NewWanVideoGenerator(testClient(ts))
	_, err := inv.Invoke(context.Background(), pipeline.Invocation{
		JobID:    "job-1",
		InputURL: "in",
		Config: map[string]any{
			"num_frames": float64(49),
			"resolution": "480p",
		},
	})
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if submitted["num_frames"] != float64(49) {
		t.Fatalf("num_frames = %v, want 49", submitted["num_frames"])
	}
	if submitted["resolution"] != "480p" {
		t.Fatalf("resolution = %v, want 480p", submitted["resolution"])
	}
	if submitted["frames_per_second"] != float64(16) {
		t.Fatalf("frames_per_second = %v, want default 16", submitted["frames_per_second"])
	}
	if submitted["prompt"] != "Subtle camera movement, cinematic lighting" {
		t.Fatalf("empty prompt should fall back, got %v", submitted["prompt"])
	}
}
