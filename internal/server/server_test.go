package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"slidealign/internal/embedding/tfidf"
	"slidealign/internal/metrics"
	"slidealign/internal/service"
	"slidealign/internal/store"
	"slidealign/internal/transcript"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	deckText       = "gradient descent learning rate\n---\nconvolution kernel stride padding\n---\nrecurrent hidden state sequence\n"
	transcriptText = "we start with gradient descent\nthe learning rate matters\na convolution uses a kernel\nstride and padding too\nrecurrent networks keep hidden state\n"
)

func newTestServer(t *testing.T, withStore bool) (*Server, *store.Store) {
	t.Helper()
	var st *store.Store
	opts := service.Options{}
	if withStore {
		var err error
		st, err = store.Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		opts.Store = st
	}
	svc := service.NewAlignService(tfidf.NewEmbedder(), transcript.NewCleaner(transcript.Options{MinLength: 5}),
		service.Params{WindowSize: 2, Threshold: 0.1}, opts)

	var runs RunReader
	if st != nil {
		runs = st
	}
	return New(Config{Version: "test", MaxUploadBytes: 1 << 20}, svc, runs, metrics.New(), nil), st
}

func uploadRequest(t *testing.T, query string, files map[string][2]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, f := range files {
		part, err := w.CreateFormFile(field, f[0])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(part, f[1]); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/process-lecture"+query, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "online" || body.Version != "test" {
		t.Fatalf("unexpected body %+v", body)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("missing request id header")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	s, _ := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	if got := serve(s, req).Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestProcessLecture(t *testing.T) {
	s, st := newTestServer(t, true)
	req := uploadRequest(t, "?window_size=3&similarity_threshold=0.05", map[string][2]string{
		"pdf_file":        {"deck.txt", deckText},
		"transcript_file": {"lecture.txt", transcriptText},
	})
	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			RunID     string `json:"run_id"`
			SlideData map[string]struct {
				SlideNumber int      `json:"slide_number"`
				Content     string   `json:"content"`
				Transcripts []string `json:"transcripts"`
			} `json:"slide_data"`
			Unmatched  []string `json:"unmatched_transcripts"`
			Parameters struct {
				WindowSize int     `json:"window_size"`
				Threshold  float64 `json:"similarity_threshold"`
			} `json:"parameters"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || !strings.HasPrefix(body.Message, "Lecture processed successfully") {
		t.Fatalf("unexpected envelope %+v", body)
	}
	if len(body.Data.SlideData) != 3 || body.Data.SlideData["2"].SlideNumber != 2 {
		t.Fatalf("unexpected slide data %+v", body.Data.SlideData)
	}
	if body.Data.Parameters.WindowSize != 3 || body.Data.Parameters.Threshold != 0.05 {
		t.Fatalf("parameters not echoed: %+v", body.Data.Parameters)
	}
	if !strings.Contains(rec.Body.String(), `"slide_data":{"1":`) {
		t.Fatalf("slide data not in deck order: %s", rec.Body.String())
	}

	if _, err := st.Get(context.Background(), body.Data.RunID); err != nil {
		t.Fatalf("run not stored: %v", err)
	}
	runRec := serve(s, httptest.NewRequest(http.MethodGet, "/runs/"+body.Data.RunID, nil))
	if runRec.Code != http.StatusOK {
		t.Fatalf("GET run status %d", runRec.Code)
	}
	listRec := serve(s, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if listRec.Code != http.StatusOK || !strings.Contains(listRec.Body.String(), body.Data.RunID) {
		t.Fatalf("run missing from list: %d %s", listRec.Code, listRec.Body.String())
	}
}

func TestProcessLectureBadRequests(t *testing.T) {
	s, _ := newTestServer(t, false)
	cases := map[string]*http.Request{
		"missing transcript": uploadRequest(t, "", map[string][2]string{
			"pdf_file": {"deck.txt", deckText},
		}),
		"wrong slides extension": uploadRequest(t, "", map[string][2]string{
			"pdf_file":        {"deck.pptx", deckText},
			"transcript_file": {"lecture.txt", transcriptText},
		}),
		"wrong transcript extension": uploadRequest(t, "", map[string][2]string{
			"pdf_file":        {"deck.txt", deckText},
			"transcript_file": {"lecture.docx", transcriptText},
		}),
		"bad window": uploadRequest(t, "?window_size=0", map[string][2]string{
			"pdf_file":        {"deck.txt", deckText},
			"transcript_file": {"lecture.txt", transcriptText},
		}),
		"bad threshold": uploadRequest(t, "?similarity_threshold=high", map[string][2]string{
			"pdf_file":        {"deck.txt", deckText},
			"transcript_file": {"lecture.txt", transcriptText},
		}),
		"infinite threshold": uploadRequest(t, "?similarity_threshold=-Inf", map[string][2]string{
			"pdf_file":        {"deck.txt", deckText},
			"transcript_file": {"lecture.txt", transcriptText},
		}),
		"positive infinite threshold": uploadRequest(t, "?similarity_threshold=inf", map[string][2]string{
			"pdf_file":        {"deck.txt", deckText},
			"transcript_file": {"lecture.txt", transcriptText},
		}),
		"NaN threshold": uploadRequest(t, "?similarity_threshold=NaN", map[string][2]string{
			"pdf_file":        {"deck.txt", deckText},
			"transcript_file": {"lecture.txt", transcriptText},
		}),
		"stopwords only": uploadRequest(t, "", map[string][2]string{
			"pdf_file":        {"deck.txt", "the and of\n---\nto is it\n"},
			"transcript_file": {"lecture.txt", "and then it was\nso it is that\n"},
		}),
		"empty transcript": uploadRequest(t, "", map[string][2]string{
			"pdf_file":        {"deck.txt", deckText},
			"transcript_file": {"lecture.txt", "ok\nhm\n"},
		}),
		"broken pdf": uploadRequest(t, "", map[string][2]string{
			"pdf_file":        {"deck.pdf", "garbage"},
			"transcript_file": {"lecture.txt", transcriptText},
		}),
	}
	for name, req := range cases {
		rec := serve(s, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, body %s", name, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"success":false`) {
			t.Fatalf("%s: unexpected body %s", name, rec.Body.String())
		}
	}
}

func TestRunsDisabled(t *testing.T) {
	s, _ := newTestServer(t, false)
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/runs", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestUnknownRun(t *testing.T) {
	s, _ := newTestServer(t, true)
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/runs/nope", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, false)
	serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "slidealign_http_requests_total") {
		t.Fatalf("metrics not exposed: %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/process-lecture", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := serve(s, req)
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("missing CORS headers: %v", rec.Header())
	}
}

func TestProcessLectureExtensionMessages(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := serve(s, uploadRequest(t, "", map[string][2]string{
		"pdf_file":        {"deck.pptx", deckText},
		"transcript_file": {"lecture.txt", transcriptText},
	}))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), ".pdf, .txt or .md") {
		t.Fatalf("slides: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = serve(s, uploadRequest(t, "", map[string][2]string{
		"pdf_file":        {"deck.txt", deckText},
		"transcript_file": {"lecture.docx", transcriptText},
	}))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), ".txt or .srt") {
		t.Fatalf("transcript: status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestProcessLectureInfiniteThresholdIsNotStored(t *testing.T) {
	s, st := newTestServer(t, true)
	rec := serve(s, uploadRequest(t, "?similarity_threshold=-Inf", map[string][2]string{
		"pdf_file":        {"deck.txt", deckText},
		"transcript_file": {"lecture.txt", transcriptText},
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	runs, err := st.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("rejected request was stored: %+v", runs)
	}
}

type slowEmbedder struct{ delay time.Duration }

func (slowEmbedder) Name() string   { return "slow" }
func (slowEmbedder) Dimension() int { return 2 }

func (e slowEmbedder) Embed(string) ([]float64, error) {
	time.Sleep(e.delay)
	return []float64{1, 0}, nil
}

func TestProcessLectureTimeout(t *testing.T) {
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	svc := service.NewAlignService(slowEmbedder{delay: 20 * time.Millisecond}, transcript.NewCleaner(transcript.Options{MinLength: 5}),
		service.Params{WindowSize: 1, Threshold: 0.1}, service.Options{Store: st})
	s := New(Config{RequestTimeout: 40 * time.Millisecond}, svc, st, nil, nil)

	rec := serve(s, uploadRequest(t, "", map[string][2]string{
		"pdf_file":        {"deck.txt", deckText},
		"transcript_file": {"lecture.txt", transcriptText},
	}))
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	runs, err := st.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("timed out run was stored: %+v", runs)
	}
}
