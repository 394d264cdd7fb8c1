package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperjump/semsim/internal/client"
	"github.com/hyperjump/semsim/internal/models"
	"github.com/hyperjump/semsim/internal/outcome"
	"github.com/hyperjump/semsim/internal/samples"
	"github.com/hyperjump/semsim/internal/storage"
)

type fakeAPI struct {
	mu      sync.Mutex
	session string
	resp    *client.Response
	err     error
	submits int
	results int
	polls   int
}

func (f *fakeAPI) Submit(ctx context.Context, xml string, req models.SubmitRequest) (*client.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	return f.resp, f.err
}

func (f *fakeAPI) Results(ctx context.Context) (*client.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results++
	return f.resp, f.err
}

func (f *fakeAPI) Poll(ctx context.Context, opts client.PollOptions) (*client.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	return f.resp, f.err
}

func (f *fakeAPI) SubmitURL(req models.SubmitRequest) string { return "http://api/api/similarity" }
func (f *fakeAPI) ResultsURL() string                        { return "http://api/api/similarity/results" }

func (f *fakeAPI) SessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeAPI) SetSession(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = id
}

type fakeSamples map[string]string

func (f fakeSamples) Get(ctx context.Context, name string) (samples.Sample, error) {
	xml, ok := f[name]
	if !ok {
		return samples.Sample{}, samples.ErrUnknownSample
	}
	return samples.Sample{Name: name, XML: xml, Size: len(xml)}, nil
}

func ok(code int, body string) *client.Response {
	return &client.Response{StatusCode: code, StatusText: http.StatusText(code), OK: code >= 200 && code < 300, Body: body}
}

func newHistory(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	h, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name    string
		loaded  bool
		req     models.SubmitRequest
		wantMsg string
		wantErr error
	}{
		{"no sample", false, models.SubmitRequest{Elements: "p", Threshold: 0.5}, "Please load an XML sample first.", ErrNoSample},
		{"blank elements", true, models.SubmitRequest{Elements: "   ", Threshold: 0.5}, "Please enter element names.", models.ErrInvalidElements},
		{"bad elements", true, models.SubmitRequest{Elements: "1p", Threshold: 0.5}, "Invalid element names: 1p", models.ErrInvalidElements},
		{"threshold high", true, models.SubmitRequest{Elements: "p", Threshold: 1.5}, "Please enter a valid threshold value between 0.0 and 1.0.", models.ErrInvalidThreshold},
		{"threshold negative", true, models.SubmitRequest{Elements: "p", Threshold: -0.1}, "Please enter a valid threshold value between 0.0 and 1.0.", models.ErrInvalidThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{resp: ok(202, `{"message":"x"}`)}
			c := New(api, fakeSamples{"small": "<doc/>"})
			if tt.loaded {
				if _, err := c.LoadSample(context.Background(), "small"); err != nil {
					t.Fatal(err)
				}
			}
			res := c.Submit(context.Background(), tt.req)
			if res.Status.Message != tt.wantMsg || res.Status.Severity != models.SeverityError {
				t.Errorf("status = %+v, want error %q", res.Status, tt.wantMsg)
			}
			if !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("err = %v, want %v", res.Err, tt.wantErr)
			}
			if api.submits != 0 {
				t.Errorf("validation failure reached the network %d times", api.submits)
			}
		})
	}
}

func TestSubmit_Accepted(t *testing.T) {
	api := &fakeAPI{resp: ok(202, `{"message":"Processing started","sessionId":"sess-1"}`)}
	history := newHistory(t)
	c := New(api, fakeSamples{"small": "<doc/>"}, WithHistory(history))
	ctx := context.Background()
	if _, err := c.LoadSample(ctx, "small"); err != nil {
		t.Fatal(err)
	}

	res := c.Submit(ctx, models.SubmitRequest{Elements: " p li ", Threshold: 0.8})
	want := models.Status{Message: "Processing started", Severity: models.SeveritySuccess}
	if diff := cmp.Diff(want, res.Status); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
	if api.submits != 1 {
		t.Errorf("submits = %d", api.submits)
	}
	snap := c.Snapshot()
	if snap.Request.Elements != "p li" || snap.SubmitStatus != want {
		t.Errorf("snapshot = %+v", snap)
	}

	runs, err := history.ListRuns(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Action != models.ActionSubmit || runs[0].SessionID != "sess-1" || runs[0].HTTPStatus != 202 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestSubmit_SessionFromBody(t *testing.T) {
	api := &fakeAPI{resp: ok(202, `{"message":"Processing started","sessionId":"from-body"}`)}
	c := New(api, fakeSamples{"small": "<doc/>"})
	c.SetXML("small", "<doc/>")
	c.Submit(context.Background(), models.SubmitRequest{Elements: "p", Threshold: 0.5})
	if api.SessionID() != "from-body" {
		t.Errorf("session = %q, want from-body", api.SessionID())
	}

	api = &fakeAPI{session: "cookie", resp: ok(202, `{"sessionId":"from-body"}`)}
	c = New(api, fakeSamples{})
	c.SetXML("small", "<doc/>")
	res := c.Submit(context.Background(), models.SubmitRequest{Elements: "p", Threshold: 0.5})
	if api.SessionID() != "cookie" {
		t.Errorf("cookie session replaced by %q", api.SessionID())
	}
	want := models.Status{Message: "POST OK (202): Processing initiated.", Severity: models.SeveritySuccess}
	if diff := cmp.Diff(want, res.Status); diff != "" {
		t.Errorf("status without message mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchResults(t *testing.T) {
	tests := []struct {
		name     string
		resp     *client.Response
		err      error
		want     models.Status
		wantViz  bool
		wantKind string
	}{
		{
			name:     "groups",
			resp:     ok(200, `{"similarityGroups":[["a","b"],["c"]]}`),
			want:     models.Status{Message: "GET OK (200): 2 groups visualized.", Severity: models.SeveritySuccess},
			wantViz:  true,
			wantKind: "groups",
		},
		{
			name:     "bare array",
			resp:     ok(200, `[["a","b","c"]]`),
			want:     models.Status{Message: "GET OK (200): 1 groups visualized.", Severity: models.SeveritySuccess},
			wantViz:  true,
			wantKind: "groups",
		},
		{
			name:     "still processing",
			resp:     ok(202, `{"message":"Processing in progress. Please try again later."}`),
			want:     models.Status{Message: "Processing in progress. Please try again later.", Severity: models.SeveritySuccess},
			wantKind: "plain_text",
		},
		{
			name:     "not found",
			resp:     ok(404, ``),
			want:     models.Status{Message: "GET Error (404): Not Found", Severity: models.SeverityError},
			wantKind: "plain_text",
		},
		{
			name:     "error field on 200",
			resp:     ok(200, `{"error":"Session expired","similarityGroups":[["a"]]}`),
			want:     models.Status{Message: "Session expired", Severity: models.SeverityError},
			wantKind: "server_error",
		},
		{
			name:     "network",
			err:      errors.New("connection refused"),
			want:     models.Status{Message: "Network Error: connection refused", Severity: models.SeverityError},
			wantKind: "network_error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := newHistory(t)
			c := New(&fakeAPI{resp: tt.resp, err: tt.err}, fakeSamples{}, WithHistory(history))
			res := c.FetchResults(context.Background())
			if diff := cmp.Diff(tt.want, res.Status); diff != "" {
				t.Errorf("status mismatch (-want +got):\n%s", diff)
			}
			if (res.Visualization != nil) != tt.wantViz {
				t.Errorf("visualization = %v, want present=%v", res.Visualization, tt.wantViz)
			}
			if c.Snapshot().Visualization != res.Visualization {
				t.Error("snapshot visualization differs from result")
			}
			runs, err := history.ListRuns(context.Background(), 0, 10)
			if err != nil {
				t.Fatal(err)
			}
			if len(runs) != 1 || runs[0].Outcome != tt.wantKind {
				t.Errorf("runs = %+v, want one %s run", runs, tt.wantKind)
			}
		})
	}
}

func TestFetchResults_ClearsPreviousVisualization(t *testing.T) {
	api := &fakeAPI{resp: ok(200, `[["a"]]`)}
	c := New(api, fakeSamples{})
	if res := c.FetchResults(context.Background()); res.Visualization == nil {
		t.Fatal("expected visualization")
	}
	api.resp = ok(500, `{"message":"Internal server error.","error":"boom"}`)
	res := c.FetchResults(context.Background())
	if res.Visualization != nil || c.Snapshot().Visualization != nil {
		t.Error("error response should clear the visualization")
	}
	if res.Status.Message != "boom" {
		t.Errorf("status = %+v", res.Status)
	}
}

func TestLoadSample_FailureClearsXML(t *testing.T) {
	c := New(&fakeAPI{}, fakeSamples{"small": "<doc/>"})
	ctx := context.Background()
	if _, err := c.LoadSample(ctx, "small"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.LoadSample(ctx, "missing"); !errors.Is(err, samples.ErrUnknownSample) {
		t.Fatalf("err = %v, want ErrUnknownSample", err)
	}
	if _, ok := c.CurrentSample(); ok {
		t.Error("failed load should clear the current sample")
	}
}

func TestSetXML_LastWriteWins(t *testing.T) {
	c := New(&fakeAPI{}, fakeSamples{})
	c.SetXML("a", "<a/>")
	c.SetXML("b", "<b/>")
	s, ok := c.CurrentSample()
	if !ok || s.XML != "<b/>" {
		t.Errorf("current = %+v, %v", s, ok)
	}
	c.SetXML("", "")
	if _, ok := c.CurrentSample(); ok {
		t.Error("empty XML should clear the sample")
	}
}

func TestAwaitResults_EndToEnd(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/similarity", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: client.SessionCookie, Value: "e2e", Path: "/"})
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `{"message":"Processing started","sessionId":"e2e"}`)
	})
	mux.HandleFunc("/api/similarity/results", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if ck, err := r.Cookie(client.SessionCookie); err != nil || ck.Value != "e2e" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"message":"Session cookie missing or invalid."}`)
			return
		}
		if n < 2 {
			w.WriteHeader(http.StatusAccepted)
			_, _ = io.WriteString(w, `{"message":"Processing in progress. Please try again later."}`)
			return
		}
		_, _ = io.WriteString(w, `[["one","two"],["three"]]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api, err := client.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	history := newHistory(t)
	c := New(api, fakeSamples{"small": "<doc><p>one</p></doc>"}, WithHistory(history), WithContainerHeight(200))
	ctx := context.Background()
	if _, err := c.LoadSample(ctx, "small"); err != nil {
		t.Fatal(err)
	}
	if res := c.Submit(ctx, models.SubmitRequest{Elements: "p", Threshold: 0.75}); res.Status.IsError() {
		t.Fatalf("submit status = %+v", res.Status)
	}

	res := c.AwaitResults(ctx, client.PollOptions{Interval: time.Millisecond, MaxAttempts: 5})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if _, isGroups := res.Outcome.(outcome.Groups); !isGroups {
		t.Fatalf("outcome = %#v", res.Outcome)
	}
	if res.Visualization == nil || len(res.Visualization.Layout.Columns) != 2 {
		t.Fatalf("visualization = %+v", res.Visualization)
	}
	if h := res.Visualization.Layout.Columns[0].Height; h != 140 {
		t.Errorf("tallest column height = %v, want 140", h)
	}

	n, err := history.CountRuns(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountRuns = %d, %v; want 2", n, err)
	}
	session, err := history.LatestSessionID(ctx)
	if err != nil || session != "e2e" {
		t.Errorf("LatestSessionID = %q, %v", session, err)
	}
}

func TestAwaitResults_Exhausted(t *testing.T) {
	api := &fakeAPI{resp: ok(202, `{"message":"Processing in progress. Please try again later."}`), err: client.ErrStillProcessing}
	c := New(api, fakeSamples{})
	res := c.AwaitResults(context.Background(), client.PollOptions{MaxAttempts: 2})
	if !errors.Is(res.Err, client.ErrStillProcessing) {
		t.Errorf("err = %v", res.Err)
	}
	if res.Status.Message != "Processing in progress. Please try again later." || res.Status.IsError() {
		t.Errorf("status = %+v", res.Status)
	}
}
