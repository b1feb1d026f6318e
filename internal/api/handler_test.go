package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cuecast/internal/api"
	"cuecast/internal/config"
	"cuecast/internal/jobs"
	"cuecast/internal/pipeline"
	"cuecast/internal/testsupport"
)

type fixture struct {
	cfg     *config.Config
	service *pipeline.Service
	server  *httptest.Server
	token   string
}

func newFixture(t *testing.T, opts ...api.Option) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)
	registry := jobs.NewRegistry(cfg.Jobs.Shards, jobs.WithObserver(store.Observer(nil)))
	svc, err := pipeline.NewService(cfg, registry, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	opts = append([]api.Option{api.WithHistory(store)}, opts...)
	handler := api.NewHandler(svc, registry, opts...)
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		svc.Wait()
	})
	return &fixture{cfg: cfg, service: svc, server: server}
}

func (f *fixture) jobDocument(t *testing.T) string {
	t.Helper()
	inputs := filepath.Join(testsupport.BaseDir(f.cfg), "inputs")
	audio := filepath.Join(inputs, "narration.mp3")
	testsupport.WriteFile(t, audio, 64)
	cues := testsupport.WriteCuePayload(t, inputs, 2000, [2]int64{0, 1000}, [2]int64{1000, 2000})
	return fmt.Sprintf(`{"render":{"audioUrl":%q,"cuesUrl":%q,"lines":["one","two"],"layout":"instant_single_line"}}`, audio, cues)
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSubmitPollAndDownload(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/jobs", f.jobDocument(t))
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected a request id header")
	}
	submitted := decode[api.JobResponse](t, resp)
	if submitted.JobID == "" || submitted.Status != jobs.StatusQueued {
		t.Fatalf("unexpected submit response %+v", submitted)
	}

	f.service.Wait()

	got := decode[api.JobResponse](t, f.do(t, http.MethodGet, "/api/jobs/"+submitted.JobID, ""))
	if got.Status != jobs.StatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %+v", got)
	}
	if got.DurationMs == nil {
		t.Fatal("expected durationMs on a finished job")
	}

	file := f.do(t, http.MethodGet, "/api/jobs/"+submitted.JobID+"/file", "")
	if file.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for artifact, got %d", file.StatusCode)
	}
	if cd := file.Header.Get("Content-Disposition"); !strings.Contains(cd, submitted.JobID+".mp4") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	body, _ := io.ReadAll(file.Body)
	if string(body) != "fake-mp4" {
		t.Fatalf("unexpected artifact body %q", body)
	}

	list := decode[api.JobListResponse](t, f.do(t, http.MethodGet, "/api/jobs?status=succeeded", ""))
	if len(list.Jobs) != 1 || list.Jobs[0].JobID != submitted.JobID {
		t.Fatalf("unexpected list %+v", list)
	}
	empty := decode[api.JobListResponse](t, f.do(t, http.MethodGet, "/api/jobs?status=FAILED", ""))
	if len(empty.Jobs) != 0 {
		t.Fatalf("expected no failed jobs, got %+v", empty)
	}
}

func TestSubmitRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "not json", body: "{"},
		{name: "no envelope", body: `{"audioUrl":"a.mp3"}`},
		{name: "no audio", body: `{"render":{"cuesUrl":"c.json","lines":["x"]}}`},
		{name: "bad layout", body: `{"render":{"audioUrl":"a.mp3","cuesUrl":"c.json","lines":["x"],"layout":"spiral"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/api/jobs", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			body := decode[api.ErrorResponse](t, resp)
			if body.Error == "" || body.RequestID == "" {
				t.Fatalf("expected error and request id, got %+v", body)
			}
		})
	}
	if jobsLeft := f.service.Registry().List(); len(jobsLeft) != 0 {
		t.Fatalf("validation failures must not register jobs, got %d", len(jobsLeft))
	}
}

func TestUnknownJobAndUnfinishedArtifact(t *testing.T) {
	f := newFixture(t)
	if resp := f.do(t, http.MethodGet, "/api/jobs/missing", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodGet, "/api/jobs/missing/file", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodGet, "/api/jobs?status=DONE", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status filter, got %d", resp.StatusCode)
	}

	if _, err := f.service.Registry().Create("pending"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp := f.do(t, http.MethodGet, "/api/jobs/pending/file", ""); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for unfinished job, got %d", resp.StatusCode)
	}
}

func TestHistoryFallback(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := jobs.Snapshot{ID: "old-job", Status: jobs.StatusFailed, Message: "exit 1", CreatedAt: now, UpdatedAt: now}
	if err := store.Record(context.Background(), snap); err != nil {
		t.Fatalf("record: %v", err)
	}
	handler := api.NewHandler(nil, jobs.NewRegistry(1), api.WithHistory(store))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/old-job", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got api.JobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != jobs.StatusFailed || got.Message != "exit 1" || got.DurationMs != nil {
		t.Fatalf("unexpected history response %+v", got)
	}
}

func TestBearerToken(t *testing.T) {
	f := newFixture(t, api.WithToken("s3cret"))

	if resp := f.do(t, http.MethodGet, "/api/status", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	f.token = "wrong"
	if resp := f.do(t, http.MethodGet, "/api/status", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
	f.token = "s3cret"
	resp := f.do(t, http.MethodGet, "/api/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
	status := decode[api.StatusResponse](t, resp)
	if !status.Running || status.PID == 0 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestStatusUsesReporter(t *testing.T) {
	handler := api.NewHandler(nil, jobs.NewRegistry(1), api.WithStatus(func(context.Context) api.StatusResponse {
		return api.StatusResponse{Running: true, Dependencies: []api.DependencyStatus{{Name: "ffmpeg", Available: true}}}
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var got api.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0].Name != "ffmpeg" {
		t.Fatalf("unexpected dependencies %+v", got.Dependencies)
	}
}
