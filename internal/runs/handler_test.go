package runs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gaslens/gaslens/analysis"
	"github.com/gaslens/gaslens/internal/runs"
	"github.com/gaslens/gaslens/pkg/flow"
	"github.com/gaslens/gaslens/pkg/pagination"
	"github.com/gaslens/gaslens/pkg/routes"
)

type fakeSystem struct {
	run      *runs.Run
	result   *pagination.PageResult[runs.Run]
	report   string
	events   []flow.Event
	err      error
	lastCmd  runs.ExecuteCommand
	lastPage pagination.PageRequest
	deleted  []uuid.UUID
}

func (f *fakeSystem) Handler() *runs.Handler { return nil }

func (f *fakeSystem) List(ctx context.Context, page pagination.PageRequest, filters runs.Filters) (*pagination.PageResult[runs.Run], error) {
	f.lastPage = page
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSystem) Find(ctx context.Context, id uuid.UUID) (*runs.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.run, nil
}

func (f *fakeSystem) Execute(ctx context.Context, cmd runs.ExecuteCommand) (*runs.Run, error) {
	f.lastCmd = cmd
	if f.err != nil {
		return nil, f.err
	}
	return f.run, nil
}

func (f *fakeSystem) Stream(ctx context.Context, cmd runs.ExecuteCommand) (*runs.Run, <-chan flow.Event, error) {
	f.lastCmd = cmd
	if f.err != nil {
		return nil, nil, f.err
	}
	events := make(chan flow.Event, len(f.events))
	for _, ev := range f.events {
		events <- ev
	}
	close(events)
	return f.run, events, nil
}

func (f *fakeSystem) Report(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.report)), nil
}

func (f *fakeSystem) Delete(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func testRun() *runs.Run {
	return &runs.Run{
		ID:        uuid.New(),
		Chains:    []string{"base"},
		Timeframe: analysis.Timeframe7d,
		Status:    runs.StatusComplete,
		CreatedAt: time.Now(),
	}
}

func serve(sys runs.System) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	handler := runs.NewHandler(sys, logger, cfg)

	mux := http.NewServeMux()
	routes.Register(mux, handler.Routes())
	return httptest.NewServer(mux)
}

func TestExecuteReturnsCreatedRun(t *testing.T) {
	sys := &fakeSystem{run: testRun()}
	server := serve(sys)
	defer server.Close()

	body := bytes.NewBufferString(`{"chains":["base"],"timeframe":"7d"}`)
	resp, err := http.Post(server.URL+"/runs", "application/json", body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var run runs.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.ID != sys.run.ID || run.Status != runs.StatusComplete {
		t.Errorf("run = %+v", run)
	}
	if len(sys.lastCmd.Chains) != 1 || sys.lastCmd.Chains[0] != "base" {
		t.Errorf("command = %+v", sys.lastCmd)
	}
}

func TestExecuteRejectsMalformedBody(t *testing.T) {
	server := serve(&fakeSystem{run: testRun()})
	defer server.Close()

	resp, err := http.Post(server.URL+"/runs", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestExecuteMapsValidationErrors(t *testing.T) {
	sys := &fakeSystem{err: runs.ErrInvalidRequest}
	server := serve(sys)
	defer server.Close()

	body := strings.NewReader(`{"chains":[],"timeframe":"7d"}`)
	resp, err := http.Post(server.URL+"/runs", "application/json", body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFindInvalidUUID(t *testing.T) {
	server := serve(&fakeSystem{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/runs/not-a-uuid")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFindNotFound(t *testing.T) {
	server := serve(&fakeSystem{err: runs.ErrNotFound})
	defer server.Close()

	resp, err := http.Get(server.URL + "/runs/" + uuid.NewString())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestReportNotReadyConflicts(t *testing.T) {
	server := serve(&fakeSystem{err: runs.ErrReportNotReady})
	defer server.Close()

	resp, err := http.Get(server.URL + "/runs/" + uuid.NewString() + "/report")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestReportServesArchivedDocument(t *testing.T) {
	sys := &fakeSystem{report: `{"id":"abc","status":"complete"}`}
	server := serve(sys)
	defer server.Close()

	resp, err := http.Get(server.URL + "/runs/" + uuid.NewString() + "/report")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != sys.report {
		t.Errorf("body = %s", body)
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	sys := &fakeSystem{}
	server := serve(sys)
	defer server.Close()

	id := uuid.New()
	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/runs/"+id.String(), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if len(sys.deleted) != 1 || sys.deleted[0] != id {
		t.Errorf("deleted = %v", sys.deleted)
	}
}

func TestListReturnsPage(t *testing.T) {
	result := pagination.NewPageResult([]runs.Run{*testRun()}, 1, 1, 20)
	sys := &fakeSystem{result: &result}
	server := serve(sys)
	defer server.Close()

	resp, err := http.Get(server.URL + "/runs?page=1&page_size=20&status=complete")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var page pagination.PageResult[runs.Run]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || len(page.Data) != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestSearchNormalizesPageRequest(t *testing.T) {
	result := pagination.NewPageResult([]runs.Run{}, 0, 1, 20)
	sys := &fakeSystem{result: &result}
	server := serve(sys)
	defer server.Close()

	body := strings.NewReader(`{"page_size":9999,"status":"running"}`)
	resp, err := http.Post(server.URL+"/runs/search", "application/json", body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if sys.lastPage.PageSize != 100 {
		t.Errorf("page size = %d, want clamped to 100", sys.lastPage.PageSize)
	}
}

func TestStreamEmitsServerSentEvents(t *testing.T) {
	run := testRun()
	sys := &fakeSystem{
		run: run,
		events: []flow.Event{
			{Stage: analysis.StageCategory, Key: "base", Status: flow.StatusDone, Attempt: 1},
			{Outcome: &flow.Outcome{State: flow.RunComplete}},
		},
	}
	server := serve(sys)
	defer server.Close()

	body := strings.NewReader(`{"chains":["base"],"timeframe":"7d"}`)
	resp, err := http.Post(server.URL+"/runs/stream", "application/json", body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	raw, _ := io.ReadAll(resp.Body)
	text := string(raw)

	for _, want := range []string{"event: run\n", "event: task\n", "event: outcome\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("stream missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(text, `"state":"complete"`) {
		t.Errorf("stream missing outcome payload:\n%s", text)
	}
}
