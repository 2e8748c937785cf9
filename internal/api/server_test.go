package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/klandestin-s/school-man3/internal/blob"
	"github.com/klandestin-s/school-man3/internal/core"
	"github.com/klandestin-s/school-man3/internal/export"
)

const testBlobPath = "data/jadwal.json"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	TimeNow = func() time.Time { return time.Date(2025, 7, 14, 8, 0, 0, 0, time.UTC) }
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*Server, *blob.Memory) {
	t.Helper()
	store := blob.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := core.NewRepository(store, core.RepositoryOptions{Path: testBlobPath, Logger: logger})
	return NewServer(repo, store, ServerOptions{Backend: "memory", Logger: logger}), store
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v\n%s", v, err, rec.Body.String())
	}
	return v
}

const validBody = `{"class":"X A","day":"Selasa","subject":"Kimia","teacher":"Pak Dedi","startTime":"08:00","endTime":"09:30"}`

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["status"] != "ok" || body["timestamp"] != "2025-07-14T08:00:00Z" {
		t.Fatalf("body = %v", body)
	}
}

func TestListEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/jadwal", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %s, want []", got)
	}
}

func TestScheduleLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/jadwal", validBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	created := decode[ScheduleView](t, rec)
	if !strings.HasPrefix(created.ID, "jadwal_") || created.Subject != "Kimia" {
		t.Fatalf("created = %+v", created)
	}

	rec = do(t, s, http.MethodGet, "/v1/jadwal/"+created.ID, "")
	if rec.Code != http.StatusOK || decode[ScheduleView](t, rec) != created {
		t.Fatalf("get by path: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, s, http.MethodGet, "/v1/jadwal?id="+created.ID, "")
	if rec.Code != http.StatusOK || decode[ScheduleView](t, rec) != created {
		t.Fatalf("get by query: %d %s", rec.Code, rec.Body)
	}

	update := `{"id":"` + created.ID + `","class":"XII A","day":"Kamis","subject":"Ekonomi","teacher":"Bu Rina","startTime":"10:00","endTime":"11:00"}`
	rec = do(t, s, http.MethodPut, "/v1/jadwal", update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}
	updated := decode[ScheduleView](t, rec)
	if updated.ID != created.ID || updated.Class != "XII A" || updated.Day != "Kamis" {
		t.Fatalf("updated = %+v", updated)
	}

	rec = do(t, s, http.MethodDelete, "/v1/jadwal?id="+created.ID, "")
	if rec.Code != http.StatusOK || decode[ScheduleView](t, rec) != updated {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodDelete, "/v1/jadwal/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestUpdateIDFromPath(t *testing.T) {
	s, _ := newTestServer(t)
	created := decode[ScheduleView](t, do(t, s, http.MethodPost, "/v1/jadwal", validBody))

	rec := do(t, s, http.MethodPut, "/v1/jadwal/"+created.ID, validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
}

func TestCreateValidationErrorListsAllProblems(t *testing.T) {
	s, store := newTestServer(t)
	body := `{"class":"XI C","day":"Minggu","subject":"","teacher":"Pak Dedi","startTime":"25:00","endTime":"09:00"}`
	rec := do(t, s, http.MethodPost, "/v1/jadwal", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	apiErr := decode[APIError](t, rec)
	if len(apiErr.Details) != 4 {
		t.Fatalf("details = %q", apiErr.Details)
	}
	if len(store.Commits()) != 0 {
		t.Fatal("invalid input was written")
	}
}

func TestBadRequests(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name, method, target, body string
		want                       int
	}{
		{"malformed json", http.MethodPost, "/v1/jadwal", `{"class":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/v1/jadwal", `{"kelas":"X A"}`, http.StatusBadRequest},
		{"update without id", http.MethodPut, "/v1/jadwal", validBody, http.StatusBadRequest},
		{"delete without id", http.MethodDelete, "/v1/jadwal", "", http.StatusBadRequest},
		{"update unknown id", http.MethodPut, "/v1/jadwal/jadwal_nope", validBody, http.StatusNotFound},
		{"get unknown id", http.MethodGet, "/v1/jadwal/jadwal_nope", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/v1/nothing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			if decode[APIError](t, rec).Error == "" {
				t.Fatal("empty error message")
			}
		})
	}
}

func TestVersionConflictIsRetryable(t *testing.T) {
	s, store := newTestServer(t)
	store.SetBeforeWrite(func(path string) error {
		store.Put(path, []byte("[]"))
		return nil
	})
	rec := do(t, s, http.MethodPost, "/v1/jadwal", validBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !decode[APIError](t, rec).Retryable {
		t.Fatal("conflict not marked retryable")
	}
}

func TestStoreFailuresAreBadGateway(t *testing.T) {
	errs := map[string]error{
		"auth":      blob.ErrAuth,
		"transport": &blob.TransportError{Op: "write", Path: testBlobPath, Err: errors.New("dial tcp: refused")},
		"malformed": &blob.MalformedResponseError{Op: "write", Status: 200, Body: []byte("<html>"), Err: errors.New("bad json")},
		"status":    &blob.StatusError{Op: "write", Status: 500},
	}
	for name, injected := range errs {
		t.Run(name, func(t *testing.T) {
			s, store := newTestServer(t)
			store.SetBeforeWrite(func(string) error { return injected })
			rec := do(t, s, http.MethodPost, "/v1/jadwal", validBody)
			if rec.Code != http.StatusBadGateway {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestCorruptBlobIsBadGateway(t *testing.T) {
	s, store := newTestServer(t)
	store.Put(testBlobPath, []byte("{oops"))
	rec := do(t, s, http.MethodGet, "/v1/jadwal", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodOptions, "/v1/jadwal", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "DELETE") {
		t.Fatalf("allow-methods = %q", got)
	}

	rec = do(t, s, http.MethodGet, "/v1/jadwal", "")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("CORS header missing on normal response")
	}
}

func TestStatusReportsProbe(t *testing.T) {
	s, store := newTestServer(t)
	store.Put(testBlobPath, []byte(`[{"id":"a"},{"id":"b"}]`))

	rec := do(t, s, http.MethodGet, "/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	st := decode[StatusResponse](t, rec)
	if st.Backend != "memory" || !st.LastProbe.Reachable || !st.LastProbe.Exists || st.LastProbe.Records != 2 {
		t.Fatalf("status = %+v", st)
	}
	if st.LastProbe.Version != blob.ContentSHA([]byte(`[{"id":"a"},{"id":"b"}]`)) {
		t.Fatalf("version = %q", st.LastProbe.Version)
	}
	if _, ok := st.LastProbe.LatenciesMs["read"]; !ok {
		t.Fatalf("read latency missing: %+v", st.LastProbe)
	}
	if st.LastProbe.LastChecked == "" {
		t.Fatalf("last_checked missing: %+v", st.LastProbe)
	}
}

func TestStatusReportsMissingBlobWarning(t *testing.T) {
	s, _ := newTestServer(t)
	st := decode[StatusResponse](t, do(t, s, http.MethodGet, "/v1/status", ""))
	if st.LastProbe.Exists || len(st.LastProbe.Warnings) != 1 {
		t.Fatalf("probe = %+v", st.LastProbe)
	}
}

func TestStatusReusesFreshProbe(t *testing.T) {
	now := TimeNow()
	defer func(orig func() time.Time) { TimeNow = orig }(TimeNow)

	s, store := newTestServer(t)
	store.Put(testBlobPath, []byte(`[{"id":"a"}]`))
	if st := decode[StatusResponse](t, do(t, s, http.MethodGet, "/v1/status", "")); st.LastProbe.Records != 1 {
		t.Fatalf("first probe = %+v", st.LastProbe)
	}

	store.Put(testBlobPath, []byte(`[{"id":"a"},{"id":"b"}]`))
	TimeNow = func() time.Time { return now.Add(5 * time.Second) }
	if st := decode[StatusResponse](t, do(t, s, http.MethodGet, "/v1/status", "")); st.LastProbe.Records != 1 {
		t.Fatalf("fresh probe not reused: %+v", st.LastProbe)
	}

	TimeNow = func() time.Time { return now.Add(11 * time.Second) }
	st := decode[StatusResponse](t, do(t, s, http.MethodGet, "/v1/status", ""))
	if st.LastProbe.Records != 2 || st.UptimeSec != 11 {
		t.Fatalf("stale probe reused: %+v", st)
	}
}

func TestCreateRejectsTrailingData(t *testing.T) {
	s, store := newTestServer(t)
	for _, body := range []string{validBody + validBody, validBody + ` []`, validBody + `x`} {
		rec := do(t, s, http.MethodPost, "/v1/jadwal", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d", body, rec.Code)
		}
	}
	if len(store.Commits()) != 0 {
		t.Fatal("request with trailing data was written")
	}
	if rec := do(t, s, http.MethodPost, "/v1/jadwal", validBody+"\n"); rec.Code != http.StatusCreated {
		t.Fatalf("trailing newline: status = %d: %s", rec.Code, rec.Body)
	}
}

func TestExport(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodPost, "/v1/jadwal", validBody)

	rec := do(t, s, http.MethodGet, "/v1/jadwal/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "jadwal_20250714_080000.xlsx") {
		t.Fatalf("content-disposition = %q", cd)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	subject, err := f.GetCellValue(export.SheetName, "D2")
	if err != nil || subject != "Kimia" {
		t.Fatalf("D2 = %q, %v", subject, err)
	}
}
