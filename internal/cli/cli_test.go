package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/citycast-digest/internal/config"
	"github.com/pfrederiksen/citycast-digest/internal/event"
	"github.com/pfrederiksen/citycast-digest/internal/storage"
)

const fixturePath = "../../testdata/fixtures/events.html"

// isolateEnv keeps the developer's environment out of config loading
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"EVENTS_URL", "EVENTS_FILE", "DATA_DIR", "SMTP_SERVER", "SMTP_PORT",
		"EMAIL_SENDER", "EMAIL_PASSWORD", "TO_SMS", "SMS_SUBJECT_PREFIX",
		"SMS_CHUNK_SIZE", "LOG_LEVEL", "METRICS_FILE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("TIMEZONE", "UTC")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseCommand_JSON(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := execute(t, "parse", "--source-file", fixturePath, "--format", "json")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var result struct {
		DayCount   int              `json:"day_count"`
		EventCount int              `json:"event_count"`
		Days       []event.DayGroup `json:"days"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}

	if result.DayCount != 4 || result.EventCount != 7 {
		t.Errorf("got %d days / %d events, want 4 / 7", result.DayCount, result.EventCount)
	}
	if len(result.Days) != 4 {
		t.Fatalf("got %d days in output, want 4", len(result.Days))
	}
	if result.Days[1].DateISO.IsPresent() {
		t.Error("Ongoing Exhibitions should have no date_iso")
	}
}

func TestParseCommand_TextSortedByDate(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := execute(t, "parse", "--source-file", fixturePath, "--sort", "date")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	sat := strings.Index(stdout, "SATURDAY, Jan. 11")
	mon := strings.Index(stdout, "MONDAY, Jan. 13")
	ongoing := strings.Index(stdout, "Ongoing Exhibitions")
	if sat < 0 || mon < 0 || ongoing < 0 {
		t.Fatalf("missing day headings:\n%s", stdout)
	}
	if !(sat < mon && mon < ongoing) {
		t.Errorf("days not sorted by date with undated last:\n%s", stdout)
	}

	for _, want := range []string{
		"🎵 Jazz Night | 7:00 PM | $0 | Blues Alley",
		"[unreadable item]",
		"Total: 7 events across 4 days",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestParseCommand_ICS(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := execute(t, "parse", "--source-file", fixturePath, "--format", "ics")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if !strings.HasPrefix(stdout, "BEGIN:VCALENDAR\r\n") {
		t.Errorf("expected an iCalendar document, got:\n%s", stdout)
	}
	// Jan 11 has three events and Jan 13 one readable event
	if count := strings.Count(stdout, "BEGIN:VEVENT"); count != 4 {
		t.Errorf("got %d VEVENTs, want 4", count)
	}
}

func TestParseCommand_Save(t *testing.T) {
	isolateEnv(t)
	dataDir := t.TempDir()

	if _, _, err := execute(t, "parse", "--source-file", fixturePath, "--data-dir", dataDir, "--save"); err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dataDir, storage.EventsFile)); err != nil {
		t.Errorf("events file not written: %v", err)
	}
}

func TestRootCommand_NoSend(t *testing.T) {
	isolateEnv(t)
	dataDir := t.TempDir()

	stdout, stderr, err := execute(t, "--source-file", fixturePath, "--data-dir", dataDir, "--no-send")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if !strings.Contains(stdout, "Total: 7 events across 4 days") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	if !strings.Contains(stderr, `"run_id"`) {
		t.Errorf("log lines should carry a run_id:\n%s", stderr)
	}

	store, err := storage.New(dataDir)
	if err != nil {
		t.Fatalf("storage.New() error: %v", err)
	}
	days, err := store.LoadDays()
	if err != nil {
		t.Fatalf("LoadDays() error: %v", err)
	}
	if len(days) != 4 {
		t.Errorf("saved %d days, want 4", len(days))
	}
}

func TestRootCommand_RequiresDeliverySettings(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "--source-file", fixturePath, "--data-dir", t.TempDir())
	if err == nil {
		t.Fatal("expected error without SMTP settings, got nil")
	}
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("error = %v, want config.ErrInvalid", err)
	}
}

func TestDigestCommand_DryRun(t *testing.T) {
	isolateEnv(t)
	dataDir := t.TempDir()

	store, err := storage.New(dataDir)
	if err != nil {
		t.Fatalf("storage.New() error: %v", err)
	}
	today := time.Now().UTC().Format(event.ISODateLayout)
	days := []event.DayGroup{{
		DateISO:   event.Some(today),
		DateLabel: "TODAY",
		Events: []event.Event{{
			Title:    "Jazz Night",
			Time:     "7:00 PM",
			Price:    "$0",
			Location: "Blues Alley",
		}},
	}}
	if err := store.SaveDays(days); err != nil {
		t.Fatalf("SaveDays() error: %v", err)
	}

	stdout, _, err := execute(t, "digest", "--data-dir", dataDir, "--dry-run")
	if err != nil {
		t.Fatalf("digest error: %v", err)
	}

	for _, want := range []string{
		"--- SMS 1/1: DC Events (1/1) ---",
		"today\nJazzNight 7-00 BluesAlley $0",
		"Total: 1 events across 1 days",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestInvalidFlags(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad run format", []string{"--format", "xml", "--no-send"}, "invalid format: xml"},
		{"ics on run", []string{"--format", "ics", "--no-send"}, "invalid format: ics"},
		{"bad parse sort", []string{"parse", "--sort", "price"}, "invalid sort order: price"},
		{"bad digest format", []string{"digest", "--format", "yaml", "--dry-run"}, "invalid format: yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseCommand_FetchesURL(t *testing.T) {
	isolateEnv(t)

	page, err := os.ReadFile(fixturePath)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}))
	defer server.Close()

	stdout, _, err := execute(t, "parse", "--url", server.URL, "--format", "json")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var result struct {
		Source     string `json:"source"`
		DayCount   int    `json:"day_count"`
		EventCount int    `json:"event_count"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}
	if result.Source != server.URL {
		t.Errorf("source = %q, want %q", result.Source, server.URL)
	}
	if result.DayCount != 4 || result.EventCount != 7 {
		t.Errorf("got %d days / %d events, want 4 / 7", result.DayCount, result.EventCount)
	}
}
