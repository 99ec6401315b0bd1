package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const samplePage = `
<html>
	<body>
		<div id="event-list">
			<div class="flex items-start">
				<h3>FRIDAY, Feb. 7</h3>
				<div class="prose"><ul>
					<li>🎵 <a href="/jazz">Jazz Night</a> | 7:00 PM | Free | Blues Alley</li>
					<li><a href="/swap">Book Swap</a> | 10 AM | $5 | Petworth Library</li>
				</ul></div>
			</div>
		</div>
	</body>
</html>
`

func TestFetchEvents(t *testing.T) {
	tests := []struct {
		name        string
		htmlContent string
		statusCode  int
		wantError   bool
		wantDays    int
		wantEvents  int
	}{
		{
			name:        "successful fetch with events",
			htmlContent: samplePage,
			statusCode:  http.StatusOK,
			wantDays:    1,
			wantEvents:  2,
		},
		{
			name:       "HTTP error",
			statusCode: http.StatusNotFound,
			wantError:  true,
		},
		{
			name: "page without event list",
			htmlContent: `
				<html>
					<body>
						<p>We're updating our calendar</p>
					</body>
				</html>
			`,
			statusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// Verify User-Agent is set
				if userAgent := r.Header.Get("User-Agent"); !strings.Contains(userAgent, "citycast-digest") {
					t.Errorf("User-Agent = %q, should contain 'citycast-digest'", userAgent)
				}

				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.htmlContent))
			}))
			defer server.Close()

			p, _ := newTestParser(t)
			s := New(WithURL(server.URL), WithParser(p))

			days, err := s.FetchEvents(context.Background())

			if tt.wantError {
				if err == nil {
					t.Error("FetchEvents() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("FetchEvents() unexpected error: %v", err)
			}
			if len(days) != tt.wantDays {
				t.Errorf("FetchEvents() returned %d days, want %d", len(days), tt.wantDays)
			}
			events := 0
			for _, d := range days {
				events += len(d.Events)
			}
			if events != tt.wantEvents {
				t.Errorf("FetchEvents() returned %d events, want %d", events, tt.wantEvents)
			}
		})
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := New(WithURL(server.URL))
	if _, err := s.Fetch(ctx); err == nil {
		t.Error("Fetch() expected error for canceled context, got nil")
	}
}

func TestFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.html")
	if err := os.WriteFile(path, []byte(samplePage), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	markup, err := FetchFile(path)
	if err != nil {
		t.Fatalf("FetchFile() error: %v", err)
	}
	if !strings.Contains(markup, "Jazz Night") {
		t.Error("FetchFile() did not return file contents")
	}

	if _, err := FetchFile(filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Error("FetchFile() expected error for missing file, got nil")
	}
}

func TestNew(t *testing.T) {
	s := New()

	if s == nil {
		t.Fatal("New() returned nil")
	}

	if s.client == nil {
		t.Error("scraper client is nil")
	}

	if s.url != EventsURL {
		t.Errorf("scraper url = %q, want %q", s.url, EventsURL)
	}

	if s.parser == nil {
		t.Error("scraper parser is nil")
	}
}

func TestNew_Options(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	s := New(WithURL("https://example.test/events"), WithHTTPClient(client), WithURL(""))

	if s.URL() != "https://example.test/events" {
		t.Errorf("URL() = %q, empty WithURL should not override", s.URL())
	}
	if s.client != client {
		t.Error("WithHTTPClient() did not set the client")
	}
}
