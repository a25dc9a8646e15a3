package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
	"github.com/FocuswithJustin/ScripturesMapped/core/catalog/catalogtest"
	"github.com/FocuswithJustin/ScripturesMapped/internal/fetch"
	"github.com/FocuswithJustin/ScripturesMapped/internal/router"
)

const jarom2 = `<ul class="verses"><li>And now behold, I, Jarom,
<a onclick="showLocation(2,'Jerusalem',31.777444,35.234935,31.777444,35.234935,0.0,0.0,3500.0,0.0,'')">Jerusalem</a></li></ul>`

// Test helper functions

func writeJSONFile(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// setupCLI points the global flags at a fixture catalog directory and a
// content server, and captures command output.
func setupCLI(t *testing.T, content http.HandlerFunc) *bytes.Buffer {
	t.Helper()
	dir := t.TempDir()
	writeJSONFile(t, filepath.Join(dir, "books.json"), catalogtest.Books())
	writeJSONFile(t, filepath.Join(dir, "volumes.json"), catalogtest.Volumes())

	if content == nil {
		content = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(jarom2))
		}
	}
	ts := httptest.NewServer(content)
	t.Cleanup(ts.Close)

	configPath := filepath.Join(dir, "scriptures.yaml")
	yaml := "content:\n  url: " + ts.URL + "/chapter\n  timeout: 5s\nlog:\n  level: error\n"
	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	saved := CLI
	savedOut := stdout
	t.Cleanup(func() {
		CLI = saved
		stdout = savedOut
	})

	CLI.Config = configPath
	CLI.CatalogDir = dir
	CLI.CatalogDB = ""
	CLI.LogLevel = ""
	CLI.LogFormat = ""

	var out bytes.Buffer
	stdout = &out
	return &out
}

// Tests for VersionCmd

func TestVersionCmd(t *testing.T) {
	out := setupCLI(t, nil)
	if err := (&VersionCmd{}).Run(); err != nil {
		t.Fatalf("VersionCmd.Run: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Errorf("output %q missing version", out.String())
	}
}

// Tests for RouteCmd

func TestRouteCmd(t *testing.T) {
	tests := []struct {
		fragment string
		want     string
	}{
		{"", "Home"},
		{"#2", "HomeForVolume(2)"},
		{"#2:7", "Book(7)"},
		{"#0:7:3", "Chapter(7, 3)"},
		{"#0:7:4", "Home"},
		{"#9", "Home"},
		{"#x:y", "Home"},
	}
	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			out := setupCLI(t, nil)
			if err := (&RouteCmd{Fragment: tt.fragment}).Run(); err != nil {
				t.Fatalf("RouteCmd.Run: %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("route %q = %q, want %q", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestRouteCmdJSON(t *testing.T) {
	out := setupCLI(t, nil)
	if err := (&RouteCmd{Fragment: "#0:9:10", JSON: true}).Run(); err != nil {
		t.Fatalf("RouteCmd.Run: %v", err)
	}

	var target router.Target
	if err := json.Unmarshal(out.Bytes(), &target); err != nil {
		t.Fatalf("invalid JSON %q: %v", out.String(), err)
	}
	if target.BookID != 9 || target.Chapter != 10 {
		t.Errorf("target = %+v", target)
	}
}

// Tests for ReadCmd

func TestReadCmdChapter(t *testing.T) {
	out := setupCLI(t, nil)
	if err := (&ReadCmd{Fragment: "#0:7:2"}).Run(); err != nil {
		t.Fatalf("ReadCmd.Run: %v", err)
	}

	s := out.String()
	if !strings.HasPrefix(s, "Jarom 2\n") {
		t.Errorf("output should start with the chapter title, got %q", s)
	}
	if !strings.Contains(s, "I, Jarom") {
		t.Error("output missing chapter content")
	}
	if !strings.Contains(s, "Jerusalem (31.7774, 35.2349)") {
		t.Errorf("output missing marker, got %q", s)
	}
}

func TestReadCmdJSON(t *testing.T) {
	out := setupCLI(t, nil)
	if err := (&ReadCmd{Fragment: "#2:6", JSON: true}).Run(); err != nil {
		t.Fatalf("ReadCmd.Run: %v", err)
	}

	var result readResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	// Enos has a single chapter, so the book goes straight to it.
	if result.Target.Kind != router.KindChapter || result.Target.Chapter != 1 {
		t.Errorf("target = %+v", result.Target)
	}
	if result.View.Title != "Enos 1" {
		t.Errorf("title = %q", result.View.Title)
	}
	if len(result.Markers) != 1 {
		t.Errorf("markers = %+v", result.Markers)
	}
}

func TestReadCmdBookPicker(t *testing.T) {
	out := setupCLI(t, nil)
	if err := (&ReadCmd{Fragment: "#2:7"}).Run(); err != nil {
		t.Fatalf("ReadCmd.Run: %v", err)
	}
	if !strings.Contains(out.String(), `href="#0:7:3"`) {
		t.Errorf("picker missing chapter 3 link: %q", out.String())
	}
}

func TestReadCmdFetchFailure(t *testing.T) {
	setupCLI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	err := (&ReadCmd{Fragment: "#0:1:1"}).Run()
	if err == nil {
		t.Fatal("expected error when content is unavailable")
	}
	if !strings.Contains(err.Error(), "Chapter(1, 1)") {
		t.Errorf("error should name the target: %v", err)
	}
}

// brokenRenderer fails every chapter and renders everything else.
type brokenRenderer struct{}

var errTemplate = errors.New("template failed")

func (brokenRenderer) Home([]*catalog.Volume) error     { return nil }
func (brokenRenderer) Volume(*catalog.Volume) error     { return nil }
func (brokenRenderer) Book(*catalog.Book, []int) error  { return nil }
func (brokenRenderer) Chapter(router.ChapterView) error { return errTemplate }

func TestRenderTapForwardsFailures(t *testing.T) {
	tap := renderTap{Renderer: brokenRenderer{}, failed: make(chan error, 1)}

	if err := tap.Home(nil); err != nil {
		t.Fatalf("Home: %v", err)
	}
	select {
	case err := <-tap.failed:
		t.Fatalf("successful render reported %v", err)
	default:
	}

	if err := tap.Chapter(router.ChapterView{}); !errors.Is(err, errTemplate) {
		t.Fatalf("Chapter error = %v, want %v", err, errTemplate)
	}
	select {
	case err := <-tap.failed:
		if !errors.Is(err, errTemplate) {
			t.Errorf("forwarded %v, want %v", err, errTemplate)
		}
	default:
		t.Fatal("render failure was not forwarded")
	}

	// A second failure with nobody reading must not block.
	tap.Chapter(router.ChapterView{})
	tap.Chapter(router.ChapterView{})
}

// staticFetcher serves the same chapter for every request.
type staticFetcher struct{}

func (staticFetcher) FetchChapter(ctx context.Context, req fetch.Request, onContent func(fetch.Content), onFailure func(error)) {
	onContent(fetch.Content{HTML: jarom2})
}

func TestRenderTapUnblocksNavigation(t *testing.T) {
	tap := renderTap{Renderer: brokenRenderer{}, failed: make(chan error, 1)}
	loop := router.NewLoop(8)
	go loop.Run(context.Background())
	defer loop.Stop()

	rt := router.New(staticFetcher{}, tap, &markerRecorder{}, loop.Executor())
	loop.Post(func() {
		rt.SetStore(catalogtest.Store())
		rt.Navigate(context.Background(), "#0:7:2")
	})

	select {
	case err := <-tap.failed:
		if !errors.Is(err, errTemplate) {
			t.Errorf("forwarded %v, want %v", err, errTemplate)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("chapter render failure never reached the command")
	}
}

// Tests for CatalogCmd

func TestCatalogList(t *testing.T) {
	out := setupCLI(t, nil)
	if err := (&CatalogListCmd{}).Run(); err != nil {
		t.Fatalf("CatalogListCmd.Run: %v", err)
	}

	s := out.String()
	for _, want := range []string{"Old Testament", "Book of Mormon", "Jarom", "3 chapters", "1 chapter", "no chapters"} {
		if !strings.Contains(s, want) {
			t.Errorf("listing missing %q", want)
		}
	}
	if strings.Index(s, "Old Testament") > strings.Index(s, "Book of Mormon") {
		t.Error("volumes should be listed in catalog order")
	}
}

func TestCatalogListJSON(t *testing.T) {
	out := setupCLI(t, nil)
	if err := (&CatalogListCmd{JSON: true}).Run(); err != nil {
		t.Fatalf("CatalogListCmd.Run: %v", err)
	}

	var volumes []struct {
		ID    int `json:"id"`
		Books []struct {
			ID int `json:"id"`
		} `json:"books"`
	}
	if err := json.Unmarshal(out.Bytes(), &volumes); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(volumes) != 3 || len(volumes[1].Books) != 3 || volumes[1].Books[0].ID != 5 {
		t.Errorf("volumes = %+v", volumes)
	}
}

func TestCatalogSnapshotThenServeFromDB(t *testing.T) {
	out := setupCLI(t, nil)
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	if err := (&CatalogSnapshotCmd{Out: dbPath}).Run(); err != nil {
		t.Fatalf("CatalogSnapshotCmd.Run: %v", err)
	}
	if !strings.Contains(out.String(), "Wrote 9 books and 3 volumes") {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	CLI.CatalogDir = ""
	CLI.CatalogDB = dbPath
	if err := (&RouteCmd{Fragment: "#3:9"}).Run(); err != nil {
		t.Fatalf("RouteCmd.Run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "Book(9)" {
		t.Errorf("route from snapshot = %q, want Book(9)", got)
	}
}

// Tests for configuration

func TestLoadConfigRejectsBadFlags(t *testing.T) {
	setupCLI(t, nil)
	CLI.LogFormat = "xml"
	if _, err := loadConfig(); err == nil {
		t.Error("expected validation error for log format")
	}
}

func TestLoadConfigCatalogFlags(t *testing.T) {
	setupCLI(t, nil)
	CLI.CatalogDB = "/tmp/catalog.db"
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Catalog.Source != "sqlite" || cfg.Catalog.Path != "/tmp/catalog.db" {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
}
