// Command scriptures serves the mapped scripture reader and provides tools
// for inspecting the catalog and resolving location fragments.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
	coreerrors "github.com/FocuswithJustin/ScripturesMapped/core/errors"
	"github.com/FocuswithJustin/ScripturesMapped/internal/config"
	"github.com/FocuswithJustin/ScripturesMapped/internal/fetch"
	"github.com/FocuswithJustin/ScripturesMapped/internal/logging"
	"github.com/FocuswithJustin/ScripturesMapped/internal/markers"
	"github.com/FocuswithJustin/ScripturesMapped/internal/render"
	"github.com/FocuswithJustin/ScripturesMapped/internal/router"
	"github.com/FocuswithJustin/ScripturesMapped/internal/server"
	"github.com/FocuswithJustin/ScripturesMapped/internal/web"
)

const version = "0.1.0"

// stdout is where command output goes.
var stdout io.Writer = os.Stdout

// CLI defines the command-line interface for scriptures.
var CLI struct {
	// Global flags
	Config     string `name:"config" short:"c" help:"YAML configuration file" type:"path" env:"SCRIPTURES_CONFIG"`
	LogLevel   string `name:"log-level" help:"Log level (debug, info, warn, error)" env:"SCRIPTURES_LOG_LEVEL"`
	LogFormat  string `name:"log-format" help:"Log format (text, json)" env:"SCRIPTURES_LOG_FORMAT"`
	CatalogDir string `name:"catalog-dir" help:"Read the catalog from books.json and volumes.json in this directory" type:"path" env:"SCRIPTURES_CATALOG_DIR"`
	CatalogDB  string `name:"catalog-db" help:"Read the catalog from a SQLite snapshot" type:"path" env:"SCRIPTURES_CATALOG_DB"`

	Serve   ServeCmd   `cmd:"" help:"Start the reader web server"`
	Route   RouteCmd   `cmd:"" help:"Resolve a location fragment to a navigation target"`
	Read    ReadCmd    `cmd:"" help:"Navigate to a fragment and print the resulting view"`
	Catalog CatalogCmd `cmd:"" help:"Catalog inspection and snapshots"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// loadConfig applies the config file, then the global flags, and validates.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	if CLI.LogLevel != "" {
		cfg.Log.Level = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		cfg.Log.Format = CLI.LogFormat
	}
	switch {
	case CLI.CatalogDB != "":
		cfg.Catalog.Source = config.SourceSQLite
		cfg.Catalog.Path = CLI.CatalogDB
	case CLI.CatalogDir != "":
		cfg.Catalog.Source = config.SourceFile
		cfg.Catalog.Dir = CLI.CatalogDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.InitLogging()
	return cfg, nil
}

// loadStore reads both catalog feeds and waits for the joined store.
func loadStore(ctx context.Context, cfg *config.Config) (*catalog.Store, error) {
	timeout := cfg.Content.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	src := cfg.CatalogSource(cfg.Getter())
	store, err := catalog.LoadAndWait(ctx, src)
	if err != nil {
		return nil, coreerrors.Wrapf(err, "failed to load catalog from %s", src.Name())
	}
	return store, nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ServeCmd starts the reader web server.
type ServeCmd struct {
	Port    int      `help:"HTTP server port (overrides config)" env:"SCRIPTURES_PORT"`
	Origins []string `help:"Allowed WebSocket origins (overrides config)" env:"SCRIPTURES_ALLOWED_ORIGINS"`
}

func (c *ServeCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if len(c.Origins) > 0 {
		cfg.Server.AllowedOrigins = c.Origins
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	getter := cfg.Getter()
	srv := web.New(web.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MessageRate:    cfg.Server.MessageRate,
		MessageBurst:   cfg.Server.MessageBurst,
		MaxMessageSize: cfg.Server.MaxMessageSize,
	}, cfg.Fetcher(getter))

	src := cfg.CatalogSource(getter)
	logging.Info("loading catalog", "source", src.Name())
	srv.LoadCatalog(ctx, src)

	return srv.ListenAndServe(ctx)
}

// RouteCmd resolves a fragment without fetching anything.
type RouteCmd struct {
	Fragment string `arg:"" optional:"" help:"Location fragment, e.g. '#0:101:3'"`
	JSON     bool   `help:"Output as JSON"`
}

func (c *RouteCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := loadStore(context.Background(), cfg)
	if err != nil {
		return err
	}

	target := router.Resolve(store, c.Fragment)
	if c.JSON {
		return writeJSON(target)
	}
	fmt.Fprintln(stdout, target.String())
	return nil
}

// ReadCmd navigates to a fragment and prints the view that results.
type ReadCmd struct {
	Fragment string `arg:"" optional:"" help:"Location fragment, e.g. '#0:101:3'"`
	JSON     bool   `help:"Output as JSON"`
}

// readResult is the JSON output of ReadCmd.
type readResult struct {
	Target  router.Target    `json:"target"`
	View    render.Frame     `json:"view"`
	Markers []markers.Marker `json:"markers,omitempty"`
}

// failureTap reports fetch failures to the command, which would otherwise
// only see them in the log.
type failureTap struct {
	router.ContentFetcher
	failed chan error
}

func (f failureTap) FetchChapter(ctx context.Context, req fetch.Request, onContent func(fetch.Content), onFailure func(error)) {
	f.ContentFetcher.FetchChapter(ctx, req, onContent, func(err error) {
		onFailure(err)
		select {
		case f.failed <- err:
		default:
		}
	})
}

// renderTap reports render failures to the command. A failed render
// publishes no frame.
type renderTap struct {
	router.Renderer
	failed chan error
}

func (r renderTap) report(err error) error {
	if err != nil {
		select {
		case r.failed <- err:
		default:
		}
	}
	return err
}

func (r renderTap) Home(volumes []*catalog.Volume) error {
	return r.report(r.Renderer.Home(volumes))
}

func (r renderTap) Volume(volume *catalog.Volume) error {
	return r.report(r.Renderer.Volume(volume))
}

func (r renderTap) Book(book *catalog.Book, chapters []int) error {
	return r.report(r.Renderer.Book(book, chapters))
}

func (r renderTap) Chapter(view router.ChapterView) error {
	return r.report(r.Renderer.Chapter(view))
}

type markerRecorder struct {
	markers []markers.Marker
}

func (m *markerRecorder) SetMarkers(ms []markers.Marker) { m.markers = ms }

func (c *ReadCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := loadStore(ctx, cfg)
	if err != nil {
		return err
	}

	getter := cfg.Getter()
	tap := failureTap{ContentFetcher: cfg.Fetcher(getter), failed: make(chan error, 1)}
	frames := make(chan render.Frame, 1)
	html, err := render.New(render.PublisherFunc(func(f render.Frame) {
		select {
		case frames <- f:
		default:
		}
	}))
	if err != nil {
		return err
	}

	loop := router.NewLoop(8)
	sink := &markerRecorder{}
	rt := router.New(tap, renderTap{Renderer: html, failed: tap.failed}, sink, loop.Executor())
	go loop.Run(ctx)
	defer loop.Stop()

	targets := make(chan router.Target, 1)
	loop.Post(func() {
		rt.SetStore(store)
		target, _ := rt.Navigate(ctx, c.Fragment)
		targets <- target
	})
	target := <-targets

	var frame render.Frame
	select {
	case frame = <-frames:
	case err := <-tap.failed:
		return fmt.Errorf("%s: %w", target, err)
	case <-ctx.Done():
		return ctx.Err()
	}

	// Markers are set on the loop right after the chapter frame.
	done := make(chan []markers.Marker, 1)
	loop.Post(func() { done <- sink.markers })
	result := readResult{Target: target, View: frame, Markers: <-done}

	if c.JSON {
		return writeJSON(result)
	}
	fmt.Fprintf(stdout, "%s\n\n%s\n", frame.Title, frame.HTML)
	if len(result.Markers) > 0 {
		fmt.Fprintln(stdout)
		for _, m := range result.Markers {
			fmt.Fprintf(stdout, "  %s (%.4f, %.4f)\n", m.Label(), m.Latitude, m.Longitude)
		}
	}
	return nil
}

// CatalogCmd groups catalog operations.
type CatalogCmd struct {
	List     CatalogListCmd     `cmd:"" help:"List volumes and their books"`
	Snapshot CatalogSnapshotCmd `cmd:"" help:"Save the catalog to a SQLite snapshot"`
}

// CatalogListCmd lists volumes and books.
type CatalogListCmd struct {
	JSON bool `help:"Output as JSON"`
}

type volumeListing struct {
	*catalog.Volume
	Books []*catalog.Book `json:"books"`
}

func (c *CatalogListCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := loadStore(context.Background(), cfg)
	if err != nil {
		return err
	}

	if c.JSON {
		var out []volumeListing
		for _, v := range store.Volumes() {
			out = append(out, volumeListing{Volume: v, Books: v.Books})
		}
		return writeJSON(out)
	}

	for _, v := range store.Volumes() {
		fmt.Fprintf(stdout, "%d  %s (books %d-%d)\n", v.ID, v.FullName, v.MinBookID, v.MaxBookID)
		for _, b := range v.Books {
			fmt.Fprintf(stdout, "    %-5d %-30s %s\n", b.ID, b.FullName, chapterCount(b))
		}
	}
	for _, fault := range store.Faults() {
		fmt.Fprintf(stdout, "warning: %v\n", fault)
	}
	return nil
}

func chapterCount(b *catalog.Book) string {
	switch b.NumChapters {
	case 0:
		return "no chapters"
	case 1:
		return "1 chapter"
	}
	return fmt.Sprintf("%d chapters", b.NumChapters)
}

// CatalogSnapshotCmd writes the catalog to a SQLite database that can later
// be served with --catalog-db.
type CatalogSnapshotCmd struct {
	Out string `arg:"" help:"Output database path" type:"path"`
}

func (c *CatalogSnapshotCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := loadStore(ctx, cfg)
	if err != nil {
		return err
	}
	if err := catalog.WriteSnapshot(ctx, c.Out, store); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d books and %d volumes to %s\n",
		len(store.Books()), len(store.Volumes()), server.AbsPath(c.Out))
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "scriptures version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("scriptures"),
		kong.Description("The Scriptures, Mapped - reader server and catalog tools"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
