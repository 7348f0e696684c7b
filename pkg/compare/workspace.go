package compare

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgcompare/pkg/buildinfo"
	"github.com/matzehuels/pkgcompare/pkg/config"
	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	"github.com/matzehuels/pkgcompare/pkg/httputil"
	"github.com/matzehuels/pkgcompare/pkg/integrations"
	"github.com/matzehuels/pkgcompare/pkg/integrations/bundlephobia"
	"github.com/matzehuels/pkgcompare/pkg/integrations/downloads"
	"github.com/matzehuels/pkgcompare/pkg/integrations/npm"
	"github.com/matzehuels/pkgcompare/pkg/notify"
	"github.com/matzehuels/pkgcompare/pkg/panel"
	"github.com/matzehuels/pkgcompare/pkg/record"
	"github.com/matzehuels/pkgcompare/pkg/search"
	"github.com/matzehuels/pkgcompare/pkg/selection"
)

// Options configures a Workspace.
type Options struct {
	// Config supplies upstream URLs and tuning. The zero value is replaced
	// by config.Default().
	Config config.Config

	// Transport overrides the DNS-caching base transport. The circuit
	// breaker, when enabled, still wraps it.
	Transport http.RoundTripper

	// Clock overrides "today" for the downloads range.
	Clock func() time.Time

	Logger *log.Logger
}

// Workspace is one comparison session. It is safe for concurrent use.
type Workspace struct {
	cfg    config.Config
	logger *log.Logger

	transport *httputil.Transport
	breakers  *httputil.Breakers

	registry    *npm.Client
	notices     *notify.Center
	selection   *selection.Manager
	suggestions *search.Suggestions

	size      *panel.SizePanel
	versions  *panel.VersionPanel
	downloads *panel.DownloadsPanel

	cancel  context.CancelFunc
	unbinds []func()
}

// New builds a workspace and binds its panels to an empty selection.
// Panel batches run under a context derived from ctx and cancelled by
// [Workspace.Close].
func New(ctx context.Context, opts Options) (*Workspace, error) {
	cfg := opts.Config
	if cfg == (config.Config{}) {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	w := &Workspace{cfg: cfg, logger: logger}

	base := opts.Transport
	if base == nil {
		w.transport = httputil.NewTransport()
		base = w.transport
	}
	if cfg.CircuitBreaker {
		w.breakers = httputil.NewBreakers()
		base = w.breakers.Wrap(base)
	}
	shared := integrations.NewClient(
		integrations.NewHTTPClient(cfg.HTTPTimeout, base),
		map[string]string{"User-Agent": buildinfo.UserAgent()},
	)

	w.registry = npm.NewClient(shared, cfg.RegistryURL)
	sizes := bundlephobia.NewClient(shared, cfg.BundleURL)
	counts := downloads.NewClient(shared, cfg.DownloadsURL,
		downloads.WithStart(cfg.DownloadsStart),
		downloads.WithClock(opts.Clock),
	)

	w.notices = notify.NewCenter(cfg.NotificationLimit, logger)
	w.selection = selection.NewManager()
	w.suggestions = search.New(w.registry, w.notices, logger)

	popts := panel.Options{
		Concurrency: cfg.Concurrency,
		Reuse:       cfg.ReuseResults,
		MemoSize:    panel.DefaultMemoSize,
		Notifier:    w.notices,
		Logger:      logger,
	}
	w.size = panel.NewSize(sizes, popts)
	w.versions = panel.NewVersions(w.registry, popts)
	w.downloads = panel.NewDownloads(counts, popts)

	ctx, w.cancel = context.WithCancel(ctx)
	w.unbinds = []func(){
		w.size.Bind(ctx, w.selection),
		w.versions.Bind(ctx, w.selection),
		w.downloads.Bind(ctx, w.selection),
	}
	return w, nil
}

// Config returns the resolved configuration.
func (w *Workspace) Config() config.Config { return w.cfg }

// Notifications returns the workspace's notification center.
func (w *Workspace) Notifications() *notify.Center { return w.notices }

// Selection returns the workspace's selection.
func (w *Workspace) Selection() *selection.Manager { return w.selection }

// Search replaces the suggestion list with the first page for q.
func (w *Workspace) Search(ctx context.Context, q string) error {
	return w.suggestions.Query(ctx, q)
}

// MoreSuggestions appends the next page of the current query.
func (w *Workspace) MoreSuggestions(ctx context.Context) error {
	return w.suggestions.More(ctx)
}

// ClearSuggestions empties the suggestion list.
func (w *Workspace) ClearSuggestions() { w.suggestions.Clear() }

// Suggestions returns the current suggestion list.
func (w *Workspace) Suggestions() search.State { return w.suggestions.State() }

// Select fetches the registry details of name and adds the package to the
// comparison. On failure a "Failed to fetch package" notification is
// published, the selection is unchanged and the error is returned.
func (w *Workspace) Select(ctx context.Context, name string) (*record.PackageRecord, error) {
	start := time.Now()
	rec, err := w.registry.FetchPackage(ctx, name)
	if err != nil {
		ferr := &pkgerrors.PackageFetchError{Package: name, Dimension: string(record.DimensionPackage), Err: err}
		w.notices.Error(ferr)
		return nil, ferr
	}
	w.selection.Add(*rec)
	w.logger.Debug("package selected", "package", name, "version", rec.Version, "duration", time.Since(start))
	return rec, nil
}

// Remove drops name from the comparison.
func (w *Workspace) Remove(name string) {
	w.selection.Remove(name)
	w.logger.Debug("package removed", "package", name)
}

// RefetchSize re-fetches the bundle size of one selected package. It
// reports false when a re-fetch for the package is already running.
func (w *Workspace) RefetchSize(ctx context.Context, name string) (bool, error) {
	return w.size.RefetchOne(ctx, name)
}

// Panel returns the state of the panel for dim.
func (w *Workspace) Panel(dim record.Dimension) (panel.State, bool) {
	switch dim {
	case record.DimensionSize:
		return w.size.State(), true
	case record.DimensionVersion:
		return w.versions.State(), true
	case record.DimensionDownloads:
		return w.downloads.State(), true
	}
	return panel.State{}, false
}

// OnPanelChange registers fn with all three panels.
func (w *Workspace) OnPanelChange(fn func(panel.State)) {
	w.size.OnChange(fn)
	w.versions.OnChange(fn)
	w.downloads.OnChange(fn)
}

// Health returns the circuit state per upstream host. It is empty when the
// breaker is disabled or no request has been made.
func (w *Workspace) Health() map[string]string {
	if w.breakers == nil {
		return map[string]string{}
	}
	return w.breakers.State()
}

// Wait blocks until every panel batch started so far has settled.
func (w *Workspace) Wait() {
	w.size.Wait()
	w.versions.Wait()
	w.downloads.Wait()
}

// Report returns a snapshot of the selection and all three panels.
func (w *Workspace) Report() Report {
	return Report{
		GeneratedAt: time.Now().UTC(),
		Packages:    w.selection.Records(),
		Size:        w.size.State(),
		Versions:    w.versions.State(),
		Downloads:   w.downloads.State(),
	}
}

// Close unbinds the panels, cancels running batches and releases the
// HTTP transport.
func (w *Workspace) Close() {
	for _, unbind := range w.unbinds {
		unbind()
	}
	w.cancel()
	if w.transport != nil {
		w.transport.Close()
	}
}
