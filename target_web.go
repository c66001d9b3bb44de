package nimsforestpdfviewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"image/png"
	"net/http"
	"strconv"
	"sync"
)

// WebTarget serves the viewer via HTTP for web browsers. It exposes the
// view state as JSON at /api/viewstate, accepts bound values and actions,
// and serves the latest committed frame as PNG.
type WebTarget struct {
	addr     string
	server   *http.Server
	viewer   *Viewer
	bindings *Bindings
	frame    *Frame
	mu       sync.RWMutex
	webDir   string // Optional directory with static web assets
	started  bool
}

// WebOption configures a WebTarget.
type WebOption func(*WebTarget)

// WithWebDir sets the directory containing static web assets.
func WithWebDir(dir string) WebOption {
	return func(t *WebTarget) {
		t.webDir = dir
	}
}

// NewWebTarget creates a target that serves v via HTTP on addr.
func NewWebTarget(addr string, v *Viewer, opts ...WebOption) (*WebTarget, error) {
	if v == nil {
		return nil, errors.New("web target needs a viewer")
	}
	target := &WebTarget{
		addr:     addr,
		viewer:   v,
		bindings: NewBindings(v),
	}

	for _, opt := range opts {
		opt(target)
	}

	return target, nil
}

// Name implements Target.
func (t *WebTarget) Name() string {
	return fmt.Sprintf("WebTarget(%s)", t.addr)
}

// Update implements Target.
func (t *WebTarget) Update(ctx context.Context, frame *Frame) error {
	t.mu.Lock()
	t.frame = frame
	wasStarted := t.started
	t.mu.Unlock()

	// Auto-start server on first update
	if !wasStarted {
		return t.start()
	}
	return nil
}

// Handler returns the HTTP handler for embedding in existing servers.
func (t *WebTarget) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/viewstate", t.handleGetViewState)
	mux.HandleFunc("POST /api/viewstate", t.handleSetViewState)
	mux.HandleFunc("POST /api/action/{name}", t.handleAction)
	mux.HandleFunc("GET /api/frame.png", t.handleFrame)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if t.webDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(t.webDir)))
	} else {
		mux.HandleFunc("/", t.handleIndex)
	}

	return mux
}

func (t *WebTarget) writeState(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(SnapshotToJSON(t.viewer.Snapshot(), t.viewer.Source()))
}

func (t *WebTarget) handleGetViewState(w http.ResponseWriter, r *http.Request) {
	t.writeState(w, http.StatusOK)
}

// handleSetViewState applies a JSON object of field to value. Fields are
// applied in a fixed order so that dimensions are known before offsets.
func (t *WebTarget) handleSetViewState(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("decode body: %v", err), http.StatusBadRequest)
		return
	}
	if v, ok := body["source"].(string); ok {
		if err := t.viewer.SetSource(v).Wait(r.Context()); err != nil {
			t.writeError(w, err)
			return
		}
	}

	var results []*Result
	for _, f := range Fields() {
		if v, ok := body[string(f)]; ok {
			results = append(results, t.bindings.Set(f, v))
		}
	}
	for _, res := range results {
		if err := res.Wait(r.Context()); err != nil {
			t.writeError(w, err)
			return
		}
	}
	t.writeState(w, http.StatusOK)
}

func (t *WebTarget) handleAction(w http.ResponseWriter, r *http.Request) {
	var speed []float64
	if s := r.URL.Query().Get("speed"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("bad speed %q", s), http.StatusBadRequest)
			return
		}
		speed = append(speed, f)
	}

	v := t.viewer
	var res *Result
	switch r.PathValue("name") {
	case "next":
		res = v.NextPage()
	case "previous":
		res = v.PreviousPage()
	case "zoomIn":
		res = v.ZoomIn(speed...)
	case "zoomOut":
		res = v.ZoomOut(speed...)
	case "panLeft":
		res = v.PanLeft(speed...)
	case "panRight":
		res = v.PanRight(speed...)
	case "panUp":
		res = v.PanUp(speed...)
	case "panDown":
		res = v.PanDown(speed...)
	case "rotateLeft":
		res = v.RotateLeft(speed...)
	case "rotateRight":
		res = v.RotateRight(speed...)
	case "cancel":
		res = v.CancelLoad()
	case "load":
		res = v.LoadDocument(r.URL.Query().Get("url"))
	default:
		http.NotFound(w, r)
		return
	}
	if err := res.Wait(r.Context()); err != nil {
		t.writeError(w, err)
		return
	}
	t.writeState(w, http.StatusOK)
}

func (t *WebTarget) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if IsCancelled(err) {
		status = http.StatusConflict
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	http.Error(w, err.Error(), status)
}

func (t *WebTarget) handleFrame(w http.ResponseWriter, r *http.Request) {
	t.mu.RLock()
	frame := t.frame
	t.mu.RUnlock()

	if frame == nil || frame.Image == nil {
		http.Error(w, "no frame rendered yet", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.Image); err != nil {
		http.Error(w, fmt.Sprintf("encode frame: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (t *WebTarget) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap := t.viewer.Snapshot()
	source := t.viewer.Source()
	if source == "" {
		source = "none"
	}

	w.Header().Set("Content-Type", "text/html")

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>nimsforestpdfviewer</title>
    <style>
        body { font-family: system-ui; background: #1a1a2e; color: #eee; padding: 2rem; }
        h1 { color: #4ade80; }
        .info { background: #16213e; padding: 1rem; border-radius: 8px; margin: 1rem 0; }
        a { color: #60a5fa; }
        img { max-width: 100%%; border: 1px solid #333; }
    </style>
</head>
<body>
    <h1>nimsforestpdfviewer</h1>
    <div class="info">
        <p><strong>Document:</strong> %s</p>
        <p><strong>Page:</strong> %d / %d</p>
        <p><strong>API:</strong> <a href="/api/viewstate">/api/viewstate</a></p>
    </div>
    <img src="/api/frame.png" alt="current page">
</body>
</html>`, html.EscapeString(source), snap.Committed.Page, snap.Total)

	w.Write([]byte(page))
}

func (t *WebTarget) start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}

	t.server = &http.Server{
		Addr:    t.addr,
		Handler: t.Handler(),
	}

	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger().Warn("web target stopped", "addr", t.addr, "err", err)
		}
	}()

	t.started = true
	return nil
}

// Close implements Target.
func (t *WebTarget) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.server != nil {
		return t.server.Shutdown(context.Background())
	}
	return nil
}

// URL returns the URL where the web target is serving.
func (t *WebTarget) URL() string {
	return "http://localhost" + t.addr
}
