// Package workspace holds the image set and rule set a user is editing and
// keeps processed outputs in step with them.
//
// Every change to either set re-dispatches a fresh transform of every image's
// original pixels through a pipeline.Pipeline, so edits never compound. A
// background loop applies results, ignoring any that a later change has
// superseded.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ironsheep/color-replace-mcp/internal/export"
	"github.com/ironsheep/color-replace-mcp/internal/imaging"
	"github.com/ironsheep/color-replace-mcp/internal/logging"
	"github.com/ironsheep/color-replace-mcp/internal/pipeline"
	"github.com/ironsheep/color-replace-mcp/internal/replace"
)

// ErrUnknownImage is returned for image IDs not in the workspace.
var ErrUnknownImage = errors.New("unknown image")

// entry is one image in the workspace.
type entry struct {
	id         string
	name       string
	path       string
	source     *imaging.Raster // original pixels, never mutated
	output     *imaging.Raster // latest applied result
	generation uint64          // latest dispatch
	state      pipeline.State
	err        error
}

// ImageStatus describes one image for callers.
type ImageStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Path   string `json:"path,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	State  string `json:"state"`
	Error  string `json:"error,omitempty"`
}

// Status is a snapshot of the whole workspace.
type Status struct {
	Images []ImageStatus   `json:"images"`
	Rules  replace.RuleSet `json:"rules"`
}

// Workspace is safe for concurrent use.
type Workspace struct {
	pipe  *pipeline.Pipeline
	cache *imaging.ImageCache

	mu      sync.Mutex
	changed *sync.Cond
	images  map[string]*entry
	order   []string
	rules   replace.RuleSet
	nextID  int

	done chan struct{}
}

// New creates a workspace driving p and starts its result loop. The
// workspace takes ownership of p and closes it in Close.
func New(p *pipeline.Pipeline) *Workspace {
	w := &Workspace{
		pipe:   p,
		cache:  imaging.NewImageCache(),
		images: make(map[string]*entry),
		rules:  replace.DefaultRules(),
		done:   make(chan struct{}),
	}
	w.changed = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

// Close stops the pipeline and the result loop.
func (w *Workspace) Close() {
	w.pipe.Close()
	<-w.done
}

// ImageCache returns the cache source files are decoded through.
func (w *Workspace) ImageCache() *imaging.ImageCache {
	return w.cache
}

// AddImage decodes the file at path and adds it. name defaults to the file's
// base name. All images are re-dispatched.
func (w *Workspace) AddImage(path, name string) (ImageStatus, error) {
	src, err := w.cache.LoadRaster(path)
	if err != nil {
		return ImageStatus{}, err
	}
	if name == "" {
		name = filepath.Base(path)
	}
	return w.add(name, path, src)
}

// AddRaster adds an already decoded image. The raster is copied.
func (w *Workspace) AddRaster(name string, src *imaging.Raster) (ImageStatus, error) {
	if src == nil {
		return ImageStatus{}, fmt.Errorf("%w: nil raster", imaging.ErrMalformedRaster)
	}
	return w.add(name, "", src.Clone())
}

func (w *Workspace) add(name, path string, src *imaging.Raster) (ImageStatus, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	id := fmt.Sprintf("img-%d", w.nextID)
	w.images[id] = &entry{id: id, name: name, path: path, source: src}
	w.order = append(w.order, id)

	if err := w.dispatchAllLocked(); err != nil {
		delete(w.images, id)
		w.order = w.order[:len(w.order)-1]
		w.pipe.Cancel(id)
		return ImageStatus{}, err
	}
	logging.Logger().Info("image added", "image", id, "name", name, "width", src.Width, "height", src.Height)
	return w.images[id].status(), nil
}

// RemoveImage drops id and abandons its in-flight work. The remaining images
// are re-dispatched.
func (w *Workspace) RemoveImage(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.images[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownImage, id)
	}

	w.pipe.Cancel(id)
	delete(w.images, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	if e.path != "" && !w.pathInUseLocked(e.path) {
		w.cache.Evict(e.path)
	}

	logging.Logger().Info("image removed", "image", id)
	err := w.dispatchAllLocked()
	w.changed.Broadcast()
	return err
}

// SetRules replaces the whole rule set and re-dispatches every image.
func (w *Workspace) SetRules(rules replace.RuleSet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rules = rules.Clone()
	logging.Logger().Info("rules updated", "rules", len(rules))
	return w.dispatchAllLocked()
}

// Rules returns a copy of the current rule set.
func (w *Workspace) Rules() replace.RuleSet {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rules.Clone()
}

// Reset removes every image and restores the default rules.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, id := range w.order {
		w.pipe.Cancel(id)
	}
	w.images = make(map[string]*entry)
	w.order = nil
	w.rules = replace.DefaultRules()
	w.cache.Clear()
	w.changed.Broadcast()

	logging.Logger().Info("workspace reset")
}

// Wait blocks until no image has work outstanding or ctx is done.
func (w *Workspace) Wait(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		w.mu.Lock()
		w.changed.Broadcast()
		w.mu.Unlock()
	})
	defer stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	for w.pendingLocked() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.changed.Wait()
	}
	return nil
}

// Status returns a snapshot of all images in insertion order plus the rules.
func (w *Workspace) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := Status{Images: make([]ImageStatus, 0, len(w.order)), Rules: w.rules.Clone()}
	for _, id := range w.order {
		st.Images = append(st.Images, w.images[id].status())
	}
	return st
}

// Output returns a copy of id's latest processed raster. It fails if the
// image is unknown or its latest dispatch has not completed.
func (w *Workspace) Output(id string) (*imaging.Raster, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.images[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownImage, id)
	}
	switch e.state {
	case pipeline.Completed:
		return e.output.Clone(), nil
	case pipeline.Failed:
		return nil, fmt.Errorf("image %s failed: %w", id, e.err)
	}
	return nil, fmt.Errorf("image %s is still %s", id, e.state)
}

// Export waits for outstanding work, then exports every completed image in
// insertion order. Failed images are skipped and reported by ID.
func (w *Workspace) Export(ctx context.Context) (*export.Artifact, []string, error) {
	if err := w.Wait(ctx); err != nil {
		return nil, nil, err
	}

	w.mu.Lock()
	var items []export.Item
	var skipped []string
	for _, id := range w.order {
		e := w.images[id]
		if e.state != pipeline.Completed {
			skipped = append(skipped, id)
			continue
		}
		items = append(items, export.Item{Name: e.name, Raster: e.output})
	}
	w.mu.Unlock()

	// outputs are replaced, never mutated, so encoding outside the lock is safe
	art, err := export.Export(items)
	if err != nil {
		return nil, skipped, err
	}
	logging.Logger().Info("exported", "name", art.Name, "bytes", len(art.Data), "skipped", len(skipped))
	return art, skipped, nil
}

func (w *Workspace) dispatchAllLocked() error {
	rules := w.rules
	for _, id := range w.order {
		e := w.images[id]
		gen, err := w.pipe.Dispatch(id, e.source, rules)
		if err != nil {
			return fmt.Errorf("dispatch %s: %w", id, err)
		}
		e.generation = gen
		e.state = pipeline.Dispatched
		e.err = nil
	}
	w.changed.Broadcast()
	return nil
}

func (w *Workspace) pendingLocked() int {
	n := 0
	for _, e := range w.images {
		if e.state == pipeline.Dispatched || e.state == pipeline.Running {
			n++
		}
	}
	return n
}

func (w *Workspace) pathInUseLocked(path string) bool {
	for _, e := range w.images {
		if e.path == path {
			return true
		}
	}
	return false
}

// loop applies pipeline results until the pipeline closes.
func (w *Workspace) loop() {
	defer close(w.done)

	for res := range w.pipe.Results() {
		w.apply(res)
	}

	// nothing outstanding can finish once the pipeline is gone
	w.mu.Lock()
	for _, e := range w.images {
		if e.state == pipeline.Dispatched || e.state == pipeline.Running {
			e.state = pipeline.Failed
			e.err = pipeline.ErrClosed
		}
	}
	w.changed.Broadcast()
	w.mu.Unlock()
}

func (w *Workspace) apply(res pipeline.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.images[res.ID]
	if !ok || e.generation != res.Generation || !w.pipe.Current(res.ID, res.Generation) {
		logging.Logger().Debug("ignoring stale result", "image", res.ID, "generation", res.Generation)
		return
	}

	if res.OK() {
		e.output = res.Raster
		e.state = pipeline.Completed
		e.err = nil
	} else {
		e.state = pipeline.Failed
		e.err = res.Err
		logging.Logger().Warn("image processing failed", "image", res.ID, "error", res.Err)
	}
	w.changed.Broadcast()
}

func (e *entry) status() ImageStatus {
	st := ImageStatus{
		ID:     e.id,
		Name:   e.name,
		Path:   e.path,
		Width:  e.source.Width,
		Height: e.source.Height,
		State:  e.state.String(),
	}
	if e.err != nil {
		st.Error = e.err.Error()
	}
	return st
}
