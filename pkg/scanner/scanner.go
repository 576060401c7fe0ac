// Package scanner discovers wallpaper candidates under a set of directories
// and streams decoded thumbnails back to the caller.
package scanner

import (
	"context"
	"image"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/dixieflatline76/Canvaz/pkg/decode"
	"github.com/dixieflatline76/Canvaz/util"
	"github.com/dixieflatline76/Canvaz/util/log"
)

// DefaultThumbnailSize is the bounding box thumbnails are fitted into.
var DefaultThumbnailSize = image.Pt(320, 240)

// Decoder produces thumbnails. *decode.Decoder satisfies it.
type Decoder interface {
	DecodeThumbnail(path string, bound image.Point) (image.Image, error)
}

// Result is one discovered wallpaper candidate.
type Result struct {
	Path      string      // Absolute path of the source file
	Thumbnail image.Image // Decoded, fitted inside the requested bound
	Name      string      // Base file name, for display
}

// Scan is a single traversal request. Results arrive on Results in discovery
// order; Results is closed and then Done is closed when the traversal ends,
// whether it ran to completion or was cancelled. A Scan cannot be restarted.
type Scan struct {
	roots   []string
	bound   image.Point
	results chan Result
	done    chan struct{}

	stop       *util.SafeFlag
	stopCh     chan struct{}
	finishOnce sync.Once
	found      *util.SafeCounter
}

func newScan(roots []string, bound image.Point) *Scan {
	return &Scan{
		roots:   roots,
		bound:   bound,
		results: make(chan Result, 32),
		done:    make(chan struct{}),
		stop:    util.NewSafeFlag(),
		stopCh:  make(chan struct{}),
		found:   util.NewSafeCounter(),
	}
}

// Results returns the stream of decoded candidates.
func (s *Scan) Results() <-chan Result {
	return s.results
}

// Done is closed once the scan has finished or unwound after Cancel.
func (s *Scan) Done() <-chan struct{} {
	return s.done
}

// Cancel asks the worker to stop. It is safe to call more than once and from
// any goroutine. Results already queued stay readable.
func (s *Scan) Cancel() {
	if s.stop.Raise() {
		close(s.stopCh)
	}
}

// Cancelled reports whether Cancel has been called.
func (s *Scan) Cancelled() bool {
	return s.stop.Value()
}

// Count returns the number of results emitted so far.
func (s *Scan) Count() int {
	return s.found.Value()
}

// Roots returns the deduplicated absolute roots this scan walks.
func (s *Scan) Roots() []string {
	return append([]string(nil), s.roots...)
}

func (s *Scan) finish() {
	s.finishOnce.Do(func() {
		close(s.results)
		close(s.done)
	})
}

// Scanner owns the single background worker that executes scans one at a
// time. Start it once and Stop it at shutdown.
type Scanner struct {
	dec      Decoder
	wake     chan struct{}
	workerWg sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	pending *Scan // latest queued scan, replaced by each new Scan
	current *Scan
	started bool
	stopped bool
}

// New creates a Scanner that decodes with dec. Call Start before Scan.
func New(dec Decoder) *Scanner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scanner{
		dec:     dec,
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker. Calling it again is a no-op.
func (sc *Scanner) Start() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.started || sc.stopped {
		return
	}
	sc.started = true
	sc.workerWg.Add(1)
	go sc.workerLoop()
}

// Stop cancels the active scan, shuts the worker down and waits for it.
// A scan still queued is completed without running.
func (sc *Scanner) Stop() {
	sc.mu.Lock()
	if sc.stopped {
		sc.mu.Unlock()
		return
	}
	sc.stopped = true
	if sc.current != nil {
		sc.current.Cancel()
	}
	pending := sc.pending
	sc.pending = nil
	sc.cancel()
	sc.mu.Unlock()

	if pending != nil {
		pending.Cancel()
		pending.finish()
	}
	sc.workerWg.Wait()
	log.Debugf("Scanner stopped")
}

// Scan queues a traversal of roots and never blocks. A scan already in
// flight is cancelled first and a queued one is replaced, so at most one
// scan runs at a time. Roots are made absolute and deduplicated; an empty
// roots list yields an already-finished Scan, so callers should substitute
// a default directory beforehand.
func (sc *Scanner) Scan(roots []string, bound image.Point) *Scan {
	s := newScan(dedupeRoots(roots), bound)

	sc.mu.Lock()
	if sc.stopped || len(s.roots) == 0 || bound.X <= 0 || bound.Y <= 0 {
		sc.mu.Unlock()
		s.finish()
		return s
	}
	if sc.current != nil {
		sc.current.Cancel()
	}
	replaced := sc.pending
	sc.pending = s
	sc.mu.Unlock()

	// A queued scan that never started is superseded outright.
	if replaced != nil {
		replaced.Cancel()
		replaced.finish()
	}
	select {
	case sc.wake <- struct{}{}:
	default:
	}
	return s
}

func (sc *Scanner) workerLoop() {
	defer sc.workerWg.Done()
	log.Debugf("Scanner worker started")

	for {
		select {
		case <-sc.ctx.Done():
			log.Debugf("Scanner worker stopping")
			return
		case <-sc.wake:
			if s := sc.next(); s != nil {
				sc.run(s)
			}
		}
	}
}

// run walks every root of s. The stop flag is checked on entry to each
// directory and before each file is decoded.
func (sc *Scanner) run(s *Scan) {
	defer s.finish()
	defer sc.clearCurrent(s)

	for _, root := range s.roots {
		if s.Cancelled() {
			break
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if s.Cancelled() {
				return filepath.SkipAll
			}
			if err != nil {
				// Unreadable directory or vanished file: skip it, keep walking.
				log.Debugf("Scanner: skipping %s: %v", path, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			// WalkDir never descends through symlinked directories; symlinked
			// files are skipped too.
			if !d.Type().IsRegular() || !decode.IsSupported(path) {
				return nil
			}
			return sc.emit(s, path, d.Name())
		})
		if err != nil {
			log.Debugf("Scanner: walk of %s ended: %v", root, err)
		}
	}

	if s.Cancelled() {
		log.Debugf("Scanner: cancelled after %d results", s.Count())
	} else {
		log.Debugf("Scanner: finished with %d results", s.Count())
	}
}

func (sc *Scanner) emit(s *Scan, path, name string) error {
	img, err := sc.dec.DecodeThumbnail(path, s.bound)
	if err != nil || img == nil {
		log.Debugf("Scanner: could not decode %s: %v", path, err)
		return nil
	}

	select {
	case s.results <- Result{Path: path, Thumbnail: img, Name: name}:
		s.found.Increment()
		return nil
	case <-s.stopCh:
		return filepath.SkipAll
	case <-sc.ctx.Done():
		return filepath.SkipAll
	}
}

// next promotes the pending scan to current.
func (sc *Scanner) next() *Scan {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	s := sc.pending
	sc.pending = nil
	if s != nil {
		sc.current = s
	}
	return s
}

func (sc *Scanner) clearCurrent(s *Scan) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.current == s {
		sc.current = nil
	}
}

func dedupeRoots(roots []string) []string {
	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if r == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			abs = filepath.Clean(r)
		}
		// A root may itself be a link; its target is walked, links below it are not.
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out
}
