// Package player owns a single media element and sequences playback over
// the episode list loaded by the client: play/pause, seeking, repeat and
// shuffle, and automatic advance at end of media.
package player

import (
	"log/slog"
	"math/rand"
	"sync"
)

// State of the controller. Readiness is event-driven: after a load the
// controller sits in StateLoading until the media element reports ready.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReadyPaused
	StateReadyPlaying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReadyPaused:
		return "ready-paused"
	case StateReadyPlaying:
		return "ready-playing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MediaElement is the playback backend the controller drives. Implementations
// report readiness, end of media and failures back through the controller's
// Handle* callbacks.
type MediaElement interface {
	SetSource(url string)
	Play() error
	Pause() error
	Seek(seconds float64)
}

// Track is one playable entry in the controller's queue.
type Track struct {
	ID       string
	Title    string
	AudioURL string
}

type Controller struct {
	mu     sync.Mutex
	media  MediaElement
	logger *slog.Logger
	randN  func(n int) int

	state    State
	queue    []Track
	index    int
	position float64
	duration float64
	repeat   bool
	shuffle  bool
	lastErr  error

	// pendingAutoplay marks a load triggered by next/previous/repeat or
	// end-of-media advance; playback starts as soon as the media is ready.
	pendingAutoplay bool
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithRandIntn overrides the random source used by shuffle selection.
func WithRandIntn(randN func(n int) int) Option {
	return func(c *Controller) {
		c.randN = randN
	}
}

func NewController(media MediaElement, opts ...Option) *Controller {
	c := &Controller{
		media:  media,
		logger: slog.Default(),
		randN:  rand.Intn,
		index:  -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetQueue replaces the sequencing list. The currently loaded track keeps
// playing; its index is re-resolved against the new list, or detached when
// the track is gone.
func (c *Controller) SetQueue(tracks []Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var currentID string
	if c.index >= 0 && c.index < len(c.queue) {
		currentID = c.queue[c.index].ID
	}
	c.queue = make([]Track, len(tracks))
	copy(c.queue, tracks)
	c.index = -1
	for i, t := range c.queue {
		if currentID != "" && t.ID == currentID {
			c.index = i
			break
		}
	}
}

// Load starts playing the queue entry at i from the beginning. Play must
// wait for the ready event; until then the controller is loading.
func (c *Controller) Load(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(i, false)
}

func (c *Controller) load(i int, autoplay bool) {
	if i < 0 || i >= len(c.queue) {
		return
	}
	c.index = i
	c.position = 0
	c.duration = 0
	c.lastErr = nil
	c.pendingAutoplay = autoplay
	c.state = StateLoading
	c.media.SetSource(c.queue[i].AudioURL)
}

// Play is a no-op unless a loaded track is paused. In particular it does
// nothing while the media is still loading.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReadyPaused {
		return
	}
	c.startPlayback()
}

// startPlayback is fire-and-forget: the playing flag flips optimistically
// and element failures are only logged.
func (c *Controller) startPlayback() {
	if err := c.media.Play(); err != nil {
		c.logger.Warn("media play failed", slog.String("error", err.Error()))
	}
	c.state = StateReadyPlaying
}

func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReadyPlaying {
		return
	}
	if err := c.media.Pause(); err != nil {
		c.logger.Warn("media pause failed", slog.String("error", err.Error()))
	}
	c.state = StateReadyPaused
}

// Seek clamps t to [0, duration]. Only valid once the media is ready.
func (c *Controller) Seek(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReadyPaused && c.state != StateReadyPlaying {
		return
	}
	if t < 0 {
		t = 0
	}
	if c.duration > 0 && t > c.duration {
		t = c.duration
	}
	c.position = t
	c.media.Seek(t)
}

func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(1)
}

func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(-1)
}

// advance moves the current index by step, or to a random other entry when
// shuffle is on. Boundary moves and single-entry shuffles are no-ops.
func (c *Controller) advance(step int) {
	next, ok := c.nextIndex(step)
	if !ok {
		return
	}
	c.load(next, true)
}

func (c *Controller) nextIndex(step int) (int, bool) {
	if len(c.queue) == 0 || c.index < 0 {
		return 0, false
	}
	if c.shuffle {
		if len(c.queue) <= 1 {
			return 0, false
		}
		// Uniform over all entries except the current one.
		n := c.randN(len(c.queue) - 1)
		if n >= c.index {
			n++
		}
		return n, true
	}
	next := c.index + step
	if next < 0 || next >= len(c.queue) {
		return 0, false
	}
	return next, true
}

func (c *Controller) SetRepeat(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repeat = on
}

func (c *Controller) SetShuffle(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffle = on
}

// HandleReady is called by the media element once the loaded source is
// playable. Advance-triggered loads start playing immediately; user loads
// wait paused at position 0.
func (c *Controller) HandleReady(duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoading {
		return
	}
	c.duration = duration
	if c.pendingAutoplay {
		c.pendingAutoplay = false
		c.startPlayback()
		return
	}
	c.state = StateReadyPaused
}

// HandleEnded is called at end of media. Repeat restarts the same track;
// otherwise the controller advances when a next entry exists, or parks
// paused at the end position.
func (c *Controller) HandleEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReadyPlaying {
		return
	}
	if c.repeat {
		c.position = 0
		c.media.Seek(0)
		c.startPlayback()
		return
	}
	if next, ok := c.nextIndex(1); ok {
		c.load(next, true)
		return
	}
	c.position = c.duration
	c.state = StateReadyPaused
}

// HandleError marks the controller failed. The error is kept for the UI;
// playback state is torn down but the queue survives.
func (c *Controller) HandleError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	c.state = StateFailed
	c.pendingAutoplay = false
	c.logger.Warn("media element error", slog.String("error", err.Error()))
}

// HandleProgress records the element's playback position.
func (c *Controller) HandleProgress(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReadyPlaying && c.state != StateReadyPaused {
		return
	}
	if t < 0 {
		t = 0
	}
	if c.duration > 0 && t > c.duration {
		t = c.duration
	}
	c.position = t
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the loaded track, or false when nothing is loaded.
func (c *Controller) Current() (Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index < 0 || c.index >= len(c.queue) {
		return Track{}, false
	}
	return c.queue[c.index], true
}

func (c *Controller) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *Controller) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

func (c *Controller) Repeat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repeat
}

func (c *Controller) Shuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shuffle
}

func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
