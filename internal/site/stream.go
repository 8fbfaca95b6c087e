package site

import (
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wangQuinn/portfolio/internal/effects/starfield"
	"github.com/wangQuinn/portfolio/internal/effects/tesseract"
	"github.com/wangQuinn/portfolio/internal/frame"
	"github.com/wangQuinn/portfolio/internal/typewriter"
)

const (
	effectStarfield = "starfield"
	effectTesseract = "tesseract"

	defaultEffectWidth  = 800
	defaultEffectHeight = 600
	maxEffectSide       = 4096
)

// latest is a one-slot mailbox: a slow reader only ever sees the newest value.
// It assumes a single producer.
type latest[T any] struct {
	ch chan T
}

func newLatest[T any]() *latest[T] {
	return &latest[T]{ch: make(chan T, 1)}
}

func (l *latest[T]) put(v T) {
	select {
	case l.ch <- v:
		return
	default:
	}
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

// streamTypewriter runs one typewriter for the lifetime of the request and
// sends every frame as an SSE "frame" event. Closing the connection stops the
// runner; a run-once typewriter ends the stream when it completes.
func (s *Server) streamTypewriter(c *gin.Context) {
	idx := s.portfolio.Index(c.Param("section"))
	if idx < 0 {
		c.String(http.StatusNotFound, "no such section")
		return
	}
	sec := s.portfolio.Sections[idx]

	var cfg typewriter.Config
	switch c.Param("slot") {
	case "heading":
		cfg = sec.HeadingTypewriter()
	case "tagline":
		cfg = sec.TaglineTypewriter()
	default:
		c.String(http.StatusNotFound, "no such typewriter")
		return
	}
	if len(cfg.Texts) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	frames := newLatest[typewriter.Frame]()
	runner := typewriter.NewRunner(typewriter.New(cfg), s.typing, frames.put)
	initial := runner.Frame()
	runner.Start()
	defer runner.Stop()

	sseHeaders(c)
	c.SSEvent("frame", initial)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case f := <-frames.ch:
			c.SSEvent("frame", f)
			c.Writer.Flush()
			if f.Complete {
				return
			}
		}
	}
}

type starfieldFrame struct {
	Stars []starfield.Star `json:"stars"`
}

type tesseractFrame struct {
	Theta    float64             `json:"theta"`
	Segments []tesseract.Segment `json:"segments"`
}

// streamEffect runs an effect on a frame loop and streams its frames. The
// first event, "stream", carries the id used to report page visibility.
func (s *Server) streamEffect(c *gin.Context) {
	width := dimension(c.Query("w"), defaultEffectWidth)
	height := dimension(c.Query("h"), defaultEffectHeight)

	var step func(now time.Duration) any
	switch c.Param("name") {
	case effectStarfield:
		field := starfield.New(s.cfg.Effects.Stars, rand.New(rand.NewSource(time.Now().UnixNano())))
		step = func(now time.Duration) any {
			field.Update(now)
			return starfieldFrame{Stars: field.Frame(float64(width), float64(height))}
		}
	case effectTesseract:
		var spin tesseract.Spinner
		step = func(time.Duration) any {
			theta := spin.Advance()
			return tesseractFrame{
				Theta:    theta,
				Segments: tesseract.Segments(theta, float64(width)/2, float64(height)/2, tesseract.DefaultSize),
			}
		}
	default:
		c.String(http.StatusNotFound, "no such effect")
		return
	}

	frames := newLatest[any]()
	loop := frame.NewLoop(s.frames(), func(now time.Duration) { frames.put(step(now)) })
	id := s.streams.add(loop)
	defer s.streams.remove(id)

	loop.Start()
	defer loop.Stop()

	sseHeaders(c)
	c.SSEvent("stream", gin.H{"id": id})
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case f := <-frames.ch:
			c.SSEvent("frame", f)
			c.Writer.Flush()
		}
	}
}

// effectVisibility pauses or resumes a running effect stream when the page
// is hidden or shown.
func (s *Server) effectVisibility(c *gin.Context) {
	loop, ok := s.streams.get(c.PostForm("stream"))
	if !ok {
		c.String(http.StatusNotFound, "no such stream")
		return
	}
	hidden, err := strconv.ParseBool(c.PostForm("hidden"))
	if err != nil {
		c.String(http.StatusBadRequest, "hidden must be a boolean")
		return
	}
	loop.SetHidden(hidden)
	c.Status(http.StatusNoContent)
}

func (s *Server) effectSVG(c *gin.Context) {
	if c.Param("name") != effectTesseract {
		c.String(http.StatusNotFound, "no such effect")
		return
	}
	theta, err := strconv.ParseFloat(c.DefaultQuery("theta", "0"), 64)
	if err != nil {
		c.String(http.StatusBadRequest, "theta must be a number")
		return
	}
	width := dimension(c.Query("w"), 300)
	height := dimension(c.Query("h"), 300)
	c.Data(http.StatusOK, "image/svg+xml", []byte(tesseract.SVG(width, height, theta)))
}

func sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

func dimension(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return min(v, maxEffectSide)
}

// streamRegistry tracks live effect loops by stream id.
type streamRegistry struct {
	mu      sync.Mutex
	streams map[string]*frame.Loop
}

func newStreamRegistry() *streamRegistry {
	return &streamRegistry{streams: make(map[string]*frame.Loop)}
}

func (r *streamRegistry) add(loop *frame.Loop) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.streams[id] = loop
	r.mu.Unlock()
	return id
}

func (r *streamRegistry) get(id string) (*frame.Loop, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loop, ok := r.streams[id]
	return loop, ok
}

func (r *streamRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, id)
}

func (r *streamRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
