// Package session implements the conversion state machine for one user
// session: image selection, the first conversion, resizes into further
// build versions, version selection and reset.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/brickify/internal/blueprint"
	"github.com/lehigh-university-libraries/brickify/internal/images"
	"github.com/lehigh-university-libraries/brickify/internal/imaging"
	"github.com/lehigh-university-libraries/brickify/internal/metrics"
	"github.com/lehigh-university-libraries/brickify/internal/models"
	"github.com/lehigh-university-libraries/brickify/internal/storage"
)

var (
	// ErrBusy is returned when a conversion or resize is already running
	ErrBusy = errors.New("a conversion is already in progress")
	// ErrSizeExists is returned when resizing to a size that was already generated
	ErrSizeExists = errors.New("a build at this size already exists")
	// ErrInvalidState is returned when an operation is not allowed in the current state
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrSessionReset is returned by a run whose session was reset while it was in flight
	ErrSessionReset = errors.New("session was reset during conversion")
)

// Generator produces a blueprint from an image at a size
type Generator interface {
	Generate(ctx context.Context, image imaging.Image, size models.Size, progress blueprint.ProgressFunc) (*models.Blueprint, error)
}

// Validator attaches validated parts and the real total to a blueprint
type Validator interface {
	Apply(ctx context.Context, bp *models.Blueprint) *models.Blueprint
}

// Fetcher downloads an image by URL
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Deps are the collaborators of an Orchestrator
type Deps struct {
	Pipeline  Generator
	Validator Validator
	Fetcher   Fetcher
	Metrics   *metrics.Metrics
}

// Orchestrator owns one session's state and build store
type Orchestrator struct {
	id   string
	deps Deps

	mu          sync.Mutex
	state       State
	errMessage  string
	resizeError string
	progress    string
	busy        bool
	resizing    bool
	epoch       int
	original    *imaging.Image
	filename    string
	builds      *storage.BuildStore
	createdAt   time.Time
	updatedAt   time.Time
	accessedAt  time.Time
}

// New creates an idle session
func New(id string, deps Deps) *Orchestrator {
	now := time.Now()
	return &Orchestrator{
		id:         id,
		deps:       deps,
		state:      StateIdle,
		builds:     storage.NewBuildStore(),
		createdAt:  now,
		updatedAt:  now,
		accessedAt: now,
	}
}

func (o *Orchestrator) ID() string {
	return o.id
}

// SelectImage validates data as an image and retains it as the original.
// Any previous builds are discarded.
func (o *Orchestrator) SelectImage(data []byte, filename string) error {
	img, err := imaging.Detect(data)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.busy {
		return ErrBusy
	}
	if err := o.transition(StateImageSelected); err != nil {
		return err
	}

	o.epoch++
	o.original = &img
	o.filename = filename
	o.builds.Reset()
	o.errMessage = ""
	o.resizeError = ""
	o.progress = ""
	o.touch()

	slog.Info("Image selected", "session_id", o.id, "filename", filename, "mime_type", img.MIMEType, "bytes", len(img.Data))
	return nil
}

// SelectImageURL downloads an image and selects it
func (o *Orchestrator) SelectImageURL(ctx context.Context, rawURL string) error {
	if o.deps.Fetcher == nil {
		return fmt.Errorf("image URLs are not supported")
	}
	data, err := o.deps.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	return o.SelectImage(data, images.Filename(rawURL))
}

// Convert runs the first conversion at size. It is allowed after an image is
// selected, or after a failed conversion to retry.
func (o *Orchestrator) Convert(ctx context.Context, size models.Size) error {
	run, err := o.beginConvert(size)
	if err != nil {
		return err
	}
	return run(ctx)
}

// ConvertAsync checks and starts a conversion, then runs it in the
// background. The returned channel receives the run's result.
func (o *Orchestrator) ConvertAsync(ctx context.Context, size models.Size) (<-chan error, error) {
	run, err := o.beginConvert(size)
	if err != nil {
		return nil, err
	}
	return background(ctx, run), nil
}

// Resize derives another build version at size from the retained original.
// On failure the session stays Ready with a transient resize error.
func (o *Orchestrator) Resize(ctx context.Context, size models.Size) error {
	run, err := o.beginResize(size)
	if err != nil {
		return err
	}
	return run(ctx)
}

// ResizeAsync is the background form of Resize
func (o *Orchestrator) ResizeAsync(ctx context.Context, size models.Size) (<-chan error, error) {
	run, err := o.beginResize(size)
	if err != nil {
		return nil, err
	}
	return background(ctx, run), nil
}

func background(ctx context.Context, run func(context.Context) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- run(ctx)
	}()
	return done
}

func (o *Orchestrator) beginConvert(size models.Size) (func(context.Context) error, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.busy {
		return nil, ErrBusy
	}
	if o.original == nil {
		return nil, fmt.Errorf("%w: no image selected", ErrInvalidState)
	}
	if err := o.transition(StateConverting); err != nil {
		return nil, err
	}
	o.busy = true
	o.errMessage = ""
	o.progress = ""
	epoch := o.epoch
	original := *o.original
	o.touch()

	return func(ctx context.Context) error {
		slog.Info("Starting conversion", "session_id", o.id, "size", size)
		bp, err := o.generate(ctx, epoch, original, size)

		o.mu.Lock()
		defer o.mu.Unlock()
		o.busy = false
		if epoch != o.epoch {
			slog.Info("Discarding conversion result for reset session", "session_id", o.id)
			return ErrSessionReset
		}
		o.progress = ""
		o.touch()

		if err != nil {
			o.errMessage = errorMessage(err)
			_ = o.transition(StateError)
			slog.Error("Conversion failed", "session_id", o.id, "size", size, "error", err)
			return err
		}

		o.builds.Append(bp)
		o.deps.Metrics.RecordVersion(string(bp.Size))
		_ = o.transition(StateReady)
		return nil
	}, nil
}

func (o *Orchestrator) beginResize(size models.Size) (func(context.Context) error, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.busy {
		return nil, ErrBusy
	}
	if o.state != StateReady {
		return nil, fmt.Errorf("%w: resize requires a finished conversion", ErrInvalidState)
	}
	if o.builds.HasSize(size) {
		return nil, fmt.Errorf("%w: %s", ErrSizeExists, size)
	}
	o.busy = true
	o.resizing = true
	o.resizeError = ""
	o.progress = ""
	epoch := o.epoch
	original := *o.original
	o.touch()

	return func(ctx context.Context) error {
		slog.Info("Starting resize", "session_id", o.id, "size", size)
		bp, err := o.generate(ctx, epoch, original, size)

		o.mu.Lock()
		defer o.mu.Unlock()
		o.busy = false
		o.resizing = false
		if epoch != o.epoch {
			slog.Info("Discarding resize result for reset session", "session_id", o.id)
			return ErrSessionReset
		}
		o.progress = ""
		o.touch()

		if err != nil {
			o.resizeError = errorMessage(err)
			slog.Error("Resize failed", "session_id", o.id, "size", size, "error", err)
			return err
		}

		o.builds.Append(bp)
		o.deps.Metrics.RecordVersion(string(bp.Size))
		return nil
	}, nil
}

// generate runs the pipeline and validation without holding the lock
func (o *Orchestrator) generate(ctx context.Context, epoch int, original imaging.Image, size models.Size) (*models.Blueprint, error) {
	progress := func(message string) {
		o.mu.Lock()
		defer o.mu.Unlock()
		if epoch == o.epoch && o.busy {
			o.progress = message
		}
	}

	bp, err := o.deps.Pipeline.Generate(ctx, original, size, progress)
	if err != nil {
		return nil, err
	}

	progress("Validating parts and prices...")
	if o.deps.Validator != nil {
		bp = o.deps.Validator.Apply(ctx, bp)
	}
	return bp, nil
}

// SelectVersion makes the build at index current
func (o *Orchestrator) SelectVersion(index int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.builds.Select(index); err != nil {
		return err
	}
	o.touch()
	return nil
}

// Reset discards the image, every build and any error. A run still in
// flight finishes in the background and its result is dropped.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	_ = o.transition(StateIdle)
	o.epoch++
	o.original = nil
	o.filename = ""
	o.builds.Reset()
	o.errMessage = ""
	o.resizeError = ""
	o.progress = ""
	o.touch()
	slog.Info("Session reset", "session_id", o.id)
}

// Version returns a copy of the build at index
func (o *Orchestrator) Version(index int) (*models.Blueprint, error) {
	return o.builds.Get(index)
}

// Current returns a copy of the selected build
func (o *Orchestrator) Current() (*models.Blueprint, bool) {
	return o.builds.Current()
}

// Original returns the retained source image
func (o *Orchestrator) Original() (imaging.Image, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.original == nil {
		return imaging.Image{}, false
	}
	return *o.original, true
}

// IdleFor returns how long the session has gone without activity at now.
// A session with a run in flight is never idle.
func (o *Orchestrator) IdleFor(now time.Time) time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return 0
	}
	last := o.updatedAt
	if o.accessedAt.After(last) {
		last = o.accessedAt
	}
	return now.Sub(last)
}

// Access records a read of the session, keeping it from going idle
func (o *Orchestrator) Access() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accessedAt = time.Now()
}

func (o *Orchestrator) touch() {
	o.updatedAt = time.Now()
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, blueprint.ErrNoImage):
		return "The image generator did not return an image. Please try again or use a different photo."
	case errors.Is(err, imaging.ErrNotImage), errors.Is(err, imaging.ErrInvalidDataURI):
		return "The generated image could not be processed: " + err.Error()
	default:
		return "Conversion failed: " + err.Error()
	}
}
