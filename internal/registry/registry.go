package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// Error kinds for registration and invocation. Unavailable and
// InvalidArgument are recoverable and are meant to be fed back to the model
// as tool results; the rest indicate misuse or a stale client.
var (
	ErrDuplicateName   = errors.New("duplicate tool name")
	ErrNotFound        = errors.New("tool not found")
	ErrUnavailable     = errors.New("tool unavailable")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Handler is a tool body: numeric arguments in, numeric result out.
type Handler func(ctx context.Context, args map[string]float64) (float64, error)

// Descriptor describes one invocable tool. Available is evaluated fresh on
// every listing and every invocation; nil means always available.
type Descriptor struct {
	Name        string
	Description string
	Params      []string
	Required    []string
	Available   func() bool
	Handler     Handler
}

// Schema renders the descriptor's input schema as a JSON schema object.
// All parameters are numeric.
func (d Descriptor) Schema() map[string]any {
	props := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		props[p] = map[string]any{"type": "number"}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             d.Required,
		"additionalProperties": false,
	}
}

func (d Descriptor) available() bool {
	return d.Available == nil || d.Available()
}

// Registry holds the tool set. Membership is fixed after startup; the only
// time-varying piece is each descriptor's availability predicate, so
// concurrent listing and invocation need no locking.
type Registry struct {
	tools map[string]Descriptor
	order []string
}

func New() *Registry {
	return &Registry{tools: make(map[string]Descriptor)}
}

// Register adds a tool. There is no removal; tools are registered once at
// process start.
func (r *Registry) Register(d Descriptor) error {
	if _, ok := r.tools[d.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, d.Name)
	}
	r.tools[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// MustRegister registers a tool or panics. Startup-only convenience.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (Descriptor, error) {
	d, ok := r.tools[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return d, nil
}

// Available reports whether the named tool's predicate holds right now.
// Unknown names are simply unavailable.
func (r *Registry) Available(name string) bool {
	d, ok := r.tools[name]
	return ok && d.available()
}

// All returns every registered tool in registration order, ignoring
// availability. Server-side use only; remote callers get Visible.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Visible returns the tools whose predicate holds at this instant, in
// registration order. The result is a snapshot: a caller holding it may
// find a tool gone by the time it invokes.
func (r *Registry) Visible() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		d := r.tools[name]
		if d.available() {
			out = append(out, d)
		}
	}
	return out
}

// Invoke runs the named tool after re-checking availability at call time.
// A tool that was visible when the caller listed may still be rejected here
// if its window has since closed.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]float64) (string, error) {
	d, err := r.Get(name)
	if err != nil {
		return "", err
	}
	if !d.available() {
		slog.Debug("invocation rejected, tool outside its window", "tool", name)
		return "", fmt.Errorf("%w: %s", ErrUnavailable, name)
	}
	for _, p := range d.Required {
		if _, ok := args[p]; !ok {
			return "", fmt.Errorf("%w: missing required parameter %q", ErrInvalidArgument, p)
		}
	}

	v, err := d.Handler(ctx, args)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}
