// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package reaper implements a background resource cleaner that releases
// external resources (file handles, memory maps, block-store handles)
// exactly once, when no live buffer or loader references the marker token
// that was registered for it.
//
// Go has no portable soft/weak reference and no third-party "run on
// unreachability" library appears anywhere in the retrieved example pack
// (see DESIGN.md) — runtime.SetFinalizer is the only mechanism the runtime
// exposes for this, so that is what backs Register here.
package reaper

import (
	"fmt"
	"runtime"
	"sync"
)

// Release is the action run exactly once when a Marker becomes unreachable.
type Release func() error

// Failure records a release that returned an error. Failures are never
// propagated to the caller that triggered the release; they are retained
// on an observable list instead.
type Failure struct {
	Label string
	Err   error
}

func (f Failure) String() string { return fmt.Sprintf("%s: %v", f.Label, f.Err) }

// Marker is an opaque token whose unreachability triggers Release. Callers
// keep buffers/loaders alive by holding a Marker (directly or transitively
// through an embedded field); once the last such reference drops, the
// garbage collector reports the Marker unreachable and the Reaper that
// registered it runs the release action.
type Marker struct {
	_ [0]func() // prevents ==, matching comparison-by-identity intent
	_ *byte     // non-zero size: each Marker gets its own heap object for SetFinalizer
}

// Reaper tracks a set of markers and runs their release actions at most
// once each, driven by runtime finalizers.
type Reaper struct {
	mu       sync.Mutex
	failures []Failure
	pending  int
	draining bool
	drained  chan struct{}
}

// New returns a Reaper ready to accept registrations.
func New() *Reaper {
	return &Reaper{drained: make(chan struct{})}
}

// Register associates a release action with a fresh Marker and arranges
// for it to run exactly once when the Marker is garbage collected. label is
// used only for the failures ledger. The returned Marker must be kept alive
// (referenced) by every buffer/loader that depends on the resource; it
// must not be stored anywhere that would keep it alive forever.
func (r *Reaper) Register(label string, release Release) *Marker {
	r.mu.Lock()
	if r.draining {
		r.mu.Unlock()
		panic("reaper: Register called after Shutdown")
	}
	r.pending++
	r.mu.Unlock()

	m := &Marker{}
	var once sync.Once
	runtime.SetFinalizer(m, func(*Marker) {
		once.Do(func() { r.run(label, release) })
	})
	return m
}

// ReleaseNow runs release immediately instead of waiting for garbage
// collection, and removes m's finalizer, so the action given to Register
// for m never runs. Safe to call at most once per Marker from application
// code that knows the resource is done early (e.g. an explicit Close()).
func (r *Reaper) ReleaseNow(label string, m *Marker, release Release) {
	runtime.SetFinalizer(m, nil)
	r.run(label, release)
}

func (r *Reaper) run(label string, release Release) {
	err := release()
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failures = append(r.failures, Failure{Label: label, Err: err})
	}
	r.pending--
	if r.draining && r.pending == 0 {
		close(r.drained)
	}
}

// Failures returns a snapshot of release failures observed so far.
func (r *Reaper) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Shutdown forbids new registrations and blocks until every tracked marker
// has been released. Callers typically force collection of unreachable
// markers with runtime.GC() before calling Shutdown if they need it to
// return promptly in a test.
func (r *Reaper) Shutdown() {
	r.mu.Lock()
	r.draining = true
	done := r.pending == 0
	r.mu.Unlock()
	if done {
		return
	}
	<-r.drained
}

// Pending returns the number of registered markers not yet released.
func (r *Reaper) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}
