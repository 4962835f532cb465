// Package wizard holds the state of a linear multi-step form: the current
// step, the data collected so far and per-step validity. State can be
// persisted through a Store so an unfinished wizard survives restarts.
package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"maps"
)

// ErrInvalidStep is returned by GoToStep for an index outside the step range.
var ErrInvalidStep = errors.New("step index out of range")

// ValidationError reports caller input the engine refused.
type ValidationError struct {
	Field string
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v (got %v)", e.Field, e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceReadError describes persisted state that could not be restored.
// The engine logs it and starts from defaults; it is never returned.
type PersistenceReadError struct {
	Key string
	Err error
}

func (e *PersistenceReadError) Error() string {
	return fmt.Sprintf("wizard: discarding persisted state %q: %v", e.Key, e.Err)
}

func (e *PersistenceReadError) Unwrap() error { return e.Err }

// State is a snapshot of the wizard. Maps in a snapshot are copies and may be
// modified freely by the caller.
type State struct {
	CurrentStep  int            `json:"currentStep"`
	TotalSteps   int            `json:"totalSteps"`
	Data         map[string]any `json:"data"`
	Validation   map[int]bool   `json:"validation"`
	IsSubmitting bool           `json:"isSubmitting"`
	SubmitError  string         `json:"submitError,omitempty"`
}

// persisted is the record written to the Store on every step or data change.
type persisted struct {
	Data        map[string]any `json:"data"`
	CurrentStep int            `json:"currentStep"`
}

// Config is fixed for the lifetime of an Engine.
type Config struct {
	Steps       []Step
	InitialData map[string]any

	// Store and StorageKey enable persistence. A nil Store keeps state in
	// memory only.
	Store      Store
	StorageKey string

	// RequireValidStep makes NextStep a no-op unless the current step has
	// been marked valid with SetStepValidation.
	RequireValidStep bool

	Logger *log.Logger
}

// Engine owns one wizard's state. It is not safe for concurrent use; each
// session drives its own Engine.
type Engine struct {
	cfg       Config
	steps     []Step
	state     State
	listeners map[int]func(State)
	nextID    int
}

// New builds an engine at step 0 with cfg.InitialData, then overlays any
// persisted state found under cfg.StorageKey. Unreadable persisted state is
// logged and ignored.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Steps) == 0 {
		return nil, errors.New("wizard: at least one step is required")
	}
	if cfg.Store != nil && cfg.StorageKey == "" {
		return nil, errors.New("wizard: a storage key is required when a store is configured")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	steps := make([]Step, len(cfg.Steps))
	copy(steps, cfg.Steps)

	e := &Engine{
		cfg:       cfg,
		steps:     steps,
		listeners: make(map[int]func(State)),
	}
	e.state = e.initialState(cfg.InitialData)
	e.rehydrate()
	return e, nil
}

func (e *Engine) initialState(data map[string]any) State {
	d := make(map[string]any, len(data))
	maps.Copy(d, data)
	return State{
		CurrentStep: 0,
		TotalSteps:  len(e.steps),
		Data:        d,
		Validation:  make(map[int]bool),
	}
}

func (e *Engine) rehydrate() {
	if e.cfg.Store == nil {
		return
	}
	raw, ok, err := e.cfg.Store.GetItem(e.cfg.StorageKey)
	if err != nil {
		e.cfg.Logger.Printf("wizard: rehydrate: %v", &PersistenceReadError{Key: e.cfg.StorageKey, Err: err})
		return
	}
	if !ok || raw == "" {
		return
	}

	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		e.cfg.Logger.Printf("wizard: rehydrate: %v", &PersistenceReadError{Key: e.cfg.StorageKey, Err: err})
		return
	}
	if p.CurrentStep < 0 || p.CurrentStep >= len(e.steps) {
		err := &ValidationError{Field: "currentStep", Value: p.CurrentStep, Err: ErrInvalidStep}
		e.cfg.Logger.Printf("wizard: rehydrate: %v", &PersistenceReadError{Key: e.cfg.StorageKey, Err: err})
		return
	}

	maps.Copy(e.state.Data, p.Data)
	e.state.CurrentStep = p.CurrentStep
}

func (e *Engine) persist() {
	if e.cfg.Store == nil {
		return
	}
	b, err := json.Marshal(persisted{Data: e.state.Data, CurrentStep: e.state.CurrentStep})
	if err != nil {
		e.cfg.Logger.Printf("wizard: persist %q: marshal: %v", e.cfg.StorageKey, err)
		return
	}
	if err := e.cfg.Store.SetItem(e.cfg.StorageKey, string(b)); err != nil {
		e.cfg.Logger.Printf("wizard: persist %q: %v", e.cfg.StorageKey, err)
	}
}

func (e *Engine) notify() {
	if len(e.listeners) == 0 {
		return
	}
	snapshot := e.State()
	for _, fn := range e.listeners {
		fn(snapshot)
	}
}

// State returns a snapshot of the current state.
func (e *Engine) State() State {
	s := e.state
	s.Data = maps.Clone(e.state.Data)
	s.Validation = maps.Clone(e.state.Validation)
	return s
}

// Steps returns the step configuration.
func (e *Engine) Steps() []Step {
	out := make([]Step, len(e.steps))
	copy(out, e.steps)
	return out
}

// CurrentStep returns the index and definition of the current step.
func (e *Engine) CurrentStep() (int, Step) {
	return e.state.CurrentStep, e.steps[e.state.CurrentStep]
}

// Subscribe registers fn to be called with a fresh snapshot after every
// mutation. The returned function removes the listener.
func (e *Engine) Subscribe(fn func(State)) (unsubscribe func()) {
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() { delete(e.listeners, id) }
}

// CanAdvance reports whether NextStep would move forward.
func (e *Engine) CanAdvance() bool {
	if e.state.CurrentStep >= e.state.TotalSteps-1 {
		return false
	}
	if e.cfg.RequireValidStep && !e.state.Validation[e.state.CurrentStep] {
		return false
	}
	return true
}

// NextStep moves forward one step. It is a no-op on the last step, and on an
// unvalidated step when RequireValidStep is set.
func (e *Engine) NextStep() {
	if !e.CanAdvance() {
		return
	}
	e.state.CurrentStep++
	e.persist()
	e.notify()
}

// PrevStep moves back one step. It is a no-op on the first step.
func (e *Engine) PrevStep() {
	if e.state.CurrentStep <= 0 {
		return
	}
	e.state.CurrentStep--
	e.persist()
	e.notify()
}

// GoToStep jumps to step n. An index outside [0, TotalSteps) is rejected with
// a *ValidationError wrapping ErrInvalidStep and the state is left untouched.
func (e *Engine) GoToStep(n int) error {
	if n < 0 || n >= e.state.TotalSteps {
		return &ValidationError{Field: "step", Value: n, Err: ErrInvalidStep}
	}
	if n == e.state.CurrentStep {
		return nil
	}
	e.state.CurrentStep = n
	e.persist()
	e.notify()
	return nil
}

// UpdateData shallow-merges partial into the collected data. Keys absent from
// partial are kept.
func (e *Engine) UpdateData(partial map[string]any) {
	if len(partial) == 0 {
		return
	}
	maps.Copy(e.state.Data, partial)
	e.persist()
	e.notify()
}

// SetStepValidation records whether step is valid. The flag is only stored;
// navigation consults it only when RequireValidStep is set. Like GoToStep, an
// index outside [0, TotalSteps) is rejected with a *ValidationError wrapping
// ErrInvalidStep and nothing is recorded.
func (e *Engine) SetStepValidation(step int, valid bool) error {
	if step < 0 || step >= e.state.TotalSteps {
		return &ValidationError{Field: "step", Value: step, Err: ErrInvalidStep}
	}
	e.state.Validation[step] = valid
	e.notify()
	return nil
}

func (e *Engine) SetSubmitting(submitting bool) {
	e.state.IsSubmitting = submitting
	e.notify()
}

// SetSubmitError stores msg for the caller to display. An empty msg clears it.
func (e *Engine) SetSubmitError(msg string) {
	e.state.SubmitError = msg
	e.notify()
}

// Reset returns to step 0 with initialData, clears validation and submission
// flags and removes any persisted state.
func (e *Engine) Reset(initialData map[string]any) {
	e.state = e.initialState(initialData)
	if e.cfg.Store != nil {
		if err := e.cfg.Store.RemoveItem(e.cfg.StorageKey); err != nil {
			e.cfg.Logger.Printf("wizard: reset %q: %v", e.cfg.StorageKey, err)
		}
	}
	e.notify()
}
