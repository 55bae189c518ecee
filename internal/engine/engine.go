package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ShayCichocki/handover/internal/session"
)

// Protocol errors. These signal misuse of the control surface, not a
// data problem, and are rejected without mutating session state.
var (
	// ErrNoSuspend is returned when resuming a session that has no
	// pending suspend point.
	ErrNoSuspend = errors.New("session has no pending suspend point")
	// ErrSessionBusy is returned when a session is already being driven
	// by another Start or Resume call.
	ErrSessionBusy = errors.New("session is already being executed")
	// ErrSessionActive is returned when starting a session whose
	// checkpoint shows it still running or suspended.
	ErrSessionActive = errors.New("session already active")
)

// Suspension is returned (as an error) by a stage that pauses awaiting
// external input. The payload describes what input is needed and is
// persisted with the checkpoint so resumability survives restarts.
type Suspension struct {
	Payload session.SuspendPayload
}

func (s *Suspension) Error() string {
	return "stage suspended awaiting external input"
}

// Result is the outcome of driving a session: either a suspension
// payload (call Resume with the input later) or the final state.
type Result struct {
	Suspended *session.SuspendPayload
	Done      *session.State
}

// StatusInfo is the externally visible status of a session.
type StatusInfo struct {
	SessionID string
	Status    string
	Stage     string
	Suspended bool
	Payload   *session.SuspendPayload
	FailStage string
	FailError string
}

// Option configures an Engine.
type Option func(*Engine)

// WithStopCheck installs a callback polled between stages; returning
// true cancels the session at the next stage boundary.
func WithStopCheck(fn func(sessionID string) bool) Option {
	return func(e *Engine) { e.stopCheck = fn }
}

// Engine interprets a stage graph over per-session state. It owns its
// checkpoint store explicitly; construct one at process start and pass
// it by reference.
type Engine struct {
	graph *Graph
	store session.Store

	stopCheck func(sessionID string) bool

	mu       sync.Mutex
	inflight map[string]bool
}

// New creates an engine for the given graph and store.
func New(graph *Graph, store session.Store, opts ...Option) (*Engine, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	e := &Engine{
		graph:    graph,
		store:    store,
		inflight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Store exposes the engine's checkpoint store for artifact inspection.
func (e *Engine) Store() session.Store {
	return e.store
}

// Start begins executing the graph for a new session. Starting a
// session that is still running or suspended is a protocol error;
// failed, canceled, and completed sessions may be started over (the
// operator restarts explicitly, the engine never auto-retries).
func (e *Engine) Start(ctx context.Context, sessionID string, initial *session.State) (*Result, error) {
	if !e.acquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer e.release(sessionID)

	if existing, err := e.store.LoadCheckpoint(sessionID); err == nil {
		if existing.Status == session.StatusRunning || existing.Status == session.StatusSuspended {
			return nil, ErrSessionActive
		}
	} else if !errors.Is(err, session.ErrNotFound) {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	st := initial
	if st == nil {
		st = session.New(sessionID, nil)
	}
	st.SessionID = sessionID
	st.Status = session.StatusRunning
	st.Pending = nil
	st.FailStage = ""
	st.FailError = ""

	log.Printf("[engine] session %s: starting at stage %s", sessionID, e.graph.Start())
	return e.run(ctx, st, e.graph.Start())
}

// Resume re-enters a suspended session's stage with the supplied input.
// Resuming a session with no pending suspend point, or resuming one
// concurrently, is rejected without state mutation.
func (e *Engine) Resume(ctx context.Context, sessionID, input string) (*Result, error) {
	if !e.acquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer e.release(sessionID)

	st, err := e.store.LoadCheckpoint(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if st.Status != session.StatusSuspended || st.Pending == nil {
		return nil, ErrNoSuspend
	}

	st.Status = session.StatusRunning
	st.SetResumeInput(input)
	log.Printf("[engine] session %s: resuming at stage %s", sessionID, st.CurrentStage)
	return e.run(ctx, st, st.CurrentStage)
}

// Status reports whether a session is suspended and, if so, what input
// it is waiting for.
func (e *Engine) Status(sessionID string) (*StatusInfo, error) {
	st, err := e.store.LoadCheckpoint(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return &StatusInfo{
		SessionID: sessionID,
		Status:    st.Status,
		Stage:     st.CurrentStage,
		Suspended: st.Status == session.StatusSuspended,
		Payload:   st.Pending,
		FailStage: st.FailStage,
		FailError: st.FailError,
	}, nil
}

// run drives stages from stageName until the graph terminates, a stage
// suspends, or a stage fails. The state is checkpointed after every
// completed stage.
func (e *Engine) run(ctx context.Context, st *session.State, stageName string) (*Result, error) {
	for stageName != "" {
		stage, ok := e.graph.stage(stageName)
		if !ok {
			return nil, e.fail(st, stageName, fmt.Errorf("unknown stage %q", stageName))
		}

		if e.stopCheck != nil && e.stopCheck(st.SessionID) {
			log.Printf("[engine] session %s: stop signal received before stage %s", st.SessionID, stageName)
			st.Status = session.StatusCanceled
			st.CurrentStage = stageName
			if err := e.store.SaveCheckpoint(st); err != nil {
				return nil, fmt.Errorf("checkpoint canceled session: %w", err)
			}
			return &Result{Done: st}, nil
		}

		st.CurrentStage = stageName

		var upd *session.Update
		var err error
		if stage.FanOut != nil {
			upd, err = e.runFanOut(ctx, stage, st)
		} else {
			upd, err = stage.Run(ctx, st)
		}

		var susp *Suspension
		if errors.As(err, &susp) {
			st.Apply(upd)
			payload := susp.Payload
			st.Pending = &payload
			st.Status = session.StatusSuspended
			if err := e.store.SaveCheckpoint(st); err != nil {
				return nil, fmt.Errorf("checkpoint suspended session: %w", err)
			}
			log.Printf("[engine] session %s: suspended at stage %s awaiting input", st.SessionID, stageName)
			return &Result{Suspended: st.Pending}, nil
		}
		if err != nil {
			return nil, e.fail(st, stageName, err)
		}

		st.Apply(upd)
		st.Pending = nil

		next := stage.Next
		if stage.Route != nil {
			next = stage.Route(st)
		}

		if err := e.store.SaveCheckpoint(st); err != nil {
			return nil, fmt.Errorf("checkpoint after stage %s: %w", stageName, err)
		}
		log.Printf("[engine] session %s: stage %s complete, next=%q", st.SessionID, stageName, next)
		stageName = next
	}

	st.Status = session.StatusCompleted
	if err := e.store.SaveCheckpoint(st); err != nil {
		return nil, fmt.Errorf("checkpoint completed session: %w", err)
	}
	log.Printf("[engine] session %s: completed", st.SessionID)
	return &Result{Done: st}, nil
}

// fail marks the session failed with the triggering stage and error.
// Failed sessions are not auto-retried.
func (e *Engine) fail(st *session.State, stageName string, cause error) error {
	st.Status = session.StatusFailed
	st.FailStage = stageName
	st.FailError = cause.Error()
	if err := e.store.SaveCheckpoint(st); err != nil {
		log.Printf("[engine] session %s: failed to checkpoint failure: %v", st.SessionID, err)
	}
	return fmt.Errorf("stage %s: %w", stageName, cause)
}

func (e *Engine) acquire(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[sessionID] {
		return false
	}
	e.inflight[sessionID] = true
	return true
}

func (e *Engine) release(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, sessionID)
}
