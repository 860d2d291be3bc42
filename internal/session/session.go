// Package session coordinates dictation lifecycle state, actions, and commit flow.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/murmur-dev/murmur/internal/fsm"
	"github.com/murmur-dev/murmur/internal/ipc"
)

type action int

const (
	actionStop action = iota + 1
	actionCancel
)

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	State         fsm.State
	Transcript    string
	Cancelled     bool
	Err           error
	ModelPath     string
	BytesCaptured int64
	CleanupErr    error
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Warner exposes a drainable non-fatal notice, such as a model selection
// that fell back to the bundle default.
type Warner interface {
	Warning() string
}

// Controller orchestrates session state transitions and side effects.
type Controller struct {
	logger     *slog.Logger
	transcribe Transcriber
	commit     Committer
	warner     Warner

	mu    sync.RWMutex
	state fsm.State

	actions chan action
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	transcriber Transcriber,
	committer Committer,
	warner Warner,
) *Controller {
	if transcriber == nil {
		transcriber = PlaceholderTranscriber{}
	}
	if committer == nil {
		committer = CommitFunc(func(context.Context, string) error { return nil })
	}

	return &Controller{
		logger:     logger,
		transcribe: transcriber,
		commit:     committer,
		warner:     warner,
		state:      fsm.StateIdle,
		actions:    make(chan action, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Run executes one owner lifecycle from start to stop/cancel/failure completion.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}

	if err := c.transition(fsm.EventStart); err != nil {
		return c.finish(result, err)
	}

	if err := c.transcribe.Start(ctx); err != nil {
		c.toErrorAndReset()
		return c.finish(result, err)
	}

	select {
	case <-ctx.Done():
		_ = c.transcribe.Cancel(context.Background())
		c.toErrorAndReset()
		return c.finish(result, ctx.Err())
	case a := <-c.actions:
		switch a {
		case actionCancel:
			_ = c.transcribe.Cancel(context.Background())
			_ = c.transition(fsm.EventCancel)
			result.Cancelled = true
			return c.finish(result, nil)
		case actionStop:
			if err := c.transition(fsm.EventStop); err != nil {
				c.toErrorAndReset()
				return c.finish(result, err)
			}
			return c.finish(c.stopAndCommit(ctx, result))
		default:
			c.toErrorAndReset()
			return c.finish(result, fmt.Errorf("unknown action %d", a))
		}
	}
}

// stopAndCommit runs the stop half of the lifecycle: recognize, then
// dispatch the transcript. Scratch cleanup failures are carried on the
// result without failing the session.
func (c *Controller) stopAndCommit(ctx context.Context, result Result) (Result, error) {
	stopResult, err := c.transcribe.StopAndTranscribe(ctx)
	result.Transcript = stopResult.Transcript
	result.ModelPath = stopResult.ModelPath
	result.BytesCaptured = stopResult.BytesCaptured
	result.CleanupErr = stopResult.CleanupErr
	if err != nil {
		c.toErrorAndReset()
		return result, err
	}

	if strings.TrimSpace(stopResult.Transcript) == "" {
		c.toErrorAndReset()
		return result, ErrEmptyTranscript
	}

	if err := c.commit.Commit(ctx, stopResult.Transcript); err != nil {
		c.toErrorAndReset()
		return result, err
	}

	if err := c.transition(fsm.EventTranscribed); err != nil {
		return result, err
	}
	return result, nil
}

// finish stamps the terminal state and finish time on a result.
func (c *Controller) finish(result Result, err error) Result {
	result.State = c.State()
	result.Err = err
	result.FinishedAt = time.Now()
	return result
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return c.withWarning(ipc.Response{OK: true, State: string(c.State()), Message: "status"})
	case "toggle":
		return c.requestStop("toggle")
	case "stop":
		return c.requestStop("stop")
	case "cancel":
		return c.requestCancel()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// withWarning drains any pending one-shot warning into the response.
func (c *Controller) withWarning(resp ipc.Response) ipc.Response {
	if c.warner != nil {
		resp.Warning = c.warner.Warning()
	}
	return resp
}

// requestStop enqueues a stop action when state permits it.
func (c *Controller) requestStop(source string) ipc.Response {
	state := c.State()
	if state == fsm.StateTranscribing {
		return ipc.Response{OK: false, State: string(state), Error: "already transcribing"}
	}
	if state != fsm.StateRecording {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s from state %s", source, state)}
	}

	select {
	case c.actions <- actionStop:
		return c.withWarning(ipc.Response{OK: true, State: string(state), Message: "stop requested"})
	default:
		return c.withWarning(ipc.Response{OK: true, State: string(state), Message: "stop already requested"})
	}
}

// requestCancel enqueues a cancel action when state permits it.
func (c *Controller) requestCancel() ipc.Response {
	state := c.State()
	if state == fsm.StateTranscribing {
		return ipc.Response{OK: false, State: string(state), Error: "cannot cancel while transcribing"}
	}
	if state != fsm.StateRecording {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot cancel from state %s", state)}
	}

	select {
	case c.actions <- actionCancel:
		return ipc.Response{OK: true, State: string(state), Message: "cancel requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "cancel already requested"}
	}
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

// IsPipelineUnavailable reports whether an error represents missing pipeline wiring.
func IsPipelineUnavailable(err error) bool {
	return errors.Is(err, ErrPipelineUnavailable)
}
