package snippets

import (
	"context"
	"fmt"
	"sync"

	"sambou/internal"
	"sambou/internal/errors"
	"sambou/models"
	"sambou/ports"
)

// State is the snippet view for the currently targeted department
type State struct {
	Target     *models.DepartmentKey       `json:"target,omitempty"`
	Result     *models.ApplicationSnippets `json:"result,omitempty"`
	Loading    bool                        `json:"loading"`
	Error      bool                        `json:"error"`
	Generation uint64                      `json:"generation"`
}

// Coordinator tracks at most one live snippet request. A new request supersedes
// the previous one; completions for an older generation are discarded.
type Coordinator struct {
	oracle ports.SnippetOracle
	logger *internal.Logger

	mu    sync.Mutex
	state State
}

// NewCoordinator creates a snippet coordinator
func NewCoordinator(oracle ports.SnippetOracle, logger *internal.Logger) *Coordinator {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Coordinator{oracle: oracle, logger: logger.With("component", "snippets")}
}

// Request targets a department and waits for its advice
func (c *Coordinator) Request(ctx context.Context, narrative string, target models.DepartmentKey) (State, error) {
	gen := c.Begin(target)
	return c.Fetch(ctx, gen, narrative, target)
}

// Begin switches the target immediately to loading with no data and returns the
// generation the eventual completion must match.
func (c *Coordinator) Begin(target models.DepartmentKey) uint64 {
	target = target.Normalized()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{
		Target:     &target,
		Loading:    true,
		Generation: c.state.Generation + 1,
	}
	return c.state.Generation
}

// Fetch calls the oracle for a generation started by Begin
func (c *Coordinator) Fetch(ctx context.Context, gen uint64, narrative string, target models.DepartmentKey) (State, error) {
	target = target.Normalized()
	res, err := c.oracle.Generate(ctx, models.SnippetInput{
		UserProfile:    narrative,
		UniversityName: target.UniversityName,
		DepartmentName: target.DepartmentName,
	})
	if err == nil && res == nil {
		err = fmt.Errorf("no snippets returned")
	}
	return c.complete(gen, res, err)
}

func (c *Coordinator) complete(gen uint64, res *models.ApplicationSnippets, callErr error) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.state.Generation {
		c.logger.Debug("discarding stale snippet response generation=%d current=%d", gen, c.state.Generation)
		return c.snapshotLocked(), errors.Stale("snippet target changed")
	}

	c.state.Loading = false
	if callErr != nil {
		c.logger.Warn("snippet generation failed for %s: %v", c.state.Target.Label(), callErr)
		c.state.Error = true
		c.state.Result = nil
		if errors.HasCode(callErr, errors.CodeExternalService) {
			return c.snapshotLocked(), callErr
		}
		return c.snapshotLocked(), errors.ExternalServiceError("application snippets", callErr)
	}

	cp := *res
	c.state.Result = &cp
	c.state.Error = false
	return c.snapshotLocked(), nil
}

// Current returns a copy of the snippet state
func (c *Coordinator) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Clear drops the target and invalidates any in-flight request
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{Generation: c.state.Generation + 1}
}

func (c *Coordinator) snapshotLocked() State {
	out := c.state
	if out.Target != nil {
		t := *out.Target
		out.Target = &t
	}
	if out.Result != nil {
		r := *out.Result
		out.Result = &r
	}
	return out
}
