package workflow

import (
	"context"
	"strings"
	"sync"

	"sambou/domain/profile"
	"sambou/internal"
	"sambou/internal/conversation"
	"sambou/internal/deadlines"
	"sambou/internal/errors"
	"sambou/internal/evaluation"
	"sambou/internal/snippets"
	"sambou/models"
	"sambou/ports"
)

// Event types published for a session
const (
	EventState    = "state"
	EventNotice   = "notice"
	EventSnippets = "snippets"
)

// Dependencies are the collaborators a controller drives
type Dependencies struct {
	Oracles ports.Oracles
	Catalog ports.DeadlineCatalog
	Events  ports.EventPublisher // optional
	Logger  *internal.Logger
}

// session is everything Reset wipes. It is swapped as a whole.
type session struct {
	stage            models.WorkflowStage
	transcript       []models.ConversationEntry
	acc              *profile.Accumulator
	narrative        string
	profileComplete  bool
	rankings         []models.RankedDepartment
	summary          evaluation.Summary
	evaluationFailed bool
	selected         []models.RankedDepartment
	notices          []models.Notice
	busy             bool
	started          bool
}

func newSession() *session {
	return &session{stage: models.StageProfile, acc: profile.NewAccumulator()}
}

func (s *session) addNotice(n models.Notice) {
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

// Snapshot is a read-only copy of the workflow state
type Snapshot struct {
	SessionID        string                     `json:"sessionId"`
	Stage            models.WorkflowStage       `json:"stage"`
	Transcript       []models.ConversationEntry `json:"transcript"`
	Profile          map[string]string          `json:"profile"`
	ProfileComplete  bool                       `json:"profileComplete"`
	Narrative        string                     `json:"narrative,omitempty"`
	Rankings         []models.RankedDepartment  `json:"rankings"`
	Summary          evaluation.Summary         `json:"summary"`
	EvaluationFailed bool                       `json:"evaluationFailed"`
	Selected         []models.RankedDepartment  `json:"selected"`
	Notices          []models.Notice            `json:"notices"`
	Busy             bool                       `json:"busy"`
	Snippets         snippets.State             `json:"snippets"`
}

// Controller owns the workflow stage and the lifecycle of one user's session.
// Oracle calls run outside the lock; every completion checks the epoch it
// started under and is dropped if a reset happened meanwhile.
type Controller struct {
	id        string
	engine    *conversation.Engine
	evaluator *evaluation.Coordinator
	snippets  *snippets.Coordinator
	catalog   ports.DeadlineCatalog
	events    ports.EventPublisher
	logger    *internal.Logger

	mu    sync.Mutex
	epoch uint64
	s     *session
}

// NewController creates a controller for a session. Call Start to ask the first question.
func NewController(id string, deps Dependencies) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	logger = logger.With("session_id", id)
	catalog := deps.Catalog
	if catalog == nil {
		catalog = deadlines.DefaultCatalog()
	}
	return &Controller{
		id:        id,
		engine:    conversation.NewEngine(deps.Oracles.Profile, logger),
		evaluator: evaluation.NewCoordinator(deps.Oracles.Ranking, logger),
		snippets:  snippets.NewCoordinator(deps.Oracles.Snippets, logger),
		catalog:   catalog,
		events:    deps.Events,
		logger:    logger.With("component", "workflow"),
		s:         newSession(),
	}
}

// ID returns the session id
func (c *Controller) ID() string {
	return c.id
}

// Start bootstraps the conversation with the first question. Starting twice is a no-op.
func (c *Controller) Start(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	s := c.s
	if s.started {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	if s.busy {
		c.mu.Unlock()
		return Snapshot{}, errors.Busy("a request is already in progress")
	}
	s.started = true
	s.busy = true
	epoch := c.epoch
	history := append([]models.ConversationEntry(nil), s.transcript...)
	values := s.acc.Values()
	c.mu.Unlock()

	out := c.engine.Advance(ctx, history, values)

	c.mu.Lock()
	if epoch != c.epoch {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Debug("discarding bootstrap response from epoch %d", epoch)
		return snap, nil
	}
	s.busy = false
	s.transcript = append(s.transcript, models.ConversationEntry{Speaker: models.SpeakerSystem, Text: out.ResponseText})
	var notices []models.Notice
	if out.Fallback {
		n := conversationStartErrorNotice()
		s.addNotice(n)
		notices = append(notices, n)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap, notices...)
	return snap, nil
}

// SubmitAnswer runs one conversational turn with the user's answer. Blank
// answers are ignored. When the turn completes the profile, evaluation runs
// before SubmitAnswer returns.
func (c *Controller) SubmitAnswer(ctx context.Context, answer string) (Snapshot, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return c.Snapshot(), nil
	}

	c.mu.Lock()
	s := c.s
	if s.busy {
		c.mu.Unlock()
		return Snapshot{}, errors.Busy("a request is already in progress")
	}
	if s.stage != models.StageProfile || s.profileComplete {
		c.mu.Unlock()
		return Snapshot{}, errors.InvalidStage("profile collection is finished")
	}
	s.transcript = append(s.transcript, models.ConversationEntry{Speaker: models.SpeakerUser, Text: answer})
	s.busy = true
	epoch := c.epoch
	history := append([]models.ConversationEntry(nil), s.transcript...)
	values := s.acc.Values()
	c.mu.Unlock()

	out := c.engine.Advance(ctx, history, values)

	c.mu.Lock()
	if epoch != c.epoch {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Debug("discarding turn response from epoch %d", epoch)
		return snap, nil
	}
	if conversation.Apply(s.acc, out) {
		c.logger.Info("profile field %s collected (%d/%d)", out.UpdatedField, s.acc.Collected(), len(profile.Order))
	}
	s.transcript = append(s.transcript, models.ConversationEntry{Speaker: models.SpeakerSystem, Text: out.ResponseText})
	var notices []models.Notice
	if out.Fallback {
		n := conversationTurnErrorNotice()
		s.addNotice(n)
		notices = append(notices, n)
	}
	if !out.IsComplete || !s.acc.IsComplete() {
		s.busy = false
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap, notices...)
		return snap, nil
	}
	s.profileComplete = true
	s.narrative = s.acc.ToNarrative()
	narrative := s.narrative
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap, notices...)
	return c.evaluate(ctx, epoch, narrative)
}

// RetryEvaluation re-submits a completed profile after a hard evaluation failure
func (c *Controller) RetryEvaluation(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	s := c.s
	if s.busy {
		c.mu.Unlock()
		return Snapshot{}, errors.Busy("a request is already in progress")
	}
	if s.stage != models.StageProfile || !s.profileComplete {
		c.mu.Unlock()
		return Snapshot{}, errors.InvalidStage("evaluation needs a completed profile")
	}
	s.busy = true
	epoch := c.epoch
	narrative := s.narrative
	c.mu.Unlock()

	return c.evaluate(ctx, epoch, narrative)
}

// evaluate expects the session to be marked busy by the caller
func (c *Controller) evaluate(ctx context.Context, epoch uint64, narrative string) (Snapshot, error) {
	result, evalErr := c.evaluator.Evaluate(ctx, narrative, c.catalog.Departments())

	c.mu.Lock()
	if epoch != c.epoch {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Debug("discarding evaluation response from epoch %d", epoch)
		return snap, nil
	}
	s := c.s
	s.busy = false

	var n models.Notice
	if evalErr != nil {
		s.rankings = nil
		s.summary = evaluation.Summary{}
		s.evaluationFailed = true
		n = evaluationErrorNotice()
		s.addNotice(n)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap, n)
		return snap, evalErr
	}

	s.evaluationFailed = false
	s.rankings = result.Rankings
	s.summary = result.Summary
	if err := c.transitionLocked(models.StageEvaluation); err != nil {
		c.mu.Unlock()
		return Snapshot{}, err
	}
	if result.Empty {
		n = evaluationNoteNotice()
	} else {
		n = evaluationCompleteNotice(result.Summary)
	}
	s.addNotice(n)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap, n)
	return snap, nil
}

// ConfirmSelection records the departments the user wants to track and moves
// on to deadlines. Keys are resolved against the current rankings in the
// order given; duplicates collapse and unknown keys are rejected.
func (c *Controller) ConfirmSelection(keys []models.DepartmentKey) (Snapshot, error) {
	c.mu.Lock()
	s := c.s
	if s.stage != models.StageEvaluation {
		c.mu.Unlock()
		return Snapshot{}, errors.InvalidStage("departments can only be selected after evaluation")
	}

	byKey := make(map[models.DepartmentKey]models.RankedDepartment, len(s.rankings))
	for _, r := range s.rankings {
		byKey[r.Key()] = r
	}
	selected := make([]models.RankedDepartment, 0, len(keys))
	seen := make(map[models.DepartmentKey]bool, len(keys))
	for _, k := range keys {
		k = k.Normalized()
		if seen[k] {
			continue
		}
		r, ok := byKey[k]
		if !ok {
			c.mu.Unlock()
			return Snapshot{}, errors.InvalidInput("unknown department: " + k.Label())
		}
		seen[k] = true
		selected = append(selected, r)
	}
	if len(selected) == 0 {
		c.mu.Unlock()
		return Snapshot{}, errors.InvalidInput("select at least one department")
	}

	if err := c.transitionLocked(models.StageDeadlines); err != nil {
		c.mu.Unlock()
		return Snapshot{}, err
	}
	s.selected = selected
	n := departmentsSelectedNotice()
	s.addNotice(n)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap, n)
	return snap, nil
}

// Deadlines builds the timeline for the selected departments
func (c *Controller) Deadlines() (models.DeadlineTimeline, error) {
	c.mu.Lock()
	if c.s.stage != models.StageDeadlines {
		c.mu.Unlock()
		return models.DeadlineTimeline{}, errors.InvalidStage("no departments selected yet")
	}
	selected := append([]models.RankedDepartment(nil), c.s.selected...)
	c.mu.Unlock()

	return deadlines.BuildTimeline(c.catalog, selected), nil
}

// SnippetTicket identifies a snippet request started by BeginSnippets
type SnippetTicket struct {
	Generation uint64
	Epoch      uint64
	Narrative  string
	Target     models.DepartmentKey
}

// BeginSnippets targets a selected department and marks it loading. The
// caller completes the request with ResolveSnippets.
func (c *Controller) BeginSnippets(key models.DepartmentKey) (SnippetTicket, error) {
	key = key.Normalized()

	c.mu.Lock()
	s := c.s
	if s.stage != models.StageDeadlines {
		c.mu.Unlock()
		return SnippetTicket{}, errors.InvalidStage("advice is available once departments are selected")
	}
	if strings.TrimSpace(s.narrative) == "" {
		c.mu.Unlock()
		return SnippetTicket{}, errors.InvalidStage("profile narrative is missing")
	}
	found := false
	for _, d := range s.selected {
		if d.Key() == key {
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return SnippetTicket{}, errors.NotFound("selected department " + key.Label())
	}
	// under c.mu so a concurrent Reset cannot slip between the checks and Begin
	gen := c.snippets.Begin(key)
	ticket := SnippetTicket{Generation: gen, Epoch: c.epoch, Narrative: s.narrative, Target: key}
	c.mu.Unlock()

	c.publish(EventSnippets, c.snippets.Current())
	return ticket, nil
}

// ResolveSnippets calls the snippet oracle for a ticket. A superseded ticket
// returns the current state without error.
func (c *Controller) ResolveSnippets(ctx context.Context, ticket SnippetTicket) (snippets.State, error) {
	state, err := c.snippets.Fetch(ctx, ticket.Generation, ticket.Narrative, ticket.Target)
	if errors.HasCode(err, errors.CodeStaleResponse) {
		return c.snippets.Current(), nil
	}
	if err != nil {
		n := snippetErrorNotice()
		c.mu.Lock()
		if c.epoch != ticket.Epoch {
			// a reset landed after the coordinator accepted the response
			c.mu.Unlock()
			return c.snippets.Current(), nil
		}
		c.s.addNotice(n)
		c.mu.Unlock()
		c.publish(EventNotice, n)
	}
	c.publish(EventSnippets, state)
	return state, err
}

// RequestSnippets targets a department and waits for its advice
func (c *Controller) RequestSnippets(ctx context.Context, key models.DepartmentKey) (snippets.State, error) {
	ticket, err := c.BeginSnippets(key)
	if err != nil {
		return snippets.State{}, err
	}
	return c.ResolveSnippets(ctx, ticket)
}

// Snippets returns the current snippet state
func (c *Controller) Snippets() snippets.State {
	return c.snippets.Current()
}

// Reset wipes the session and starts a fresh conversation. In-flight
// completions from before the reset are dropped.
func (c *Controller) Reset(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	c.epoch++
	c.s = newSession()
	c.snippets.Clear()
	n := resetNotice()
	c.s.addNotice(n)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("session reset")
	c.emit(snap, n)
	return c.Start(ctx)
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) transitionLocked(to models.WorkflowStage) error {
	from := c.s.stage
	if !CanTransition(from, to) {
		return errors.InvalidStage("cannot move from " + string(from) + " to " + string(to))
	}
	c.s.stage = to
	c.logger.Info("stage %s -> %s", from, to)
	return nil
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.s
	return Snapshot{
		SessionID:        c.id,
		Stage:            s.stage,
		Transcript:       append([]models.ConversationEntry{}, s.transcript...),
		Profile:          profile.StringMap(s.acc.Values()),
		ProfileComplete:  s.profileComplete,
		Narrative:        s.narrative,
		Rankings:         append([]models.RankedDepartment{}, s.rankings...),
		Summary:          s.summary,
		EvaluationFailed: s.evaluationFailed,
		Selected:         append([]models.RankedDepartment{}, s.selected...),
		Notices:          append([]models.Notice{}, s.notices...),
		Busy:             s.busy,
		Snippets:         c.snippets.Current(),
	}
}

func (c *Controller) emit(snap Snapshot, notices ...models.Notice) {
	for _, n := range notices {
		c.publish(EventNotice, n)
	}
	c.publish(EventState, snap)
}

func (c *Controller) publish(eventType string, payload interface{}) {
	if c.events == nil {
		return
	}
	c.events.Publish(c.id, eventType, payload)
}
