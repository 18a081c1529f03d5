// Package exchange runs optimistic question/answer round trips against the
// current chat session.
//
// Each exchange moves Submitted → Pending → Resolved|Failed. The pending
// bot message carries a placeholder id that is the only correlation key used
// to finalize it.
package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/metrics"
)

// Texts written into sessions
const (
	PlaceholderText = "Thinking…"
	NoAnswerText    = "No answer returned."
	ErrorPrefix     = "Error: "
)

// Phase is the observable state of an exchange
type Phase int

const (
	PhaseSubmitted Phase = iota
	PhasePending
	PhaseResolved
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseSubmitted:
		return "submitted"
	case PhasePending:
		return "pending"
	case PhaseResolved:
		return "resolved"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Asker answers a question. client.Client satisfies it.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Event is emitted after every state change so views can re-render.
type Event struct {
	Phase      Phase
	ExchangeID string
	SessionID  string
}

// Exchange tracks one in-flight question
type Exchange struct {
	// ID is the placeholder id of the pending bot message.
	ID        string
	SessionID string
	Question  string

	started time.Time
	done    chan struct{}

	mu    sync.Mutex
	phase Phase
	text  string
	err   error
}

// Done is closed once the exchange has resolved or failed
func (e *Exchange) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the exchange finishes or ctx ends
func (e *Exchange) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Phase returns the current phase
func (e *Exchange) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Result returns the text written in place of the placeholder and the ask
// error, if any. Only meaningful after Done.
func (e *Exchange) Result() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, e.err
}

// Controller orchestrates exchanges over a Repository
type Controller struct {
	repo      *internal.Repository
	asker     Asker
	now       func() time.Time
	metrics   *metrics.Metrics
	listeners []func(Event)

	wg sync.WaitGroup
}

// Option configures a Controller
type Option func(*Controller)

// WithMetrics records exchange metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithClock overrides the time source for message timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithListener registers fn for every Event. fn may be called from the
// goroutine that resolves an exchange.
func WithListener(fn func(Event)) Option {
	return func(c *Controller) { c.listeners = append(c.listeners, fn) }
}

// New creates a Controller
func New(repo *internal.Repository, asker Asker, opts ...Option) *Controller {
	c := &Controller{
		repo:  repo,
		asker: asker,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send appends the question and a pending placeholder to the current session
// and starts resolving it in the background. A blank question is ignored:
// Send returns (nil, nil). ctx bounds the ask call.
//
// Both appends target the session that was current at submit time, and the
// resolution is written back to that session by id even if the user has
// switched away since.
func (c *Controller) Send(ctx context.Context, question string) (*Exchange, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, nil
	}

	session, err := c.repo.CurrentSession()
	if err != nil {
		return nil, fmt.Errorf("failed to load current session: %w", err)
	}

	// Submit
	user := internal.NewMessage(internal.RoleUser, q, c.now())
	if err := c.repo.MutateSession(session.ID, appendMessage(user)); err != nil {
		return nil, fmt.Errorf("failed to save question: %w", err)
	}
	c.emit(Event{Phase: PhaseSubmitted, SessionID: session.ID})

	// Pend
	ex := &Exchange{
		ID:        internal.NewPlaceholderID(),
		SessionID: session.ID,
		Question:  q,
		started:   time.Now(),
		done:      make(chan struct{}),
		phase:     PhasePending,
	}
	placeholder := internal.Message{
		Role: internal.RoleBot,
		Text: PlaceholderText,
		Time: internal.FormatDisplayTime(c.now()),
		ID:   ex.ID,
	}
	if err := c.repo.MutateSession(session.ID, appendMessage(placeholder)); err != nil {
		return nil, fmt.Errorf("failed to save placeholder: %w", err)
	}
	c.emit(Event{Phase: PhasePending, ExchangeID: ex.ID, SessionID: session.ID})

	if c.metrics != nil {
		c.metrics.ExchangesInFlight.Inc()
	}

	c.wg.Add(1)
	go c.resolve(ctx, ex)

	return ex, nil
}

// Ask runs Send and waits for the resolution. Cancelling ctx aborts the ask
// call, which then resolves as a failure.
func (c *Controller) Ask(ctx context.Context, question string) (*Exchange, error) {
	ex, err := c.Send(ctx, question)
	if err != nil || ex == nil {
		return ex, err
	}
	<-ex.Done()
	return ex, nil
}

// Drain blocks until every started exchange has resolved.
func (c *Controller) Drain() {
	c.wg.Wait()
}

func (c *Controller) resolve(ctx context.Context, ex *Exchange) {
	defer c.wg.Done()

	answer, askErr := c.asker.Ask(ctx, ex.Question)

	phase := PhaseResolved
	text := answer
	switch {
	case askErr != nil:
		phase = PhaseFailed
		text = ErrorPrefix + askErr.Error()
	case strings.TrimSpace(answer) == "":
		text = NoAnswerText
	}

	log := internal.Logger().With().
		Str("session", ex.SessionID).
		Str("placeholder", ex.ID).
		Logger()

	final := internal.NewMessage(internal.RoleBot, text, c.now())
	replaced, err := c.repo.ReplaceMessage(ex.SessionID, ex.ID, final)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("Failed to save resolution")
	case !replaced:
		log.Warn().Msg("Placeholder no longer present, dropping resolution")
		if c.metrics != nil {
			c.metrics.StaleResolutions.Inc()
		}
	}
	if askErr != nil {
		log.Debug().Err(askErr).Msg("Ask failed")
	}

	ex.mu.Lock()
	ex.phase = phase
	ex.text = text
	ex.err = askErr
	ex.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ExchangesInFlight.Dec()
		c.metrics.ExchangesTotal.WithLabelValues(phase.String()).Inc()
		c.metrics.ExchangeDuration.Observe(time.Since(ex.started).Seconds())
	}

	close(ex.done)
	c.emit(Event{Phase: phase, ExchangeID: ex.ID, SessionID: ex.SessionID})
}

func (c *Controller) emit(ev Event) {
	for _, fn := range c.listeners {
		fn(ev)
	}
}

func appendMessage(m internal.Message) func(internal.ChatSession) internal.ChatSession {
	return func(s internal.ChatSession) internal.ChatSession {
		s.Messages = append(s.Messages, m)
		return s
	}
}
