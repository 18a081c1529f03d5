package exchange

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/metrics"
	"github.com/iksnae/tusty-chat/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	answer string
	err    error
}

// gatedAsker blocks each question until the test releases a reply for it.
type gatedAsker struct {
	mu    sync.Mutex
	gates map[string]chan reply
}

func newGatedAsker() *gatedAsker {
	return &gatedAsker{gates: make(map[string]chan reply)}
}

func (a *gatedAsker) gate(q string) chan reply {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.gates[q]
	if !ok {
		ch = make(chan reply, 1)
		a.gates[q] = ch
	}
	return ch
}

func (a *gatedAsker) Ask(ctx context.Context, q string) (string, error) {
	select {
	case r := <-a.gate(q):
		return r.answer, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (a *gatedAsker) release(q, answer string, err error) {
	a.gate(q) <- reply{answer: answer, err: err}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Phase, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Phase
	}
	return out
}

type fixture struct {
	repo    *internal.Repository
	store   internal.Store
	asker   *gatedAsker
	ctrl    *Controller
	events  *recorder
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := testutil.NewClock(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC))
	store := internal.NewSQLiteStore(testutil.CreateInMemoryDB(t))
	m := metrics.NewMetrics()
	repo := internal.NewRepository(store, internal.WithClock(clock.Now), internal.WithEvictionHook(m.RecordEviction))
	asker := newGatedAsker()
	rec := &recorder{}
	ctrl := New(repo, asker, WithClock(clock.Now), WithListener(rec.record), WithMetrics(m))
	t.Cleanup(ctrl.Drain)
	return &fixture{repo: repo, store: store, asker: asker, ctrl: ctrl, events: rec, metrics: m}
}

func (f *fixture) session(t *testing.T, id string) internal.ChatSession {
	t.Helper()
	s, ok := f.repo.Session(id)
	require.True(t, ok, "session %s missing", id)
	return s
}

func waitDone(t *testing.T, ex *Exchange) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ex.Wait(ctx))
}

func pendingCount(msgs []internal.Message) int {
	n := 0
	for _, m := range msgs {
		if m.IsPending() {
			n++
		}
	}
	return n
}

func TestSend_BlankQuestionIsNoop(t *testing.T) {
	f := newFixture(t)

	for _, q := range []string{"", "   ", "\n\t"} {
		ex, err := f.ctrl.Send(context.Background(), q)
		assert.NoError(t, err)
		assert.Nil(t, ex)
	}

	assert.Empty(t, f.repo.ListSessions())
	assert.Empty(t, f.events.phases())
}

func TestSend_SubmitThenPend(t *testing.T) {
	f := newFixture(t)

	ex, err := f.ctrl.Send(context.Background(), "  What is X?  ")
	require.NoError(t, err)
	require.NotNil(t, ex)
	defer f.asker.release("What is X?", "ok", nil)

	s := f.session(t, ex.SessionID)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, internal.RoleUser, s.Messages[0].Role)
	assert.Equal(t, "What is X?", s.Messages[0].Text)
	assert.False(t, s.Messages[0].IsPending())

	assert.Equal(t, internal.RoleBot, s.Messages[1].Role)
	assert.Equal(t, PlaceholderText, s.Messages[1].Text)
	assert.Equal(t, ex.ID, s.Messages[1].ID)
	assert.True(t, internal.IsPlaceholderID(ex.ID))
	assert.Equal(t, 1, pendingCount(s.Messages))

	assert.Equal(t, []Phase{PhaseSubmitted, PhasePending}, f.events.phases())
	assert.Equal(t, PhasePending, ex.Phase())
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.ExchangesInFlight))
}

func TestExchange_EndToEndSuccess(t *testing.T) {
	f := newFixture(t)
	created, err := f.repo.NewSession()
	require.NoError(t, err)

	ex, err := f.ctrl.Send(context.Background(), "What is X?")
	require.NoError(t, err)
	assert.Equal(t, created.ID, ex.SessionID)

	pending := f.session(t, created.ID)
	require.Len(t, pending.Messages, 2)

	f.asker.release("What is X?", "X is Y", nil)
	waitDone(t, ex)

	final := f.session(t, created.ID)
	require.Len(t, final.Messages, 2)
	assert.Equal(t, internal.Message{Role: internal.RoleUser, Text: "What is X?", Time: final.Messages[0].Time}, final.Messages[0])
	assert.Equal(t, internal.RoleBot, final.Messages[1].Role)
	assert.Equal(t, "X is Y", final.Messages[1].Text)
	assert.Empty(t, final.Messages[1].ID)
	assert.NotEmpty(t, final.Messages[1].Time)
	assert.Equal(t, "What is X?", final.Title)
	assert.Greater(t, final.UpdatedAt, pending.UpdatedAt)

	text, askErr := ex.Result()
	assert.Equal(t, "X is Y", text)
	assert.NoError(t, askErr)
	assert.Equal(t, PhaseResolved, ex.Phase())
	assert.Equal(t, []Phase{PhaseSubmitted, PhasePending, PhaseResolved}, f.events.phases())

	assert.Equal(t, 0.0, promtest.ToFloat64(f.metrics.ExchangesInFlight))
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.ExchangesTotal.WithLabelValues("resolved")))
}

func TestExchange_EndToEndFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{name: "network error", err: errors.New("dial tcp 127.0.0.1:8000: connection refused"), wantText: "Error: dial tcp 127.0.0.1:8000: connection refused"},
		{name: "server error body", err: &internal.HTTPError{Endpoint: "ask", Status: 500, Body: "model overloaded"}, wantText: "Error: model overloaded"},
		{name: "empty error body", err: &internal.HTTPError{Endpoint: "ask", Status: 503}, wantText: "Error: Request failed (503)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ex, err := f.ctrl.Send(context.Background(), "What is X?")
			require.NoError(t, err)
			pendingLen := len(f.session(t, ex.SessionID).Messages)

			f.asker.release("What is X?", "", tt.err)
			waitDone(t, ex)

			s := f.session(t, ex.SessionID)
			require.Len(t, s.Messages, pendingLen)
			last := s.Messages[len(s.Messages)-1]
			assert.True(t, strings.HasPrefix(last.Text, "Error:"))
			assert.Equal(t, tt.wantText, last.Text)
			assert.Empty(t, last.ID)
			assert.Equal(t, "What is X?", s.Messages[0].Text)

			_, askErr := ex.Result()
			assert.ErrorIs(t, askErr, tt.err)
			assert.Equal(t, PhaseFailed, ex.Phase())
			assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.ExchangesTotal.WithLabelValues("failed")))
		})
	}
}

func TestExchange_EmptyAnswer(t *testing.T) {
	f := newFixture(t)
	ex, err := f.ctrl.Send(context.Background(), "anything?")
	require.NoError(t, err)

	f.asker.release("anything?", "  ", nil)
	waitDone(t, ex)

	s := f.session(t, ex.SessionID)
	assert.Equal(t, NoAnswerText, s.Messages[1].Text)
	assert.Equal(t, PhaseResolved, ex.Phase())
}

func TestExchange_OverlappingSendsResolveIndependently(t *testing.T) {
	f := newFixture(t)

	first, err := f.ctrl.Send(context.Background(), "first?")
	require.NoError(t, err)
	second, err := f.ctrl.Send(context.Background(), "second?")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	s := f.session(t, first.SessionID)
	require.Len(t, s.Messages, 4)
	assert.Equal(t, 2, pendingCount(s.Messages))

	// second answer arrives first
	f.asker.release("second?", "answer two", nil)
	waitDone(t, second)

	s = f.session(t, first.SessionID)
	assert.Equal(t, PlaceholderText, s.Messages[1].Text)
	assert.Equal(t, first.ID, s.Messages[1].ID)
	assert.Equal(t, "answer two", s.Messages[3].Text)

	f.asker.release("first?", "answer one", nil)
	waitDone(t, first)

	s = f.session(t, first.SessionID)
	texts := []string{s.Messages[0].Text, s.Messages[1].Text, s.Messages[2].Text, s.Messages[3].Text}
	assert.Equal(t, []string{"first?", "answer one", "second?", "answer two"}, texts)
	assert.Equal(t, 0, pendingCount(s.Messages))
}

func TestExchange_ResolvesIntoOwningSessionAfterSwitch(t *testing.T) {
	f := newFixture(t)

	ex, err := f.ctrl.Send(context.Background(), "slow question")
	require.NoError(t, err)

	other, err := f.repo.NewSession()
	require.NoError(t, err)
	require.Equal(t, other.ID, f.repo.CurrentID())

	f.asker.release("slow question", "slow answer", nil)
	waitDone(t, ex)

	owner := f.session(t, ex.SessionID)
	require.Len(t, owner.Messages, 2)
	assert.Equal(t, "slow answer", owner.Messages[1].Text)

	assert.Empty(t, f.session(t, other.ID).Messages)
	assert.Equal(t, other.ID, f.repo.CurrentID())
}

func TestExchange_EvictedSessionIsNoop(t *testing.T) {
	f := newFixture(t)

	ex, err := f.ctrl.Send(context.Background(), "doomed")
	require.NoError(t, err)

	for i := 0; i < internal.MaxSessions; i++ {
		_, err := f.repo.NewSession()
		require.NoError(t, err)
	}
	_, ok := f.repo.Session(ex.SessionID)
	require.False(t, ok, "owning session should have been evicted")
	before, _, _ := f.store.Get(internal.SessionsKey)

	f.asker.release("doomed", "too late", nil)
	waitDone(t, ex)

	after, _, _ := f.store.Get(internal.SessionsKey)
	assert.Equal(t, before, after)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.StaleResolutions))
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.SessionsEvictedTotal))
	assert.Equal(t, []Phase{PhaseSubmitted, PhasePending, PhaseResolved}, f.events.phases())
}

func TestController_AskBlocksUntilResolved(t *testing.T) {
	f := newFixture(t)
	f.asker.release("sync?", "yes", nil)

	ex, err := f.ctrl.Ask(context.Background(), "sync?")
	require.NoError(t, err)
	require.NotNil(t, ex)

	text, _ := ex.Result()
	assert.Equal(t, "yes", text)
	assert.Equal(t, 0, pendingCount(f.session(t, ex.SessionID).Messages))
}

func TestController_AskCancelledContextFails(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex, err := f.ctrl.Ask(ctx, "never answered")
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, ex.Phase())

	s := f.session(t, ex.SessionID)
	assert.Equal(t, "Error: context canceled", s.Messages[1].Text)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "pending", PhasePending.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
}
