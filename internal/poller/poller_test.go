package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depkeeper/internal/api"
)

// fakeClock advances only when the poller sleeps, so polling sessions run
// instantly while preserving the wall-time arithmetic.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) elapsedSince(start time.Time) time.Duration {
	return c.now.Sub(start)
}

// pollRound scripts the API responses for one poll iteration.
type pollRound struct {
	err      error
	statuses []api.CommitStatus
	runs     []api.CheckRun
	state    string // mergeable_state
}

// scriptedClient serves one pollRound per GetPullRequest call; the last
// round repeats once the script is exhausted.
type scriptedClient struct {
	rounds []pollRound
	polls  int
}

func (c *scriptedClient) current() pollRound {
	i := c.polls - 1
	if i >= len(c.rounds) {
		i = len(c.rounds) - 1
	}
	return c.rounds[i]
}

func (c *scriptedClient) GetPullRequest(owner, repo string, number int) (*api.PullRequest, error) {
	c.polls++
	round := c.current()
	if round.err != nil {
		return nil, round.err
	}
	return &api.PullRequest{
		Number:         number,
		Title:          "Bump foo from 1.0 to 1.1",
		User:           api.User{Login: "dependabot[bot]"},
		Head:           api.Ref{SHA: "abc123"},
		MergeableState: round.state,
	}, nil
}

func (c *scriptedClient) GetCombinedStatus(owner, repo, ref string) (*api.CombinedStatus, error) {
	round := c.current()
	return &api.CombinedStatus{Statuses: round.statuses}, nil
}

func (c *scriptedClient) ListCheckRuns(owner, repo, ref string) ([]api.CheckRun, error) {
	round := c.current()
	return round.runs, nil
}

func newTestPoller(client ChecksClient, clock *fakeClock, timeout, interval time.Duration) *Poller {
	return NewWithClock(client, timeout, interval, clock.Now, clock.Sleep)
}

func TestWait_NoChecksSucceedsWithoutSleeping(t *testing.T) {
	client := &scriptedClient{rounds: []pollRound{{state: "clean"}}}
	clock := newFakeClock()
	p := newTestPoller(client, clock, 30*time.Second, 10*time.Second)

	outcome, pr, err := p.Wait("acme", "widgets", 42)

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, 42, pr.Number)
	assert.Equal(t, 1, client.polls)
	assert.Empty(t, clock.sleeps)
}

func TestWait_PendingThenSuccess(t *testing.T) {
	pending := []api.CheckRun{{Name: "build", Status: "in_progress"}}
	green := []api.CheckRun{{Name: "build", Status: "completed", Conclusion: "success"}}
	client := &scriptedClient{rounds: []pollRound{
		{runs: pending, state: "unknown"},
		{runs: green, state: "clean"},
	}}
	clock := newFakeClock()
	p := newTestPoller(client, clock, 30*time.Second, 10*time.Second)

	outcome, pr, err := p.Wait("acme", "widgets", 42)

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, "clean", pr.MergeableState)
	assert.Equal(t, 2, client.polls)
	assert.Equal(t, []time.Duration{10 * time.Second}, clock.sleeps)
}

func TestWait_FailureShortCircuits(t *testing.T) {
	red := []api.CheckRun{{Name: "test", Status: "completed", Conclusion: "failure"}}
	client := &scriptedClient{rounds: []pollRound{{runs: red, state: "clean"}}}
	clock := newFakeClock()
	p := newTestPoller(client, clock, 30*time.Second, 10*time.Second)

	outcome, _, err := p.Wait("acme", "widgets", 42)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, outcome)
	assert.Equal(t, 1, client.polls)
	// Fail fast: no waiting out the remaining budget
	assert.Empty(t, clock.sleeps)
}

func TestWait_TimeoutAfterBudget(t *testing.T) {
	pending := []api.CheckRun{{Name: "build", Status: "queued"}}
	client := &scriptedClient{rounds: []pollRound{{runs: pending, state: "unknown"}}}
	clock := newFakeClock()
	start := clock.Now()
	timeout := 30 * time.Second
	interval := 10 * time.Second
	p := newTestPoller(client, clock, timeout, interval)

	outcome, pr, err := p.Wait("acme", "widgets", 42)

	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, outcome)
	assert.NotNil(t, pr)

	elapsed := clock.elapsedSince(start)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+interval)
}

func TestWait_TransientErrorRetriedOnce(t *testing.T) {
	green := []api.CheckRun{{Name: "build", Status: "completed", Conclusion: "success"}}
	client := &scriptedClient{rounds: []pollRound{
		{err: &api.TransientError{StatusCode: 502}},
		{runs: green, state: "clean"},
	}}
	clock := newFakeClock()
	p := newTestPoller(client, clock, 30*time.Second, 10*time.Second)

	outcome, _, err := p.Wait("acme", "widgets", 42)

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, 2, client.polls)
	assert.Equal(t, []time.Duration{10 * time.Second}, clock.sleeps)
}

func TestWait_TwoConsecutiveTransientErrorsDegradeToTimeout(t *testing.T) {
	client := &scriptedClient{rounds: []pollRound{
		{err: &api.TransientError{StatusCode: 502}},
		{err: &api.RateLimitedError{StatusCode: 429}},
	}}
	clock := newFakeClock()
	p := newTestPoller(client, clock, 300*time.Second, 10*time.Second)

	outcome, _, err := p.Wait("acme", "widgets", 42)

	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, outcome)
	assert.Equal(t, 2, client.polls)
}

func TestWait_TransientErrorCounterResetsOnSuccessfulPoll(t *testing.T) {
	pending := []api.CheckRun{{Name: "build", Status: "queued"}}
	green := []api.CheckRun{{Name: "build", Status: "completed", Conclusion: "success"}}
	client := &scriptedClient{rounds: []pollRound{
		{err: &api.TransientError{StatusCode: 502}},
		{runs: pending, state: "unknown"},
		{err: &api.TransientError{StatusCode: 503}},
		{runs: green, state: "clean"},
	}}
	clock := newFakeClock()
	p := newTestPoller(client, clock, 300*time.Second, 10*time.Second)

	outcome, _, err := p.Wait("acme", "widgets", 42)

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, 4, client.polls)
}

func TestWait_AuthErrorPropagates(t *testing.T) {
	client := &scriptedClient{rounds: []pollRound{{err: &api.AuthError{StatusCode: 401}}}}
	clock := newFakeClock()
	p := newTestPoller(client, clock, 30*time.Second, 10*time.Second)

	_, _, err := p.Wait("acme", "widgets", 42)

	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
	assert.Equal(t, 1, client.polls)
	assert.Empty(t, clock.sleeps)
}

func TestWait_NotFoundPropagates(t *testing.T) {
	client := &scriptedClient{rounds: []pollRound{{err: &api.NotFoundError{Path: "/repos/acme/widgets/pulls/42"}}}}
	clock := newFakeClock()
	p := newTestPoller(client, clock, 30*time.Second, 10*time.Second)

	_, _, err := p.Wait("acme", "widgets", 42)

	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}
