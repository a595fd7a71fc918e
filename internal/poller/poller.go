// Package poller waits for a pull request's checks to reach a terminal
// state within a fixed time budget.
package poller

import (
	"time"

	"github.com/rs/zerolog/log"

	"depkeeper/internal/api"
	"depkeeper/internal/checks"
)

// Outcome is the terminal result of a polling session. It is computed per
// session and handed to the merge decision, never persisted.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// ChecksClient is the slice of the GitHub client the poller needs.
type ChecksClient interface {
	GetPullRequest(owner, repo string, number int) (*api.PullRequest, error)
	GetCombinedStatus(owner, repo, ref string) (*api.CombinedStatus, error)
	ListCheckRuns(owner, repo, ref string) ([]api.CheckRun, error)
}

// Poller repeatedly reads a PR's combined check state until it succeeds,
// fails, or the time budget runs out.
type Poller struct {
	client   ChecksClient
	timeout  time.Duration
	interval time.Duration

	// now and sleep are swapped out in tests
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a Poller with the given time budget and poll interval.
func New(client ChecksClient, timeout, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		timeout:  timeout,
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// NewWithClock creates a Poller with custom time functions so tests can run
// polling sessions without real sleeping.
func NewWithClock(client ChecksClient, timeout, interval time.Duration, now func() time.Time, sleep func(time.Duration)) *Poller {
	p := New(client, timeout, interval)
	p.now = now
	p.sleep = sleep
	return p
}

// Wait polls the pull request until its checks reach a terminal state or
// the time budget is exhausted, and returns the outcome together with the
// PR snapshot from the last poll.
//
// Success and failure short-circuit: the poller never waits out remaining
// budget once a terminal check state is visible. A PR with no checks at all
// succeeds on the first poll without sleeping.
//
// A transient or rate-limit error from the API is retried once after the
// normal poll interval; two consecutive such errors degrade the session to
// OutcomeTimeout rather than looping on a broken backend. All other errors
// are returned to the caller.
func (p *Poller) Wait(owner, repo string, number int) (Outcome, *api.PullRequest, error) {
	start := p.now()
	apiFailures := 0
	var pr *api.PullRequest

	for {
		state, latest, err := p.poll(owner, repo, number)
		if latest != nil {
			pr = latest
		}
		if err != nil {
			if api.IsTransient(err) || api.IsRateLimited(err) {
				apiFailures++
				if apiFailures >= 2 {
					log.Warn().Str("repo", owner+"/"+repo).Int("pr", number).
						Msg("giving up polling after repeated API errors")
					return OutcomeTimeout, pr, nil
				}
				log.Warn().Err(err).Str("repo", owner+"/"+repo).Int("pr", number).
					Msg("poll failed, retrying once")
				p.sleep(p.interval)
				continue
			}
			return "", pr, err
		}
		apiFailures = 0

		switch state {
		case checks.StateSuccess:
			return OutcomeSuccess, pr, nil
		case checks.StateFailure:
			return OutcomeFailure, pr, nil
		}

		log.Debug().Str("repo", owner+"/"+repo).Int("pr", number).
			Str("mergeable_state", pr.MergeableState).
			Msg("checks still pending, waiting")
		p.sleep(p.interval)

		if p.now().Sub(start) >= p.timeout {
			return OutcomeTimeout, pr, nil
		}
	}
}

// poll fetches a fresh PR record and evaluates its current check state.
func (p *Poller) poll(owner, repo string, number int) (checks.State, *api.PullRequest, error) {
	pr, err := p.client.GetPullRequest(owner, repo, number)
	if err != nil {
		return 0, nil, err
	}

	combined, err := p.client.GetCombinedStatus(owner, repo, pr.Head.SHA)
	if err != nil {
		return 0, pr, err
	}

	runs, err := p.client.ListCheckRuns(owner, repo, pr.Head.SHA)
	if err != nil {
		return 0, pr, err
	}

	return checks.Evaluate(combined, runs), pr, nil
}
