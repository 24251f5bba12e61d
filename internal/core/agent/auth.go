package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/ralph/internal/core/cancel"
	"github.com/rs/zerolog"
)

const authPrompt = "Reply with the single word OK and nothing else."

// AuthRecord is a cached successful auth check.
type AuthRecord struct {
	Agent     string    `json:"agent"`
	CheckedAt time.Time `json:"checked_at"`
}

// AuthCache persists successful auth checks.
type AuthCache interface {
	Get(agent string) (AuthRecord, bool, error)
	Put(rec AuthRecord) error
	Clear() error
}

// AuthStatus is the outcome of an auth check.
type AuthStatus struct {
	OK        bool
	Cached    bool
	CheckedAt time.Time
	Detail    string
}

// AuthChecker verifies the agent is installed and signed in by sending it a
// trivial prompt. Successful checks are cached for TTL.
type AuthChecker struct {
	agent   Agent
	cache   AuthCache
	dir     string
	ttl     time.Duration
	timeout time.Duration
	logger  zerolog.Logger

	now func() time.Time
}

// NewAuthChecker creates an AuthChecker. cache may be nil to disable caching.
func NewAuthChecker(a Agent, cache AuthCache, dir string, ttl, timeout time.Duration, logger zerolog.Logger) *AuthChecker {
	return &AuthChecker{
		agent:   a,
		cache:   cache,
		dir:     dir,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Cached returns the cached status without contacting the agent. ok is false
// when there is no unexpired record.
func (c *AuthChecker) Cached() (AuthStatus, bool) {
	if c.cache == nil {
		return AuthStatus{}, false
	}

	rec, found, err := c.cache.Get(c.agent.Name())
	if err != nil {
		c.logger.Warn().Err(err).Msg("read auth cache")
		return AuthStatus{}, false
	}
	if !found || c.now().Sub(rec.CheckedAt) > c.ttl {
		return AuthStatus{}, false
	}

	return AuthStatus{OK: true, Cached: true, CheckedAt: rec.CheckedAt}, true
}

// Check returns a cached success when one is fresh, otherwise runs the
// bounded check. A failed check is a status, not an error; only cancellation
// is returned as an error.
func (c *AuthChecker) Check(ctx context.Context) (AuthStatus, error) {
	if st, ok := c.Cached(); ok {
		c.logger.Debug().Time("checked_at", st.CheckedAt).Msg("auth check cached")
		return st, nil
	}

	res, err := RunBounded(ctx, c.agent, Request{Dir: c.dir, Prompt: authPrompt}, c.timeout)
	now := c.now()

	switch {
	case ctx.Err() != nil:
		return AuthStatus{}, cancel.FromContext(ctx)
	case errors.Is(err, ErrTimeout):
		return AuthStatus{CheckedAt: now, Detail: fmt.Sprintf("no response within %s", c.timeout)}, nil
	case err != nil:
		return AuthStatus{CheckedAt: now, Detail: firstLine(res.Output, err.Error())}, nil
	case strings.TrimSpace(res.Output) == "":
		return AuthStatus{CheckedAt: now, Detail: "agent produced no output"}, nil
	}

	if c.cache != nil {
		if err := c.cache.Put(AuthRecord{Agent: c.agent.Name(), CheckedAt: now}); err != nil {
			c.logger.Warn().Err(err).Msg("write auth cache")
		}
	}

	return AuthStatus{OK: true, CheckedAt: now}, nil
}

// Recheck drops every cached record and runs a fresh check. A failing
// recheck therefore leaves no stale success behind.
func (c *AuthChecker) Recheck(ctx context.Context) (AuthStatus, error) {
	if c.cache != nil {
		if err := c.cache.Clear(); err != nil {
			c.logger.Warn().Err(err).Msg("clear auth cache")
		}
	}
	return c.Check(ctx)
}

func firstLine(s, fallback string) string {
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return fallback
}
