package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/hay-kot/ralph/internal/core/agent"
)

// AuthCheck reports whether the agent has passed an auth check recently.
// With live set, the cache is dropped and a bounded check is always run.
type AuthCheck struct {
	checker *agent.AuthChecker
	live    bool
	now     func() time.Time
}

// NewAuthCheck creates a new auth check.
func NewAuthCheck(checker *agent.AuthChecker, live bool) *AuthCheck {
	return &AuthCheck{checker: checker, live: live, now: time.Now}
}

func (c *AuthCheck) Name() string {
	return "Agent Auth"
}

func (c *AuthCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if c.live {
		st, err := c.checker.Recheck(ctx)
		switch {
		case err != nil:
			result.add("auth", StatusFail, err.Error())
		case st.OK:
			result.add("auth", StatusPass, "verified")
		default:
			result.add("auth", StatusFail, st.Detail)
		}
		return result
	}

	if st, ok := c.checker.Cached(); ok {
		ago := c.now().Sub(st.CheckedAt).Round(time.Second)
		result.add("auth", StatusPass, fmt.Sprintf("verified %s ago", ago))
		return result
	}

	result.add("auth", StatusWarn, "not verified recently (run 'ralph doctor --auth')")
	return result
}
