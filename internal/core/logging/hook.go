package logging

import "github.com/rs/zerolog"

// ContextHook stamps events logged with .Ctx(ctx) with the loop session and
// iteration, so lines in the app log can be matched to the session log.
type ContextHook struct{}

// Run implements zerolog.Hook.
func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	f := fieldsFrom(ctx)
	if f.sessionID != "" {
		e.Str("session_id", f.sessionID)
	}
	if f.iteration > 0 {
		e.Int("iteration", f.iteration)
	}
}
