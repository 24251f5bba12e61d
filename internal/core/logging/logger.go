package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component returns the global logger tagged with cmp=name.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// Install replaces the global logger with l, adding the context hook so
// events logged with .Ctx(ctx) carry the session and iteration.
func Install(l zerolog.Logger) {
	log.Logger = l.Hook(ContextHook{})
}
