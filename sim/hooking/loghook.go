package hooking

import (
	"log"
)

// A LogHook prints every invocation it observes.
type LogHook struct {
	*log.Logger
}

// NewLogHook creates a LogHook that writes to logger.
func NewLogHook(logger *log.Logger) *LogHook {
	return &LogHook{Logger: logger}
}

// Func prints the position and the item of the invocation.
func (h *LogHook) Func(ctx HookCtx) {
	h.Printf("%s %v", ctx.Pos.Name, ctx.Item)
}
