package service

import (
	"context"
	"log/slog"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// postCommit collects side effects during an operation and fires them after
// the atomic unit commits. Hooks are best-effort: errors and panics are logged
// and discarded, so a side effect can never block or unwind the mutation, and
// a failed unit never fires its hooks.
type postCommit struct {
	hooks []hook
}

func (p *postCommit) add(name string, fn func(context.Context) error) {
	p.hooks = append(p.hooks, hook{name: name, fn: fn})
}

func (p *postCommit) run(ctx context.Context, log *slog.Logger) {
	for _, h := range p.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("post-commit hook panicked", "hook", h.name, "panic", r)
				}
			}()
			if err := h.fn(ctx); err != nil {
				log.Error("post-commit hook failed", "hook", h.name, "error", err)
			}
		}()
	}
}
