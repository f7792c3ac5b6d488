package display

import "context"

type managerKey struct{}

// WithManager returns a copy of ctx that carries m.
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, m)
}

// FromContext returns the Manager carried by ctx.
// It panics if ctx carries none: raising toasts without a Manager is a wiring bug.
func FromContext(ctx context.Context) *Manager {
	m, ok := ctx.Value(managerKey{}).(*Manager)
	if !ok || m == nil {
		panic("display: no toast Manager in context; wrap it with WithManager")
	}
	return m
}
