package dialect

// Dialect abstracts the per-database SQL surface the binder needs: how
// positional placeholders are rendered, and a name for log correlation.
type Dialect interface {
	Placeholder(n int) string
	Name() string
}
