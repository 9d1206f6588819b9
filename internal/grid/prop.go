package grid

// Prop is a row button attribute that is either a constant or computed
// from the record at render time.
type Prop[R any, T any] struct {
	value T
	fn    func(R) T
	set   bool
}

// Static returns a Prop that always yields v.
func Static[R any, T any](v T) Prop[R, T] {
	return Prop[R, T]{value: v, set: true}
}

// Dynamic returns a Prop computed by fn.
func Dynamic[R any, T any](fn func(R) T) Prop[R, T] {
	return Prop[R, T]{fn: fn, set: fn != nil}
}

// IsSet reports whether the Prop was given a value or function.
func (p Prop[R, T]) IsSet() bool { return p.set }

// Get evaluates the Prop for item.
func (p Prop[R, T]) Get(item R) T {
	if p.fn != nil {
		return p.fn(item)
	}
	return p.value
}

// GetOr evaluates the Prop, or returns def when it is unset.
func (p Prop[R, T]) GetOr(item R, def T) T {
	if !p.set {
		return def
	}
	return p.Get(item)
}
