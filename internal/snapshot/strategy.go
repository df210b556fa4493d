package snapshot

// Strategy binds a value type V to an artifact format F.
//
// Strategies are built once by format authors and shared read-only across
// every verification call.
type Strategy[V, F any] struct {
	// Snapshot turns a value into an artifact, possibly asynchronously.
	Snapshot func(V) *Async[F]

	// Diffing encodes, decodes and compares artifacts of format F.
	Diffing Diffing[F]

	// PathExtension is appended to reference file names (without the dot).
	// Empty means no extension.
	PathExtension string

	// Degenerate reports whether a produced artifact is empty in a
	// format-defined way (e.g. a zero-area image). When it returns true and
	// a reference exists, the reference is compared against itself, so such
	// artifacts are never flagged. Optional.
	Degenerate func(F) bool
}

// Pullback derives a strategy for values of type A from a strategy for V.
func Pullback[A, V, F any](s Strategy[V, F], transform func(A) V) Strategy[A, F] {
	return Strategy[A, F]{
		Snapshot: func(a A) *Async[F] {
			return s.Snapshot(transform(a))
		},
		Diffing:       s.Diffing,
		PathExtension: s.PathExtension,
		Degenerate:    s.Degenerate,
	}
}

// AsyncPullback is Pullback for transforms that themselves produce
// asynchronously.
func AsyncPullback[A, V, F any](s Strategy[V, F], transform func(A) *Async[V]) Strategy[A, F] {
	return Strategy[A, F]{
		Snapshot: func(a A) *Async[F] {
			inner := transform(a)
			return NewAsync(func(out *Async[F]) {
				<-inner.done
				switch {
				case inner.err != nil:
					out.Reject(inner.err)
				case !inner.ok:
					out.Abandon()
				default:
					next := s.Snapshot(inner.value)
					<-next.done
					switch {
					case next.err != nil:
						out.Reject(next.err)
					case !next.ok:
						out.Abandon()
					default:
						out.Resolve(next.value)
					}
				}
			})
		},
		Diffing:       s.Diffing,
		PathExtension: s.PathExtension,
		Degenerate:    s.Degenerate,
	}
}
