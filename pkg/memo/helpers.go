package memo

// Once returns a function that invokes fn exactly once and returns the
// stored result on every later call.
func Once[R any](fn func() R) func() R {
	c := &Cache{}
	return func() R {
		return Get(c, nil, fn)
	}
}

// OnceErr is Once for computations that can fail. A failed invocation is
// not stored: the next call invokes fn again.
func OnceErr[R any](fn func() (R, error)) func() (R, error) {
	c := &Cache{}
	return func() (R, error) {
		return Do(c, nil, fn)
	}
}

// Ref1 memoizes a single-pointer-argument function by argument identity.
func Ref1[A, R any](fn func(*A) R) func(*A) R {
	c := &Cache{}
	return func(a *A) R {
		return Get(c, []Key{ByRef(a)}, func() R { return fn(a) })
	}
}

// Ref2 memoizes a two-pointer-argument function by argument identity.
func Ref2[A, B, R any](fn func(*A, *B) R) func(*A, *B) R {
	c := &Cache{}
	return func(a *A, b *B) R {
		return Get(c, []Key{ByRef(a), ByRef(b)}, func() R { return fn(a, b) })
	}
}

// Ref3 memoizes a three-pointer-argument function by argument identity.
func Ref3[A, B, C, R any](fn func(*A, *B, *C) R) func(*A, *B, *C) R {
	c := &Cache{}
	return func(a *A, b *B, c3 *C) R {
		return Get(c, []Key{ByRef(a), ByRef(b), ByRef(c3)}, func() R { return fn(a, b, c3) })
	}
}
