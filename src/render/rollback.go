package render

// rollback collects release funcs for resources acquired by one builder call.
// Unless released, unwind runs them in reverse order of registration, which is
// the reverse of creation order. unwind also runs while a panic from OrPanic is
// propagating, before CheckError turns it into an error.
type rollback struct {
	fns      []func()
	released bool
}

func (r *rollback) push(fn func()) {
	r.fns = append(r.fns, fn)
}

// release disarms the rollback once ownership has moved to the caller.
func (r *rollback) release() {
	r.released = true
	r.fns = nil
}

func (r *rollback) unwind() {
	if r.released {
		return
	}
	for i := len(r.fns) - 1; i >= 0; i-- {
		r.fns[i]()
	}
	r.fns = nil
}
