package gpu

// retired is a resource waiting for the GPU to pass a submission index.
type retired struct {
	after   uint64
	release func()
}

// RetireList defers destruction of GPU objects until the queue has
// completed every submission that could reference them.
type RetireList struct {
	pending []retired
}

// Retire queues release to run once the GPU has completed submission index
// after. The index is normally FrameSync.Signaled at the time of the call.
func (l *RetireList) Retire(after uint64, release func()) {
	if release == nil {
		return
	}
	l.pending = append(l.pending, retired{after: after, release: release})
}

// Len returns how many releases are pending.
func (l *RetireList) Len() int { return len(l.pending) }

// Collect runs every release whose submission index has completed and
// returns how many ran. Releases run in retirement order.
func (l *RetireList) Collect(completed uint64) int {
	n := 0
	keep := l.pending[:0]
	for _, r := range l.pending {
		if r.after <= completed {
			r.release()
			n++
			continue
		}
		keep = append(keep, r)
	}
	clear(l.pending[len(keep):])
	l.pending = keep
	if n > 0 {
		slogger().Debug("gpu: released retired resources", "count", n, "completed", completed)
	}
	return n
}

// Drain runs every pending release. Only call after a full GPU wait.
func (l *RetireList) Drain() int {
	n := len(l.pending)
	for _, r := range l.pending {
		r.release()
	}
	clear(l.pending)
	l.pending = l.pending[:0]
	return n
}
