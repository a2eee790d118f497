package engine

type flushKind int

const (
	flushAdds flushKind = iota
	flushPatches
)

// scheduler hands flush requests to the consumer loop: one single-slot
// channel per kind, armed with a non-blocking send. Requesting a kind that
// is already armed is a no-op, which is what collapses a burst of updates
// into one callback per drain. The callbacks recompute everything from
// current state, so an extra request lost here can never lose data.
type scheduler struct {
	adds    chan struct{}
	patches chan struct{}
}

func newScheduler() *scheduler {
	return &scheduler{
		adds:    make(chan struct{}, 1),
		patches: make(chan struct{}, 1),
	}
}

func (s *scheduler) RequestFlush(kind flushKind) {
	slot := s.adds
	if kind == flushPatches {
		slot = s.patches
	}
	select {
	case slot <- struct{}{}:
	default:
		// already armed, the pending flush covers this request too
	}
}
