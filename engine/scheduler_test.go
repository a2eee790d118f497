package engine

import (
	"testing"

	. "github.com/fulldump/biff"
)

func TestSchedulerCoalescesRequests(t *testing.T) {

	// Setup
	s := newScheduler()

	// Run: a burst of requests while nobody drains
	for i := 0; i < 100; i++ {
		s.RequestFlush(flushAdds)
	}

	// Check: exactly one callback pending
	AssertTrue(drained(s.adds))
	AssertFalse(drained(s.adds))
}

func TestSchedulerKindsAreIndependent(t *testing.T) {

	// Setup
	s := newScheduler()

	// Run
	s.RequestFlush(flushPatches)

	// Check
	AssertFalse(drained(s.adds))
	AssertTrue(drained(s.patches))
}

func TestSchedulerRearmsAfterDrain(t *testing.T) {

	// Setup
	s := newScheduler()
	s.RequestFlush(flushAdds)
	drained(s.adds)

	// Run
	s.RequestFlush(flushAdds)

	// Check
	AssertTrue(drained(s.adds))
}
