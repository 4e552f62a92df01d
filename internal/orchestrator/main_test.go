package orchestrator

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// go.opencensus.io starts this worker goroutine in its package init, so
	// it is running before any test code executes and is not a leak here.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}
