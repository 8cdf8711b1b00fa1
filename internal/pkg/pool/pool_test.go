package pool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunsAllSubmittedJobs(t *testing.T) {
	p := New(3)

	var done int64
	for i := 0; i < 20; i++ {
		p.Submit(func() {
			atomic.AddInt64(&done, 1)
		})
	}

	p.Close()
	p.Wait()
	require.EqualValues(t, 20, done)
}

func TestNilJobIsIgnored(t *testing.T) {
	p := New(1)

	p.Submit(nil)
	p.Submit(func() {})

	p.Close()
	p.Wait()
}
