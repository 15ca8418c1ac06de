package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClock_Advance_FiresDueTimers(t *testing.T) {
	fc := NewFakeClock(time.Unix(0, 0))
	ch := fc.After(5 * time.Second)

	fc.Advance(2 * time.Second)
	select {
	case <-ch:
		t.Fatal("timer fired too early")
	default:
	}

	fc.Advance(3 * time.Second)
	select {
	case fired := <-ch:
		assert.Equal(t, fc.Now(), fired)
	default:
		t.Fatal("timer did not fire")
	}
}

func TestScope_CancelPropagatesToChild(t *testing.T) {
	parent := NewRootScope()
	child := NewScope(parent.Context())

	parent.Cancel(errTestCancel)

	<-child.Done()
	require.ErrorIs(t, child.Err(), errTestCancel)
}

func TestScope_WithTimeout(t *testing.T) {
	parent := NewRootScope()
	child, cancel := parent.WithTimeout(10 * time.Millisecond)
	defer cancel()

	<-child.Done()
	require.Error(t, child.Err())
}

var errTestCancel = assertErr("scope cancelled for test")

type assertErr string

func (e assertErr) Error() string { return string(e) }
