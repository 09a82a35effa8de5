package clock

import (
	"testing"
	"time"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var got []int
	c.AfterFunc(2*time.Second, func() { got = append(got, 2) })
	c.AfterFunc(time.Second, func() { got = append(got, 1) })

	c.Advance(1500 * time.Millisecond)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("after 1.5s got=%v want [1]", got)
	}
	c.Advance(time.Second)
	if len(got) != 2 || got[1] != 2 {
		t.Fatalf("after 2.5s got=%v want [1 2]", got)
	}
	if c.Pending() != 0 {
		t.Fatalf("pending=%d want 0", c.Pending())
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Fatal("first Stop should report true")
	}
	if tm.Stop() {
		t.Fatal("second Stop should report false")
	}
	c.Advance(time.Minute)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestFakeChainedTimersWithinAdvance(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var at []time.Duration
	start := c.Now()
	var schedule func(d time.Duration)
	schedule = func(d time.Duration) {
		c.AfterFunc(d, func() {
			at = append(at, c.Now().Sub(start))
			if d < 4*time.Second {
				schedule(d * 2)
			}
		})
	}
	schedule(time.Second)

	c.Advance(3 * time.Second)
	if len(at) != 2 || at[0] != time.Second || at[1] != 3*time.Second {
		t.Fatalf("fired at %v want [1s 3s]", at)
	}
	c.Advance(4 * time.Second)
	if len(at) != 3 || at[2] != 7*time.Second {
		t.Fatalf("fired at %v want third at 7s", at)
	}
}
