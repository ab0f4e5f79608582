package consistency

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRouteReadInsideWindowGoesToPrimary(t *testing.T) {
	clock := newFakeClock()
	router := NewRouter(WithClock(clock.Now))

	router.RecordWrite("program-1")

	assert.Equal(t, ReadPrimary, router.RouteRead("program-1"))

	clock.Advance(59 * time.Second)
	assert.Equal(t, ReadPrimary, router.RouteRead("program-1"), "still inside the window")
}

func TestRouteReadAfterWindowGoesToReplica(t *testing.T) {
	clock := newFakeClock()
	router := NewRouter(WithClock(clock.Now))

	router.RecordWrite("program-1")
	clock.Advance(60 * time.Second)

	assert.Equal(t, ReadReplica, router.RouteRead("program-1"))
	assert.Equal(t, 0, router.Len(), "expired entry is dropped on read")
}

func TestRouteReadUnknownIDGoesToReplica(t *testing.T) {
	router := NewRouter()
	assert.Equal(t, ReadReplica, router.RouteRead("never-written"))
}

func TestRecordWriteRefreshesWindow(t *testing.T) {
	clock := newFakeClock()
	router := NewRouter(WithClock(clock.Now))

	router.RecordWrite("program-1")
	clock.Advance(45 * time.Second)
	router.RecordWrite("program-1")
	clock.Advance(45 * time.Second)

	assert.Equal(t, ReadPrimary, router.RouteRead("program-1"))
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	clock := newFakeClock()
	router := NewRouter(WithClock(clock.Now), WithCapacity(3), WithWindow(time.Hour))

	for i := 1; i <= 4; i++ {
		router.RecordWrite(fmt.Sprintf("program-%d", i))
		clock.Advance(time.Second)
	}

	assert.Equal(t, 3, router.Len())
	assert.Equal(t, ReadReplica, router.RouteRead("program-1"), "oldest entry evicted")
	assert.Equal(t, ReadPrimary, router.RouteRead("program-2"))
	assert.Equal(t, ReadPrimary, router.RouteRead("program-4"))
}

func TestSweepDropsOnlyExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	router := NewRouter(WithClock(clock.Now))

	router.RecordWrite("old")
	clock.Advance(40 * time.Second)
	router.RecordWrite("fresh")
	clock.Advance(20 * time.Second) // "old" is now 60s old, "fresh" 20s

	router.Sweep()

	assert.Equal(t, 1, router.Len())
	assert.Equal(t, ReadReplica, router.RouteRead("old"))
	assert.Equal(t, ReadPrimary, router.RouteRead("fresh"))
}

func TestConcurrentAccessIsSafe(t *testing.T) {
	router := NewRouter(WithCapacity(100))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("p-%d-%d", g, i)
				router.RecordWrite(id)
				router.RouteRead(id)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, router.Len(), 100)
}
