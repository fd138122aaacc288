package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// Many writers re-arm and cancel reminders for a shared set of todos, the
// way the reminder loop does on every poll. Each surviving key fires once.
func TestEngineConcurrentRearmAndCancel(t *testing.T) {
	engine := NewEngine(1024)
	engine.Start()
	defer engine.Stop()

	const (
		writers = 6
		todos   = 300
	)
	now := time.Now().UTC()
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < todos; i++ {
				ev := Event{
					Key:       fmt.Sprintf("email_reminder:todo-%d", i),
					TodoID:    fmt.Sprintf("todo-%d", i),
					Kind:      "email_reminder",
					TriggerAt: now.Add(time.Duration(50+(w*7+i)%40) * time.Millisecond),
				}
				if err := engine.Schedule(ev); err != nil {
					t.Errorf("schedule %s: %v", ev.Key, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	// Cancel the odd todos; they must never fire.
	for i := 1; i < todos; i += 2 {
		engine.Cancel(fmt.Sprintf("email_reminder:todo-%d", i))
	}
	want := todos / 2

	seen := make(map[string]int, want)
	deadline := time.After(5 * time.Second)
	for len(seen) < want {
		select {
		case <-deadline:
			t.Fatalf("timeout: fired=%d want=%d dropped=%d", len(seen), want, engine.Dropped())
		case ev := <-engine.C():
			seen[ev.Key]++
		}
	}

	// Give stragglers a moment to show up as duplicates or cancelled keys.
	select {
	case ev := <-engine.C():
		t.Fatalf("unexpected extra event %s", ev.Key)
	case <-time.After(150 * time.Millisecond):
	}
	for key, n := range seen {
		if n != 1 {
			t.Fatalf("key %s fired %d times", key, n)
		}
	}
	if engine.Len() != 0 || engine.Dropped() != 0 {
		t.Fatalf("expected drained engine, len=%d dropped=%d", engine.Len(), engine.Dropped())
	}
}
