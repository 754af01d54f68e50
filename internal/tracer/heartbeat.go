package tracer

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits periodic events while a long operation runs. A trace
// with heartbeats but no span end shows where the tool got stuck.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	parent   uint64
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// StartHeartbeat starts emitting under parent every interval. It returns
// nil when tracing is off or interval is not positive; Stop accepts nil.
func StartHeartbeat(t Tracer, interval time.Duration, parent uint64) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   t,
		interval: interval,
		parent:   parent,
		stopCh:   make(chan struct{}),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	seq := uint64(0)
	for {
		select {
		case <-ticker.C:
			seq++
			h.tracer.Emit(&Event{
				Time:     time.Now(),
				Seq:      NextSeq(),
				Kind:     KindHeartbeat,
				Scope:    ScopeCommand,
				ParentID: h.parent,
				GID:      goroutineID(),
				Name:     "heartbeat",
				Detail:   fmt.Sprintf("#%d", seq),
			})
		case <-h.stopCh:
			return
		}
	}
}

// Stop stops the goroutine and waits for it to exit.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() { close(h.stopCh) })
	h.wg.Wait()
}
