package app

import (
	"sync"
	"time"

	"yashubustudio/sedefinder/finder"
)

const searchDebounce = 180 * time.Millisecond

// searchWorker runs the queries typed into one search box. Keystrokes are
// debounced, every query is stamped, and a response is delivered only when no
// newer query has been issued or answered since.
type searchWorker struct {
	svc     *finder.Service
	kind    finder.QueryKind
	delay   time.Duration
	deliver func(finder.Response)

	seq   finder.Sequencer
	mu    sync.Mutex
	timer *time.Timer
}

func newSearchWorker(svc *finder.Service, kind finder.QueryKind, delay time.Duration, deliver func(finder.Response)) *searchWorker {
	if delay <= 0 {
		delay = searchDebounce
	}
	return &searchWorker{svc: svc, kind: kind, delay: delay, deliver: deliver}
}

// Submit schedules a query for text, replacing any query still waiting.
func (w *searchWorker) Submit(text string) uint64 {
	seq := w.seq.Stamp()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		w.run(finder.Request{Seq: seq, Kind: w.kind, Text: text})
	})
	return seq
}

func (w *searchWorker) run(req finder.Request) {
	if req.Seq != w.seq.Latest() {
		return
	}
	resp := w.svc.Query(req)
	if resp.Seq != w.seq.Latest() || !w.seq.Accept(resp.Seq) {
		return
	}
	w.deliver(resp)
}

// Refresh re-runs the last submitted text immediately, for example after a
// dataset reload.
func (w *searchWorker) Refresh(text string) {
	seq := w.seq.Stamp()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	go w.run(finder.Request{Seq: seq, Kind: w.kind, Text: text})
}

// Stop cancels a pending query.
func (w *searchWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
