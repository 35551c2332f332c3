package service

import "sync"

// Tasks runs best-effort work off the request path and lets shutdown wait
// for it to drain.
type Tasks struct {
	wg sync.WaitGroup
}

func (t *Tasks) Go(fn func()) {
	if t == nil {
		go fn()
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

func (t *Tasks) Wait() {
	if t != nil {
		t.wg.Wait()
	}
}
