package tui

import "github.com/mcdev12/watchparty/go/internal/watchroom"

// Feed returns an OnChange hook and the channel it publishes to. When the UI
// falls behind only the newest snapshot is kept.
func Feed() (func(watchroom.Snapshot), <-chan watchroom.Snapshot) {
	ch := make(chan watchroom.Snapshot, 1)
	publish := func(snap watchroom.Snapshot) {
		for {
			select {
			case ch <- snap:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
	return publish, ch
}
