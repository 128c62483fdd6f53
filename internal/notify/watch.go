package notify

// Watch returns a channel that receives the latest snapshot after each
// change, and a func that stops the watch. A slow reader skips intermediate
// snapshots but never misses the newest one.
func (c *Center) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	unsubscribe := c.Subscribe(func(s Snapshot) {
		for {
			select {
			case ch <- s:
				return
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
	})

	return ch, unsubscribe
}
