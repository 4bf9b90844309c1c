package pipelines

// IgnoreChan lets a worker tell the file watcher which paths it now owns
// (e.g. a cargo target dir), so the watcher does not treat the worker's own
// output as a source change. Sends are best-effort: they never block and
// never fail the build when the receiving side is slow or absent. When the
// buffer is full the notification is dropped; the cost of a drop is at most
// one redundant rebuild.
type IgnoreChan struct {
	C chan string
}

// NewIgnoreChan creates an ignore channel with a small fixed buffer.
func NewIgnoreChan() *IgnoreChan {
	return &IgnoreChan{C: make(chan string, 16)}
}

// Send offers a path to the watcher. A nil receiver is a no-op, so builds
// without a watcher pass nil instead of wiring a drain goroutine.
func (c *IgnoreChan) Send(path string) {
	if c == nil {
		return
	}
	select {
	case c.C <- path:
	default:
	}
}
