package xrl

// ViewId is the opaque token the core mints for one open document view.
// The core chooses its shape ("view-id-1", ...); this side only stores,
// compares and echoes it back on every per-view call.
type ViewId string

func (self ViewId) String() string {
	return string(self)
}
