// Package editor carries the per-editing-session state the save
// workflow needs, plus the autosave ticker that drives periodic saves.
package editor

// Session is the state a client holds across one editing session of a
// single content record. It is an explicit value passed into every save
// and returned advanced; no hidden mutable state.
type Session struct {
	// OriginalSlug is the slug the session last observed as persisted.
	// A save whose draft slug differs creates a redirect from this value
	// and advances it, so a second rename in the same session redirects
	// from the second slug, not the first.
	OriginalSlug string `json:"originalSlug"`

	// Loaded is false until the initial record fetch completes. Saves
	// must not run before then.
	Loaded bool `json:"loaded"`

	// New marks a record that has never been persisted. The first save
	// of a new record skips revisioning and redirect bookkeeping; there
	// is no prior state to preserve.
	New bool `json:"new"`
}

// CanSave reports whether the save workflow may proceed for an existing
// record. Autosave ticks call this and no-op quietly when it fails.
func (s Session) CanSave() bool {
	return s.Loaded && !s.New
}
