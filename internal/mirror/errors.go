package mirror

import (
	"errors"
	"fmt"
)

// ErrNoCandidates indicates the loader produced zero candidates after
// normalization: empty configuration and no fallback. Reported before any
// network activity.
var ErrNoCandidates = errors.New("no mirror candidates to probe")

// ErrNoViableMirrors indicates probing ran but no mirror passed the quality
// thresholds. Distinct from ErrNoCandidates: mirrors were reachable (or at
// least probed), they just weren't good enough.
var ErrNoViableMirrors = errors.New("no mirrors met the quality thresholds")

// PersistError wraps a filesystem failure while writing the repo file.
// The pre-existing file is guaranteed untouched when this is returned.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("writing repo file %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
