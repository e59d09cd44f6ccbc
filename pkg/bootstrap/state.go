package bootstrap

// State is the backend container's progress through required startup
// steps. It moves strictly forward: a sequencer never reports an
// earlier state once a later one is reached.
type State int

const (
	// Unready: nothing is guaranteed yet. The database may not even
	// accept connections.
	Unready State = iota

	// SchemaMigrated: every pending schema version has been applied.
	SchemaMigrated

	// AssetsCollected: static assets are published to the shared volume.
	AssetsCollected

	// Ready: all steps are done; the application server may take over.
	Ready
)

func (s State) String() string {
	switch s {
	case Unready:
		return "unready"
	case SchemaMigrated:
		return "schema-migrated"
	case AssetsCollected:
		return "assets-collected"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}
