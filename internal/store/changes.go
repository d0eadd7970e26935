package store

// ChangeKind identifies what a committed write did to a document.
type ChangeKind int

// Change kinds.
const (
	ChangeCreated ChangeKind = iota + 1
	ChangeUpdated
	ChangeDeleted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change describes one document changed by a committed batch.
// Before is nil for creations, After is nil for deletions.
// Seq is the change's outbox sequence number, zero when it is not recorded.
type Change struct {
	Seq    uint64
	Kind   ChangeKind
	Path   string
	Group  string
	Before *Snapshot
	After  *Snapshot
}
