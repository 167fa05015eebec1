package reconcile

import "time"

type Decision string

const (
	DecisionInsert Decision = "insert"
	DecisionUpdate Decision = "update"
	DecisionIgnore Decision = "ignore"
)

// ResolveByUpdatedAt is last-write-wins: a remote record only replaces the
// local copy when it is strictly newer.
func ResolveByUpdatedAt(remoteUpdatedAt time.Time, localUpdatedAt time.Time, localExists bool) Decision {
	if !localExists {
		return DecisionInsert
	}
	if !remoteUpdatedAt.After(localUpdatedAt) {
		return DecisionIgnore
	}
	return DecisionUpdate
}

// NeedsUpload reports whether a local record should be pushed to the remote copy.
func NeedsUpload(localUpdatedAt time.Time, remoteUpdatedAt time.Time, remoteExists bool) bool {
	if !remoteExists {
		return true
	}
	return localUpdatedAt.After(remoteUpdatedAt)
}
