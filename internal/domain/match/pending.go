package match

import "slices"

// PendingPush is the remote work queued by local edits of a synced match.
// A score edit is replayed as one compare-and-swap from BaseVersion with the
// current local scores; verifications are replayed in order afterwards.
type PendingPush struct {
	// BaseVersion is the remote version the first unpushed score edit was
	// made against. Zero means no score edit is pending.
	BaseVersion int64    `json:"base_version,omitempty"`
	UpdatedBy   string   `json:"updated_by,omitempty"`
	Verifiers   []string `json:"verifiers,omitempty"`
}

func (p *PendingPush) clone() *PendingPush {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Verifiers = slices.Clone(p.Verifiers)
	return &copied
}

func (p *PendingPush) empty() bool {
	return p == nil || (p.BaseVersion == 0 && len(p.Verifiers) == 0)
}

func (m Match) HasPendingPush() bool {
	return !m.Pending.empty()
}

// QueueScorePush records a score edit made on top of readVersion. Later edits
// keep the first base so the replay still matches the remote row. Queued
// verifications are dropped because a score edit resets them.
func (m *Match) QueueScorePush(readVersion int64, updatedBy string) {
	if m.Pending == nil {
		m.Pending = &PendingPush{}
	}
	if m.Pending.BaseVersion == 0 {
		m.Pending.BaseVersion = readVersion
	}
	m.Pending.UpdatedBy = updatedBy
	m.Pending.Verifiers = nil
}

func (m *Match) QueueVerifyPush(profileID string) {
	if m.Pending == nil {
		m.Pending = &PendingPush{}
	}
	if !slices.Contains(m.Pending.Verifiers, profileID) {
		m.Pending.Verifiers = append(m.Pending.Verifiers, profileID)
	}
}

// SettleScorePush marks the pending score edit as accepted at remoteVersion.
// When the local row moved on after the push, the edit stays queued on top
// of the new remote version.
func (m *Match) SettleScorePush(remoteVersion int64, stillPending bool) {
	if m.Pending == nil {
		return
	}
	if stillPending {
		m.Pending.BaseVersion = remoteVersion
	} else {
		m.Pending.BaseVersion = 0
		m.Pending.UpdatedBy = ""
	}
	m.clearEmptyPending()
}

func (m *Match) SettleVerifyPush(profileID string) {
	if m.Pending == nil {
		return
	}
	m.Pending.Verifiers = slices.DeleteFunc(m.Pending.Verifiers, func(v string) bool { return v == profileID })
	m.clearEmptyPending()
}

func (m *Match) clearEmptyPending() {
	if m.Pending.empty() {
		m.Pending = nil
	}
}
