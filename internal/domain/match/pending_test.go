package match

import (
	"slices"
	"testing"
)

func TestQueueScorePush_KeepsFirstBase(t *testing.T) {
	var m Match
	m.QueueVerifyPush("C")
	m.QueueScorePush(3, "A")
	m.QueueScorePush(4, "B")

	if m.Pending.BaseVersion != 3 || m.Pending.UpdatedBy != "B" {
		t.Fatalf("expected base 3 by the last editor, got %+v", m.Pending)
	}
	if len(m.Pending.Verifiers) != 0 {
		t.Fatalf("a score edit must drop queued verifications, got %v", m.Pending.Verifiers)
	}
}

func TestQueueVerifyPush_Dedupes(t *testing.T) {
	var m Match
	m.QueueVerifyPush("C")
	m.QueueVerifyPush("D")
	m.QueueVerifyPush("C")

	if !slices.Equal(m.Pending.Verifiers, []string{"C", "D"}) {
		t.Fatalf("unexpected verifiers: %v", m.Pending.Verifiers)
	}
	if !m.HasPendingPush() {
		t.Fatalf("expected pending push")
	}
}

func TestSettlePush(t *testing.T) {
	tests := []struct {
		name    string
		settle  func(m *Match)
		want    *PendingPush
		pending bool
	}{
		{
			name:   "score accepted",
			settle: func(m *Match) { m.SettleScorePush(5, false) },
			want:   nil,
		},
		{
			name:    "score rebased after a newer edit",
			settle:  func(m *Match) { m.SettleScorePush(5, true) },
			want:    &PendingPush{BaseVersion: 5, UpdatedBy: "A"},
			pending: true,
		},
		{
			name:    "unknown verifier leaves score queued",
			settle:  func(m *Match) { m.SettleVerifyPush("Z") },
			want:    &PendingPush{BaseVersion: 4, UpdatedBy: "A"},
			pending: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Match
			m.QueueScorePush(4, "A")
			tt.settle(&m)

			if m.HasPendingPush() != tt.pending {
				t.Fatalf("expected pending=%v, got %+v", tt.pending, m.Pending)
			}
			if tt.want == nil {
				if m.Pending != nil {
					t.Fatalf("expected pending cleared, got %+v", m.Pending)
				}
				return
			}
			if m.Pending.BaseVersion != tt.want.BaseVersion || m.Pending.UpdatedBy != tt.want.UpdatedBy {
				t.Fatalf("expected %+v, got %+v", tt.want, m.Pending)
			}
		})
	}
}

func TestSettleVerifyPush_ClearsWhenDone(t *testing.T) {
	var m Match
	m.QueueVerifyPush("C")
	m.SettleVerifyPush("C")

	if m.Pending != nil || m.HasPendingPush() {
		t.Fatalf("expected pending cleared, got %+v", m.Pending)
	}
}

func TestClone_CopiesPending(t *testing.T) {
	var m Match
	m.QueueVerifyPush("C")

	copied := Clone(m)
	copied.Pending.Verifiers[0] = "D"
	if m.Pending.Verifiers[0] != "C" {
		t.Fatalf("clone must not share the pending verifiers")
	}
}
