package match

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const fingerprintSeparator = "|"

// Fingerprint hashes players, score and venue. The database computes the same
// digest in update_match_score, so the layout must stay in sync with it.
func Fingerprint(m Match) string {
	slots := m.Slots()
	parts := []string{
		slots[0],
		slots[1],
		slots[2],
		slots[3],
		strconv.Itoa(m.ScoreTeam1),
		strconv.Itoa(m.ScoreTeam2),
		m.VenueID,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, fingerprintSeparator)))
	return hex.EncodeToString(sum[:])
}
