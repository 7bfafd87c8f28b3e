package fw

import (
	"time"

	"github.com/named-data/kite/fw/defn"
	"github.com/named-data/kite/fw/table"
	enc "github.com/named-data/kite/std/encoding"
)

// wouldViolateScope reports whether an Interest name would leave its scope
// if sent from a face of inScope to a face of outScope.
func wouldViolateScope(inScope defn.Scope, name enc.Name, outScope defn.Scope) bool {
	if outScope == defn.Local {
		// forwarding to a local face is always allowed
		return false
	}

	if len(name) > 0 && name[0].Equal(enc.LOCALHOST) {
		// /localhost Interests never leave the host
		return true
	}

	if len(name) > 0 && name[0].Equal(enc.LOCALHOP) {
		// /localhop Interests from other hosts go no further
		return inScope != defn.Local
	}

	return false
}

// canForwardToLegacy reports whether the PIT entry may be forwarded to face:
// there is no unexpired out-record to face, and some other face still has an
// unexpired in-record. A record expiring exactly at now is expired.
func canForwardToLegacy(pitEntry table.PitEntry, face uint64, now time.Time) bool {
	if outRecord, ok := pitEntry.OutRecords()[face]; ok && !outRecord.IsExpired(now) {
		return false
	}

	for inFace, inRecord := range pitEntry.InRecords() {
		if inFace != face && !inRecord.IsExpired(now) {
			return true
		}
	}
	return false
}

// HasPendingOutRecords reports whether the PIT entry has an unexpired
// out-record that has not been Nacked.
func HasPendingOutRecords(pitEntry table.PitEntry) bool {
	now := time.Now()
	for _, outRecord := range pitEntry.OutRecords() {
		if !outRecord.ExpirationTime.Before(now) && outRecord.IncomingNack == nil {
			return true
		}
	}
	return false
}
