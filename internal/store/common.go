package store

import "encoding/binary"

const (
	ErrFailedBatchCommit = "failed to commit batch: %w"
)

// Prefix constants for all tables. Each table is owned by one component.
const (
	PrefixSequence byte = iota + 1
	PrefixEvent
	PrefixReport
	PrefixStake
	PrefixSettlement
	PrefixCrisis
	PrefixDonation
	PrefixVoucher
	PrefixFactToken
	PrefixProof
	PrefixImpactToken
	PrefixHolding
)

// PrefixToString converts a prefix byte to a string
func PrefixToString(p byte) string {
	switch p {
	case PrefixSequence:
		return "sequence"
	case PrefixEvent:
		return "event"
	case PrefixReport:
		return "report"
	case PrefixStake:
		return "stake"
	case PrefixSettlement:
		return "settlement"
	case PrefixCrisis:
		return "crisis"
	case PrefixDonation:
		return "donation"
	case PrefixVoucher:
		return "voucher"
	case PrefixFactToken:
		return "factToken"
	case PrefixProof:
		return "proof"
	case PrefixImpactToken:
		return "impactToken"
	case PrefixHolding:
		return "holding"
	default:
		return "unknown"
	}
}

// makeKey creates a key from a prefix and raw bytes
func makeKey(prefix byte, b []byte) []byte {
	key := make([]byte, 1+len(b))
	key[0] = prefix
	copy(key[1:], b)
	return key
}

// IDKey builds prefix || id. Ids are big-endian so keys sort numerically.
func IDKey(prefix byte, id uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte{prefix}, id)
}

// ChildKey builds prefix || parent || index for records owned by a parent entity.
func ChildKey(prefix byte, parent uint64, index uint32) []byte {
	key := IDKey(prefix, parent)
	return binary.BigEndian.AppendUint32(key, index)
}

// HashKey builds prefix || hash.
func HashKey(prefix byte, hash []byte) []byte {
	return makeKey(prefix, hash)
}

// ParentRange returns the bounds covering every ChildKey of parent.
func ParentRange(prefix byte, parent uint64) (start, end []byte) {
	return IDKey(prefix, parent), IDKey(prefix, parent+1)
}

// PrefixRange returns the bounds covering every key that starts with prefix.
func PrefixRange(prefix []byte) (start, end []byte) {
	start = append([]byte(nil), prefix...)
	end = append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return start, end[:i+1]
		}
	}
	return start, nil
}
