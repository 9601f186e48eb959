package report

import (
	"fmt"
	"strings"

	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
)

type Filter uint8

const (
	All Filter = iota
	Pending
	Verified
	Invalid
)

// ParseFilter accepts all, open/pending, verified and invalid.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return All, nil
	case "open", "pending":
		return Pending, nil
	case "verified":
		return Verified, nil
	case "invalid":
		return Invalid, nil
	default:
		return 0, fmt.Errorf("unknown report filter %q", s)
	}
}

func (f Filter) match(r Report) bool {
	switch f {
	case Pending:
		return r.State == Open
	case Verified:
		return r.State == Finalized && r.Valid
	case Invalid:
		return r.State == Finalized && !r.Valid
	default:
		return true
	}
}

// Stats counts reports per verdict.
type Stats struct {
	Total    uint64
	Pending  uint64
	Verified uint64
	Invalid  uint64
}

// List returns the reports matching filter in id order.
func (r *Registry) List(rd db.Reader, filter Filter) ([]Report, error) {
	start, end := store.PrefixRange([]byte{store.PrefixReport})
	var out []Report
	err := store.Scan(rd, start, end, func(_ []byte, rep Report) error {
		if filter.match(rep) {
			out = append(out, rep)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

func (r *Registry) Stats(rd db.Reader) (Stats, error) {
	var s Stats
	start, end := store.PrefixRange([]byte{store.PrefixReport})
	err := store.Scan(rd, start, end, func(_ []byte, rep Report) error {
		s.Total++
		switch rep.Verdict() {
		case "pending":
			s.Pending++
		case "verified":
			s.Verified++
		default:
			s.Invalid++
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("report stats: %w", err)
	}
	return s, nil
}
