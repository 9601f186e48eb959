package clock

import (
	"math"
	"sync"
	"time"

	"github.com/eigerco/relief/internal/safemath"
)

var now = time.Now

// MaxTimestamp is the largest value that converts back to a time.Time.
const MaxTimestamp Timestamp = math.MaxInt64

// Timestamp is a count of whole seconds since the Unix epoch.
type Timestamp uint64

// Now returns the current wall clock time as a Timestamp
func Now() Timestamp {
	return Timestamp(now().Unix())
}

// FromTime converts a standard time.Time to a Timestamp, truncating to the second.
func FromTime(t time.Time) (Timestamp, error) {
	s := t.Unix()
	if s < 0 {
		return 0, ErrBeforeUnixEpoch
	}
	return Timestamp(s), nil
}

// Time converts the timestamp to a UTC time.Time
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

// AddSeconds returns ts+seconds, failing when the result would exceed MaxTimestamp.
func (ts Timestamp) AddSeconds(seconds uint64) (Timestamp, error) {
	sum, err := safemath.Add(uint64(ts), seconds)
	if err != nil || Timestamp(sum) > MaxTimestamp {
		return 0, ErrAfterMaxTimestamp
	}
	return Timestamp(sum), nil
}

// Until returns the number of seconds from ts to later, or zero if later is not after ts.
func (ts Timestamp) Until(later Timestamp) uint64 {
	if later <= ts {
		return 0
	}
	return uint64(later - ts)
}

func (ts Timestamp) Before(u Timestamp) bool { return ts < u }

func (ts Timestamp) After(u Timestamp) bool { return ts > u }

func (ts Timestamp) String() string {
	return ts.Time().Format(time.RFC3339)
}

// Clock supplies the current time to the ledger.
type Clock interface {
	Now() Timestamp
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() Timestamp { return Now() }

// Manual is a Clock that only moves when told to. It is safe for concurrent use.
type Manual struct {
	mu sync.Mutex
	ts Timestamp
}

func NewManual(start Timestamp) *Manual {
	return &Manual{ts: start}
}

func (m *Manual) Now() Timestamp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ts
}

func (m *Manual) Set(ts Timestamp) {
	m.mu.Lock()
	m.ts = ts
	m.mu.Unlock()
}

// Advance moves the clock forward by d, truncated to whole seconds.
func (m *Manual) Advance(d time.Duration) Timestamp {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ts += Timestamp(d / time.Second)
	return m.ts
}
