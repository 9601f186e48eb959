package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/relief/internal/common"
)

func TestEventOptionalFields(t *testing.T) {
	base := Event{Kind: DonationReceived, EntityID: 3}
	withAmount := base.WithAmount(common.Amount(40))

	assert.Nil(t, base.Amount)
	require.NotNil(t, withAmount.Amount)
	assert.Equal(t, common.Amount(40), *withAmount.Amount)

	finalized := Event{Kind: ReportFinalized}.WithOutcome(false)
	require.NotNil(t, finalized.Outcome)
	assert.False(t, *finalized.Outcome)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var sink Sink = &r
	sink.Publish(Event{Seq: 1, Kind: ReportSubmitted})
	sink.Publish(Event{Seq: 2, Kind: StakeRecorded})

	assert.Equal(t, []Kind{ReportSubmitted, StakeRecorded}, r.Kinds())

	got := r.Events()
	got[0].Seq = 99
	assert.Equal(t, uint64(1), r.Events()[0].Seq)
}

func TestSinkFunc(t *testing.T) {
	var seen []uint64
	sink := SinkFunc(func(e Event) { seen = append(seen, e.Seq) })
	sink.Publish(Event{Seq: 5})
	assert.Equal(t, []uint64{5}, seen)
}
