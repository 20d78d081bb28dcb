package spaceusage

import (
	"testing"

	"github.com/hupe1980/lexgo/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldUsage_Empty(t *testing.T) {
	u := NewFieldUsage(schema.Field(3))
	assert.Equal(t, schema.Field(3), u.Field())
	assert.Equal(t, ByteCount(0), u.Total())
	assert.Empty(t, u.SubNumBytes())
}

func TestFieldUsage_Record(t *testing.T) {
	u := NewFieldUsage(schema.Field(1))
	u.Record(0, 10)
	u.Record(3, 5)
	u.Record(1, 7)

	assert.Equal(t, ByteCount(22), u.Total())

	sub := u.SubNumBytes()
	require.Len(t, sub, 4)
	assert.Equal(t, Some(10), sub[0])
	assert.Equal(t, Some(7), sub[1])
	assert.False(t, sub[2].Present)
	assert.Equal(t, Some(5), sub[3])

	// Late fill of a skipped slot.
	u.Record(2, 1)
	assert.Equal(t, ByteCount(23), u.Total())

	var sum ByteCount
	for _, s := range u.SubNumBytes() {
		if b, ok := s.Get(); ok {
			sum += b
		}
	}
	assert.Equal(t, u.Total(), sum)
}

func TestFieldUsage_RecordZeroIsPresent(t *testing.T) {
	u := NewFieldUsage(0)
	u.Record(0, 0)
	assert.Equal(t, ByteCount(0), u.Total())
	assert.True(t, u.SubNumBytes()[0].Present)
	assert.Panics(t, func() { u.Record(0, 1) })
}

func TestFieldUsage_DuplicateIndexPanics(t *testing.T) {
	u := NewFieldUsage(schema.Field(2))
	u.Record(1, 100)

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		u.Record(1, 50)
	}()

	dup, ok := recovered.(*DuplicateSubIndexError)
	require.True(t, ok, "unexpected panic value %v", recovered)
	assert.Equal(t, schema.Field(2), dup.Field)
	assert.Equal(t, 1, dup.Index)
	assert.Equal(t, ByteCount(100), dup.Existing)
	assert.Contains(t, dup.Error(), "sub index 1")

	assert.Equal(t, ByteCount(100), u.Total())
	assert.Equal(t, Some(100), u.SubNumBytes()[1])
}

func TestFieldUsage_NegativeIndexPanics(t *testing.T) {
	u := NewFieldUsage(0)
	assert.Panics(t, func() { u.Record(-1, 1) })
	assert.Equal(t, ByteCount(0), u.Total())
}

func TestFieldUsage_SubNumBytesIsCopy(t *testing.T) {
	u := NewFieldUsage(0)
	u.Record(0, 4)
	sub := u.SubNumBytes()
	sub[0] = Some(1000)
	assert.Equal(t, Some(4), u.SubNumBytes()[0])
}

func TestFieldUsage_Clone(t *testing.T) {
	u := NewFieldUsage(5)
	u.Record(0, 1)
	c := u.Clone()
	c.Record(1, 2)

	assert.Equal(t, ByteCount(1), u.Total())
	assert.Equal(t, ByteCount(3), c.Total())
	assert.Len(t, u.SubNumBytes(), 1)
}
