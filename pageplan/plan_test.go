package pageplan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name        string
		pageSize    uint16
		totalLength uint16
		startOffset uint16
		want        Plan
	}{
		{
			name:        "unaligned start spilling into next page",
			pageSize:    32,
			totalLength: 40,
			startOffset: 20,
			want: Plan{
				{Address: 20, Length: 12, SourceOffset: 0},
				{Address: 32, Length: 28, SourceOffset: 12},
			},
		},
		{
			name:        "fits inside one page",
			pageSize:    64,
			totalLength: 3,
			startOffset: 0x0100,
			want: Plan{
				{Address: 0x0100, Length: 3, SourceOffset: 0},
			},
		},
		{
			name:        "ends exactly on a boundary",
			pageSize:    16,
			totalLength: 12,
			startOffset: 4,
			want: Plan{
				{Address: 4, Length: 12, SourceOffset: 0},
			},
		},
		{
			name:        "unaligned on both ends",
			pageSize:    16,
			totalLength: 40,
			startOffset: 10,
			want: Plan{
				{Address: 10, Length: 6, SourceOffset: 0},
				{Address: 16, Length: 16, SourceOffset: 6},
				{Address: 32, Length: 16, SourceOffset: 22},
				{Address: 48, Length: 2, SourceOffset: 38},
			},
		},
		{
			name:        "page size of one",
			pageSize:    1,
			totalLength: 3,
			startOffset: 7,
			want: Plan{
				{Address: 7, Length: 1, SourceOffset: 0},
				{Address: 8, Length: 1, SourceOffset: 1},
				{Address: 9, Length: 1, SourceOffset: 2},
			},
		},
		{
			name:        "last page of the address space",
			pageSize:    32,
			totalLength: 40,
			startOffset: 0xFFD8,
			want: Plan{
				{Address: 0xFFD8, Length: 8, SourceOffset: 0},
				{Address: 0xFFE0, Length: 32, SourceOffset: 8},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Compute(tt.pageSize, tt.totalLength, tt.startOffset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan)
			assert.NoError(t, plan.Validate(tt.pageSize))
		})
	}
}

func TestComputeAlignedFullPages(t *testing.T) {
	plan, err := Compute(32, 512, 0)
	require.NoError(t, err)
	require.Len(t, plan, 16)

	for i, seg := range plan {
		assert.Equal(t, uint16(i*32), seg.Address, "segment %d address", i)
		assert.Equal(t, uint16(32), seg.Length, "segment %d length", i)
		assert.Equal(t, uint16(i*32), seg.SourceOffset, "segment %d source offset", i)
	}
}

func TestComputeEmpty(t *testing.T) {
	plan, err := Compute(32, 0, 123)
	require.NoError(t, err)
	assert.Empty(t, plan)
	assert.Equal(t, 0, plan.TotalLength())
}

func TestComputeErrors(t *testing.T) {
	tests := []struct {
		name        string
		pageSize    uint16
		totalLength uint16
		startOffset uint16
		wantErr     error
	}{
		{
			name:        "zero page size",
			pageSize:    0,
			totalLength: 10,
			wantErr:     ErrZeroPageSize,
		},
		{
			name:        "zero page size with empty write",
			pageSize:    0,
			totalLength: 0,
			wantErr:     ErrZeroPageSize,
		},
		{
			name:        "runs past 0xFFFF",
			pageSize:    32,
			totalLength: 2,
			startOffset: 0xFFFF,
			wantErr:     ErrAddressOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Compute(tt.pageSize, tt.totalLength, tt.startOffset)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
			assert.Nil(t, plan)
		})
	}
}

func TestComputeIntoCapacity(t *testing.T) {
	t.Run("worst case buffer is enough", func(t *testing.T) {
		buf := make(Plan, 0, MaxSegments(32, 40))
		plan, err := ComputeInto(buf, 32, 40, 20)
		require.NoError(t, err)
		assert.Len(t, plan, 2)
	})

	t.Run("undersized buffer reports capacity error", func(t *testing.T) {
		buf := make(Plan, 0, 1)
		plan, err := ComputeInto(buf, 32, 40, 20)
		require.Error(t, err)
		assert.Nil(t, plan)

		var capErr *CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 1, capErr.Capacity)
		assert.Equal(t, 2, capErr.Required)
		assert.Contains(t, err.Error(), "capacity 1")
	})

	t.Run("nil buffer cannot hold anything", func(t *testing.T) {
		_, err := ComputeInto(nil, 16, 1, 0)
		var capErr *CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 1, capErr.Required)
	})
}

func TestMaxSegments(t *testing.T) {
	assert.Equal(t, 0, MaxSegments(32, 0))
	assert.Equal(t, 0, MaxSegments(0, 10))
	assert.Equal(t, 2, MaxSegments(32, 1))
	assert.Equal(t, 17, MaxSegments(32, 512))
	assert.Equal(t, 3, MaxSegments(32, 40))
}

// TestComputeProperties sweeps page sizes, lengths and offsets and checks the
// invariants every plan must hold.
func TestComputeProperties(t *testing.T) {
	pageSizes := []uint16{1, 3, 8, 16, 32, 64, 100, 256, 512}
	lengths := []uint16{1, 2, 7, 31, 32, 33, 64, 255, 513, 1000}
	offsets := []uint16{0, 1, 15, 16, 31, 100, 511, 4095, 0xF000}

	for _, pageSize := range pageSizes {
		for _, length := range lengths {
			for _, offset := range offsets {
				plan, err := Compute(pageSize, length, offset)
				require.NoError(t, err)

				assert.Equal(t, int(length), plan.TotalLength(),
					"page=%d len=%d off=%d", pageSize, length, offset)
				assert.LessOrEqual(t, len(plan), MaxSegments(pageSize, length))
				require.NoError(t, plan.Validate(pageSize),
					"page=%d len=%d off=%d", pageSize, length, offset)

				require.NotEmpty(t, plan)
				assert.Equal(t, offset, plan[0].Address)
				assert.Equal(t, uint32(offset)+uint32(length), plan[len(plan)-1].End())

				again, err := Compute(pageSize, length, offset)
				require.NoError(t, err)
				assert.Equal(t, plan, again)
			}
		}
	}
}

func TestPlanReconstructsPayload(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i * 7)
	}

	plan, err := Compute(64, uint16(len(payload)), 50)
	require.NoError(t, err)

	var rebuilt []byte
	for _, seg := range plan {
		rebuilt = append(rebuilt, payload[seg.SourceOffset:seg.SourceOffset+seg.Length]...)
	}
	assert.Equal(t, payload, rebuilt)
}

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name   string
		plan   Plan
		errMsg string
	}{
		{
			name:   "crosses boundary",
			plan:   Plan{{Address: 30, Length: 4}},
			errMsg: "crosses",
		},
		{
			name:   "empty segment",
			plan:   Plan{{Address: 0, Length: 0}},
			errMsg: "empty segment",
		},
		{
			name:   "gap between segments",
			plan:   Plan{{Address: 0, Length: 4}, {Address: 8, Length: 4, SourceOffset: 4}},
			errMsg: "does not follow",
		},
		{
			name:   "source offset skips bytes",
			plan:   Plan{{Address: 0, Length: 4}, {Address: 4, Length: 4, SourceOffset: 6}},
			errMsg: "source offset 6",
		},
		{
			name:   "first segment not at source start",
			plan:   Plan{{Address: 0, Length: 4, SourceOffset: 1}},
			errMsg: "expected 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate(32)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.ErrorIs(t, Plan{}.Validate(0), ErrZeroPageSize)
}

func TestSegmentString(t *testing.T) {
	assert.Equal(t, "0x0020+28@12", Segment{Address: 32, Length: 28, SourceOffset: 12}.String())
}
