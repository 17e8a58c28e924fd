package benchmark

import (
	"fmt"
	"math"
)

// Segment is a contiguous byte range of a larger transfer.
type Segment struct {
	Offset uint64
	Length uint64
	Index  uint32
}

// End returns the exclusive end offset.
func (s Segment) End() uint64 {
	return s.Offset + s.Length
}

// PlanSegments partitions [0, totalLength) into ceil(totalLength/maxSegmentSize)
// ascending, contiguous segments. Only the last one may be shorter than
// maxSegmentSize. A zero totalLength yields no segments.
func PlanSegments(totalLength, maxSegmentSize uint64) ([]Segment, error) {
	if maxSegmentSize == 0 {
		return nil, fmt.Errorf("%w: max segment size must be positive", ErrInvalidArgument)
	}
	if totalLength == 0 {
		return nil, nil
	}

	count := totalLength / maxSegmentSize
	if totalLength%maxSegmentSize != 0 {
		count++
	}
	if count > math.MaxUint32+1 {
		return nil, fmt.Errorf("%w: %d segments exceed the index range", ErrInvalidArgument, count)
	}

	segments := make([]Segment, 0, count)
	var offset uint64
	for i := uint64(0); i < count; i++ {
		length := min(maxSegmentSize, totalLength-offset)
		segments = append(segments, Segment{Offset: offset, Length: length, Index: uint32(i)})
		offset += length
	}
	return segments, nil
}
