package tai

import "fmt"

const (
	dataPositionBits = 16
	dataPositionMask = 1<<dataPositionBits - 1

	// MaxBlockPosition is the largest compressed block position a VirtualOffset can address.
	MaxBlockPosition = 1<<(64-dataPositionBits) - 1
)

// VirtualOffset is a BGZF virtual file offset.
//
// Layout (most significant bit first):
//
//	[ blockPosition : 48 bits ][ dataPosition : 16 bits ]
type VirtualOffset uint64

// NewVirtualOffset packs a compressed block position and an offset into the
// decompressed block. Block positions above MaxBlockPosition are truncated.
func NewVirtualOffset(blockPosition uint64, dataPosition uint16) VirtualOffset {
	return VirtualOffset(blockPosition<<dataPositionBits | uint64(dataPosition))
}

// BlockPosition returns the byte position of the compressed block in the file.
func (v VirtualOffset) BlockPosition() uint64 {
	return uint64(v) >> dataPositionBits
}

// DataPosition returns the byte position inside the decompressed block.
func (v VirtualOffset) DataPosition() uint16 {
	return uint16(uint64(v) & dataPositionMask)
}

func (v VirtualOffset) String() string {
	return fmt.Sprintf("%d:%d", v.BlockPosition(), v.DataPosition())
}

// Entry associates a cumulative reference coordinate with the virtual offset
// of the alignment line starting at that coordinate.
type Entry struct {
	Coordinate uint64
	Offset     VirtualOffset
}
