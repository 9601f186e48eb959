package canon

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/bits"
)

// MaxLength bounds every decoded length prefix.
const MaxLength = 1 << 24

// SerializeUint64 encodes x in 1 to 9 bytes. The number of leading one bits in
// the prefix byte is the number of little-endian bytes that follow it.
func SerializeUint64(x uint64) []byte {
	var l uint8
	for l = 0; l < 8; l++ {
		if x < (1 << (7 * (l + 1))) {
			break
		}
	}
	out := make([]byte, 0, l+1)
	if l < 8 {
		prefix := uint8((256 - (1 << (8 - l))) + (x>>(8*l))&math.MaxUint8)
		out = append(out, prefix)
	} else {
		out = append(out, math.MaxUint8)
	}
	for i := 0; i < int(l); i++ {
		out = append(out, uint8((x>>(8*i))&math.MaxUint8))
	}
	return out
}

// DeserializeUint64WithLength decodes a prefix byte followed by l bytes.
func DeserializeUint64WithLength(serialized []byte, l uint8, u *uint64) error {
	*u = 0

	n := len(serialized)
	if n == 0 {
		return nil
	}

	if n > 8 {
		if serialized[0] != math.MaxUint8 {
			return errFirstByteNineByte
		}
		*u = binary.LittleEndian.Uint64(serialized[1:9])
		return nil
	}

	for i := uint8(0); i < l; i++ {
		*u |= uint64(serialized[i+1]) << (8 * i)
	}
	*u |= uint64(serialized[0]&(math.MaxUint8>>l)) << (8 * l)

	return nil
}

func readNatural(r io.Reader) (uint64, error) {
	buf := make([]byte, 9)
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return 0, fmt.Errorf(ErrReadingBytes, err)
	}
	l := uint8(bits.LeadingZeros8(^buf[0]))
	if l > 0 {
		if _, err := io.ReadFull(r, buf[1:1+l]); err != nil {
			return 0, fmt.Errorf(ErrReadingBytes, err)
		}
	}
	var u uint64
	if err := DeserializeUint64WithLength(buf[:1+l], l, &u); err != nil {
		return 0, err
	}
	return u, nil
}

func readLength(r io.Reader) (int, error) {
	n, err := readNatural(r)
	if err != nil {
		return 0, err
	}
	if n > MaxLength {
		return 0, fmt.Errorf("%w: %d", ErrLengthTooLarge, n)
	}
	return int(n), nil
}
