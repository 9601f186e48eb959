package canon

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
)

// Unmarshal decodes data into dst, which must be a non-nil pointer.
// Trailing bytes are ignored.
func Unmarshal(data []byte, dst any) error {
	return NewDecoder(bytes.NewReader(data)).Decode(dst)
}

func NewDecoder(reader io.Reader) *Decoder {
	return &Decoder{byteReader{reader}}
}

// Decoder reads canonical values from a stream.
type Decoder struct {
	byteReader
}

func (d *Decoder) Decode(dst any) error {
	dstv := reflect.ValueOf(dst)
	if dstv.Kind() != reflect.Ptr || dstv.IsNil() {
		return fmt.Errorf(ErrUnsupportedType, dst)
	}
	return d.unmarshal(dstv.Elem())
}

const (
	initialSliceCap = 64
	maxEagerRead    = 4096
)

type byteReader struct {
	io.Reader
}

func (br *byteReader) unmarshal(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		b, err := br.read(1)
		if err != nil {
			return err
		}
		switch b[0] {
		case 0:
			v.SetBool(false)
		case 1:
			v.SetBool(true)
		default:
			return ErrDecodingBool
		}
		return nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := br.fixedWidth(int(v.Type().Size()))
		if err != nil {
			return err
		}
		v.SetUint(u)
		return nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		size := int(v.Type().Size())
		u, err := br.fixedWidth(size)
		if err != nil {
			return err
		}
		// sign-extend from the encoded width
		shift := 64 - 8*size
		v.SetInt(int64(u<<shift) >> shift)
		return nil
	case reflect.Uint:
		u, err := readNatural(br.Reader)
		if err != nil {
			return err
		}
		if v.OverflowUint(u) {
			return ErrNaturalOverflow
		}
		v.SetUint(u)
		return nil
	case reflect.Int:
		u, err := readNatural(br.Reader)
		if err != nil {
			return err
		}
		if u > math.MaxInt64 || v.OverflowInt(int64(u)) {
			return ErrNaturalOverflow
		}
		v.SetInt(int64(u))
		return nil
	case reflect.String:
		b, err := br.decodeBytes()
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil
	case reflect.Ptr:
		marker, err := br.read(1)
		if err != nil {
			return err
		}
		switch marker[0] {
		case 0:
			v.Set(reflect.Zero(v.Type()))
			return nil
		case 1:
			elem := reflect.New(v.Type().Elem())
			if err := br.unmarshal(elem.Elem()); err != nil {
				return err
			}
			v.Set(elem)
			return nil
		default:
			return ErrInvalidPointer
		}
	case reflect.Struct:
		return br.decodeStruct(v)
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := br.read(v.Len())
			if err != nil {
				return err
			}
			reflect.Copy(v, reflect.ValueOf(b))
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := br.unmarshal(v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := br.decodeBytes()
			if err != nil {
				return err
			}
			v.SetBytes(b)
			return nil
		}
		n, err := readLength(br.Reader)
		if err != nil {
			return err
		}
		if n == 0 {
			v.Set(reflect.Zero(v.Type()))
			return nil
		}
		// The length prefix is untrusted, so the slice grows as elements
		// actually decode instead of being allocated up front.
		s := reflect.MakeSlice(v.Type(), 0, min(n, initialSliceCap))
		elem := reflect.New(v.Type().Elem()).Elem()
		for i := 0; i < n; i++ {
			elem.SetZero()
			if err := br.unmarshal(elem); err != nil {
				return err
			}
			s = reflect.Append(s, elem)
		}
		v.Set(s)
		return nil
	default:
		return fmt.Errorf(ErrUnsupportedType, v.Type())
	}
}

func (br *byteReader) decodeStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("canon") == "-" {
			continue
		}
		if err := br.unmarshal(v.Field(i)); err != nil {
			return fmt.Errorf(ErrDecodingStructField, field.Name, err)
		}
	}
	return nil
}

func (br *byteReader) decodeBytes() ([]byte, error) {
	n, err := readLength(br.Reader)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return br.read(n)
}

func (br *byteReader) fixedWidth(size int) (uint64, error) {
	b, err := br.read(size)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (br *byteReader) read(n int) ([]byte, error) {
	if n <= maxEagerRead {
		b := make([]byte, n)
		if _, err := io.ReadFull(br.Reader, b); err != nil {
			return nil, fmt.Errorf(ErrReadingBytes, err)
		}
		return b, nil
	}
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, br.Reader, int64(n)); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf(ErrReadingBytes, err)
	}
	return buf.Bytes(), nil
}
