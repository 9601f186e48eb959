package canon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

// Marshal encodes v in canonical form: fixed-width little-endian integers,
// length-prefixed strings, byte slices and slices, struct fields in
// declaration order. int and uint use the compact natural encoding.
func Marshal(v any) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	if err := NewEncoder(buffer).Encode(v); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Encoder writes canonical values to a stream.
type Encoder struct {
	byteWriter
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{byteWriter{w}}
}

func (e *Encoder) Encode(v any) error {
	return e.marshal(reflect.ValueOf(v))
}

type byteWriter struct {
	io.Writer
}

func (bw *byteWriter) marshal(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return bw.write([]byte{1})
		}
		return bw.write([]byte{0})
	case reflect.Uint8:
		return bw.write([]byte{uint8(v.Uint())})
	case reflect.Uint16:
		return bw.write(binary.LittleEndian.AppendUint16(nil, uint16(v.Uint())))
	case reflect.Uint32:
		return bw.write(binary.LittleEndian.AppendUint32(nil, uint32(v.Uint())))
	case reflect.Uint64:
		return bw.write(binary.LittleEndian.AppendUint64(nil, v.Uint()))
	case reflect.Int8:
		return bw.write([]byte{uint8(v.Int())})
	case reflect.Int16:
		return bw.write(binary.LittleEndian.AppendUint16(nil, uint16(v.Int())))
	case reflect.Int32:
		return bw.write(binary.LittleEndian.AppendUint32(nil, uint32(v.Int())))
	case reflect.Int64:
		return bw.write(binary.LittleEndian.AppendUint64(nil, uint64(v.Int())))
	case reflect.Uint:
		return bw.write(SerializeUint64(v.Uint()))
	case reflect.Int:
		if v.Int() < 0 {
			return ErrNegativeInt
		}
		return bw.write(SerializeUint64(uint64(v.Int())))
	case reflect.String:
		return bw.encodeBytes([]byte(v.String()))
	case reflect.Ptr:
		if v.IsNil() {
			return bw.write([]byte{0})
		}
		if err := bw.write([]byte{1}); err != nil {
			return err
		}
		return bw.marshal(v.Elem())
	case reflect.Struct:
		return bw.encodeStruct(v)
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return bw.write(b)
		}
		for i := 0; i < v.Len(); i++ {
			if err := bw.marshal(v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return bw.encodeBytes(v.Bytes())
		}
		if err := bw.write(SerializeUint64(uint64(v.Len()))); err != nil {
			return err
		}
		for i := 0; i < v.Len(); i++ {
			if err := bw.marshal(v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf(ErrUnsupportedType, v.Type())
	}
}

func (bw *byteWriter) encodeStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("canon") == "-" {
			continue
		}
		if err := bw.marshal(v.Field(i)); err != nil {
			return fmt.Errorf(ErrEncodingStructField, field.Name, err)
		}
	}
	return nil
}

func (bw *byteWriter) encodeBytes(b []byte) error {
	if err := bw.write(SerializeUint64(uint64(len(b)))); err != nil {
		return err
	}
	return bw.write(b)
}

func (bw *byteWriter) write(b []byte) error {
	_, err := bw.Writer.Write(b)
	return err
}
