package store

import (
	"errors"
	"fmt"

	"github.com/eigerco/relief/pkg/db"
	"github.com/eigerco/relief/pkg/db/pebble"
	"github.com/eigerco/relief/pkg/serialization/codec/canon"
)

// Get loads and decodes the record at key. found is false when the key is absent.
func Get[T any](r db.Reader, key []byte) (v T, found bool, err error) {
	b, err := r.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return v, false, nil
		}
		return v, false, fmt.Errorf("get %s: %w", PrefixToString(key[0]), err)
	}
	if err := canon.Unmarshal(b, &v); err != nil {
		return v, false, fmt.Errorf("unmarshal %s: %w", PrefixToString(key[0]), err)
	}
	return v, true, nil
}

// Put encodes v and stores it at key.
func Put[T any](w db.Writer, key []byte, v T) error {
	b, err := canon.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", PrefixToString(key[0]), err)
	}
	if err := w.Put(key, b); err != nil {
		return fmt.Errorf("put %s: %w", PrefixToString(key[0]), err)
	}
	return nil
}

// Has reports whether key is present.
func Has(r db.Reader, key []byte) (bool, error) {
	_, err := r.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Scan decodes every record in [start, end) in key order and passes it to fn.
// A non-nil error from fn stops the scan and is returned.
func Scan[T any](r db.Reader, start, end []byte, fn func(key []byte, v T) error) error {
	iter, err := r.NewIterator(start, end)
	if err != nil {
		return fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close() //nolint:errcheck

	for iter.Next() {
		b, err := iter.Value()
		if err != nil {
			return err
		}
		var v T
		if err := canon.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("unmarshal %s: %w", PrefixToString(iter.Key()[0]), err)
		}
		if err := fn(iter.Key(), v); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}

// Collect returns every record in [start, end) in key order.
func Collect[T any](r db.Reader, start, end []byte) ([]T, error) {
	var out []T
	err := Scan(r, start, end, func(_ []byte, v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}
