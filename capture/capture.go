// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package capture implements an lz4 backed archive of GPU buffer
// snapshots. Read-back contents of vertex and pixel buffers are
// dumped into one indexed file for offline inspection, with every
// snapshot compressed individually so a single entry can be extracted
// without touching the rest. The archive knows where all entries are
// located before they are read and can be read from concurrently.
package capture

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("capture: corrupted or not a capture archive")
	ErrTempFail   = errors.New("capture: temporary folder or file operation failed")
	ErrNoEntry    = errors.New("capture: no entry with that name")
	ErrReadBack   = errors.New("capture: device does not support buffer read-back")
)

// Sizes relevant to the header of the file.
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 16
)

var magic = [MagicLength]byte{'V', 'B', 'C', 0}

// IndexEntry is info for one snapshot in the archive index. Offset is
// relative to the start of the data section.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64

	// Element bookkeeping of the buffer the snapshot was taken from,
	// so raw bytes can be reinterpreted later.
	ElementSize  int64
	ElementCount int64
}

// Header is the archive header.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

func int64ToBinary(num int64) []byte {
	buf := make([]byte, HeaderSizeNumberLength)
	binary.PutVarint(buf, num)
	return buf
}

func binaryToInt64(bts []byte) (int64, error) {
	num, err := binary.ReadVarint(bytes.NewReader(bts))
	if err != nil {
		return 0, err
	}
	return num, nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	return gob.NewDecoder(bytes.NewReader(bts)).Decode(obj)
}
