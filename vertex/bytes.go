// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vertex

import "unsafe"

// Bytes reslices a vertex slice into its raw byte representation
// without copying. Collaborators that persist or transfer vertex data
// use it to avoid a marshalling pass.
func Bytes[T any](data []T) []byte {
	return asBytes(data)
}

// asBytes reslices a vertex slice into its raw byte representation
// without copying.
func asBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(data[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*size)
}

// asElems reinterprets mapped bytes as count elements of T. The bytes
// must come from a buffer whose element stride is sizeof(T).
func asElems[T any](data []byte, count int) []T {
	if count == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), count)
}

// sizeOf returns the byte size of the element type.
func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
