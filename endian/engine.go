// Package endian provides the byte order engine used by the container format.
//
// Every multi-byte field of a report container (header, mapping arrays and block
// payloads) is encoded through an EndianEngine selected by the header flag.
// Little-endian is the default and matches every mainstream host, which lets
// float32 payloads be decoded with a single copy.
package endian

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// It is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness returns the byte order of the host.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// CompareNativeEndian reports whether engine matches the host byte order.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// AppendFloat32s appends values to dst as IEEE 754 float32 in engine order.
func AppendFloat32s(engine EndianEngine, dst []byte, values []float32) []byte {
	if len(values) == 0 {
		return dst
	}

	if CompareNativeEndian(engine) {
		raw := unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*4)
		return append(dst, raw...)
	}

	for _, v := range values {
		dst = engine.AppendUint32(dst, math.Float32bits(v))
	}

	return dst
}

// DecodeFloat32s decodes len(dst) float32 values from src into dst.
//
// src must hold at least 4*len(dst) bytes.
func DecodeFloat32s(engine EndianEngine, dst []float32, src []byte) {
	if len(dst) == 0 {
		return
	}

	if CompareNativeEndian(engine) {
		raw := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), len(dst)*4)
		copy(raw, src[:len(raw)])

		return
	}

	for i := range dst {
		dst[i] = math.Float32frombits(engine.Uint32(src[i*4:]))
	}
}

// AppendUint32s appends values to dst in engine order.
func AppendUint32s(engine EndianEngine, dst []byte, values []uint32) []byte {
	for _, v := range values {
		dst = engine.AppendUint32(dst, v)
	}

	return dst
}

// AppendUint64s appends values to dst in engine order.
func AppendUint64s(engine EndianEngine, dst []byte, values []uint64) []byte {
	for _, v := range values {
		dst = engine.AppendUint64(dst, v)
	}

	return dst
}
