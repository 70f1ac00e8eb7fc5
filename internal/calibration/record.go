// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/relabs-tech/posture_sense/internal/posture"
)

// Record layout (little endian):
//
//	off size field
//	0   4    magic "PSCR"
//	4   2    version
//	6   2    reserved, zero
//	8   4    offsetX float32
//	12  4    offsetY float32
//	16  4    crc32 (IEEE) of bytes 0..15
//
// Legacy firmware records are 12 bytes: magic 0xDEADBEEF, offsetX, offsetY,
// with no checksum.
const (
	RecordMagic   uint32 = 0x52435350 // "PSCR" in little endian byte order
	RecordVersion uint16 = 2
	RecordSize           = 20

	legacyMagic   uint32 = 0xDEADBEEF
	legacySize           = 12
	legacyVersion uint16 = 1
)

var (
	// ErrNoRecord means no calibration has been stored yet.
	ErrNoRecord = errors.New("calibration: no stored record")
	// ErrCorruptRecord means a record was found but cannot be trusted.
	ErrCorruptRecord = errors.New("calibration: corrupt record")
)

// Record is a decoded calibration record.
type Record struct {
	Version uint16
	Offsets posture.Offsets
}

// EncodeRecord serializes offsets in the current record format.
func EncodeRecord(o posture.Offsets) []byte {
	b := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(b[0:4], RecordMagic)
	binary.LittleEndian.PutUint16(b[4:6], RecordVersion)
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(float32(o.X)))
	binary.LittleEndian.PutUint32(b[12:16], math.Float32bits(float32(o.Y)))
	binary.LittleEndian.PutUint32(b[16:20], crc32.ChecksumIEEE(b[:16]))
	return b
}

// DecodeRecord parses a stored record. It returns ErrNoRecord when b does not
// carry a known magic and ErrCorruptRecord when it does but fails validation.
func DecodeRecord(b []byte) (Record, error) {
	if len(b) < 4 {
		return Record{}, ErrNoRecord
	}

	switch binary.LittleEndian.Uint32(b[0:4]) {
	case RecordMagic:
		return decodeCurrent(b)
	case legacyMagic:
		return decodeLegacy(b)
	default:
		return Record{}, ErrNoRecord
	}
}

func decodeCurrent(b []byte) (Record, error) {
	if len(b) < RecordSize {
		return Record{}, fmt.Errorf("%w: %d bytes, want %d", ErrCorruptRecord, len(b), RecordSize)
	}
	if want, got := binary.LittleEndian.Uint32(b[16:20]), crc32.ChecksumIEEE(b[:16]); want != got {
		return Record{}, fmt.Errorf("%w: checksum 0x%08X, want 0x%08X", ErrCorruptRecord, got, want)
	}
	version := binary.LittleEndian.Uint16(b[4:6])
	if version != RecordVersion {
		return Record{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptRecord, version)
	}
	return finishRecord(version, b[8:16])
}

func decodeLegacy(b []byte) (Record, error) {
	if len(b) < legacySize {
		return Record{}, fmt.Errorf("%w: legacy record is %d bytes, want %d", ErrCorruptRecord, len(b), legacySize)
	}
	return finishRecord(legacyVersion, b[4:12])
}

func finishRecord(version uint16, offsets []byte) (Record, error) {
	x := float64(math.Float32frombits(binary.LittleEndian.Uint32(offsets[0:4])))
	y := float64(math.Float32frombits(binary.LittleEndian.Uint32(offsets[4:8])))
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return Record{}, fmt.Errorf("%w: non-finite offsets", ErrCorruptRecord)
	}
	return Record{Version: version, Offsets: posture.Offsets{X: x, Y: y}}, nil
}
