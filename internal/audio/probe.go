package audio

import (
	"bytes"
	"io"
	"os"

	"gitlab.com/tozd/go/errors"
)

// ErrNoMPEGSync is returned when no MPEG audio frame header can be found.
var ErrNoMPEGSync = errors.Base("can't sync to MPEG frame")

// probeWindow is how far past the ID3 tag the probe looks for a frame header.
const probeWindow = 64 * 1024

// ProbeMPEG checks that path contains an MPEG audio frame after any leading
// ID3v2 tag. It returns whether an ID3v2 header was present.
func ProbeMPEG(path string) (hasTag bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errors.WithStack(err)
	}
	defer f.Close()

	header := make([]byte, 10)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, errors.WithStack(err)
	}
	header = header[:n]

	var offset int64
	if n == 10 && bytes.HasPrefix(header, []byte("ID3")) {
		hasTag = true
		offset = 10 + syncsafe(header[6:10])
		if header[5]&0x10 != 0 {
			offset += 10
		}
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return hasTag, errors.WithStack(err)
	}
	buf := make([]byte, probeWindow)
	n, err = io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return hasTag, errors.WithStack(err)
	}

	if !hasFrameHeader(buf[:n]) {
		return hasTag, errors.WithStack(ErrNoMPEGSync)
	}
	return hasTag, nil
}

// hasFrameHeader scans for an 11-bit frame sync followed by valid version,
// layer, bitrate and sample rate fields.
func hasFrameHeader(b []byte) bool {
	for i := 0; i+3 < len(b); i++ {
		if b[i] != 0xFF || b[i+1]&0xE0 != 0xE0 {
			continue
		}
		version := (b[i+1] >> 3) & 0x03
		layer := (b[i+1] >> 1) & 0x03
		bitrate := b[i+2] >> 4
		rate := (b[i+2] >> 2) & 0x03
		if version == 1 || layer == 0 || bitrate == 0 || bitrate == 0x0F || rate == 0x03 {
			continue
		}
		return true
	}
	return false
}

func syncsafe(b []byte) int64 {
	return int64(b[0]&0x7F)<<21 | int64(b[1]&0x7F)<<14 | int64(b[2]&0x7F)<<7 | int64(b[3]&0x7F)
}
