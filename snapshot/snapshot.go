// Package snapshot stores serialized objects in self-describing files.
//
// A frame is a fixed header followed by the payload:
//
//	Offset  Size  Field
//	0       4     Magic "ZBSN"
//	4       2     Frame version
//	6       2     Flags (bit 0: payload is zstd-compressed)
//	8       8     Schema type identifier
//	16      8     Raw payload length
//	24      8     xxhash64 of the raw payload
//	32      -     Payload
//
// All integers are little-endian. The payload is the object's bytes exactly
// as the allocator holds them, so a decoded frame can be wrapped read-only
// without another copy.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/joshuapare/zerobuf/internal/logger"
	"github.com/joshuapare/zerobuf/object"
	"github.com/joshuapare/zerobuf/schema"
)

const (
	Magic        = "ZBSN"
	FrameVersion = 1
	HeaderSize   = 32

	// FlagZstd marks a zstd-compressed payload.
	FlagZstd uint16 = 1 << 0

	// MaxPayload bounds the raw length accepted by Read.
	MaxPayload = 1 << 30
)

var (
	ErrBadMagic    = format.ErrBadMagic
	ErrUnsupported = errors.New("snapshot: unsupported frame")
	ErrTooLarge    = errors.New("snapshot: payload too large")
	ErrChecksum    = errors.New("snapshot: checksum mismatch")
)

// Options selects the payload encoding for Write and Save.
type Options struct {
	// Compression is "none" (or empty) or "zstd".
	Compression string
	// Level is a zstd level name: fastest, default, better or best.
	Level string
}

func (o Options) flags() (uint16, zstd.EncoderLevel, error) {
	switch strings.ToLower(o.Compression) {
	case "", "none":
		return 0, 0, nil
	case "zstd":
		level := zstd.SpeedDefault
		if o.Level != "" {
			ok, l := zstd.EncoderLevelFromString(o.Level)
			if !ok {
				return 0, 0, fmt.Errorf("snapshot: unknown zstd level %q", o.Level)
			}
			level = l
		}
		return FlagZstd, level, nil
	default:
		return 0, 0, fmt.Errorf("snapshot: unknown compression %q", o.Compression)
	}
}

// Frame is a decoded snapshot.
type Frame struct {
	Version uint16
	Flags   uint16
	Type    schema.TypeID
	Data    []byte
}

// Compressed reports whether the payload was stored compressed.
func (f *Frame) Compressed() bool { return f.Flags&FlagZstd != 0 }

// Object decodes the payload as a read-only object of schema s. The type
// identifier must match and the payload must pass the version and layout
// checks.
func (f *Frame) Object(s *schema.Schema) (*object.Object, error) {
	if f.Type != s.Type {
		return nil, fmt.Errorf("%w: snapshot holds type %s, not %s (%s)",
			alloc.ErrTypeMismatch, f.Type, s.Name, s.Type)
	}
	return object.Decode(s, f.Data)
}

// Write encodes o as one frame.
func Write(w io.Writer, o *object.Object, opts Options) error {
	flags, level, err := opts.flags()
	if err != nil {
		return err
	}
	raw := o.Bytes()
	payload := raw
	if flags&FlagZstd != 0 {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		payload = enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
		_ = enc.Close()
	}

	hdr := make([]byte, HeaderSize)
	copy(hdr, Magic)
	format.PutU16(hdr, 4, FrameVersion)
	format.PutU16(hdr, 6, flags)
	format.PutU64(hdr, 8, uint64(o.Type()))
	format.PutU64(hdr, 16, uint64(len(raw)))
	format.PutU64(hdr, 24, xxhash.Sum64(raw))
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("snapshot: write payload: %w", err)
	}
	logger.Debug("snapshot: wrote frame",
		"type", o.Schema().Name, "raw", len(raw), "stored", len(payload), "zstd", flags&FlagZstd != 0)
	return nil
}

// Read decodes one frame from r.
func Read(r io.Reader) (*Frame, error) {
	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	if string(hdr[:4]) != Magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, hdr[:4])
	}
	f := &Frame{
		Version: format.ReadU16(hdr, 4),
		Flags:   format.ReadU16(hdr, 6),
		Type:    schema.TypeID(format.ReadU64(hdr, 8)),
	}
	if f.Version != FrameVersion {
		return nil, fmt.Errorf("%w: frame version %d", ErrUnsupported, f.Version)
	}
	if f.Flags&^FlagZstd != 0 {
		return nil, fmt.Errorf("%w: flags %#x", ErrUnsupported, f.Flags)
	}
	rawLen := format.ReadU64(hdr, 16)
	if rawLen > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, rawLen)
	}

	src := r
	if f.Compressed() {
		dec, err := zstd.NewReader(r, zstd.WithDecoderMaxMemory(MaxPayload), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		defer dec.Close()
		src = dec
	}
	f.Data = make([]byte, rawLen)
	if _, err := io.ReadFull(src, f.Data); err != nil {
		return nil, fmt.Errorf("snapshot: read payload: %w", err)
	}
	if sum := xxhash.Sum64(f.Data); sum != format.ReadU64(hdr, 24) {
		return nil, fmt.Errorf("%w: got %016x", ErrChecksum, sum)
	}
	return f, nil
}

// Encode returns o as an in-memory frame.
func Encode(o *object.Object, opts Options) ([]byte, error) {
	var b bytes.Buffer
	if err := Write(&b, o, opts); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Save writes o to path atomically: the frame goes to a temporary file in the
// same directory, which is then renamed over path.
func Save(path string, o *object.Object, opts Options) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = Write(tmp, o, opts); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// Load reads the frame stored at path.
func Load(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()
	frame, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// IsSnapshot reports whether data starts with the frame magic.
func IsSnapshot(data []byte) bool {
	return len(data) >= len(Magic) && string(data[:len(Magic)]) == Magic
}
