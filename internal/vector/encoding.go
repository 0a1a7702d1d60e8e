package vector

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Persisted index container, little-endian throughout:
//
//	magic "SMIX" | version u16 | dim u32 | count u32
//	count*dim float32 vector block
//	count * (u32 source length | source bytes | u32 text length | text bytes)
//
// Vectors round-trip bit-exact: float32 values are stored as their IEEE 754
// bit patterns.

var indexMagic = [4]byte{'S', 'M', 'I', 'X'}

const indexVersion uint16 = 1

// Header fields are untrusted input. Decoding grows allocations with the
// bytes actually read and rejects sizes no real index produces, so a
// corrupt or hostile header cannot demand count*dim memory up front.
const (
	maxIndexDimension = 1 << 16
	maxStringBytes    = 1 << 24
	recordChunkSize   = 1024
)

// Save atomically serializes the full index to path: the container is
// written to a temp file in the same directory and renamed into place, so a
// reader never observes a partial index.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := encodeIndex(w, ix.dim, ix.records); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Load replaces the index contents wholesale with the container at path. It
// fails with ErrIndexFormat when the file is absent or corrupt, or when the
// stored dimensionality does not match the configured embedder.
func (ix *Index) Load(path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIndexFormat, path, err)
	}
	defer f.Close()

	dim, records, err := decodeIndex(bufio.NewReader(f))
	if err != nil {
		return err
	}
	if want := ix.embedder.Dimension(); want > 0 && dim > 0 && dim != want {
		return fmt.Errorf("%w: file has dimension %d, embedder produces %d", ErrIndexFormat, dim, want)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.records = records
	ix.dim = dim
	return nil
}

func encodeIndex(w io.Writer, dim int, records []Record) error {
	if _, err := w.Write(indexMagic[:]); err != nil {
		return err
	}
	header := []any{indexVersion, uint32(dim), uint32(len(records))}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	buf := make([]byte, 4)
	for _, r := range records {
		for _, v := range r.Vector {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}
	for _, r := range records {
		if err := writeString(w, r.Chunk.Source); err != nil {
			return err
		}
		if err := writeString(w, r.Chunk.Text); err != nil {
			return err
		}
	}
	return nil
}

func decodeIndex(r io.Reader) (int, []Record, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, nil, fmt.Errorf("%w: short header: %v", ErrIndexFormat, err)
	}
	if magic != indexMagic {
		return 0, nil, fmt.Errorf("%w: bad magic %q", ErrIndexFormat, magic[:])
	}

	var version uint16
	var dim, count uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, nil, fmt.Errorf("%w: read version: %v", ErrIndexFormat, err)
	}
	if version != indexVersion {
		return 0, nil, fmt.Errorf("%w: unsupported version %d", ErrIndexFormat, version)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return 0, nil, fmt.Errorf("%w: read dimension: %v", ErrIndexFormat, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, nil, fmt.Errorf("%w: read count: %v", ErrIndexFormat, err)
	}

	if dim > maxIndexDimension {
		return 0, nil, fmt.Errorf("%w: implausible dimension %d", ErrIndexFormat, dim)
	}
	if dim == 0 && count > 0 {
		return 0, nil, fmt.Errorf("%w: %d records with zero dimension", ErrIndexFormat, count)
	}

	initial := int(count)
	if initial > recordChunkSize {
		initial = recordChunkSize
	}
	records := make([]Record, 0, initial)
	buf := make([]byte, 4)
	for i := uint32(0); i < count; i++ {
		vec := make([]float32, dim)
		for j := range vec {
			if _, err := io.ReadFull(r, buf); err != nil {
				return 0, nil, fmt.Errorf("%w: truncated vector block: %v", ErrIndexFormat, err)
			}
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
		}
		records = append(records, Record{Vector: vec})
	}
	for i := range records {
		source, err := readString(r)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: truncated metadata: %v", ErrIndexFormat, err)
		}
		txt, err := readString(r)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: truncated metadata: %v", ErrIndexFormat, err)
		}
		records[i].Chunk = Chunk{Source: source, Text: txt}
	}
	return int(dim), records, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxStringBytes {
		return "", fmt.Errorf("implausible string length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
