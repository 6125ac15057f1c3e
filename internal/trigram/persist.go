package trigram

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/reflexsearch/reflex/internal/types"
)

// Magic identifies a trigrams.bin blob. Version bumps whenever the on-disk
// layout changes incompatibly.
const (
	Magic          = "RFTG"
	Version uint32 = 1

	headerSize       = 4 + 4 + 4 // magic + version + trigram count
	postingEntrySize = 4 + 4     // fileID + line, both uint32
)

// WriteTo serializes postings to path as a trigrams.bin blob: a 12-byte
// header followed by, for each trigram in ascending order, a 4-byte
// trigram value, a 4-byte posting count, and that many 8-byte (fileID,
// line) postings. The file is written to a temp path in the same
// directory and renamed into place so a reader never observes a partial
// write.
func WriteTo(path string, postings map[Trigram][]types.Posting) error {
	trigrams := make([]Trigram, 0, len(postings))
	for t := range postings {
		trigrams = append(trigrams, t)
	}
	sort.Slice(trigrams, func(i, j int) bool { return trigrams[i] < trigrams[j] })

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".trigrams-*.tmp")
	if err != nil {
		return fmt.Errorf("trigram: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	w := bufio.NewWriterSize(tmp, 1<<20)

	var hdr [headerSize]byte
	copy(hdr[0:4], Magic)
	binary.LittleEndian.PutUint32(hdr[4:8], Version)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(trigrams)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("trigram: write header: %w", err)
	}

	var entryHdr [8]byte
	var postBuf [postingEntrySize]byte
	for _, t := range trigrams {
		ps := postings[t]
		binary.LittleEndian.PutUint32(entryHdr[0:4], uint32(t))
		binary.LittleEndian.PutUint32(entryHdr[4:8], uint32(len(ps)))
		if _, err := w.Write(entryHdr[:]); err != nil {
			return fmt.Errorf("trigram: write entry header: %w", err)
		}
		for _, p := range ps {
			binary.LittleEndian.PutUint32(postBuf[0:4], uint32(p.FileID))
			binary.LittleEndian.PutUint32(postBuf[4:8], uint32(p.Line))
			if _, err := w.Write(postBuf[:]); err != nil {
				return fmt.Errorf("trigram: write posting: %w", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("trigram: flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("trigram: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("trigram: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("trigram: rename into place: %w", err)
	}
	return nil
}

// Reader is a read-only, memory-mapped view of a trigrams.bin blob. It
// decodes posting lists lazily from the mapped bytes rather than copying
// the whole file into the heap.
type Reader struct {
	f       *os.File
	data    []byte
	offsets map[Trigram]entryOffset
}

type entryOffset struct {
	off   int // byte offset of the first posting for this trigram
	count int
}

// Open mmaps path and builds an in-memory offset index over its entries.
// The offset index itself is ordinary heap memory; only posting bytes
// stay mapped.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := int(info.Size())
	if size < headerSize {
		f.Close()
		return nil, fmt.Errorf("trigram: %s: too small to be a valid index", path)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("trigram: mmap %s: %w", path, err)
	}

	if string(data[0:4]) != Magic {
		syscall.Munmap(data)
		f.Close()
		return nil, fmt.Errorf("trigram: %s: bad magic", path)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != Version {
		syscall.Munmap(data)
		f.Close()
		return nil, fmt.Errorf("trigram: %s: unsupported version %d", path, version)
	}
	count := int(binary.LittleEndian.Uint32(data[8:12]))

	offsets := make(map[Trigram]entryOffset, count)
	pos := headerSize
	for i := 0; i < count; i++ {
		if pos+8 > size {
			syscall.Munmap(data)
			f.Close()
			return nil, fmt.Errorf("trigram: %s: truncated entry header", path)
		}
		t := Trigram(binary.LittleEndian.Uint32(data[pos : pos+4]))
		n := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8
		if pos+n*postingEntrySize > size {
			syscall.Munmap(data)
			f.Close()
			return nil, fmt.Errorf("trigram: %s: truncated posting list", path)
		}
		offsets[t] = entryOffset{off: pos, count: n}
		pos += n * postingEntrySize
	}

	return &Reader{f: f, data: data, offsets: offsets}, nil
}

// Close unmaps the file and releases its descriptor.
func (r *Reader) Close() error {
	if r.data != nil {
		syscall.Munmap(r.data)
		r.data = nil
	}
	return r.f.Close()
}

// Postings decodes the posting list for a single trigram directly from
// mapped memory.
func (r *Reader) Postings(t Trigram) []types.Posting {
	e, ok := r.offsets[t]
	if !ok {
		return nil
	}
	out := make([]types.Posting, e.count)
	off := e.off
	for i := 0; i < e.count; i++ {
		fileID := binary.LittleEndian.Uint32(r.data[off : off+4])
		line := binary.LittleEndian.Uint32(r.data[off+4 : off+8])
		out[i] = types.Posting{FileID: types.FileID(fileID), Line: int(line)}
		off += postingEntrySize
	}
	return out
}

// TrigramCount returns the number of distinct trigrams stored.
func (r *Reader) TrigramCount() int {
	return len(r.offsets)
}

// LoadAll decodes every posting list, suitable for handing to Index.Load
// when promoting a persisted blob back into an in-memory, mutable index.
func (r *Reader) LoadAll() map[Trigram][]types.Posting {
	out := make(map[Trigram][]types.Posting, len(r.offsets))
	for t := range r.offsets {
		out[t] = r.Postings(t)
	}
	return out
}
