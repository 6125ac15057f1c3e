// Package content implements the Content Store: an append-only blob of raw
// file bytes (content.bin) with a directory of (path, offset, length)
// entries written last, so a reader can detect a torn write by checking
// for the trailer rather than trusting file size alone.
package content

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reflexsearch/reflex/internal/types"
)

// Magic identifies a content.bin blob, and reappears in the trailer so a
// reader can tell a complete write from one truncated mid-directory.
const (
	Magic          = "RFCT"
	Version uint32 = 1
)

// Entry is one directory row: where a file's bytes live inside the blob.
type Entry struct {
	FileID types.FileID
	Path   string
	Offset uint64
	Length uint64
}

// Builder appends file content to a content.bin blob under construction.
// It is not safe for concurrent use; the Indexer serializes writes through
// a single Builder per index generation.
type Builder struct {
	tmp     *os.File
	tmpPath string
	w       *bufio.Writer
	offset  uint64
	entries []Entry
}

// NewBuilder opens a fresh temp file in dir to accumulate content into.
// Call Finish to write the directory and atomically publish the result at
// finalPath.
func NewBuilder(dir string) (*Builder, error) {
	tmp, err := os.CreateTemp(dir, ".content-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("content: create temp file: %w", err)
	}

	var hdr [8]byte
	copy(hdr[0:4], Magic)
	binary.LittleEndian.PutUint32(hdr[4:8], Version)
	if _, err := tmp.Write(hdr[:]); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("content: write header: %w", err)
	}

	return &Builder{
		tmp:     tmp,
		tmpPath: tmp.Name(),
		w:       bufio.NewWriterSize(tmp, 1<<20),
		offset:  8,
	}, nil
}

// Add appends data and records its directory entry. Offsets are relative
// to the start of the file (including the 8-byte header), so Store.Get
// can seek directly into the mmap'd region.
func (b *Builder) Add(fileID types.FileID, path string, data []byte) error {
	if _, err := b.w.Write(data); err != nil {
		return fmt.Errorf("content: write %s: %w", path, err)
	}
	b.entries = append(b.entries, Entry{
		FileID: fileID,
		Path:   path,
		Offset: b.offset,
		Length: uint64(len(data)),
	})
	b.offset += uint64(len(data))
	return nil
}

// Finish writes the directory and trailer, fsyncs, and renames the temp
// file into place at finalPath. On any error the temp file is removed.
func (b *Builder) Finish(finalPath string) error {
	defer func() {
		if b.tmp != nil {
			b.tmp.Close()
			os.Remove(b.tmpPath)
		}
	}()

	dirStart := b.offset

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(b.entries)))
	if _, err := b.w.Write(countBuf[:]); err != nil {
		return fmt.Errorf("content: write directory count: %w", err)
	}

	var entryHdr [4 + 2]byte
	var offLen [16]byte
	for _, e := range b.entries {
		binary.LittleEndian.PutUint32(entryHdr[0:4], uint32(e.FileID))
		pathBytes := []byte(e.Path)
		binary.LittleEndian.PutUint16(entryHdr[4:6], uint16(len(pathBytes)))
		if _, err := b.w.Write(entryHdr[:]); err != nil {
			return fmt.Errorf("content: write entry header: %w", err)
		}
		if _, err := b.w.Write(pathBytes); err != nil {
			return fmt.Errorf("content: write entry path: %w", err)
		}
		binary.LittleEndian.PutUint64(offLen[0:8], e.Offset)
		binary.LittleEndian.PutUint64(offLen[8:16], e.Length)
		if _, err := b.w.Write(offLen[:]); err != nil {
			return fmt.Errorf("content: write entry offset/length: %w", err)
		}
	}

	// Trailer: directory start offset, then the magic again. A reader
	// that finds the magic in the last 4 bytes trusts the 8 bytes before
	// it as the directory offset; anything else means a torn write.
	var trailer [12]byte
	binary.LittleEndian.PutUint64(trailer[0:8], dirStart)
	copy(trailer[8:12], Magic)
	if _, err := b.w.Write(trailer[:]); err != nil {
		return fmt.Errorf("content: write trailer: %w", err)
	}

	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("content: flush: %w", err)
	}
	if err := b.tmp.Sync(); err != nil {
		return fmt.Errorf("content: sync: %w", err)
	}
	if err := b.tmp.Close(); err != nil {
		return fmt.Errorf("content: close temp file: %w", err)
	}
	b.tmp = nil

	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return fmt.Errorf("content: mkdir: %w", err)
	}
	if err := os.Rename(b.tmpPath, finalPath); err != nil {
		return fmt.Errorf("content: rename into place: %w", err)
	}
	return nil
}

// Abort discards the temp file without publishing it.
func (b *Builder) Abort() {
	if b.tmp != nil {
		b.tmp.Close()
		os.Remove(b.tmpPath)
		b.tmp = nil
	}
}
