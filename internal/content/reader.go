package content

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"syscall"

	"github.com/reflexsearch/reflex/internal/rerrors"
	"github.com/reflexsearch/reflex/internal/types"
)

// Store is a read-only, memory-mapped view of a content.bin blob.
type Store struct {
	f       *os.File
	data    []byte
	byID    map[types.FileID]Entry
	byPath  map[string]Entry
}

// Open mmaps path, verifies the trailer, and parses the directory.
func Open(path string) (*Store, error) {
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
	if size < 8+12 {
		f.Close()
		return nil, rerrors.NewCacheCorrupt(path, fmt.Errorf("file too small"))
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("content: mmap %s: %w", path, err)
	}

	if string(data[0:4]) != Magic {
		syscall.Munmap(data)
		f.Close()
		return nil, rerrors.NewCacheCorrupt(path, fmt.Errorf("bad header magic"))
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != Version {
		syscall.Munmap(data)
		f.Close()
		return nil, rerrors.NewCacheIncompatible(path, fmt.Errorf("unsupported version %d", version))
	}

	trailer := data[size-12:]
	if string(trailer[8:12]) != Magic {
		// Trailer magic absent: either a torn write (process died mid-Finish)
		// or genuine corruption. Either way the blob cannot be trusted.
		syscall.Munmap(data)
		f.Close()
		return nil, rerrors.NewCacheCorrupt(path, fmt.Errorf("missing trailer, write may have been interrupted"))
	}
	dirStart := binary.LittleEndian.Uint64(trailer[0:8])
	if dirStart > uint64(size) {
		syscall.Munmap(data)
		f.Close()
		return nil, rerrors.NewCacheCorrupt(path, fmt.Errorf("directory offset out of range"))
	}

	byID := make(map[types.FileID]Entry)
	byPath := make(map[string]Entry)

	pos := int(dirStart)
	if pos+4 > size {
		syscall.Munmap(data)
		f.Close()
		return nil, rerrors.NewCacheCorrupt(path, fmt.Errorf("truncated directory count"))
	}
	count := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4

	for i := 0; i < count; i++ {
		if pos+6 > size {
			syscall.Munmap(data)
			f.Close()
			return nil, rerrors.NewCacheCorrupt(path, fmt.Errorf("truncated directory entry header"))
		}
		fileID := types.FileID(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pathLen := int(binary.LittleEndian.Uint16(data[pos+4 : pos+6]))
		pos += 6
		if pos+pathLen+16 > size {
			syscall.Munmap(data)
			f.Close()
			return nil, rerrors.NewCacheCorrupt(path, fmt.Errorf("truncated directory entry body"))
		}
		entryPath := string(data[pos : pos+pathLen])
		pos += pathLen
		offset := binary.LittleEndian.Uint64(data[pos : pos+8])
		length := binary.LittleEndian.Uint64(data[pos+8 : pos+16])
		pos += 16

		e := Entry{FileID: fileID, Path: entryPath, Offset: offset, Length: length}
		byID[fileID] = e
		byPath[entryPath] = e
	}

	return &Store{f: f, data: data, byID: byID, byPath: byPath}, nil
}

// Close unmaps the file and releases its descriptor.
func (s *Store) Close() error {
	if s.data != nil {
		syscall.Munmap(s.data)
		s.data = nil
	}
	return s.f.Close()
}

// Get returns the raw bytes for a file. The returned slice aliases the
// mmap'd region and must not be retained past Close.
func (s *Store) Get(fileID types.FileID) ([]byte, bool) {
	e, ok := s.byID[fileID]
	if !ok {
		return nil, false
	}
	return s.data[e.Offset : e.Offset+e.Length], true
}

// GetByPath is the path-keyed equivalent of Get.
func (s *Store) GetByPath(path string) ([]byte, bool) {
	e, ok := s.byPath[path]
	if !ok {
		return nil, false
	}
	return s.data[e.Offset : e.Offset+e.Length], true
}

// ExtractContext returns the bytes of the inclusive 1-based line range
// [startLine, endLine] of a file's content; a startLine below 1 is treated
// as 1.
func (s *Store) ExtractContext(fileID types.FileID, startLine, endLine int) ([]byte, error) {
	data, ok := s.Get(fileID)
	if !ok {
		return nil, rerrors.NewCacheMissing(fmt.Sprintf("file %d not in content store", fileID))
	}
	if startLine < 1 {
		startLine = 1
	}

	line := 1
	start := -1
	end := len(data)
	lineStart := 0
	for i := 0; i <= len(data); i++ {
		atEnd := i == len(data)
		if atEnd || data[i] == '\n' {
			if line == startLine {
				start = lineStart
			}
			if line == endLine {
				end = i
				if !atEnd {
					end++ // include the trailing newline of the last requested line
				}
				break
			}
			lineStart = i + 1
			line++
		}
	}
	if start < 0 {
		return nil, nil
	}
	if end > len(data) {
		end = len(data)
	}
	return data[start:end], nil
}

// Count returns the number of files recorded in the directory.
func (s *Store) Count() int { return len(s.byID) }

// LineCount scans a file's content for the number of lines it spans,
// counting a trailing partial line (no final newline) as one more line.
func (s *Store) LineCount(fileID types.FileID) int {
	data, ok := s.Get(fileID)
	if !ok {
		return 0
	}
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
