package walker

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/reflexsearch/reflex/internal/types"
)

// binaryExtensions is consulted before any I/O; an unlisted extension falls
// through to the magic-number/null-byte heuristic in looksBinary.
var binaryExtensions = map[string]bool{
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true, ".webp": true, ".tiff": true, ".tif": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true, ".jar": true, ".war": true, ".ear": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true, ".obj": true, ".bin": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true, ".wav": true, ".flac": true, ".ogg": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".db": true, ".sqlite": true, ".sqlite3": true,
	".pyc": true, ".pyo": true, ".class": true, ".pickle": true, ".pkl": true,
}

var magicSignatures = [][]byte{
	{0x1F, 0x8B}, // gzip
	{0x50, 0x4B, 0x03, 0x04}, {0x50, 0x4B, 0x05, 0x06}, // zip
	{0x89, 0x50, 0x4E, 0x47}, // png
	{0xFF, 0xD8, 0xFF},       // jpeg
	{0x25, 0x50, 0x44, 0x46}, // pdf
	{0x7F, 0x45, 0x4C, 0x46}, // elf
	{0xCA, 0xFE, 0xBA, 0xBE}, // mach-o
}

// isBinaryExtension reports whether path's extension is always binary.
func isBinaryExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return binaryExtensions[ext]
}

// looksBinary applies the BinaryPreCheckBytes header-sniffing heuristic:
// known magic numbers, then a null-byte/non-printable ratio over the
// leading sample. It never reads more than the caller already loaded.
func looksBinary(sample []byte) bool {
	if len(sample) > types.BinaryPreCheckBytes {
		sample = sample[:types.BinaryPreCheckBytes]
	}
	if len(sample) == 0 {
		return false
	}
	for _, sig := range magicSignatures {
		if bytes.HasPrefix(sample, sig) {
			return true
		}
	}

	var nullBytes, nonPrintable int
	for _, b := range sample {
		if b == 0 {
			nullBytes++
		}
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			nonPrintable++
		}
	}
	if nullBytes > len(sample)/100 {
		return true
	}
	if nonPrintable > len(sample)*30/100 {
		return true
	}
	return false
}
