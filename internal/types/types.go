// Package types holds the data model shared by every Reflex component:
// the stable identifiers, entities, and invariants described in the core
// design (files, symbols, spans, trigram postings, dependency edges).
package types

import (
	"encoding/json"
	"time"
)

// Default limits applied by the Walker when no config override is set.
const (
	DefaultMaxFileSize    = 10 * 1024 * 1024 // 10MB per file
	DefaultMaxTotalSizeMB = 500
	DefaultMaxFileCount   = 10000

	// BinaryPreCheckBytes is how many leading bytes the Walker reads before
	// committing to loading a candidate file, mirroring the header-sniffing
	// approach used for binary detection.
	BinaryPreCheckBytes = 512
)

// FileID is a stable, auto-incremented integer identifying an indexed file.
// It is never reused while the file's row exists in the Metadata Store.
type FileID uint32

// SymbolID identifies a symbol. Symbols are produced at query time (or read
// from the Symbol Cache) and are not guaranteed stable across reindexes of
// their owning file, so SymbolID is scoped to a single query/cache read.
type SymbolID uint64

// Language is a closed enum of the languages the Parser Layer understands.
type Language uint8

const (
	LangUnknown Language = iota
	LangGo
	LangRust
	LangC
	LangCPP
	LangJava
	LangPython
	LangJavaScript
	LangTypeScript
	LangCSharp
	LangRuby
	LangKotlin
	LangZig
	LangPHP
	LangVue
	LangSvelte
)

func (l Language) String() string {
	switch l {
	case LangGo:
		return "go"
	case LangRust:
		return "rust"
	case LangC:
		return "c"
	case LangCPP:
		return "cpp"
	case LangJava:
		return "java"
	case LangPython:
		return "python"
	case LangJavaScript:
		return "javascript"
	case LangTypeScript:
		return "typescript"
	case LangCSharp:
		return "csharp"
	case LangRuby:
		return "ruby"
	case LangKotlin:
		return "kotlin"
	case LangZig:
		return "zig"
	case LangPHP:
		return "php"
	case LangVue:
		return "vue"
	case LangSvelte:
		return "svelte"
	default:
		return "unknown"
	}
}

// LanguageFromExtension classifies a file by its extension. Unrecognized
// extensions map to LangUnknown: such files are indexed for full-text search
// only, carrying no symbols or dependency edges.
func LanguageFromExtension(ext string) Language {
	switch ext {
	case ".go":
		return LangGo
	case ".rs":
		return LangRust
	case ".c", ".h":
		return LangC
	case ".cc", ".cpp", ".cxx", ".hpp", ".hh":
		return LangCPP
	case ".java":
		return LangJava
	case ".py", ".pyi":
		return LangPython
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript
	case ".ts", ".tsx":
		return LangTypeScript
	case ".cs":
		return LangCSharp
	case ".rb":
		return LangRuby
	case ".kt", ".kts":
		return LangKotlin
	case ".zig":
		return LangZig
	case ".php":
		return LangPHP
	case ".vue":
		return LangVue
	case ".svelte":
		return LangSvelte
	default:
		return LangUnknown
	}
}

// ParseLanguage is the inverse of Language.String, used to turn a CLI
// --language flag or an ast-query request's lang field back into a
// Language.
func ParseLanguage(s string) Language {
	for l := LangUnknown; l <= LangSvelte; l++ {
		if l.String() == s {
			return l
		}
	}
	return LangUnknown
}

// MarshalJSON renders a Language as its name ("go"), not its numeric
// value, so a query.Request round-trips over internal/rpc's wire format
// legibly.
func (l Language) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON is ParseLanguage's JSON counterpart.
func (l *Language) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = ParseLanguage(s)
	return nil
}

// File is the stable identity of one indexed file. `Path` is unique;
// `ID` is referenced by postings, content-store entries, symbol rows, and
// dependency rows.
type File struct {
	ID        FileID
	Path      string // UTF-8, workspace-relative, canonical separators
	Language  Language
	SizeBytes int64
}

// FileHash records the content hash of a file on a given branch. Absence of
// a row for (FileID, BranchKey) means the file has not yet been indexed on
// that branch.
type FileHash struct {
	FileID      FileID
	BranchKey   string
	ContentHash [32]byte // SHA-256 over raw bytes
}

// Span is a 1-based source range, inclusive on start and exclusive on the
// end column, taken directly from a parser's syntax node position.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool {
	return s.StartLine == s.EndLine && s.StartCol == s.EndCol
}

// SymbolKind is the closed enum of symbol categories the Parser Layer emits.
type SymbolKind uint8

const (
	SymbolUnknown SymbolKind = iota
	SymbolFunction
	SymbolMethod
	SymbolClass
	SymbolStruct
	SymbolEnum
	SymbolTrait
	SymbolInterface
	SymbolType // alias
	SymbolConstant
	SymbolVariable
	SymbolModule
	SymbolNamespace
	SymbolProperty
	SymbolField
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolMethod:
		return "method"
	case SymbolClass:
		return "class"
	case SymbolStruct:
		return "struct"
	case SymbolEnum:
		return "enum"
	case SymbolTrait:
		return "trait"
	case SymbolInterface:
		return "interface"
	case SymbolType:
		return "type"
	case SymbolConstant:
		return "constant"
	case SymbolVariable:
		return "variable"
	case SymbolModule:
		return "module"
	case SymbolNamespace:
		return "namespace"
	case SymbolProperty:
		return "property"
	case SymbolField:
		return "field"
	default:
		return "unknown"
	}
}

// ParseSymbolKind is the inverse of SymbolKind.String, used when reading the
// kind back out of the Metadata Store's symbol_kinds junction table.
func ParseSymbolKind(s string) SymbolKind {
	for k := SymbolUnknown; k <= SymbolField; k++ {
		if k.String() == s {
			return k
		}
	}
	return SymbolUnknown
}

// MarshalJSON renders a SymbolKind as its name ("function"), matching
// Result.Kind's string representation elsewhere in the query response.
func (k SymbolKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON is ParseSymbolKind's JSON counterpart.
func (k *SymbolKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseSymbolKind(s)
	return nil
}

// Symbol is a single definition extracted by the Parser Layer or read back
// from the Symbol Cache. A symbol belongs to exactly one file; its span is
// non-empty and lay within the file's byte extent at the time it was parsed.
type Symbol struct {
	FileID FileID     `json:"file_id"`
	Kind   SymbolKind `json:"kind"`
	Name   string     `json:"name"`
	Span   Span       `json:"span"`
	Scope  string     `json:"scope"` // joined names of enclosing declarations, language-neutral

	// Path is populated by the reader (Symbol Cache / query pipeline) from
	// the files table; the persisted blob omits it to avoid duplication.
	Path string `json:"path,omitempty"`
}

// Posting is one occurrence of a trigram: the file and 1-based line on
// which it was seen. The Trigram Index stores, for each 3-byte window, a
// deduplicated, sorted slice of Postings (at most one per (FileID, Line)
// pair even if the trigram recurs within the same line).
type Posting struct {
	FileID FileID
	Line   int
}

// DependencyKind classifies how an import resolves.
type DependencyKind uint8

const (
	DepInternal DependencyKind = iota // resolves to a file in this workspace
	DepExternal                       // third-party package
	DepStdlib                         // language standard library
)

func (k DependencyKind) String() string {
	switch k {
	case DepInternal:
		return "internal"
	case DepExternal:
		return "external"
	case DepStdlib:
		return "stdlib"
	default:
		return "unknown"
	}
}

// DependencyEdge is one syntactic import site. ResolvedFileID is non-nil iff
// Kind == DepInternal and resolution against the files table succeeded.
// Edges are keyed by SourceFileID; reindexing a file atomically replaces its
// full edge set.
type DependencyEdge struct {
	SourceFileID     FileID
	ImportedPath     string // path exactly as written in source
	ResolvedFileID   *FileID
	Kind             DependencyKind
	LineNumber       int
	ImportedSymbols  []string
}

// Statistics are aggregate, derived counters recomputed on each index commit.
type Statistics struct {
	TotalFiles     int
	TotalBytes     int64
	FilesByLang    map[string]int
	LastUpdated    time.Time
}

// CacheStatus is the freshness envelope's status field.
type CacheStatus uint8

const (
	StatusFresh CacheStatus = iota
	StatusStale
	StatusMissing
)

func (s CacheStatus) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Freshness is attached to every query response per §6.
type Freshness struct {
	Status          CacheStatus `json:"status"`
	CanTrustResults bool        `json:"can_trust_results"`
	Warning         string      `json:"warning,omitempty"`
}

// NewFreshness builds an envelope enforcing the invariant
// CanTrustResults == (Status == Fresh), and that a non-fresh status carries
// a non-empty warning.
func NewFreshness(status CacheStatus, warning string) Freshness {
	f := Freshness{Status: status, CanTrustResults: status == StatusFresh}
	if !f.CanTrustResults && warning == "" {
		warning = "cache is " + status.String() + "; results may not reflect current workspace state"
	}
	f.Warning = warning
	return f
}
