package rerrors

import "fmt"

// Kind is the closed set of error categories every operation surface
// reports back to its caller. Unlike ErrorType (which the original
// indexing/search/config errors key off of), Kind maps 1:1 onto the
// result envelope's error field and is what external callers switch on.
type Kind string

const (
	KindCacheMissing             Kind = "cache_missing"
	KindCacheIncompatible        Kind = "cache_incompatible"
	KindCacheCorrupt             Kind = "cache_corrupt"
	KindCacheLocked              Kind = "cache_locked"
	KindIndexStale               Kind = "index_stale"
	KindFileTooLarge             Kind = "file_too_large"
	KindUnsupportedLanguage      Kind = "unsupported_language"
	KindParseFailed              Kind = "parse_failed"
	KindAstPatternInvalid        Kind = "ast_pattern_invalid"
	KindRegexInvalid             Kind = "regex_invalid"
	KindQueryTimeout             Kind = "query_timeout"
	KindBackgroundWorkerUnavailable Kind = "background_worker_unavailable"
	KindIO                       Kind = "io"
)

// KindError wraps an underlying error with one of the named kinds above.
// Retryable reports whether the caller can reasonably retry the operation
// unchanged (e.g. CacheLocked, QueryTimeout) versus needing to change
// something first (e.g. RegexInvalid, UnsupportedLanguage).
type KindError struct {
	Kind       Kind
	Detail     string
	Underlying error
	Retryable  bool
}

func (e *KindError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *KindError) Unwrap() error { return e.Underlying }

func newKind(k Kind, retryable bool, detail string, err error) *KindError {
	return &KindError{Kind: k, Detail: detail, Underlying: err, Retryable: retryable}
}

func NewCacheMissing(detail string) *KindError {
	return newKind(KindCacheMissing, false, detail, nil)
}

func NewCacheIncompatible(detail string, err error) *KindError {
	return newKind(KindCacheIncompatible, false, detail, err)
}

func NewCacheCorrupt(detail string, err error) *KindError {
	return newKind(KindCacheCorrupt, false, detail, err)
}

func NewCacheLocked(detail string) *KindError {
	return newKind(KindCacheLocked, true, detail, nil)
}

func NewIndexStale(detail string) *KindError {
	return newKind(KindIndexStale, false, detail, nil)
}

func NewFileTooLarge(path string, size, limit int64) *KindError {
	return newKind(KindFileTooLarge, false,
		fmt.Sprintf("%s is %d bytes, limit %d", path, size, limit), nil)
}

func NewUnsupportedLanguage(path string) *KindError {
	return newKind(KindUnsupportedLanguage, false, path, nil)
}

func NewParseFailed(path string, err error) *KindError {
	return newKind(KindParseFailed, false, path, err)
}

func NewAstPatternInvalid(pattern string, err error) *KindError {
	return newKind(KindAstPatternInvalid, false, pattern, err)
}

func NewRegexInvalid(pattern string, err error) *KindError {
	return newKind(KindRegexInvalid, false, pattern, err)
}

func NewQueryTimeout(detail string) *KindError {
	return newKind(KindQueryTimeout, true, detail, nil)
}

func NewBackgroundWorkerUnavailable(detail string) *KindError {
	return newKind(KindBackgroundWorkerUnavailable, true, detail, nil)
}

func NewIO(op, path string, err error) *KindError {
	return newKind(KindIO, false, fmt.Sprintf("%s %s", op, path), err)
}

// Is lets errors.Is match on Kind alone via a sentinel-shaped comparison:
// errors.Is(err, rerrors.KindSentinel(rerrors.KindCacheLocked)).
func (e *KindError) Is(target error) bool {
	t, ok := target.(*kindSentinel)
	if !ok {
		return false
	}
	return e.Kind == t.kind
}

type kindSentinel struct{ kind Kind }

func (s *kindSentinel) Error() string { return string(s.kind) }

// KindSentinel returns a comparable value for errors.Is(err, KindSentinel(k)).
func KindSentinel(k Kind) error { return &kindSentinel{kind: k} }
