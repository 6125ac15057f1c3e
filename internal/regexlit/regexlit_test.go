package regexlit

import (
	"regexp/syntax"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, pattern string) *syntax.Regexp {
	t.Helper()
	re, err := syntax.Parse(pattern, syntax.Perl)
	require.NoError(t, err)
	return re
}

func TestExtract_PlainLiteral(t *testing.T) {
	res := Extract(parse(t, "hello"))
	require.True(t, res.Witness)
	assert.NotEmpty(t, res.Trigrams)
}

func TestExtract_ShortLiteralNoWitness(t *testing.T) {
	res := Extract(parse(t, "ab"))
	assert.False(t, res.Witness)
}

func TestExtract_AnyCharBreaksRun(t *testing.T) {
	res := Extract(parse(t, "ab.cd"))
	// Each side of the `.` is only 2 bytes long: no run reaches length 3.
	assert.False(t, res.Witness)
}

func TestExtract_ConcatMergesLiterals(t *testing.T) {
	res := Extract(parse(t, "foo"+"bar"))
	require.True(t, res.Witness)
	assert.NotEmpty(t, res.Trigrams)
}

func TestExtract_AlternationRequiresAllBranches(t *testing.T) {
	res := Extract(parse(t, "(foo|bar)"))
	require.True(t, res.Witness)
	assert.Len(t, res.Trigrams, 2) // "foo" and "bar" each contribute one trigram
}

func TestExtract_AlternationWithShortBranchHasNoWitness(t *testing.T) {
	res := Extract(parse(t, "(foo|ab)"))
	assert.False(t, res.Witness, "short branch can't prove a run, so the whole alternation can't")
}

func TestExtract_StarDropsWitness(t *testing.T) {
	res := Extract(parse(t, "fo*"))
	assert.False(t, res.Witness)
}

func TestExtract_PlusKeepsLiteral(t *testing.T) {
	res := Extract(parse(t, "(foo)+"))
	require.True(t, res.Witness)
}

func TestExtract_CharClassBreaksRun(t *testing.T) {
	res := Extract(parse(t, "fo[abc]bar"))
	require.True(t, res.Witness)
	assert.NotEmpty(t, res.Trigrams) // "bar" alone still proves a run
}

func TestIsCaseInsensitive(t *testing.T) {
	assert.True(t, IsCaseInsensitive("(?i)hello"))
	assert.False(t, IsCaseInsensitive("hello"))
}
