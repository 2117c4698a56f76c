package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerm_String(t *testing.T) {
	assert.Equal(t, "rows=10", NewTerm("rows", "10", RelationNone).String())
	assert.Equal(t, "name~web", NewTerm("name", "web", RelationContains).String())
	assert.Equal(t, "foo", NewTerm("", "foo", RelationNone).String())
	assert.Equal(t, `"a b"`, NewTerm("", "a b", RelationNone).String())
	assert.Equal(t, `comment="x>y"`, NewTerm("comment", "x>y", RelationEqual).String())
	assert.Equal(t, `"back\\slash \"q\""`, NewTerm("", `back\slash "q"`, RelationNone).String())
}

func TestTerm_InvalidRelation(t *testing.T) {
	term := NewTerm("rows", "10", Relation("!="))
	assert.Equal(t, RelationEqual, term.Relation)
}

func TestValidKeyword(t *testing.T) {
	assert.True(t, ValidKeyword("sort-reverse"))
	assert.True(t, ValidKeyword("apply_overrides"))
	assert.False(t, ValidKeyword(""))
	assert.False(t, ValidKeyword("a b"))
	assert.False(t, ValidKeyword(`a"b`))
	assert.False(t, ValidKeyword("a<b"))
}

func TestQuoteUnquote(t *testing.T) {
	for _, v := range []string{"", "plain", "a b", `"`, `\`, `a\"b`, "x=y"} {
		assert.Equal(t, v, unquote(quote(v)), v)
	}
	// 引号外的反斜杠按字面处理
	assert.Equal(t, `C:\tmp`, unquote(`C:\tmp`))
}
