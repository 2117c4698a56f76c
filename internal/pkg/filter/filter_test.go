package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"foo",
		"name~foo rows=10",
		`"hello world" first=1 rows=10 sort=name`,
		"severity>5.0 severity<=9 modified>=2024-01-01",
		"tag=a tag=b apply_overrides=0",
		`"a=b"`,
		`"say \"hi\""`,
		`name="a b c"`,
	}
	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			f := Parse(text)
			once := f.String()
			assert.Equal(t, once, Parse(once).String())
		})
	}
}

func TestFilter_RoundTripBuilt(t *testing.T) {
	cases := map[string]*Filter{
		"new quoted keyword":  New(Term{Keyword: `q"k`, Value: "v"}),
		"new spaced keyword":  New(Term{Keyword: "a b", Value: "x"}),
		"add operator in key": Parse("rows=10").Add(Term{Keyword: "x=y", Value: "z"}),
		"add relation":        New().Add(Term{Keyword: "severity", Relation: RelationGreaterEqual, Value: "5.0"}),
		"add free text":       New().Add(Term{Value: "web server"}).Add(Term{Value: "a~b"}),
		"set and and":         New().Set("name", "a b").And(Parse("tag=x tag=y")),
		"with sort and next":  Parse("rows=10 foo").WithSort("severity", true).Next(),
		"new empty value":     New(Term{Keyword: "comment", Value: ""}, Term{Value: `say "hi"`}),
		"all":                 New(Term{Keyword: "name", Relation: RelationContains, Value: `C:\tmp`}).All(),
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			text := f.String()
			parsed := Parse(text)
			assert.Equal(t, text, parsed.String())
			assert.Equal(t, f.Terms(), parsed.Terms())
		})
	}
}

func TestFilter_InvalidKeywordBecomesFreeText(t *testing.T) {
	f := New(Term{Keyword: "a b", Value: "x"})
	terms := f.Terms()
	require.Len(t, terms, 1)
	assert.False(t, terms[0].HasKeyword())
	assert.Equal(t, "a b=x", terms[0].Value)
	assert.Equal(t, `"a b=x"`, f.String())

	f = Parse("rows=10").Add(Term{Keyword: "x=y", Relation: RelationContains, Value: "z"})
	assert.Equal(t, `rows=10 "x=y~z"`, f.String())
	assert.Equal(t, 10, f.Rows())
}

func TestFilter_UnmarshalTextResetsID(t *testing.T) {
	f := Parse("rows=10").WithID("f1")
	require.NoError(t, f.UnmarshalText([]byte("name=web")))
	assert.Equal(t, "", f.ID())
	assert.Equal(t, "name=web", f.String())
}

func TestParse_Relations(t *testing.T) {
	f := Parse("rows>=10 severity<3 name~web owner=admin created<=2024 modified>1")

	rows, ok := f.Get("rows")
	require.True(t, ok)
	assert.Equal(t, RelationGreaterEqual, rows.Relation)
	assert.Equal(t, "10", rows.Value)

	severity, _ := f.Get("severity")
	assert.Equal(t, RelationLess, severity.Relation)
	assert.Equal(t, "3", severity.Value)

	name, _ := f.Get("name")
	assert.Equal(t, RelationContains, name.Relation)

	created, _ := f.Get("created")
	assert.Equal(t, RelationLessEqual, created.Relation)

	modified, _ := f.Get("modified")
	assert.Equal(t, RelationGreater, modified.Relation)
}

func TestParse_FreeText(t *testing.T) {
	// 引号内的运算符不参与切分
	f := Parse(`"a=b" plain`)
	terms := f.Terms()
	require.Len(t, terms, 2)
	assert.False(t, terms[0].HasKeyword())
	assert.Equal(t, "a=b", terms[0].Value)
	assert.Equal(t, "plain", terms[1].Value)
	assert.Equal(t, `"a=b" plain`, f.String())

	// 关键字非法时整体作为自由文本
	f = Parse(`"a b"=c`)
	terms = f.Terms()
	require.Len(t, terms, 1)
	assert.Equal(t, "a b=c", terms[0].Value)
	assert.Equal(t, `"a b=c"`, f.String())
}

func TestParse_QuotedValue(t *testing.T) {
	f := Parse(`name="web server" comment="say \"hi\""`)
	assert.Equal(t, "web server", f.Value("name"))
	assert.Equal(t, `say "hi"`, f.Value("comment"))
	assert.Equal(t, `name="web server" comment="say \"hi\""`, f.String())
}

func TestParse_EmptyValue(t *testing.T) {
	f := Parse("name= rows=10")
	assert.True(t, f.Has("name"))
	assert.Equal(t, "", f.Value("name"))
	assert.Equal(t, "name= rows=10", f.String())

	// 空的自由文本保留引号
	empty := New(NewTerm("", "", RelationNone))
	assert.Equal(t, `""`, empty.String())
	assert.Equal(t, 1, Parse(empty.String()).Len())
}

func TestParse_DuplicateKeyword(t *testing.T) {
	f := Parse("rows=10 name=a rows=20")
	assert.Equal(t, "rows=20 name=a", f.String())

	// tag 可以重复
	f = Parse("tag=a tag=b")
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "tag=a tag=b", f.String())
}

func TestFilter_SetReplacesInPlace(t *testing.T) {
	f := Parse("first=1 rows=10 sort=name")
	g := f.Set("rows", "20")

	assert.Equal(t, "first=1 rows=20 sort=name", g.String())
	// 原过滤器保持不变
	assert.Equal(t, "first=1 rows=10 sort=name", f.String())

	g = f.Set("severity", "5", RelationGreater)
	assert.Equal(t, "first=1 rows=10 sort=name severity>5", g.String())
}

func TestFilter_SetInvalidKeyword(t *testing.T) {
	f := Parse("rows=10")
	assert.Equal(t, "rows=10", f.Set("bad key", "x").String())
	assert.Equal(t, "rows=10", f.Set("a=b", "x").String())
	assert.Equal(t, "rows=10", f.Set("", "x").String())
}

func TestFilter_SetQuotesValue(t *testing.T) {
	f := New().Set("name", "a b")
	assert.Equal(t, `name="a b"`, f.String())
	assert.Equal(t, "a b", Parse(f.String()).Value("name"))
}

func TestFilter_Delete(t *testing.T) {
	f := Parse("tag=a rows=10 tag=b foo")
	g := f.Delete("tag")
	assert.Equal(t, "rows=10 foo", g.String())
	assert.Equal(t, 4, f.Len())
	assert.False(t, g.Has("tag"))
}

func TestFilter_AndIdempotent(t *testing.T) {
	f := Parse("foo rows=10 tag=x")
	assert.Equal(t, f.String(), f.And(f).String())
}

func TestFilter_And(t *testing.T) {
	a := Parse("foo rows=10 sort=name")
	b := Parse("bar rows=25 tag=x")

	merged := a.And(b)
	assert.Equal(t, "foo rows=25 sort=name bar tag=x", merged.String())
	assert.Equal(t, "foo rows=10 sort=name", a.String())

	assert.Equal(t, a.String(), a.And(nil).String())
}

func TestFilter_AndKeepsID(t *testing.T) {
	a := Parse("rows=10")
	b := Parse("foo").WithID("f-1")
	assert.Equal(t, "f-1", a.And(b).ID())
	assert.Equal(t, "f-2", a.WithID("f-2").And(b).ID())
}

func TestFilter_Copy(t *testing.T) {
	f := Parse("rows=10").WithID("abc")
	c := f.Copy()
	assert.True(t, f.Equal(c))

	c = c.Set("rows", "5")
	assert.False(t, f.Equal(c))
	assert.Equal(t, "abc", c.ID())
}

func TestFilter_NilSafe(t *testing.T) {
	var f *Filter
	assert.Equal(t, "", ToFilterString(f))
	assert.Equal(t, "", f.ID())
	assert.Equal(t, 0, f.Len())
	assert.False(t, f.Has("rows"))
	assert.Equal(t, "rows=10", f.Set("rows", "10").String())
}

func TestFilter_Simple(t *testing.T) {
	f := Parse("foo first=1 rows=10 sort=name severity>5 apply_overrides=1 min_qod=70")
	assert.Equal(t, "foo severity>5", f.Simple().String())
}

func TestFilter_Paging(t *testing.T) {
	f := Parse("rows=10")
	assert.Equal(t, 1, f.First())
	assert.Equal(t, 10, f.Rows())

	next := f.Next()
	assert.Equal(t, 11, next.First())
	assert.Equal(t, 21, next.Next().First())

	prev := Parse("first=5 rows=10").Previous()
	assert.Equal(t, 1, prev.First())

	assert.Equal(t, 1, Parse("first=abc").First())
	assert.Equal(t, 0, Parse("rows=abc").Rows())

	all := Parse("first=31 rows=10 foo").All()
	assert.Equal(t, "first=1 rows=-1 foo", all.String())
	assert.Equal(t, 1, Parse("first=31").FirstPage().First())

	// rows 缺省时翻页不改变过滤器
	assert.Equal(t, "foo", Parse("foo").Next().String())
}

func TestFilter_Sort(t *testing.T) {
	f := Parse("sort=name")
	assert.Equal(t, "name", f.SortBy())
	assert.False(t, f.SortReverse())

	r := f.WithSort("severity", true)
	assert.Equal(t, "sort-reverse=severity", r.String())
	assert.Equal(t, "severity", r.SortBy())
	assert.True(t, r.SortReverse())

	assert.Equal(t, "", f.WithSort("", false).String())
}

func TestIsControlKeyword(t *testing.T) {
	for _, kw := range []string{"first", "rows", "sort", "sort-reverse", "apply_overrides", "min_qod", "levels", "timezone"} {
		assert.True(t, IsControlKeyword(kw), kw)
	}
	assert.False(t, IsControlKeyword("name"))
	assert.False(t, IsControlKeyword(""))
}
