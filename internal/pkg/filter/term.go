package filter

import (
	"strings"
	"unicode"
)

// Relation 过滤条件的关系运算符
type Relation string

const (
	RelationNone         Relation = ""   // 无运算符：纯自由文本
	RelationEqual        Relation = "="  // 等于
	RelationContains     Relation = "~"  // 包含
	RelationLess         Relation = "<"  // 小于
	RelationGreater      Relation = ">"  // 大于
	RelationLessEqual    Relation = "<=" // 小于等于
	RelationGreaterEqual Relation = ">=" // 大于等于
)

// relations 按长度降序排列，切分时优先匹配两字符运算符
var relations = []Relation{
	RelationGreaterEqual,
	RelationLessEqual,
	RelationEqual,
	RelationContains,
	RelationLess,
	RelationGreater,
}

// IsValid 检查运算符是否合法
func (r Relation) IsValid() bool {
	switch r {
	case RelationNone, RelationEqual, RelationContains, RelationLess,
		RelationGreater, RelationLessEqual, RelationGreaterEqual:
		return true
	}
	return false
}

// Term 过滤器中的单个条件
// Keyword 为空时表示自由文本搜索
type Term struct {
	Keyword  string   `json:"keyword,omitempty"`
	Relation Relation `json:"relation,omitempty"`
	Value    string   `json:"value"`
}

// NewTerm 创建条件，未指定运算符的关键字条件默认使用 "="
func NewTerm(keyword, value string, relation Relation) Term {
	return normalizeTerm(Term{Keyword: keyword, Relation: relation, Value: value})
}

// HasKeyword 是否为关键字条件
func (t Term) HasKeyword() bool {
	return t.Keyword != ""
}

// String 返回条件的文本形式: keyword + relation + value
func (t Term) String() string {
	value := t.Value
	if needsQuoting(t) {
		value = quote(value)
	}
	return t.Keyword + string(t.Relation) + value
}

// normalizeTerm 保证条件可以被无损序列化
// 关键字非法时整个条件作为自由文本，与 Parse 对 `"a b"=c` 的处理一致
func normalizeTerm(t Term) Term {
	if t.Keyword != "" && t.Relation == RelationNone {
		t.Relation = RelationEqual
	}
	if !t.Relation.IsValid() {
		t.Relation = RelationEqual
	}
	if t.Keyword != "" && !ValidKeyword(t.Keyword) {
		return Term{Value: t.Keyword + string(t.Relation) + t.Value}
	}
	return t
}

// ValidKeyword 关键字不能包含空白、引号或运算符字符
func ValidKeyword(keyword string) bool {
	if keyword == "" {
		return false
	}
	for _, r := range keyword {
		if unicode.IsSpace(r) || r == '"' || isRelationChar(r) {
			return false
		}
	}
	return true
}

func isRelationChar(r rune) bool {
	return r == '=' || r == '~' || r == '<' || r == '>'
}

// needsQuoting 判断值是否需要加引号才能在解析后还原
func needsQuoting(t Term) bool {
	if t.Value == "" {
		// 空的自由文本必须保留引号，否则序列化后会消失
		return t.Keyword == "" && t.Relation == RelationNone
	}
	return strings.ContainsFunc(t.Value, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || isRelationChar(r)
	})
}

// quote 加引号，引号内的 " 和 \ 用反斜杠转义
func quote(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 2)
	b.WriteByte('"')
	for _, r := range value {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// unquote 去掉引号并还原引号内的转义字符，引号外的反斜杠按字面处理
func unquote(s string) string {
	if !strings.ContainsRune(s, '"') {
		return s
	}
	var b strings.Builder
	inQuote := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote && r == '\\' && i+1 < len(runes):
			i++
			b.WriteRune(runes[i])
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
