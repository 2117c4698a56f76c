package filter

import (
	"strings"
	"unicode"
)

// Parse 将过滤器文本解析为 Filter
// 1. 按空白切分，引号内的空白不切分
// 2. 每个片段在第一个引号外的运算符处切分，优先匹配 ">=" / "<="
// 3. 没有运算符的片段作为自由文本条件
func Parse(text string) *Filter {
	f := &Filter{}
	for _, token := range tokenize(text) {
		f.terms = appendTerm(f.terms, parseToken(token))
	}
	return f
}

// tokenize 切分过滤器文本，保留片段中的引号以便后续定位运算符
func tokenize(text string) []string {
	var (
		tokens  []string
		current strings.Builder
		inQuote bool
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			inQuote = !inQuote
			current.WriteRune(r)
		case inQuote && r == '\\' && i+1 < len(runes):
			current.WriteRune(r)
			i++
			current.WriteRune(runes[i])
		case !inQuote && unicode.IsSpace(r):
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// parseToken 解析单个片段
func parseToken(token string) Term {
	idx, rel := findRelation(token)
	if idx < 0 {
		return Term{Value: unquote(token)}
	}
	keyword := unquote(token[:idx])
	if keyword != "" && !ValidKeyword(keyword) {
		// 关键字部分带引号且含非法字符，整体作为自由文本
		return Term{Value: unquote(token)}
	}
	value := unquote(token[idx+len(rel):])
	return normalizeTerm(Term{Keyword: keyword, Relation: rel, Value: value})
}

// findRelation 查找引号外第一个运算符的位置
func findRelation(token string) (int, Relation) {
	inQuote := false
	for i := 0; i < len(token); i++ {
		c := token[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote && c == '\\':
			i++
		case !inQuote && isRelationChar(rune(c)):
			rest := token[i:]
			for _, rel := range relations {
				if strings.HasPrefix(rest, string(rel)) {
					return i, rel
				}
			}
		}
	}
	return -1, RelationNone
}
