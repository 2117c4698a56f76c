package envelope

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// 解码后树结构的约定键
const (
	AttrPrefix = "_"      // 属性键前缀，例如 _id
	TextKey    = "__text" // 同时含属性/子节点与文本时的文本键
)

// Tree 解码后的节点树
// 值类型只有三种：string（叶子节点文本）、map[string]any（元素）、[]any（重复的同名子元素）
type Tree = map[string]any

var errNoRoot = errors.New("no root element")

// xmlNode 构建树时的临时节点
type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children map[string]any
	text     strings.Builder
}

func (n *xmlNode) addChild(name string, value any) {
	if n.children == nil {
		n.children = make(map[string]any)
	}
	existing, ok := n.children[name]
	if !ok {
		n.children[name] = value
		return
	}
	// 子节点的值只会是 string 或 map，已经是切片说明之前出现过重复
	if list, isList := existing.([]any); isList {
		n.children[name] = append(list, value)
		return
	}
	n.children[name] = []any{existing, value}
}

// value 叶子节点返回去掉首尾空白的文本，否则返回 map
func (n *xmlNode) value() any {
	text := strings.TrimSpace(n.text.String())
	attrs := n.elementAttrs()
	if len(attrs) == 0 && len(n.children) == 0 {
		return text
	}
	m := make(map[string]any, len(attrs)+len(n.children)+1)
	for _, a := range attrs {
		m[AttrPrefix+a.Name.Local] = a.Value
	}
	for k, v := range n.children {
		m[k] = v
	}
	if text != "" {
		m[TextKey] = text
	}
	return m
}

// elementAttrs 过滤掉命名空间声明
func (n *xmlNode) elementAttrs() []xml.Attr {
	attrs := n.attrs[:0:0]
	for _, a := range n.attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		attrs = append(attrs, a)
	}
	return attrs
}

// newXMLDecoder 创建解码器
// 支持 HTML 命名实体，声明了非 UTF-8 编码时按 IANA 名称转码
func newXMLDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charsetReader
	return dec
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// parseXML 将 XML 文档解析为 (根节点名, 根节点值)
// 根节点闭合后的内容被忽略
func parseXML(r io.Reader) (string, any, error) {
	dec := newXMLDecoder(r)
	var stack []*xmlNode
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, &xmlNode{name: t.Name.Local, attrs: t.Attr})
		case xml.EndElement:
			if len(stack) == 0 {
				return "", nil, fmt.Errorf("unexpected end element </%s>", t.Name.Local)
			}
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return node.name, node.value(), nil
			}
			stack[len(stack)-1].addChild(node.name, node.value())
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if len(stack) > 0 {
		return "", nil, fmt.Errorf("unexpected EOF inside <%s>", stack[len(stack)-1].name)
	}
	return "", nil, errNoRoot
}

// decodeDocument 将任意支持的输入解码为 (外层节点名, 外层节点值)
func decodeDocument(raw any) (string, any, error) {
	var r io.Reader
	switch v := raw.(type) {
	case nil:
		return "", nil, newParseError("empty input", nil)
	case map[string]any:
		return unwrapTree(v)
	case string:
		r = strings.NewReader(v)
	case []byte:
		r = bytes.NewReader(v)
	case io.Reader:
		r = v
	default:
		return "", nil, newParseError(fmt.Sprintf("unsupported input type %T", raw), nil)
	}

	name, value, err := parseXML(r)
	if errors.Is(err, errNoRoot) {
		return "", nil, newParseError("missing envelope", nil)
	}
	if err != nil {
		return "", nil, newParseError("malformed xml", err)
	}
	return name, value, nil
}

// unwrapTree 已解码的树必须只有一个外层键
func unwrapTree(tree map[string]any) (string, any, error) {
	if len(tree) != 1 {
		return "", nil, newParseError(fmt.Sprintf("expected one wrapper key, got %d", len(tree)), nil)
	}
	for name, value := range tree {
		return name, value, nil
	}
	return "", nil, newParseError("missing envelope", nil)
}

// TextOf 返回节点的文本：叶子节点为字符串本身，元素为 __text，列表取第一个
func TextOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]any:
		s, ok := t[TextKey].(string)
		return s, ok
	case []any:
		if len(t) > 0 {
			return TextOf(t[0])
		}
	}
	return "", false
}
