package linkextract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind JSON 值类型
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

const maxDecodeDepth = 256

var errDecodeTooDeep = errors.New("json nesting too deep")

// Member 对象成员，保留原始顺序
type Member struct {
	Key   string
	Value Value
}

// Value JSON 值的有序表示（对象成员按出现顺序保存）
type Value struct {
	Kind    Kind
	Bool    bool
	Number  string
	String  string
	Items   []Value
	Members []Member
}

// Lookup 返回对象中的同名成员；重复 key 以最后一个为准，与 JSON.parse 一致
func (v Value) Lookup(key string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	for i := len(v.Members) - 1; i >= 0; i-- {
		if v.Members[i].Key == key {
			return v.Members[i].Value, true
		}
	}
	return Value{}, false
}

// Decode 将 JSON 字节解码为有序值；无法解析时返回 false
func Decode(data []byte) (Value, bool) {
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("\xef\xbb\xbf"))
	if len(data) == 0 {
		return Value{}, false
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	value, err := decodeValue(dec, 0)
	if err != nil {
		return Value{}, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, false
	}
	return value, true
}

func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	if depth > maxDecodeDepth {
		return Value{}, errDecodeTooDeep
	}
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec, depth)
		case '[':
			return decodeArray(dec, depth)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return Value{Kind: KindString, String: t}, nil
	case json.Number:
		return Value{Kind: KindNumber, Number: t.String()}, nil
	case bool:
		return Value{Kind: KindBool, Bool: t}, nil
	case nil:
		return Value{Kind: KindNull}, nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", t)
	}
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	members := make([]Member, 0)
	// 重复 key 保留首次出现的位置、最后一次的值
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
		}
		value, err := decodeValue(dec, depth+1)
		if err != nil {
			return Value{}, err
		}
		if i, seen := index[key]; seen {
			members[i].Value = value
			continue
		}
		index[key] = len(members)
		members = append(members, Member{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Value{Kind: KindObject, Members: members}, nil
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	items := make([]Value, 0)
	for dec.More() {
		value, err := decodeValue(dec, depth+1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, value)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Value{Kind: KindArray, Items: items}, nil
}
