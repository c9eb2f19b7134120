package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// MetaKind 自定义元数据的值类型标签
type MetaKind int

const (
	MetaNull MetaKind = iota
	MetaString
	MetaNumber
	MetaBool
	MetaArray
	MetaObject
)

// MetaValue 带类型标签的 JSON 值
// 结果文件中未识别的顶层字段原样保留，序列化往返不丢失类型信息
type MetaValue struct {
	Kind MetaKind
	Str  string
	Num  float64
	Bool bool
	Arr  []MetaValue
	Obj  map[string]MetaValue
}

// MetaFromAny 从 json 解码出的 interface{} 构建 MetaValue
func MetaFromAny(v interface{}) MetaValue {
	switch val := v.(type) {
	case nil:
		return MetaValue{Kind: MetaNull}
	case string:
		return MetaValue{Kind: MetaString, Str: val}
	case float64:
		return MetaValue{Kind: MetaNumber, Num: val}
	case json.Number:
		f, _ := val.Float64()
		return MetaValue{Kind: MetaNumber, Num: f}
	case bool:
		return MetaValue{Kind: MetaBool, Bool: val}
	case []interface{}:
		arr := make([]MetaValue, len(val))
		for i, item := range val {
			arr[i] = MetaFromAny(item)
		}
		return MetaValue{Kind: MetaArray, Arr: arr}
	case map[string]interface{}:
		obj := make(map[string]MetaValue, len(val))
		for k, item := range val {
			obj[k] = MetaFromAny(item)
		}
		return MetaValue{Kind: MetaObject, Obj: obj}
	default:
		return MetaValue{Kind: MetaString, Str: fmt.Sprintf("%v", val)}
	}
}

// Interface 还原为 json 可编码的 interface{}
func (v MetaValue) Interface() interface{} {
	switch v.Kind {
	case MetaNull:
		return nil
	case MetaString:
		return v.Str
	case MetaNumber:
		return v.Num
	case MetaBool:
		return v.Bool
	case MetaArray:
		arr := make([]interface{}, len(v.Arr))
		for i, item := range v.Arr {
			arr[i] = item.Interface()
		}
		return arr
	case MetaObject:
		obj := make(map[string]interface{}, len(v.Obj))
		for k, item := range v.Obj {
			obj[k] = item.Interface()
		}
		return obj
	default:
		return nil
	}
}

// MarshalJSON 按原始形态输出
func (v MetaValue) MarshalJSON() ([]byte, error) {
	if v.Kind == MetaObject {
		// 键排序保证输出稳定
		keys := make([]string, 0, len(v.Obj))
		for k := range v.Obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := json.Marshal(v.Obj[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON 从任意 JSON 值还原
func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = MetaFromAny(raw)
	return nil
}
