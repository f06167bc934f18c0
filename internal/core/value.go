// Package core holds the self-describing attribute value and item
// representation shared by the storage and routing layers.
package core

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Value is a self-describing attribute value: exactly one field is
// non-nil. It mirrors the shape of types.AttributeValue so items can be
// built from, and projected back to, the AWS SDK's attribute value
// union without losing information across a JSON round trip.
type Value struct {
	B    []byte           `json:"B"`
	Bool *bool            `json:"BOOL,omitempty"`
	BS   [][]byte         `json:"BS"`
	L    []Value          `json:"L"`
	M    map[string]Value `json:"M"`
	N    *string          `json:"N,omitempty"`
	NS   []string         `json:"NS"`
	NULL *bool            `json:"NULL,omitempty"`
	S    *string          `json:"S,omitempty"`
	SS   []string         `json:"SS"`
}

// Item is an ordered-unimportant mapping from attribute name to value.
type Item map[string]Value

// Key is the (pk, sk) pair extracted from an item via the table's key
// attribute names.
type Key struct {
	PK string
	SK string
}

func StringValue(s string) Value {
	return Value{S: &s}
}

func NumberValue(n string) Value {
	return Value{N: &n}
}

func (v Value) Type() string {
	switch {
	case v.B != nil:
		return "B"
	case v.Bool != nil:
		return "BOOL"
	case v.BS != nil:
		return "BS"
	case v.L != nil:
		return "L"
	case v.M != nil:
		return "M"
	case v.N != nil:
		return "N"
	case v.NS != nil:
		return "NS"
	case v.NULL != nil:
		return "NULL"
	case v.S != nil:
		return "S"
	case v.SS != nil:
		return "SS"
	default:
		return ""
	}
}

// IsZero reports whether the value has no variant set, i.e. the
// attribute is absent.
func (v Value) IsZero() bool {
	return v.Type() == ""
}

// AsString returns the string form of a value usable as a sort key or
// partition key: only S and N values may act as keys.
func (v Value) AsString() (string, error) {
	switch {
	case v.S != nil:
		return *v.S, nil
	case v.N != nil:
		return *v.N, nil
	default:
		return "", fmt.Errorf("core: value of type %q cannot be used as a key", v.Type())
	}
}

// AsFloat returns the numeric value of an N attribute, used by TTL
// expiry comparisons.
func (v Value) AsFloat() (float64, bool) {
	if v.N == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(*v.N, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (v Value) Equal(other Value) bool {
	if v.Type() != other.Type() {
		return false
	}
	switch v.Type() {
	case "B":
		return bytes.Equal(v.B, other.B)
	case "BOOL":
		return *v.Bool == *other.Bool
	case "BS":
		if len(v.BS) != len(other.BS) {
			return false
		}
		for i := range v.BS {
			if !bytes.Equal(v.BS[i], other.BS[i]) {
				return false
			}
		}
		return true
	case "L":
		if len(v.L) != len(other.L) {
			return false
		}
		for i := range v.L {
			if !v.L[i].Equal(other.L[i]) {
				return false
			}
		}
		return true
	case "M":
		if len(v.M) != len(other.M) {
			return false
		}
		for k, val := range v.M {
			ov, ok := other.M[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	case "N":
		a, _ := v.AsFloat()
		b, _ := other.AsFloat()
		return math.Abs(a-b) < 1e-9
	case "NS":
		return stringSliceEqual(v.NS, other.NS)
	case "NULL":
		return *v.NULL == *other.NULL
	case "S":
		return *v.S == *other.S
	case "SS":
		return stringSliceEqual(v.SS, other.SS)
	default:
		return true
	}
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		seen[s]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}

// Clone deep-copies a value so mutation of a returned Item never
// aliases storage-owned memory.
func (v Value) Clone() Value {
	switch v.Type() {
	case "B":
		b := make([]byte, len(v.B))
		copy(b, v.B)
		return Value{B: b}
	case "BOOL":
		b := *v.Bool
		return Value{Bool: &b}
	case "BS":
		bs := make([][]byte, len(v.BS))
		for i, b := range v.BS {
			bs[i] = append([]byte(nil), b...)
		}
		return Value{BS: bs}
	case "L":
		l := make([]Value, len(v.L))
		for i, e := range v.L {
			l[i] = e.Clone()
		}
		return Value{L: l}
	case "M":
		m := make(map[string]Value, len(v.M))
		for k, e := range v.M {
			m[k] = e.Clone()
		}
		return Value{M: m}
	case "N":
		n := *v.N
		return Value{N: &n}
	case "NS":
		return Value{NS: append([]string(nil), v.NS...)}
	case "NULL":
		n := *v.NULL
		return Value{NULL: &n}
	case "S":
		s := *v.S
		return Value{S: &s}
	case "SS":
		return Value{SS: append([]string(nil), v.SS...)}
	default:
		return Value{}
	}
}

// Equal reports whether two items have the same attribute names with
// Equal values.
func (it Item) Equal(other Item) bool {
	if len(it) != len(other) {
		return false
	}
	for k, v := range it {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Clone deep-copies an item.
func (it Item) Clone() Item {
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v.Clone()
	}
	return out
}

// ToDynamoAttributeValue projects a Value onto the AWS SDK's attribute
// value union, so callers already working against DynamoDB can reuse
// the same value shapes against Dynafile.
func (v Value) ToDynamoAttributeValue() (types.AttributeValue, error) {
	switch v.Type() {
	case "B":
		return &types.AttributeValueMemberB{Value: v.B}, nil
	case "BOOL":
		return &types.AttributeValueMemberBOOL{Value: *v.Bool}, nil
	case "BS":
		return &types.AttributeValueMemberBS{Value: v.BS}, nil
	case "L":
		out := make([]types.AttributeValue, len(v.L))
		for i, e := range v.L {
			av, err := e.ToDynamoAttributeValue()
			if err != nil {
				return nil, err
			}
			out[i] = av
		}
		return &types.AttributeValueMemberL{Value: out}, nil
	case "M":
		out := make(map[string]types.AttributeValue, len(v.M))
		for k, e := range v.M {
			av, err := e.ToDynamoAttributeValue()
			if err != nil {
				return nil, err
			}
			out[k] = av
		}
		return &types.AttributeValueMemberM{Value: out}, nil
	case "N":
		return &types.AttributeValueMemberN{Value: *v.N}, nil
	case "NS":
		return &types.AttributeValueMemberNS{Value: v.NS}, nil
	case "NULL":
		return &types.AttributeValueMemberNULL{Value: *v.NULL}, nil
	case "S":
		return &types.AttributeValueMemberS{Value: *v.S}, nil
	case "SS":
		return &types.AttributeValueMemberSS{Value: v.SS}, nil
	default:
		return nil, errors.New("core: cannot project an empty value")
	}
}

// FromDynamoAttributeValue builds a Value from the AWS SDK's attribute
// value union.
func FromDynamoAttributeValue(av types.AttributeValue) (Value, error) {
	switch t := av.(type) {
	case *types.AttributeValueMemberB:
		return Value{B: t.Value}, nil
	case *types.AttributeValueMemberBOOL:
		b := t.Value
		return Value{Bool: &b}, nil
	case *types.AttributeValueMemberBS:
		return Value{BS: t.Value}, nil
	case *types.AttributeValueMemberL:
		l := make([]Value, len(t.Value))
		for i, e := range t.Value {
			v, err := FromDynamoAttributeValue(e)
			if err != nil {
				return Value{}, err
			}
			l[i] = v
		}
		return Value{L: l}, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]Value, len(t.Value))
		for k, e := range t.Value {
			v, err := FromDynamoAttributeValue(e)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Value{M: m}, nil
	case *types.AttributeValueMemberN:
		n := t.Value
		return Value{N: &n}, nil
	case *types.AttributeValueMemberNS:
		return Value{NS: t.Value}, nil
	case *types.AttributeValueMemberNULL:
		b := t.Value
		return Value{NULL: &b}, nil
	case *types.AttributeValueMemberS:
		s := t.Value
		return Value{S: &s}, nil
	case *types.AttributeValueMemberSS:
		return Value{SS: t.Value}, nil
	default:
		return Value{}, fmt.Errorf("core: unsupported attribute value type %T", av)
	}
}

// ItemToDynamoMap projects an Item onto map[string]types.AttributeValue.
func ItemToDynamoMap(it Item) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(it))
	for k, v := range it {
		av, err := v.ToDynamoAttributeValue()
		if err != nil {
			return nil, fmt.Errorf("core: attribute %q: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}

// ItemFromDynamoMap builds an Item from map[string]types.AttributeValue.
func ItemFromDynamoMap(m map[string]types.AttributeValue) (Item, error) {
	out := make(Item, len(m))
	for k, av := range m {
		v, err := FromDynamoAttributeValue(av)
		if err != nil {
			return nil, fmt.Errorf("core: attribute %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// ExtractKey reads the (pk, sk) pair from an item given the table's key
// attribute names.
func ExtractKey(item Item, pkAttr, skAttr string) (Key, error) {
	pkVal, ok := item[pkAttr]
	if !ok {
		return Key{}, fmt.Errorf("core: partition key attribute %q not found in item", pkAttr)
	}
	pk, err := pkVal.AsString()
	if err != nil {
		return Key{}, fmt.Errorf("core: partition key attribute %q: %w", pkAttr, err)
	}

	var sk string
	if skAttr != "" {
		skVal, ok := item[skAttr]
		if !ok {
			return Key{}, fmt.Errorf("core: sort key attribute %q not found in item", skAttr)
		}
		sk, err = skVal.AsString()
		if err != nil {
			return Key{}, fmt.Errorf("core: sort key attribute %q: %w", skAttr, err)
		}
	}

	return Key{PK: pk, SK: sk}, nil
}

// CompareSortKeys orders two sort-key strings lexicographically, the
// ordering used for in-partition iteration.
func CompareSortKeys(a, b string) int {
	return strings.Compare(a, b)
}
