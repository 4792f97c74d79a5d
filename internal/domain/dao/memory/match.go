package memory

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
)

// normalize runs v through the bson codec so it compares like a stored value.
func normalize(v any) any {
	raw, err := bson.Marshal(bson.M{"v": v})
	if err != nil {
		return v
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return v
	}
	return m["v"]
}

func normalizeConditions(conds []dao.Condition) []dao.Condition {
	out := make([]dao.Condition, len(conds))
	for i, c := range conds {
		out[i] = dao.Condition{Field: c.Field, Op: c.Op, Value: normalize(c.Value)}
	}
	return out
}

func matchesAll(doc bson.M, conds []dao.Condition) bool {
	for _, c := range conds {
		if !matches(doc, c) {
			return false
		}
	}
	return true
}

func matches(doc bson.M, c dao.Condition) bool {
	stored, exists := doc[c.Field]
	switch c.Op {
	case dao.OpEq:
		return eqMatch(stored, exists, c.Value)
	case dao.OpNe:
		return !eqMatch(stored, exists, c.Value)
	case dao.OpIn:
		return inMatch(stored, exists, c.Value)
	case dao.OpNotIn:
		return !inMatch(stored, exists, c.Value)
	case dao.OpGt, dao.OpGte, dao.OpLt, dao.OpLte:
		if !exists || stored == nil || !sameKind(stored, c.Value) {
			return false
		}
		cmp := compareValues(stored, c.Value)
		switch c.Op {
		case dao.OpGt:
			return cmp > 0
		case dao.OpGte:
			return cmp >= 0
		case dao.OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	}
	return false
}

// eqMatch follows document-store semantics: a missing field equals null and
// an array field matches when any element equals the value.
func eqMatch(stored any, exists bool, value any) bool {
	if !exists {
		return value == nil
	}
	if arr, ok := stored.(bson.A); ok {
		if _, valueIsArr := value.(bson.A); !valueIsArr {
			for _, el := range arr {
				if equalValues(el, value) {
					return true
				}
			}
			return false
		}
	}
	return equalValues(stored, value)
}

func inMatch(stored any, exists bool, set any) bool {
	values, ok := set.(bson.A)
	if !ok {
		return false
	}
	for _, v := range values {
		if eqMatch(stored, exists, v) {
			return true
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !sameKind(a, b) {
		return false
	}
	if arrA, ok := a.(bson.A); ok {
		arrB := b.(bson.A)
		if len(arrA) != len(arrB) {
			return false
		}
		for i := range arrA {
			if !equalValues(arrA[i], arrB[i]) {
				return false
			}
		}
		return true
	}
	return compareValues(a, b) == 0
}

type kind int

const (
	kindNull kind = iota
	kindNumber
	kindString
	kindBool
	kindTime
	kindArray
	kindOther
)

func kindOf(v any) kind {
	switch v.(type) {
	case nil:
		return kindNull
	case int32, int64, float64, int:
		return kindNumber
	case string:
		return kindString
	case bool:
		return kindBool
	case primitive.DateTime, time.Time:
		return kindTime
	case bson.A:
		return kindArray
	}
	return kindOther
}

func sameKind(a, b any) bool {
	return kindOf(a) == kindOf(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toMillis(v any) int64 {
	switch t := v.(type) {
	case primitive.DateTime:
		return int64(t)
	case time.Time:
		return t.UnixMilli()
	}
	return 0
}

// compareValues orders values of mixed kinds by kind first, then by value.
func compareValues(a, b any) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}
	switch ka {
	case kindNull:
		return 0
	case kindNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case kindString:
		return strings.Compare(a.(string), b.(string))
	case kindBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	case kindTime:
		ma, mb := toMillis(a), toMillis(b)
		switch {
		case ma < mb:
			return -1
		case ma > mb:
			return 1
		}
		return 0
	}
	return 0
}
