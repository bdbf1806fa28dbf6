package query

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Row - строка, колонки которой можно прочитать по имени.
// Отсутствующее значение (SQL NULL) возвращается как nil.
type Row interface {
	Field(column string) interface{}
}

// Match проверяет строку по всем предикатам. Семантика совпадает с SQL:
// сравнение с NULL никогда не истинно.
func (q *Query) Match(row Row) bool {
	for _, p := range q.Predicates {
		if !matchPredicate(p, row) {
			return false
		}
	}
	return true
}

func matchPredicate(p Predicate, row Row) bool {
	if p.Op == OpSearch {
		term := strings.ToLower(fmt.Sprint(p.Value))
		for _, col := range p.Columns {
			if s, ok := row.Field(col).(string); ok && strings.Contains(strings.ToLower(s), term) {
				return true
			}
		}
		return false
	}

	v := row.Field(p.Column)
	if v == nil {
		return false
	}

	switch p.Op {
	case OpEq:
		c, ok := compare(v, p.Value)
		return ok && c == 0
	case OpNeq:
		c, ok := compare(v, p.Value)
		return ok && c != 0
	case OpGte:
		c, ok := compare(v, p.Value)
		return ok && c >= 0
	case OpIn:
		values, _ := p.Value.([]string)
		s := fmt.Sprint(v)
		for _, candidate := range values {
			if candidate == s {
				return true
			}
		}
		return false
	case OpInIDs:
		id, ok := v.(uuid.UUID)
		if !ok {
			return false
		}
		ids, _ := p.Value.([]uuid.UUID)
		for _, candidate := range ids {
			if candidate == id {
				return true
			}
		}
		return false
	case OpOverlaps:
		have, _ := v.([]string)
		want, _ := p.Value.([]string)
		for _, a := range have {
			for _, b := range want {
				if a == b {
					return true
				}
			}
		}
		return false
	}
	return false
}

// Less сравнивает строки по ключам сортировки.
func Less(a, b Row, orders []Order) bool {
	for _, o := range orders {
		va, vb := a.Field(o.Column), b.Field(o.Column)
		switch {
		case va == nil && vb == nil:
			continue
		case va == nil:
			return o.NullsFirst
		case vb == nil:
			return !o.NullsFirst
		}
		c, ok := compare(va, vb)
		if !ok || c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

// SortRows устойчиво сортирует строки; равные строки сохраняют исходный порядок.
func SortRows[R Row](rows []R, orders []Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		return Less(rows[i], rows[j], orders)
	})
}

// Apply выполняет запрос над набором строк: фильтр, сортировка, окно.
// Второе значение - точное число совпавших строк без учёта окна.
func Apply[R Row](rows []R, q *Query) ([]R, int) {
	matched := make([]R, 0, len(rows))
	for _, r := range rows {
		if q.Match(r) {
			matched = append(matched, r)
		}
	}
	total := len(matched)

	SortRows(matched, q.Orders)

	if q.Offset >= len(matched) {
		return []R{}, total
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total
}

// compare возвращает -1/0/1 и признак сравнимости значений.
func compare(a, b interface{}) (int, bool) {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case int64:
		y, ok := b.(int64)
		if !ok {
			return 0, false
		}
		return cmpOrdered(x, y), true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}

// normalize сводит значения к int64, string или time.Time.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case int64, string, time.Time:
		return x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case uuid.UUID:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.String:
		return rv.String()
	}
	return v
}

func cmpOrdered(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
