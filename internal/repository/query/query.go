// Package query описывает выборку из хранилища независимо от способа исполнения:
// запрос рендерится в SQL для Postgres и может быть выполнен в памяти.
package query

import (
	"github.com/google/uuid"
)

// Op - вид предиката.
type Op string

const (
	OpEq       Op = "eq"
	OpNeq      Op = "neq"
	OpIn       Op = "in"
	OpInIDs    Op = "in_ids"
	OpOverlaps Op = "overlaps"
	OpGte      Op = "gte"
	OpSearch   Op = "search"
)

// Predicate - одно условие выборки.
// Для OpSearch используются Columns, для остальных - Column.
type Predicate struct {
	Column  string
	Op      Op
	Value   interface{}
	Columns []string
}

// Order - ключ сортировки. По умолчанию NULL уходят в конец.
type Order struct {
	Column     string
	Desc       bool
	NullsFirst bool
}

// Query - фильтр, сортировка и окно выборки.
// Limit == 0 означает «без ограничения».
type Query struct {
	Predicates []Predicate
	Orders     []Order
	Limit      int
	Offset     int
}

func New() *Query {
	return &Query{}
}

func (q *Query) add(p Predicate) *Query {
	q.Predicates = append(q.Predicates, p)
	return q
}

func (q *Query) Eq(column string, value interface{}) *Query {
	return q.add(Predicate{Column: column, Op: OpEq, Value: value})
}

func (q *Query) Neq(column string, value interface{}) *Query {
	return q.add(Predicate{Column: column, Op: OpNeq, Value: value})
}

// In - значение колонки входит в список.
func (q *Query) In(column string, values []string) *Query {
	return q.add(Predicate{Column: column, Op: OpIn, Value: append([]string(nil), values...)})
}

// InIDs - идентификатор входит в набор.
func (q *Query) InIDs(column string, ids []uuid.UUID) *Query {
	return q.add(Predicate{Column: column, Op: OpInIDs, Value: append([]uuid.UUID(nil), ids...)})
}

// Overlaps - массив колонки пересекается со списком (хотя бы один общий элемент).
func (q *Query) Overlaps(column string, values []string) *Query {
	return q.add(Predicate{Column: column, Op: OpOverlaps, Value: append([]string(nil), values...)})
}

func (q *Query) Gte(column string, value interface{}) *Query {
	return q.add(Predicate{Column: column, Op: OpGte, Value: value})
}

// Search - регистронезависимое вхождение подстроки хотя бы в одну из колонок.
func (q *Query) Search(term string, columns ...string) *Query {
	return q.add(Predicate{Op: OpSearch, Value: term, Columns: columns})
}

// OrderBy добавляет ключ сортировки с NULL в конце.
func (q *Query) OrderBy(column string, desc bool) *Query {
	q.Orders = append(q.Orders, Order{Column: column, Desc: desc})
	return q
}

// OrderByNullsFirst добавляет ключ сортировки с NULL в начале.
func (q *Query) OrderByNullsFirst(column string, desc bool) *Query {
	q.Orders = append(q.Orders, Order{Column: column, Desc: desc, NullsFirst: true})
	return q
}

// Range задаёт окно [offset, offset+limit-1].
func (q *Query) Range(offset, limit int) *Query {
	q.Offset = offset
	q.Limit = limit
	return q
}

// Find возвращает первый предикат по колонке и виду.
func (q *Query) Find(column string, op Op) (Predicate, bool) {
	for _, p := range q.Predicates {
		if p.Column == column && p.Op == op {
			return p, true
		}
	}
	return Predicate{}, false
}

// Clone делает независимую копию запроса.
func (q *Query) Clone() *Query {
	c := &Query{Limit: q.Limit, Offset: q.Offset}
	c.Predicates = append(c.Predicates, q.Predicates...)
	c.Orders = append(c.Orders, q.Orders...)
	return c
}

// Unbounded возвращает копию без сортировки и окна - для подсчёта.
func (q *Query) Unbounded() *Query {
	c := q.Clone()
	c.Orders = nil
	c.Limit, c.Offset = 0, 0
	return c
}
