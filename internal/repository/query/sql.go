package query

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Columns - белый список колонок таблицы. Имена колонок попадают в SQL как есть,
// поэтому всё, чего нет в списке, отклоняется.
type Columns map[string]bool

// NewColumns собирает белый список.
func NewColumns(names ...string) Columns {
	c := make(Columns, len(names))
	for _, n := range names {
		c[n] = true
	}
	return c
}

func (c Columns) check(column string) error {
	if !c[column] {
		return fmt.Errorf("query: колонка %q не разрешена", column)
	}
	return nil
}

// Where рендерит WHERE с плейсхолдерами начиная с $startArg.
// Пустой запрос даёт пустую строку.
func (q *Query) Where(allowed Columns, startArg int) (string, []interface{}, error) {
	if len(q.Predicates) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(q.Predicates))
	args := make([]interface{}, 0, len(q.Predicates))
	argIndex := startArg

	for _, p := range q.Predicates {
		if p.Op == OpSearch {
			if len(p.Columns) == 0 {
				return "", nil, fmt.Errorf("query: поиск без колонок")
			}
			parts := make([]string, len(p.Columns))
			for i, col := range p.Columns {
				if err := allowed.check(col); err != nil {
					return "", nil, err
				}
				parts[i] = fmt.Sprintf("%s ILIKE $%d", col, argIndex)
			}
			clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
			args = append(args, "%"+EscapeLike(fmt.Sprint(p.Value))+"%")
			argIndex++
			continue
		}

		if err := allowed.check(p.Column); err != nil {
			return "", nil, err
		}

		switch p.Op {
		case OpEq:
			clauses = append(clauses, fmt.Sprintf("%s = $%d", p.Column, argIndex))
			args = append(args, p.Value)
		case OpNeq:
			clauses = append(clauses, fmt.Sprintf("%s <> $%d", p.Column, argIndex))
			args = append(args, p.Value)
		case OpGte:
			clauses = append(clauses, fmt.Sprintf("%s >= $%d", p.Column, argIndex))
			args = append(args, p.Value)
		case OpIn:
			clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", p.Column, argIndex))
			args = append(args, pq.Array(p.Value))
		case OpInIDs:
			ids, _ := p.Value.([]uuid.UUID)
			clauses = append(clauses, fmt.Sprintf("%s = ANY($%d::uuid[])", p.Column, argIndex))
			args = append(args, pq.Array(uuidStrings(ids)))
		case OpOverlaps:
			clauses = append(clauses, fmt.Sprintf("%s && $%d", p.Column, argIndex))
			args = append(args, pq.Array(p.Value))
		default:
			return "", nil, fmt.Errorf("query: неизвестный оператор %q", p.Op)
		}
		argIndex++
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// OrderClause рендерит ORDER BY с явным положением NULL.
func (q *Query) OrderClause(allowed Columns) (string, error) {
	if len(q.Orders) == 0 {
		return "", nil
	}
	parts := make([]string, len(q.Orders))
	for i, o := range q.Orders {
		if err := allowed.check(o.Column); err != nil {
			return "", err
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		nulls := "NULLS LAST"
		if o.NullsFirst {
			nulls = "NULLS FIRST"
		}
		parts[i] = fmt.Sprintf("%s %s %s", o.Column, dir, nulls)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// Page рендерит LIMIT/OFFSET начиная с $argIndex.
func (q *Query) Page(argIndex int) (string, []interface{}) {
	var (
		sql  string
		args []interface{}
	)
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, q.Limit)
		argIndex++
	}
	if q.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, q.Offset)
	}
	return sql, args
}

// Select собирает полный SELECT для таблицы.
func (q *Query) Select(table, columns string, allowed Columns) (string, []interface{}, error) {
	where, args, err := q.Where(allowed, 1)
	if err != nil {
		return "", nil, err
	}
	order, err := q.OrderClause(allowed)
	if err != nil {
		return "", nil, err
	}
	page, pageArgs := q.Page(len(args) + 1)
	return "SELECT " + columns + " FROM " + table + where + order + page, append(args, pageArgs...), nil
}

// Count собирает точный COUNT(*) по тем же предикатам.
func (q *Query) Count(table string, allowed Columns) (string, []interface{}, error) {
	where, args, err := q.Where(allowed, 1)
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM " + table + where, args, nil
}

// EscapeLike экранирует спецсимволы LIKE, чтобы поиск был буквальным.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
