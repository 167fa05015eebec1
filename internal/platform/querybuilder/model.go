package querybuilder

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// InsertModel inserts one db-tagged row struct.
func InsertModel(table string, row any, suffix string) (string, []any, error) {
	cols, vals, err := rowFields(row)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).Columns(cols...).Values(vals...).Suffix(suffix).ToSQL()
}

// InsertModels builds one multi-row insert. Every row must yield the same
// columns as the first.
func InsertModels[T any](table string, rows []T, suffix string) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no rows", table)
	}

	builder := InsertInto(table).Suffix(suffix)
	var first []string
	for i, row := range rows {
		cols, vals, err := rowFields(row)
		if err != nil {
			return "", nil, fmt.Errorf("row %d: %w", i, err)
		}
		if i == 0 {
			first = cols
			builder.Columns(cols...)
		} else if !slices.Equal(cols, first) {
			return "", nil, fmt.Errorf("row %d columns differ from row 0", i)
		}
		builder.Values(vals...)
	}
	return builder.ToSQL()
}

// ModelColumns lists the db-tagged columns of a row struct, in field order.
func ModelColumns(row any) ([]string, error) {
	cols, _, err := rowFields(row)
	return cols, err
}

func rowFields(row any) ([]string, []any, error) {
	v := reflect.ValueOf(row)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil, fmt.Errorf("row cannot be nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("row must be a struct, got %s", v.Kind())
	}

	t := v.Type()
	var cols []string
	var vals []any
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, name)
		vals = append(vals, v.Field(i).Interface())
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("%s has no db columns", t.Name())
	}
	return cols, vals, nil
}
