package output

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// TableFormatter renders slices of structs as aligned columns. A single
// struct or a map renders as a two-column key/value listing. Anything
// else falls back to JSON.
//
// Column headers come from the json tag name upper-cased. The table tag
// overrides it: `table:"NAME"` renames, `table:",wide"` shows the column
// only with --wide, `table:"-"` hides it.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format implements Formatter.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	if t, ok := data.(*Table); ok {
		return t.render(w, !f.NoHeaders)
	}

	v := reflect.Indirect(reflect.ValueOf(data))
	var t *Table
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		t = f.rows(v)
	case reflect.Struct:
		t = fields(v)
	case reflect.Map:
		t = entries(v)
	}
	if t == nil {
		return (&JSONFormatter{}).Format(w, data)
	}
	return t.render(w, !f.NoHeaders)
}

// column is one rendered struct field.
type column struct {
	header string
	index  int
	wide   bool
}

func columnsOf(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		header := headerFor(sf.Name)
		if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name == "-" {
			continue
		} else if name != "" {
			header = strings.ToUpper(name)
		}

		col := column{header: header, index: i}
		if tag, ok := sf.Tag.Lookup("table"); ok {
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			if name != "" {
				col.header = name
			}
			col.wide = opts == "wide"
		}
		cols = append(cols, col)
	}
	return cols
}

func (f *TableFormatter) rows(v reflect.Value) *Table {
	elem := v.Type().Elem()
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		t := &Table{Headers: []string{"VALUE"}}
		for i := 0; i < v.Len(); i++ {
			t.Rows = append(t.Rows, []string{cell(v.Index(i))})
		}
		return t
	}

	var cols []column
	for _, c := range columnsOf(elem) {
		if !c.wide || f.Wide {
			cols = append(cols, c)
		}
	}

	t := &Table{}
	if v.Len() == 0 {
		return t
	}
	for _, c := range cols {
		t.Headers = append(t.Headers, c.header)
	}
	for i := 0; i < v.Len(); i++ {
		item := reflect.Indirect(v.Index(i))
		row := make([]string, len(cols))
		if item.IsValid() {
			for j, c := range cols {
				row[j] = cell(item.Field(c.index))
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func fields(v reflect.Value) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, c := range columnsOf(v.Type()) {
		t.Rows = append(t.Rows, []string{c.header, cell(v.Field(c.index))})
	}
	return t
}

func entries(v reflect.Value) *Table {
	t := &Table{Headers: []string{"KEY", "VALUE"}}
	for it := v.MapRange(); it.Next(); {
		t.Rows = append(t.Rows, []string{cell(it.Key()), cell(it.Value())})
	}
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i][0] < t.Rows[j][0] })
	return t
}

// cell renders one value. Empty values print as "-" so columns stay
// aligned.
func cell(v reflect.Value) string {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "-"
	}

	switch x := v.Interface().(type) {
	case time.Time:
		if x.IsZero() {
			return "-"
		}
		return x.UTC().Format(time.RFC3339)
	case time.Duration:
		return x.String()
	case fmt.Stringer:
		return x.String()
	}

	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "-"
		}
		return v.String()
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%.2f", v.Float())
	case reflect.Slice, reflect.Array, reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("(%d)", v.Len())
	}
	return fmt.Sprint(v.Interface())
}

// headerFor turns a Go field name into a column header: ExpiresAt
// becomes EXPIRES_AT, TTL stays TTL.
func headerFor(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' && name[i-1] >= 'a' && name[i-1] <= 'z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// Table is pre-built tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

func (t *Table) render(w io.Writer, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
