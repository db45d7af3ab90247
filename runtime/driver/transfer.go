package driver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/dbal/query"
)

// Format is a data file format understood by Importer and Exporter.
type Format string

const (
	FormatSQL  Format = "sql"
	FormatYAML Format = "yaml"
)

// ParseFormat returns the format called name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "sql":
		return FormatSQL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("driver: unknown format %q", name)
}

// FormatFromPath derives the format from a file extension, defaulting to
// SQL.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatSQL
}

// dump is the YAML document layout: table name to rows.
type dump struct {
	Tables []tableDump `yaml:"tables"`
}

type tableDump struct {
	Name    string           `yaml:"name"`
	Columns []string         `yaml:"columns"`
	Rows    []map[string]any `yaml:"rows"`
}

// Exporter writes table contents.
type Exporter struct {
	d      *Driver
	format Format
}

// Exporter returns the adapter's exporter for f.
func (d *Driver) Exporter(f Format) *Exporter {
	if d.adapter.NewExporter != nil {
		return d.adapter.NewExporter(d, f)
	}
	return NewExporter(d, f)
}

func NewExporter(d *Driver, f Format) *Exporter { return &Exporter{d: d, format: f} }

func (e *Exporter) rows(ctx context.Context, table string) ([]string, []Row, error) {
	q := e.d.NewQuery().Select("*").From(e.d.QuoteName(table))
	if err := e.d.SetQuery(ctx, q); err != nil {
		return nil, nil, err
	}
	var rows []Row
	err := e.d.rowsOf(ctx, func(r Row) (bool, error) {
		rows = append(rows, r)
		return true, nil
	})
	if err != nil {
		return nil, nil, err
	}
	cols, err := e.d.TableColumns(ctx, table)
	return cols, rows, err
}

// Export writes every row of tables to w.
func (e *Exporter) Export(ctx context.Context, w io.Writer, tables ...string) error {
	switch e.format {
	case FormatYAML:
		return e.exportYAML(ctx, w, tables)
	case FormatSQL:
		return e.exportSQL(ctx, w, tables)
	}
	return fmt.Errorf("driver: unknown format %q", e.format)
}

func (e *Exporter) exportSQL(ctx context.Context, w io.Writer, tables []string) error {
	bw := bufio.NewWriter(w)
	dialect := e.d.Dialect()
	for _, table := range tables {
		cols, rows, err := e.rows(ctx, table)
		if err != nil {
			return err
		}
		quoted := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = dialect.QuoteName(c)
		}
		fmt.Fprintf(bw, "-- %s\n", table)
		for _, r := range rows {
			values := make([]string, len(cols))
			for i, c := range cols {
				v, _ := r.Get(c)
				values[i] = dialect.Literal(v)
			}
			fmt.Fprintf(bw, "INSERT INTO %s (%s) VALUES (%s);\n",
				dialect.QuoteName(table), strings.Join(quoted, ", "), strings.Join(values, ", "))
		}
	}
	return bw.Flush()
}

func (e *Exporter) exportYAML(ctx context.Context, w io.Writer, tables []string) error {
	var doc dump
	for _, table := range tables {
		cols, rows, err := e.rows(ctx, table)
		if err != nil {
			return err
		}
		td := tableDump{Name: table, Columns: cols, Rows: make([]map[string]any, 0, len(rows))}
		for _, r := range rows {
			td.Rows = append(td.Rows, r.Map())
		}
		doc.Tables = append(doc.Tables, td)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// ExportFile writes tables to path on fs.
func (e *Exporter) ExportFile(ctx context.Context, fs afero.Fs, path string, tables ...string) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := e.Export(ctx, f, tables...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Importer loads data written by an Exporter, or any SQL script.
type Importer struct {
	d      *Driver
	format Format
}

// Importer returns the adapter's importer for f.
func (d *Driver) Importer(f Format) *Importer {
	if d.adapter.NewImporter != nil {
		return d.adapter.NewImporter(d, f)
	}
	return NewImporter(d, f)
}

func NewImporter(d *Driver, f Format) *Importer { return &Importer{d: d, format: f} }

// Import executes the contents of r and returns the number of statements
// run.
func (im *Importer) Import(ctx context.Context, r io.Reader) (int, error) {
	switch im.format {
	case FormatYAML:
		return im.importYAML(ctx, r)
	case FormatSQL:
		return im.importSQL(ctx, r)
	}
	return 0, fmt.Errorf("driver: unknown format %q", im.format)
}

func (im *Importer) importSQL(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, stmt := range im.d.adapter.Flavor.SplitStatements(string(data)) {
		if err := im.d.Run(ctx, stmt); err != nil {
			return n, fmt.Errorf("statement %d: %w", n+1, err)
		}
		n++
	}
	return n, nil
}

func (im *Importer) importYAML(ctx context.Context, r io.Reader) (int, error) {
	var doc dump
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return 0, err
	}
	n := 0
	for _, td := range doc.Tables {
		for _, row := range td.Rows {
			cols := td.Columns
			if len(cols) == 0 {
				for c := range row {
					cols = append(cols, c)
				}
			}
			q := im.d.NewQuery()
			quoted := make([]string, len(cols))
			values := make([]any, len(cols))
			types := make([]query.ParamType, len(cols))
			for i, c := range cols {
				quoted[i] = im.d.QuoteName(c)
				values[i] = row[c]
				types[i] = paramType(row[c])
			}
			names := q.BindArray(values, types...)
			q.Insert(im.d.QuoteName(td.Name)).Columns(quoted...).Values(strings.Join(names, ","))
			if err := im.d.Run(ctx, q); err != nil {
				return n, fmt.Errorf("table %s: %w", td.Name, err)
			}
			n++
		}
	}
	return n, nil
}

// ImportFile imports path from fs. The format follows the importer's.
func (im *Importer) ImportFile(ctx context.Context, fs afero.Fs, path string) (int, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return im.Import(ctx, f)
}
