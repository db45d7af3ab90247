package driver

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/satishbabariya/dbal/query/cache"
)

// metaStrings runs a catalog query on the connection, outside the current
// statement, and returns its first column.
func (d *Driver) metaStrings(ctx context.Context, sqlText string, args ...any) ([]string, error) {
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}
	rows, err := d.conn.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, newExecutionFailure(sqlText, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, newExecutionFailure(sqlText, err)
		}
		out = append(out, cast.ToString(v))
	}
	if err := rows.Err(); err != nil {
		return nil, newExecutionFailure(sqlText, err)
	}
	return out, nil
}

// TableColumns returns the column names of table in ordinal order. "#__" in
// table is replaced by the prefix. Results are cached until the table is
// dropped or truncated through the driver.
func (d *Driver) TableColumns(ctx context.Context, table string) ([]string, error) {
	table = d.ReplacePrefix(table, TablePlaceholder)
	return d.columns.GetOrLoad(cache.Key("columns", table), func() ([]string, error) {
		cols, err := d.metaStrings(ctx, d.adapter.ColumnsSQL, table)
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 {
			return nil, fmt.Errorf("driver: table %s has no columns or does not exist", table)
		}
		return cols, nil
	})
}

// TableList returns the tables of the current database.
func (d *Driver) TableList(ctx context.Context) ([]string, error) {
	return d.metaStrings(ctx, d.adapter.TablesSQL)
}

// ServerVersion returns the backend version string. It is read once per
// driver.
func (d *Driver) ServerVersion(ctx context.Context) (string, error) {
	if d.version != "" {
		return d.version, nil
	}
	out, err := d.metaStrings(ctx, d.adapter.VersionSQL)
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("driver: %s reported no version", d.adapter.Name)
	}
	d.version = out[0]
	return d.version, nil
}

// InsertID returns the id generated by the last insert.
func (d *Driver) InsertID(ctx context.Context) (int64, error) {
	if d.adapter.LastIDSQL == "" {
		if d.stmt == nil {
			return 0, ErrNoQuery
		}
		return d.stmt.LastInsertID()
	}
	out, err := d.metaStrings(ctx, d.adapter.LastIDSQL)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("driver: no insert id")
	}
	return cast.ToInt64E(out[0])
}

// DropTable drops table, optionally only if it exists.
func (d *Driver) DropTable(ctx context.Context, table string, ifExists bool) error {
	stmt := "DROP TABLE "
	if ifExists {
		stmt += "IF EXISTS "
	}
	if err := d.Run(ctx, stmt+d.QuoteName(table)); err != nil {
		return err
	}
	d.columns.Invalidate(cache.Key("columns", d.ReplacePrefix(table, TablePlaceholder)))
	return nil
}

// TruncateTable removes every row of table.
func (d *Driver) TruncateTable(ctx context.Context, table string) error {
	if err := d.Run(ctx, fmt.Sprintf(d.adapter.TruncateSQL, d.QuoteName(table))); err != nil {
		return err
	}
	d.columns.Invalidate(cache.Key("columns", d.ReplacePrefix(table, TablePlaceholder)))
	return nil
}

// InvalidateMetadata forgets every cached table column list.
func (d *Driver) InvalidateMetadata() { d.columns.InvalidatePattern("columns:*") }
