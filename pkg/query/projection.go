// Package query provides SQL query building utilities with projection mapping.
package query

import (
	"fmt"
	"strings"
)

type join struct {
	kind  string
	table string
	alias string
	on    string
}

// ProjectionMap maps view property names to qualified column references (alias.column).
// Columns projected after a Join are qualified with the joined table's alias.
type ProjectionMap struct {
	schema     string
	table      string
	alias      string
	current    string
	joins      []join
	columns    map[string]string
	columnList []string
}

// NewProjectionMap creates a ProjectionMap for the given schema, table, and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:     schema,
		table:      table,
		alias:      alias,
		current:    alias,
		columns:    make(map[string]string),
		columnList: make([]string, 0),
	}
}

// Project adds a column mapping from database column to view property name,
// qualified by the most recently joined alias.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	qualified := fmt.Sprintf("%s.%s", p.current, column)
	p.columns[viewName] = qualified
	p.columnList = append(p.columnList, qualified)
	return p
}

// Alias maps a view property name to a column of an already-joined table
// without adding it to the selected column list. Used for filter-only fields.
func (p *ProjectionMap) Alias(alias, column, viewName string) *ProjectionMap {
	p.columns[viewName] = fmt.Sprintf("%s.%s", alias, column)
	return p
}

// Join adds a join clause. kind is the SQL join keyword (e.g. "JOIN", "LEFT JOIN").
func (p *ProjectionMap) Join(schema, table, alias, kind, on string) *ProjectionMap {
	p.joins = append(p.joins, join{
		kind:  kind,
		table: fmt.Sprintf("%s.%s", schema, table),
		alias: alias,
		on:    on,
	})
	p.current = alias
	return p
}

// Table returns the fully qualified base table with alias (schema.table alias).
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// From returns the base table followed by every join clause.
func (p *ProjectionMap) From() string {
	var sb strings.Builder
	sb.WriteString(p.Table())
	for _, j := range p.joins {
		fmt.Fprintf(&sb, " %s %s %s ON %s", j.kind, j.table, j.alias, j.on)
	}
	return sb.String()
}

// Column returns the qualified column for a view property name.
func (p *ProjectionMap) Column(viewName string) (string, bool) {
	col, ok := p.columns[viewName]
	return col, ok
}

// Columns returns all selected columns as a comma-separated string.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columnList, ", ")
}
