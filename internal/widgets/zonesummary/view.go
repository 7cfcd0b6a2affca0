package zonesummary

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell is one day of one zone in the grid.
type Cell struct {
	Free  bool
	Data  string // zone identifier carried by free cells
	Date  string
	Label string
	Draft bool
}

// Row is one zone and its cells.
type Row struct {
	Name  string
	Cells []Cell
}

// headerColumns flattens a decoded summary_header. Entries may be plain
// values or mappings holding a "header" list, which is what the summary
// producer emits: [{'header': ['Zones', 'Mon May 01', ...]}].
func headerColumns(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	cols := make([]string, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			if inner, ok := m["header"].([]any); ok {
				for _, c := range inner {
					cols = append(cols, text(c))
				}
				continue
			}
		}
		cols = append(cols, text(item))
	}
	return cols
}

// zoneRows converts a decoded zone_summary into rows. Every entry yields a
// row; mappings name the zone with "name" or "zone" and list cells under
// "value" or "cells".
func zoneRows(v any) []Row {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	rows := make([]Row, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			rows = append(rows, Row{Name: text(item)})
			continue
		}
		row := Row{Name: text(first(m, "name", "zone"))}
		cells, _ := first(m, "value", "cells").([]any)
		for _, c := range cells {
			row.Cells = append(row.Cells, toCell(c))
		}
		rows = append(rows, row)
	}
	return rows
}

func toCell(v any) Cell {
	m, ok := v.(map[string]any)
	if !ok {
		return Cell{Label: text(v)}
	}

	state := text(m["state"])
	free := m["free"] == true || strings.EqualFold(state, "free")
	c := Cell{
		Free:  free,
		Date:  text(m["date"]),
		Draft: strings.EqualFold(text(m["is_draft"]), "yes"),
	}
	switch {
	case free:
		c.Data = text(first(m, "data", "zone_id"))
		c.Label = "Free"
	case state != "":
		c.Label = state
	default:
		c.Label = "Reserved"
	}
	return c
}

// first returns the value of the first key present in m.
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// text renders a decoded scalar for display or as an attribute value.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}
