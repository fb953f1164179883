package web

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

const dictionaryStyle = `body{font-family:sans-serif;margin:2em}` +
	`table{border-collapse:collapse}` +
	`th,td{border:1px solid #ccc;padding:.3em .6em;text-align:left}` +
	`th{background:#f3f3f3}.warn{color:#a40}`

var dictionaryColumns = []string{"Variable", "Title", "Table", "Sequence", "Offset", "Column", "MOE column"}

// Dictionary renders the resolved variables as an HTML page.
func Dictionary(vars []VariableView, unmatched []string) templ.Component {
	return page("ACS data dictionary",
		element("h1", "", text("ACS data dictionary")),
		element("p", "", text(strconv.Itoa(len(vars))+" variables")),
		unmatchedNotice(unmatched),
		variableTable(vars),
	)
}

func page(title string, body ...templ.Component) templ.Component {
	return templ.Join(
		templ.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`),
		element("title", "", text(title)),
		templ.Raw(`<style>`+dictionaryStyle+`</style></head>`),
		element("body", "", body...),
		templ.Raw(`</html>`),
	)
}

func unmatchedNotice(unmatched []string) templ.Component {
	if len(unmatched) == 0 {
		return templ.NopComponent
	}

	parts := []templ.Component{text("No variables matched: ")}
	for i, spec := range unmatched {
		if i > 0 {
			parts = append(parts, text(", "))
		}
		parts = append(parts, element("code", "", text(spec)))
	}
	return element("p", "warn", parts...)
}

func variableTable(vars []VariableView) templ.Component {
	headers := make([]templ.Component, len(dictionaryColumns))
	for i, h := range dictionaryColumns {
		headers[i] = element("th", "", text(h))
	}

	rows := make([]templ.Component, len(vars))
	for i, v := range vars {
		rows[i] = variableRow(v)
	}

	return element("table", "",
		element("thead", "", element("tr", "", headers...)),
		element("tbody", "", rows...),
	)
}

func variableRow(v VariableView) templ.Component {
	cells := []string{
		v.Key,
		v.Name,
		v.Table + ": " + v.TableName,
		strconv.Itoa(v.Sequence),
		strconv.Itoa(v.Offset),
		v.Column,
		v.MOEColumn,
	}

	tds := make([]templ.Component, len(cells))
	for i, c := range cells {
		tds[i] = element("td", "", text(c))
	}
	return element("tr", "", tds...)
}

// element wraps children in a tag. Tag and class are trusted constants.
func element(tag, class string, children ...templ.Component) templ.Component {
	open := "<" + tag + ">"
	if class != "" {
		open = "<" + tag + ` class="` + class + `">`
	}
	return templ.Join(
		templ.Raw(open),
		templ.Join(children...),
		templ.Raw("</"+tag+">"),
	)
}

// text renders s with HTML escaping.
func text(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}
