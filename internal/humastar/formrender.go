// formrender.go: Runtime HTML generation for Datastar-bound dialog forms.
//
// RenderForm turns a list of field descriptions into form groups whose
// inputs post every change back to the server:
//
//	FieldNumber    → <input type="number"> with min/max
//	FieldRange     → two <input type="range"> thumbs, lower and upper
//	FieldChecklist → one checkbox per choice plus a label summary
//
// The server stays the owner of the draft: an input only reports the new
// value, the rendered form always reflects the draft the server holds.
package humastar

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

// FieldKind selects the input rendered for a field.
type FieldKind string

const (
	FieldNumber    FieldKind = "number"
	FieldRange     FieldKind = "range"
	FieldChecklist FieldKind = "checklist"
)

// Choice is one checkbox of a checklist field.
type Choice struct {
	Label   string
	Checked bool
	Action  string // POST target toggling this choice
}

// Field describes one form group.
type Field struct {
	Kind  FieldKind
	Label string
	// Action is the POST target for number and range inputs; the new value
	// is sent as the value query parameter. Range thumbs post to
	// Action+"/0" and Action+"/1".
	Action string

	Value    float64
	Interval [2]float64
	Min      float64
	Max      float64
	Step     float64

	Choices []Choice
	Summary string
}

// RenderForm renders fields as form groups.
func RenderForm(fields []Field) template.HTML {
	var b strings.Builder
	for _, f := range fields {
		switch f.Kind {
		case FieldRange:
			renderRange(&b, f)
		case FieldChecklist:
			renderChecklist(&b, f)
		default:
			renderNumberInput(&b, f)
		}
	}
	return template.HTML(b.String())
}

func renderNumberInput(b *strings.Builder, f Field) {
	b.WriteString(`<div class="form-group">`)
	fmt.Fprintf(b, "\n    <label>%s</label>\n", esc(f.Label))
	fmt.Fprintf(b, `    <input type="number" value="%s" min="%s" max="%s"`, num(f.Value), num(f.Min), num(f.Max))
	if f.Step > 0 {
		fmt.Fprintf(b, ` step="%s"`, num(f.Step))
	}
	fmt.Fprintf(b, ` data-on:change="%s"`, postValue(f.Action))
	b.WriteString(">\n</div>\n")
}

func renderRange(b *strings.Builder, f Field) {
	step := f.Step
	if step <= 0 {
		step = 1
	}
	b.WriteString(`<div class="form-group range-group">`)
	fmt.Fprintf(b, "\n    <label>%s <span class=\"range-value\">%s – %s</span></label>\n",
		esc(f.Label), num(f.Interval[0]), num(f.Interval[1]))
	for thumb, v := range f.Interval {
		fmt.Fprintf(b, `    <input type="range" value="%s" min="%s" max="%s" step="%s" data-on:change="%s">`+"\n",
			num(v), num(f.Min), num(f.Max), num(step), postValue(f.Action+"/"+strconv.Itoa(thumb)))
	}
	b.WriteString("</div>\n")
}

func renderChecklist(b *strings.Builder, f Field) {
	b.WriteString(`<div class="form-group checklist">`)
	fmt.Fprintf(b, "\n    <label>%s</label>\n", esc(f.Label))
	if f.Summary != "" {
		fmt.Fprintf(b, "    <div class=\"checklist-summary\">%s</div>\n", esc(f.Summary))
	}
	for _, c := range f.Choices {
		checked := ""
		if c.Checked {
			checked = " checked"
		}
		fmt.Fprintf(b, "    <label><input type=\"checkbox\"%s data-on:change=\"@post('%s')\"> %s</label>\n",
			checked, esc(c.Action), esc(c.Label))
	}
	b.WriteString("</div>\n")
}

// postValue builds a Datastar expression posting the input's value.
func postValue(action string) string {
	return fmt.Sprintf("@post('%s?value=' + el.value)", esc(action))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func esc(s string) string {
	return template.HTMLEscapeString(s)
}
