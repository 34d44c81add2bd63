package console

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-roomwatch/internal/display"
)

var templateFuncs = func() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["wrap"] = display.Wrap
	fm["indent"] = display.Indent
	fm["titleCase"] = display.Title
	return fm
}()

var (
	whoTemplate = mustParse("who", `
{{- if not .Entities -}}
The room is empty.
{{ else -}}
{{ len .Entities }} in room:
{{ range .Entities -}}
{{ printf "  %4d  %-20s  %-12s  %s" .Index (trunc 20 .Name) (titleCase .Type.String) .Tile.String }}{{ if .NextTile }} -> {{ .NextTile.String }}{{ end }}
{{ end -}}
{{ end -}}
`)

	lookTemplate = mustParse("look", `
{{- with .Entity -}}
#{{ .Index }} {{ .Name }} ({{ titleCase .Type.String }}{{ if .Gender }}, {{ .Gender }}{{ end }})
  id:     {{ .ID }}
  tile:   {{ .Tile.String }}{{ if .NextTile }} walking to {{ .NextTile.String }}{{ end }}
  facing: head {{ .HeadDirection }}, body {{ .BodyDirection }}
{{- if .Action }}
  action: {{ .Action }}
{{- end }}
{{- if .Motto }}
{{ wrap .Motto | indent 2 }}
{{- end }}
{{ end -}}
`)

	helpTemplate = mustParse("help", `Commands:
{{ range .Commands -}}
{{ printf "  %-14s %s" .Usage .Summary }}
{{ end -}}
`)
)

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(templateFuncs).Parse(text))
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
