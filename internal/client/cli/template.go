package cli

import (
	"fmt"
	"text/template"

	"github.com/iudanet/cartsync/internal/client/projector"
	"github.com/iudanet/cartsync/internal/models"
)

const cartTemplate = `
=== Cart ===
{{if .Items}}
{{- range .Items}}
{{printf "%-28s" .Key}} {{printf "%-14s" .ID}} x{{.Quantity}}  {{money (lineTotal .)}}{{with .Title}}  {{.}}{{end}}{{if pending .Key}}  (pending){{end}}
{{- range $name, $value := .Properties}}
    {{$name}}: {{$value}}
{{- end}}
{{- end}}

Items: {{.ItemCount}}
Total: {{money .TotalPrice}}{{with .Currency}} {{.}}{{end}}
{{- else}}
Cart is empty
{{- end}}
`

const statusTemplate = `
=== Cart Status ===

Connection: {{if .Online}}online{{else}}offline{{end}}
Sync state: {{.SyncState}}
Pending:    {{.Pending}} operation(s)
{{- with .LastError}}
Last error: {{.Message}} ({{.Operation}}, {{.Category}}, {{.Severity}})
{{- end}}
`

const syncTemplate = `
=== Synchronization ===

State:     {{.State}}
Completed: {{.Completed}}
Failed:    {{.Failed}}
{{- if .FailedOp}}
Stopped at operation {{.FailedOp}}
{{- end}}
`

const errorsTemplate = `
=== Error Log ===
{{range .}}
{{.At.Format "2006-01-02 15:04:05"}}  {{printf "%-11s" .Category}} {{printf "%-8s" .Severity}} {{.Operation}}: {{.Message}}{{if .Recovered}} (recovered by {{.Strategy}}){{end}}
{{- else}}
No errors recorded
{{- end}}
`

const statsTemplate = `
=== Error Statistics ===
{{range .}}
{{printf "%-11s" .Category}} total {{.Total}}, recovered {{.Recovered}} ({{percent .Rate}})
{{- end}}
`

const operationsTemplate = `
=== Operation Log ===
{{range .}}
{{.ID}}  {{printf "%-11s" .Kind}} {{printf "%-7s" .SyncState}} attempts {{.SyncAttempts}}{{with .LastError}}  last error: {{.}}{{end}}
{{- else}}
Operation log is empty
{{- end}}
`

var templateFuncs = template.FuncMap{
	"money":     formatMoney,
	"lineTotal": func(item models.CartItem) int64 { return item.LinePrice() },
	"pending":   projector.IsTempKey,
	"percent":   func(rate float64) string { return fmt.Sprintf("%.0f%%", rate*100) },
}

var templates = template.Must(template.New("cli").Funcs(templateFuncs).Parse(""))

func init() {
	for name, text := range map[string]string{
		"cart":       cartTemplate,
		"status":     statusTemplate,
		"sync":       syncTemplate,
		"errors":     errorsTemplate,
		"stats":      statsTemplate,
		"operations": operationsTemplate,
	} {
		template.Must(templates.New(name).Parse(text))
	}
}

// render выводит данные по шаблону name
func (c *Cli) render(name string, data any) error {
	if err := templates.ExecuteTemplate(c.io, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

// formatMoney форматирует сумму в минорных единицах: 1999 -> 19.99
func formatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
