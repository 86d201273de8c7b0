// Package report renders a standalone HTML document from the session store.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"time"
)

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 1000px; margin: 20px auto; padding: 0 20px; }
        h1 { color: #2c3e50; text-align: center; border-bottom: 2px solid #ecf0f1; padding-bottom: 10px; }
        .meta { color: #7f8c8d; text-align: center; margin-bottom: 25px; }
        pre { background: #2d2d2d; color: #f1f1f1; padding: 15px; border-radius: 5px; white-space: pre-wrap; word-wrap: break-word; font-family: "Fira Code", "Courier New", monospace; }
        footer { color: #95a5a6; text-align: center; font-size: 0.85em; margin-top: 30px; }
    </style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">Generated {{.Timestamp}}</div>
<pre>{{.Report}}</pre>
<footer>talon {{.Version}}</footer>
</body>
</html>
`

type reportData struct {
	Title     string
	Report    string
	Timestamp string
	Version   string
}

// WriteHTML serializes the session store and renders the standalone report
// document at path.
func WriteHTML(path, title string, store map[string]any, version string) error {
	serialized, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing session store: %w", err)
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	data := reportData{
		Title:     title,
		Report:    string(serialized),
		Timestamp: time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		Version:   version,
	}
	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}
