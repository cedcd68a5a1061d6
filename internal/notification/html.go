package notification

import (
	"bytes"
	"html/template"
)

var emailTemplate = template.Must(template.New("application").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px; }
.header { background-color: {{.Color}}; color: white; padding: 15px; border-radius: 5px 5px 0 0; text-align: center; }
.content { padding: 20px; }
.field { margin-bottom: 10px; }
.label { font-weight: bold; color: #555; }
.value { margin-left: 10px; }
.footer { margin-top: 20px; padding-top: 10px; border-top: 1px solid #ddd; font-size: 12px; color: #777; text-align: center; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h2>{{.Header}}</h2>
<p>{{.Date}}</p>
</div>
<div class="content">
{{- range .Lines}}
<div class="field"><span class="label">{{.Icon}} {{.Label}}:</span><span class="value">{{.Value}}</span></div>
{{- end}}
</div>
<div class="footer">
<p>Это автоматическое уведомление от ИИ-консультанта BBKinvest</p>
<p>ID сессии: {{.SessionID}}</p>
</div>
</div>
</body>
</html>
`))

// HTML renders the email body. User supplied values are escaped.
func (d Document) HTML() (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Document
		Color template.CSS
		Date  string
	}{
		Document: d,
		Color:    template.CSS(d.Color),
		Date:     d.CreatedAt.Format(dateLayout),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
