package delivery

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var reportEmailTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1f2937; line-height: 1.5;">
  <div style="max-width: 600px; margin: 0 auto; padding: 24px;">
    <h1 style="color: {{.Color}}; font-size: 22px;">Your AI Readiness Report</h1>
    <p>Hi {{.Greeting}},</p>
    <p>Thank you for completing the AI readiness assessment for <strong>{{.Firm}}</strong>.
    Your personalized report is attached as a PDF.</p>
    {{- if .Level}}
    <p style="background: #eff4fb; padding: 12px 16px; border-radius: 6px;">
      Overall readiness: <strong>{{.Level}}</strong>{{if .Score}} ({{.Score}} / 5){{end}}
    </p>
    {{- end}}
    <p>The report covers your scores by category, practical quick wins and a 30/60/90-day plan.</p>
    {{- if .BookingURL}}
    <p><a href="{{.BookingURL}}" style="display: inline-block; background: {{.Color}}; color: #ffffff; padding: 10px 18px; border-radius: 6px; text-decoration: none;">Book a strategy session</a></p>
    {{- end}}
    <p>{{.Sender}}</p>
  </div>
</body>
</html>`))

type emailView struct {
	Greeting   string
	Firm       string
	Level      string
	Score      string
	Color      string
	BookingURL string
	Sender     string
}

func renderReportEmail(v emailView) (string, string, error) {
	var buf bytes.Buffer
	if err := reportEmailTmpl.Execute(&buf, v); err != nil {
		return "", "", err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", v.Greeting)
	fmt.Fprintf(&text, "Thank you for completing the AI readiness assessment for %s. Your personalized report is attached as a PDF.\n\n", v.Firm)
	if v.Level != "" {
		fmt.Fprintf(&text, "Overall readiness: %s", v.Level)
		if v.Score != "" {
			fmt.Fprintf(&text, " (%s / 5)", v.Score)
		}
		text.WriteString("\n\n")
	}
	if v.BookingURL != "" {
		fmt.Fprintf(&text, "Book a strategy session: %s\n\n", v.BookingURL)
	}
	text.WriteString(v.Sender + "\n")
	return buf.String(), text.String(), nil
}
