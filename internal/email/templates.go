package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type leadConfirmationEmailData struct {
	baseEmailData
	LeadTitle string
	Category  string
	Reference string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderLeadConfirmation(data LeadConfirmation) (subject, body string, err error) {
	reference := data.LeadID
	if len(reference) > 8 {
		reference = reference[:8]
	}
	body, err = renderEmailTemplate("lead_confirmation.html", leadConfirmationEmailData{
		baseEmailData: baseEmailData{
			Title:      "Forespørsel mottatt",
			Heading:    "Takk for forespørselen din",
			Subheading: "Vi finner riktig leverandør og tar kontakt så snart som mulig.",
			CTALabel:   "Besøk Homni",
			CTAURL:     data.StatusURL,
		},
		LeadTitle: data.Title,
		Category:  data.Category,
		Reference: reference,
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjectLeadConfirmationFmt, data.Title), body, nil
}
