package notification

import (
	"bytes"
	"fmt"
	"text/template"

	"fraudintel/pkg/email"
)

type layout struct {
	subject *template.Template
	body    *template.Template
}

var layouts = map[Template]layout{
	TemplateLowQuotaIndividual: {
		subject: template.Must(template.New("low_quota_individual_subject").Parse(
			"You have used {{.percent}}% of your searches")),
		body: template.Must(template.New("low_quota_individual").Parse(
			`Hi {{.name}},

You have used {{.used}} of {{.limit}} searches on your plan. {{.remaining}} remain.
Upgrade or top up to keep searching without interruption.
`)),
	},
	TemplateLowQuotaEnterprise: {
		subject: template.Must(template.New("low_quota_enterprise_subject").Parse(
			"Your organization has used {{.percent}}% of its searches")),
		body: template.Must(template.New("low_quota_enterprise").Parse(
			`Hi {{.name}},

Your organization's shared pool has used {{.used}} of {{.limit}} searches. {{.remaining}} remain for all members.
Contact your account manager to extend the pool.
`)),
	},
}

// Render turns a notification into an email.
func Render(n Notification) (email.Message, error) {
	l, ok := layouts[n.Template]
	if !ok {
		return email.Message{}, fmt.Errorf("unknown notification template %q", n.Template)
	}
	subject, err := execute(l.subject, n.Params)
	if err != nil {
		return email.Message{}, err
	}
	body, err := execute(l.body, n.Params)
	if err != nil {
		return email.Message{}, err
	}
	return email.Message{To: n.To, Subject: subject, Body: body}, nil
}

func execute(t *template.Template, params map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
