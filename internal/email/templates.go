package email

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	texttpl "text/template"
)

// ActivationVars are the values the activation templates interpolate.
type ActivationVars struct {
	FirstName string
	Email     string
	Link      string
	TTL       string
}

// Templates holds the parsed activation mail bodies.
type Templates struct {
	ActivationHTML *template.Template
	ActivationTXT  *texttpl.Template
}

const defaultActivationHTML = `<p>Hello{{if .FirstName}} {{.FirstName}}{{end}},</p>
<p>An account was created for {{.Email}}. Follow the link below within {{.TTL}} to activate it:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>If you did not sign up, you can ignore this message.</p>
`

const defaultActivationTXT = `Hello{{if .FirstName}} {{.FirstName}}{{end}},

An account was created for {{.Email}}. Follow the link below within {{.TTL}} to activate it:

{{.Link}}

If you did not sign up, you can ignore this message.
`

// DefaultTemplates parses the built-in activation bodies.
func DefaultTemplates() *Templates {
	return &Templates{
		ActivationHTML: template.Must(template.New("activation_html").Parse(defaultActivationHTML)),
		ActivationTXT:  texttpl.Must(texttpl.New("activation_txt").Parse(defaultActivationTXT)),
	}
}

// LoadTemplates reads activation.html and activation.txt from dir, for
// deployments that override the built-in bodies.
func LoadTemplates(dir string) (*Templates, error) {
	read := func(name string) (string, error) {
		b, err := os.ReadFile(filepath.Join(dir, name))
		return string(b), err
	}
	h, err := read("activation.html")
	if err != nil {
		return nil, err
	}
	x, err := read("activation.txt")
	if err != nil {
		return nil, err
	}
	ht, err := template.New("activation_html").Parse(h)
	if err != nil {
		return nil, err
	}
	xt, err := texttpl.New("activation_txt").Parse(x)
	if err != nil {
		return nil, err
	}
	return &Templates{ActivationHTML: ht, ActivationTXT: xt}, nil
}

func (t *Templates) render(vars ActivationVars) (htmlBody, textBody string, err error) {
	var hb, xb bytes.Buffer
	if err := t.ActivationHTML.Execute(&hb, vars); err != nil {
		return "", "", err
	}
	if err := t.ActivationTXT.Execute(&xb, vars); err != nil {
		return "", "", err
	}
	return hb.String(), xb.String(), nil
}
