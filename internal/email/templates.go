package email

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

// LogoCID is the content-id the HTML templates use to reference the inline
// brand logo: <img src="cid:brand-logo">.
const LogoCID = "brand-logo"

// logoCandidates is the ordered list of file names probed under the assets
// dir. First match wins; no match means the email goes out unbranded.
var logoCandidates = []string{"Logo.webp", "Logo.png", "Logo.jpg", "Logo.jpeg", "Logo.webg"}

const (
	TemplateWelcome        = "welcome"
	TemplateForgotPassword = "forgot_password"
)

// WelcomeVars feeds the welcome template.
type WelcomeVars struct {
	BrandName    string
	Name         string
	Email        string
	Password     string
	LoginURL     string
	CustomURL    string
	SupportEmail string
}

// ForgotPasswordVars feeds the recovery-OTP template.
type ForgotPasswordVars struct {
	BrandName    string
	Email        string
	OTP          string
	LoginURL     string
	CustomURL    string
	SupportEmail string
}

// Templates is the compiled template registry. Rendering is a pure function
// of the bound data — no side effects.
type Templates struct {
	assetsDir string
	welcome   *template.Template
	forgot    *template.Template
}

// Load parses the HTML templates from dir. The logo is resolved lazily on
// each render so assets can be dropped in without a restart.
func Load(dir string) (*Templates, error) {
	parse := func(name string) (*template.Template, error) {
		b, err := os.ReadFile(filepath.Join(dir, name+".html"))
		if err != nil {
			return nil, err
		}
		return template.New(name).Parse(string(b))
	}
	welcome, err := parse(TemplateWelcome)
	if err != nil {
		return nil, fmt.Errorf("load welcome template: %w", err)
	}
	forgot, err := parse(TemplateForgotPassword)
	if err != nil {
		return nil, fmt.Errorf("load forgot_password template: %w", err)
	}
	return &Templates{
		assetsDir: filepath.Join(dir, "assets"),
		welcome:   welcome,
		forgot:    forgot,
	}, nil
}

func (t *Templates) RenderWelcome(vars WelcomeVars) (string, error) {
	return render(t.welcome, vars)
}

func (t *Templates) RenderForgotPassword(vars ForgotPasswordVars) (string, error) {
	return render(t.forgot, vars)
}

// ResolveLogo returns the path of the first logo candidate that exists, or
// "" when none does. A missing logo is not an error.
func (t *Templates) ResolveLogo() string {
	for _, name := range logoCandidates {
		p := filepath.Join(t.assetsDir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func render(tpl *template.Template, vars interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s template: %w", tpl.Name(), err)
	}
	return buf.String(), nil
}
