package email

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *Sender) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}

func (s *Sender) SendWelcomeEmail(to, username string) error {
	body, err := renderTemplate(welcomeTemplate, map[string]string{
		"Username": username,
	})
	if err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	return s.sendEmail(to, "Welcome to ToriLynq", body)
}

func (s *Sender) SendPasswordChangedEmail(to, username string) error {
	body, err := renderTemplate(passwordChangedTemplate, map[string]string{
		"Username": username,
	})
	if err != nil {
		return fmt.Errorf("failed to render password changed email: %w", err)
	}
	return s.sendEmail(to, "Your Password Has Been Changed", body)
}

func renderTemplate(t *template.Template, data interface{}) (string, error) {
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<html>
<body style="font-family: sans-serif;">
	<h2>Welcome to ToriLynq, {{.Username}}!</h2>
	<p>Your account is ready. Follow people you know, share your first post
	and say hello.</p>
</body>
</html>`))

var passwordChangedTemplate = template.Must(template.New("password_changed").Parse(`
<html>
<body style="font-family: sans-serif;">
	<h2>Hi {{.Username}},</h2>
	<p>Your password was just changed and all other sessions were signed out.
	If this was not you, please reset your password immediately.</p>
</body>
</html>`))
