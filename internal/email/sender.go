// Package email sends transactional mail over SMTP.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(host string, port int, username, password, from string) *Sender {
	dialer := gomail.NewDialer(host, port, username, password)
	return &Sender{
		dialer: dialer,
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

var verificationTemplate = template.Must(template.New("verification").Parse(`
<p>Hi {{.FirstName}},</p>
<p>Welcome to MindBridge. Please confirm your email address by entering the code below:</p>
<p><strong>{{.VerificationCode}}</strong></p>
<p>If you did not create an account, you can ignore this email.</p>
`))

var appointmentTemplate = template.Must(template.New("appointment").Parse(`
<p>Hi {{.FirstName}},</p>
<p>Your appointment scheduled for <strong>{{.ScheduledAt}}</strong> is now <strong>{{.Status}}</strong>.</p>
<p>You can manage your appointments from your MindBridge dashboard.</p>
`))

func (s *Sender) SendVerificationEmail(to, firstName, verificationCode string) error {
	body, err := render(verificationTemplate, map[string]string{
		"FirstName":        firstName,
		"VerificationCode": verificationCode,
	})
	if err != nil {
		return err
	}
	return s.sendEmail(to, "Verify Your Email Address", body)
}

func (s *Sender) SendAppointmentEmail(to, firstName string, scheduledAt time.Time, status string) error {
	body, err := render(appointmentTemplate, map[string]string{
		"FirstName":   firstName,
		"ScheduledAt": scheduledAt.Format("Monday, January 2 2006 at 15:04 MST"),
		"Status":      status,
	})
	if err != nil {
		return err
	}
	return s.sendEmail(to, "Your Appointment Update", body)
}

func render(t *template.Template, data interface{}) (string, error) {
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return buf.String(), nil
}
