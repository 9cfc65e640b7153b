package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
)

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

type reconnectEmailData struct {
	Platform  string
	ListingID string
}

var reconnectTemplate = template.Must(template.New("reconnect").Parse(`
<p>Your {{.Platform}} connection stopped working and we had to pause posting there.</p>
{{if .ListingID}}<p>Listing {{.ListingID}} could not be updated on {{.Platform}}.</p>{{end}}
<p>Open your platform settings and reconnect {{.Platform}} to resume.</p>
`))

// SendReconnectPrompt tells the owner a platform needs to be reconnected.
// Fired when a credential is marked invalid; distribution keeps going on the
// other platforms regardless.
func (s *EmailSender) SendReconnectPrompt(to, platform, listingID string) error {
	var body bytes.Buffer
	err := reconnectTemplate.Execute(&body, reconnectEmailData{Platform: platform, ListingID: listingID})
	if err != nil {
		return fmt.Errorf("render reconnect email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Action needed: reconnect %s", platform))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send reconnect email: %w", err)
	}
	return nil
}
