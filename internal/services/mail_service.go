package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Notifier tells users about things that happened to them.
type Notifier interface {
	SendWelcomeEmail(email, displayName, admission string)
	SendCommentNotification(email, commenter, resourceTitle, comment string)
}

type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type MailService struct {
	cfg     MailConfig
	Enabled bool
}

func NewMailService(cfg MailConfig) *MailService {
	enabled := cfg.Host != "" && cfg.Port != "" && cfg.Username != "" && cfg.Password != "" && cfg.From != ""
	if !enabled {
		log.Warn("MailService disabled: missing SMTP settings")
	}
	return &MailService{cfg: cfg, Enabled: enabled}
}

var mailTemplates = template.Must(template.New("welcome").Parse(`<p>Hi {{.Name}},</p>
<p>An account has been created for you on UniShare.</p>
<p>Log in with your admission number <strong>{{.Admission}}</strong>. If you were not given a password, use the default one announced by your department and change it after your first login.</p>`))

func init() {
	template.Must(mailTemplates.New("comment").Parse(`<p><strong>{{.Commenter}}</strong> commented on <em>{{.Title}}</em>:</p>
<blockquote>{{.Comment}}</blockquote>`))
}

func (s *MailService) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: UniShare <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), s.cfg.From, subject, mime, body))

		if err := smtp.SendMail(addr, auth, s.cfg.From, to, msg); err != nil {
			log.WithError(err).WithField("to", to).Error("failed to send email")
			return
		}
		log.WithFields(log.Fields{"to": to, "subject": subject}).Info("email sent")
	}()
}

func (s *MailService) SendWelcomeEmail(email, displayName, admission string) {
	body, err := s.render("welcome", map[string]string{"Name": displayName, "Admission": admission})
	if err != nil {
		log.WithError(err).Error("welcome email not sent")
		return
	}
	s.sendAsync([]string{email}, "Welcome to UniShare", body)
}

func (s *MailService) SendCommentNotification(email, commenter, resourceTitle, comment string) {
	body, err := s.render("comment", map[string]string{
		"Commenter": commenter,
		"Title":     resourceTitle,
		"Comment":   comment,
	})
	if err != nil {
		log.WithError(err).Error("comment notification not sent")
		return
	}
	s.sendAsync([]string{email}, commenter+" commented on "+resourceTitle, body)
}

type noopNotifier struct{}

func (noopNotifier) SendWelcomeEmail(string, string, string) {}
func (noopNotifier) SendCommentNotification(string, string, string, string) {}
