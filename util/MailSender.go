package util

import (
	"fmt"
	"html"
	"net/smtp"
	"sort"
	"strings"

	"hadoop_monitor/config"
	"hadoop_monitor/types"

	log "github.com/sirupsen/logrus"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type MailSender struct {
	nodeName     string
	smtpHost     string
	smtpPort     int
	mail         string
	password     string
	receiverList []string
	sendMail     sendMailFunc
}

func NewMailSender(c config.Notify) *MailSender {
	return &MailSender{
		nodeName:     c.NodeName,
		smtpHost:     c.SmtpHost,
		smtpPort:     c.SmtpPort,
		mail:         c.From,
		password:     c.Password,
		receiverList: c.Receivers,
		sendMail:     smtp.SendMail,
	}
}

func toHtml(content string) string {
	return "<html><body>" + content + "</body></html>"
}

func (m *MailSender) Send(title string, content string) error {
	headerSubject := fmt.Sprintf("Subject: %s\r\n", title)
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"

	var auth smtp.Auth
	if m.password != "" {
		auth = smtp.PlainAuth("", m.mail, m.password, m.smtpHost)
	}
	content = toHtml(fmt.Sprintf("<p><h3>hadoop monitor : %s</h3></p>", html.EscapeString(m.nodeName)) + content)

	msg := []byte(headerSubject + mime + content)
	addr := fmt.Sprintf("%s:%d", m.smtpHost, m.smtpPort)
	if err := m.sendMail(addr, auth, m.mail, m.receiverList, msg); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", addr, err)
	}
	log.WithField("receivers", len(m.receiverList)).Info("health report mail sent")
	return nil
}

// NotifyUnhealthy mails a report listing every UNHEALTHY service of the
// snapshot. Nothing is sent when all services are healthy.
func (m *MailSender) NotifyUnhealthy(snapshot types.HealthSnapshot) error {
	names := snapshot.UnhealthyServices()
	if len(names) == 0 {
		return nil
	}
	return m.Send(
		fmt.Sprintf("[hadoop monitor] %d unhealthy service(s)", len(names)),
		buildHealthReportMailContent(snapshot),
	)
}

func buildHealthReportMailContent(snapshot types.HealthSnapshot) string {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("<h2>Cluster health</h2>")
	for _, name := range names {
		s := snapshot[name]
		fmt.Fprintf(&b, "<h3>%s: %s</h3>", html.EscapeString(name), s.Status)
		if s.Status != types.Healthy {
			fmt.Fprintf(&b, "<span>error : %s</span><br>", html.EscapeString(s.Error))
		}
	}
	return b.String()
}
