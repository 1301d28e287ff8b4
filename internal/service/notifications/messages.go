package notifications

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const preparationHint = "If you are meeting with me in hopes I will help you solve a problem with the site you are building, " +
	"emailing me a publicly viewable link and a short description of your problem ahead of time may help our session be more productive."

// Notification данные одной записи для писем.
// Время уже отформатировано в зоне посетителя и в зоне администратора.
type Notification struct {
	Name        string
	Email       string
	VisitorTime string
	AdminTime   string
}

// Settings параметры писем
type Settings struct {
	SiteName         string
	AdminEmail       string
	AdminName        string
	MeetingLink      string
	VisitorSubject   string
	AdminSubject     string
	VisitorZoneLabel string
	AdminZoneLabel   string
}

// BuildMessages собирает ровно два письма: подтверждение посетителю и уведомление администратору
func (s *Service) BuildMessages(n Notification) []domain.MailMessage {
	return []domain.MailMessage{
		s.visitorMessage(n),
		s.adminMessage(n),
	}
}

func (s *Service) visitorMessage(n Notification) domain.MailMessage {
	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", n.Name)
	fmt.Fprintf(&body, "Your meeting time has been confirmed for %s %s.\n\n", n.VisitorTime, s.settings.VisitorZoneLabel)
	fmt.Fprintf(&body, "Use the following link to join the meeting:\n%s\n\n", s.settings.MeetingLink)
	body.WriteString(preparationHint + "\n\n")
	body.WriteString("See you then!\n\n")

	return domain.MailMessage{
		To:       n.Email,
		From:     address(s.settings.AdminName, s.settings.AdminEmail),
		Subject:  s.settings.VisitorSubject,
		TextBody: body.String(),
		ReplyTo:  s.settings.AdminEmail,
	}
}

func (s *Service) adminMessage(n Notification) domain.MailMessage {
	var body strings.Builder
	fmt.Fprintf(&body, "A new %s appointment has been booked:\n\n", s.settings.SiteName)
	fmt.Fprintf(&body, "Student: %s\n", n.Name)
	fmt.Fprintf(&body, "Email: %s\n", n.Email)
	fmt.Fprintf(&body, "Time: %s %s\n\n", n.AdminTime, s.settings.AdminZoneLabel)

	return domain.MailMessage{
		To:       s.settings.AdminEmail,
		From:     address(s.settings.SiteName, s.settings.AdminEmail),
		Subject:  s.settings.AdminSubject,
		TextBody: body.String(),
		ReplyTo:  address(n.Name, n.Email),
	}
}

// address формирует адрес вида "Name" <email>.
// Имя экранируется по RFC 5322, иначе запятая или кавычки в имени ломают заголовок.
func address(name, email string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}
