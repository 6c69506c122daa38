package mailer

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"ai-meeting-be/internal/entity"
)

type IEmailService interface {
	SendMeetingSummary(toEmails []string, roomName string, meeting *entity.Meeting) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendMeetingSummary(toEmails []string, roomName string, meeting *entity.Meeting) error {
	if len(toEmails) == 0 {
		return fmt.Errorf("no recipients for meeting %s", meeting.Id)
	}
	if meeting.Summary == nil {
		return fmt.Errorf("meeting %s has no summary to send", meeting.Id)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmails...)
	m.SetHeader("Subject", fmt.Sprintf("Meeting summary: %s", titleOrDefault(meeting)))
	m.SetBody("text/html", s.buildSummaryBody(roomName, meeting))

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send summary for meeting %s: %v\n", meeting.Id, err)
		return err
	}

	fmt.Printf("[MAILER] Summary sent to %d recipients for meeting %s\n", len(toEmails), meeting.Id)
	return nil
}

func (s *emailService) buildSummaryBody(roomName string, meeting *entity.Meeting) string {
	summary := meeting.Summary

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">`)
	b.WriteString(fmt.Sprintf("<h2>%s</h2>", html.EscapeString(titleOrDefault(meeting))))
	b.WriteString(fmt.Sprintf("<p><b>Room:</b> %s &middot; %s</p>",
		html.EscapeString(roomName), meeting.StartedAt.Format("Jan 2, 2006 15:04")))
	b.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(summary.Overview)))

	for _, section := range summary.Sections {
		b.WriteString(fmt.Sprintf("<h3>%s</h3><ul>", html.EscapeString(section.Topic)))
		for _, point := range section.Points {
			b.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(point)))
		}
		b.WriteString("</ul>")
	}

	if len(summary.Decisions) > 0 {
		b.WriteString("<h3>Decisions</h3><ul>")
		for _, decision := range summary.Decisions {
			b.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(decision)))
		}
		b.WriteString("</ul>")
	}

	if len(summary.ActionItems) > 0 {
		b.WriteString("<h3>Action Items</h3><ul>")
		for _, item := range summary.ActionItems {
			line := item.Description
			if item.Assignee != "" {
				line = fmt.Sprintf("%s (%s)", line, item.Assignee)
			}
			b.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(line)))
		}
		b.WriteString("</ul>")
	}

	b.WriteString("</div>")
	return b.String()
}

func titleOrDefault(meeting *entity.Meeting) string {
	if meeting.Title != "" {
		return meeting.Title
	}
	return "Meeting recap"
}
