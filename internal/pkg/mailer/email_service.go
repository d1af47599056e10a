package mailer

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendShareInvite(toEmail, inviterName, itemType, itemName, permission string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	frontendURL string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	frontendURL := os.Getenv("FRONTEND_URL")

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		frontendURL: frontendURL,
	}
}

// SendShareInvite notifies a collaborator that a folder or note was shared
// with them. itemType is "folder" or "note".
func (s *emailService) SendShareInvite(toEmail, inviterName, itemType, itemName, permission string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("%s shared a %s with you", inviterName, itemType))

	sharedLink := fmt.Sprintf("%s/shared", s.frontendURL)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>You have a new shared %s</h2>
			<p><b>%s</b> shared the %s <b>%s</b> with you (%s access).</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open shared items</a>
			<p>If you don't recognize the sender, you can ignore this email.</p>
		</div>
	`, itemType, inviterName, itemType, itemName, permission, sharedLink)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send share invite to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Share invite sent to %s\n", toEmail)
	return nil
}
