package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendResolutionOutcome(toEmail, orderId, outcome, detail string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

// SendResolutionOutcome notifies the customer that their return or
// replacement case reached a final state.
func (s *emailService) SendResolutionOutcome(toEmail, orderId, outcome, detail string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Update on your request for order %s", orderId))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<p>Your return/replacement request for order <strong>%s</strong> has been updated.</p>
			<p>%s</p>
			<p>You can track the full progress from your account's order page.</p>
		</div>
	`, outcome, orderId, detail)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send resolution update to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Resolution update sent to %s\n", toEmail)
	return nil
}
