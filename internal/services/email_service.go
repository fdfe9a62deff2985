package services

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"salespipe/internal/models"
	"salespipe/internal/repositories"
)

type EmailService interface {
	SendWelcomeEmail(email, name string) error
	SendLeadConvertedEmail(email string, lead *models.Lead, company *models.Company) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	return &emailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
	}
}

func (s *emailService) SendWelcomeEmail(email, name string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your staff account is ready")

	body := fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>Your staff account has been created. You can sign in with this email address.</p>
	`, name)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

func (s *emailService) SendLeadConvertedEmail(email string, lead *models.Lead, company *models.Company) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("Lead contracted: %s", lead.CompanyName))

	body := fmt.Sprintf(`
		<h3>A lead in your book just contracted</h3>
		<p>Lead <strong>%s</strong> (estimated value %s) reached the contracted stage.</p>
		<p>The new company account <strong>%s</strong> is assigned to you and is waiting for onboarding.</p>
	`, lead.CompanyName, lead.EstimatedValue.StringFixed(2), company.Name)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send conversion email: %w", err)
	}
	return nil
}

// EmailNotifier bridges conversion events to the account manager's mailbox.
// Best-effort: failures are logged, never surfaced.
type EmailNotifier struct {
	Email EmailService
	Users repositories.UserRepository
}

func NewEmailNotifier(email EmailService, users repositories.UserRepository) *EmailNotifier {
	return &EmailNotifier{Email: email, Users: users}
}

func (n *EmailNotifier) LeadConverted(lead *models.Lead, company *models.Company) {
	if n.Email == nil || company.AccountManager == nil {
		return
	}
	manager, err := n.Users.GetByID(*company.AccountManager)
	if err != nil || manager == nil {
		log.Warn().Err(err).Str("manager_id", *company.AccountManager).
			Msg("[notify][email] account manager lookup failed")
		return
	}
	if err := n.Email.SendLeadConvertedEmail(manager.Email, lead, company); err != nil {
		log.Warn().Err(err).Str("lead_id", lead.ID).Msg("[notify][email] send failed")
	}
}
