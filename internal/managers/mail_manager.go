// Mail dispatch for account activation and password resets, using the
// Mailgun service and the Hermes package for email formatting.
package managers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"

	"microblog/internal/config"
	"microblog/internal/metrics"
)

// MailMgr outlines the contract for email dispatch. The identity logic
// only ever produces tokens and digests; everything leaving the system
// by mail goes through here.
type MailMgr interface {
	SendActivationMail(email, name, token string, userId int64) error
	SendPasswordResetMail(email, name, token string, userId int64) error
	SendConfirmationMail(email, name string) error
}

// MailManager is a concrete implementation of the MailMgr interface.
type MailManager struct {
	Hermes  *hermes.Hermes
	Mailgun *mailgun.MailgunImpl

	from        string
	environment string
}

// SendActivationMail sends the plaintext activation token to a freshly
// registered user. Only the digest of the token is stored server-side.
func (mm *MailManager) SendActivationMail(email, name, token string, userId int64) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				"Welcome to Microblog! We're very excited to have you on board.",
			},
			Actions: []hermes.Action{
				{
					Instructions: fmt.Sprintf("To activate your account, enter the following code for user %d:", userId),
					InviteCode:   token,
				},
			},
			Outros: []string{
				"If you did not sign up, no further action is required on your part.",
			},
		},
	}

	return mm.send(email, "Activate your account", mailBody, "activation")
}

// SendPasswordResetMail sends the plaintext reset token. The token is
// only good for two hours.
func (mm *MailManager) SendPasswordResetMail(email, name, token string, userId int64) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				"You requested a password reset for your Microblog account.",
			},
			Actions: []hermes.Action{
				{
					Instructions: fmt.Sprintf("Enter the following code for user %d within the next two hours:", userId),
					InviteCode:   token,
				},
			},
			Outros: []string{
				"If you did not request a password reset, you can safely ignore this email. Your password stays unchanged.",
			},
		},
	}

	return mm.send(email, "Password reset", mailBody, "reset")
}

// SendConfirmationMail confirms a successful account activation.
func (mm *MailManager) SendConfirmationMail(email, name string) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				"Your account has been successfully activated!",
			},
			Outros: []string{
				"Have fun using Microblog!",
			},
		},
	}

	return mm.send(email, "Account successfully activated", mailBody, "confirmation")
}

func (mm *MailManager) send(email, subject string, mailBody hermes.Email, kind string) error {
	if mm.environment != "production" {
		log.Infof("Skipping %s mail in %s mode", kind, mm.environment)
		return nil
	}

	emailBody, err := mm.Hermes.GenerateHTML(mailBody)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(2*time.Second))
	defer cancel()

	message := mm.Mailgun.NewMessage(mm.from, subject, "", email)
	message.SetHtml(emailBody)
	if _, _, err = mm.Mailgun.Send(ctx, message); err != nil {
		log.Warning("Error sending " + kind + " mail: " + err.Error())
		metrics.IncMailSent(kind, "error")
		return err
	}

	metrics.IncMailSent(kind, "sent")
	log.Debug(kind + " mail sent to " + email)
	return nil
}

// NewMailManager initializes a new MailManager instance with configured
// Mailgun and Hermes settings. Outside of production mails are logged
// and skipped instead of sent.
func NewMailManager(cfg config.MailConfig) MailMgr {
	log.Info("Initializing mail manager")
	environment := os.Getenv("ENVIRONMENT")

	if environment != "production" {
		log.Info("Running in development mode, email will not be sent to users")
	}

	from := cfg.From
	if from == "" {
		from = "Microblog <noreply@" + cfg.Domain + ">"
	}

	mailgunInstance := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	mailgunInstance.SetAPIBase(mailgun.APIBaseEU)

	return &MailManager{
		Hermes: &hermes.Hermes{
			Theme:         new(hermes.Default),
			TextDirection: hermes.TDLeftToRight,
			Product: hermes.Product{
				Name:      "Microblog",
				Link:      "https://microblog.example/",
				Copyright: "© Microblog",
			},
		},
		Mailgun:     mailgunInstance,
		from:        from,
		environment: environment,
	}
}
