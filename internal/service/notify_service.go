package service

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"parkeaya-panel/internal/config"
	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/logger"
)

// NotifyService tells the owner about approval decisions by e-mail
// (SendGrid) and SMS (Twilio). Channels without credentials are skipped.
// Delivery runs in the background and never fails the caller.
type NotifyService struct {
	cfg       config.NotifyConfig
	sendEmail func(toEmail, toName, subject, plainText, htmlContent string) error
	sendSMS   func(toNumber, body string) error
	wg        sync.WaitGroup
}

func NewNotifyService(cfg config.NotifyConfig) *NotifyService {
	s := &NotifyService{cfg: cfg}
	if cfg.SendGridAPIKey != "" && cfg.SendGridFromEmail != "" && cfg.OwnerEmail != "" {
		s.sendEmail = s.sendWithSendGrid
	} else {
		logger.Warn("SendGrid is not fully configured, approval e-mails are disabled")
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" && cfg.OwnerPhone != "" {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username:   cfg.TwilioAccountSID,
			Password:   cfg.TwilioAuthToken,
			AccountSid: cfg.TwilioAccountSID,
		})
		s.sendSMS = func(toNumber, body string) error {
			return sendWithTwilio(client, cfg.TwilioFromNumber, toNumber, body)
		}
	} else {
		logger.Warn("Twilio is not fully configured, approval SMS are disabled")
	}
	return s
}

// ApprovalUpdated queues the owner notifications for req.
func (s *NotifyService) ApprovalUpdated(req db.ApprovalRequest) {
	subject, plain, htmlBody := approvalMessage(req)

	if s.sendEmail != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.sendEmail(s.cfg.OwnerEmail, s.cfg.OwnerName, subject, plain, htmlBody); err != nil {
				logger.Error("approval e-mail failed", "request_id", req.ID, "error", err)
			}
		}()
	}
	if s.sendSMS != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.sendSMS(s.cfg.OwnerPhone, smsMessage(req)); err != nil {
				logger.Error("approval SMS failed", "request_id", req.ID, "error", err)
			}
		}()
	}
}

// Wait blocks until queued notifications are delivered or have failed.
func (s *NotifyService) Wait() {
	s.wg.Wait()
}

func statusLabel(status db.ApprovalStatus) string {
	switch status {
	case db.StatusApproved:
		return "aprobada"
	case db.StatusRejected:
		return "rechazada"
	default:
		return "pendiente"
	}
}

func approvalMessage(req db.ApprovalRequest) (subject, plain, htmlBody string) {
	label := statusLabel(req.Status)
	subject = fmt.Sprintf("Parkea: tu solicitud para %s fue %s", req.Parking.Name, label)

	var b strings.Builder
	fmt.Fprintf(&b, "Hola,\n\nLa solicitud de registro de %q (%s) fue %s.\n", req.Parking.Name, req.Parking.Address, label)
	if req.RejectionReason != "" {
		fmt.Fprintf(&b, "Motivo: %s\n", req.RejectionReason)
	}
	fmt.Fprintf(&b, "\nSolicitud: %s\n", req.ID)
	if req.RemoteID != "" {
		fmt.Fprintf(&b, "ID remoto: %s\n", req.RemoteID)
	}
	plain = b.String()
	htmlBody = "<p>" + strings.ReplaceAll(html.EscapeString(plain), "\n", "<br>") + "</p>"
	return subject, plain, htmlBody
}

func smsMessage(req db.ApprovalRequest) string {
	msg := fmt.Sprintf("Parkea: la solicitud de %s fue %s.", req.Parking.Name, statusLabel(req.Status))
	if req.RejectionReason != "" {
		msg += " Motivo: " + req.RejectionReason
	}
	return msg
}

func (s *NotifyService) sendWithSendGrid(toEmail, toName, subject, plainText, htmlContent string) error {
	from := mail.NewEmail(s.cfg.SendGridFromName, s.cfg.SendGridFromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)

	response, err := sendgrid.NewSendClient(s.cfg.SendGridAPIKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	logger.Info("approval e-mail sent", "to", toEmail, "status", response.StatusCode)
	return nil
}

func sendWithTwilio(client *twilio.RestClient, fromNumber, toNumber, body string) error {
	if !strings.HasPrefix(toNumber, "+") {
		logger.Warn("SMS destination is not in E.164 format", "to", toNumber)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(fromNumber)
	params.SetBody(body)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		logger.Info("approval SMS sent", "to", toNumber, "sid", *resp.Sid)
	}
	return nil
}
