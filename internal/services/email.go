package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/pkg/logger"

	"github.com/dineatlas/dineatlas/backend/internal/models"
)

type EmailService struct {
	db *gorm.DB
}

type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

func NewEmailService(db *gorm.DB) *EmailService {
	return &EmailService{db: db}
}

func (s *EmailService) GetConfig() *EmailConfig {
	config := &EmailConfig{}

	var configs []models.SystemConfig
	s.db.Where("`group` = ?", "email").Find(&configs)

	for _, c := range configs {
		switch c.Key {
		case "email_enabled":
			config.Enabled = c.Value == "true"
		case "email_host":
			config.Host = c.Value
		case "email_port":
			if port, err := strconv.Atoi(c.Value); err == nil {
				config.Port = port
			}
		case "email_username":
			config.Username = c.Value
		case "email_password":
			config.Password = c.Value
		case "email_from":
			config.From = c.Value
		case "email_use_tls":
			config.UseTLS = c.Value == "true"
		}
	}

	if config.Port == 0 {
		config.Port = 587
	}

	return config
}

// SendReservationNotification emails the recipients about a reservation event.
func (s *EmailService) SendReservationNotification(task *NotifyTask, recipients []string) error {
	config := s.GetConfig()
	if !config.Enabled || config.Host == "" {
		return nil
	}

	if len(recipients) == 0 {
		return nil
	}

	var subject string
	switch task.Event {
	case NotifyCancelled:
		subject = fmt.Sprintf("[DineAtlas] Reservation cancelled: %s", task.StoreName)
	case NotifyReminder:
		subject = fmt.Sprintf("[DineAtlas] Upcoming reservation at %s", task.StoreName)
	default:
		subject = fmt.Sprintf("[DineAtlas] Reservation confirmed: %s", task.StoreName)
	}

	body := s.buildEmailBody(task)

	return s.sendEmail(config, recipients, subject, body)
}

func (s *EmailService) buildEmailBody(task *NotifyTask) string {
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	switch task.Event {
	case NotifyCancelled:
		sb.WriteString("<h2>Your reservation has been cancelled</h2>")
	case NotifyReminder:
		sb.WriteString("<h2>Your reservation is coming up</h2>")
	default:
		sb.WriteString("<h2>Your table is booked</h2>")
	}
	sb.WriteString("<table style=\"border-collapse: collapse; margin-bottom: 20px;\">")

	rows := []struct{ label, value string }{
		{"Restaurant", task.StoreName},
		{"Guest", task.DinerName},
		{"Party size", strconv.Itoa(task.PartySize)},
		{"Date & time", task.ReservedFor.Format("Mon, 02 Jan 2006 15:04")},
		{"Confirmation code", task.ConfirmationCode},
	}

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("<tr><td style=\"padding: 8px; border: 1px solid #ddd; font-weight: bold;\">%s</td><td style=\"padding: 8px; border: 1px solid #ddd;\">%s</td></tr>", r.label, r.value))
	}
	sb.WriteString("</table>")

	if task.Event == NotifyBooked {
		sb.WriteString("<p>Show your confirmation code at the restaurant. You can cancel from your account at any time before the reservation.</p>")
	}

	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">Powered by DineAtlas</p>")
	sb.WriteString("</body></html>")

	return sb.String()
}

func (s *EmailService) sendEmail(config *EmailConfig, to []string, subject, body string) error {
	from := config.From
	if from == "" {
		from = config.Username
	}

	headers := make(map[string]string)
	headers["From"] = from
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	var err error
	if config.UseTLS {
		err = s.sendEmailTLS(config, addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		logger.Infof("[Email] Failed to send email: %v", err)
		return err
	}

	logger.Infof("[Email] Sent notification to %v", to)
	return nil
}

func (s *EmailService) sendEmailTLS(config *EmailConfig, addr string, auth smtp.Auth, from string, to []string, message string) error {
	tlsConfig := &tls.Config{
		ServerName: config.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	_, err = w.Write([]byte(message))
	if err != nil {
		return err
	}

	return w.Close()
}

// ProcessNotifyTask is the queue/worker processor: it resolves recipients
// from the task and sends the notification email.
func (s *EmailService) ProcessNotifyTask(_ context.Context, task *NotifyTask) error {
	recipients := []string{task.DinerEmail}
	if task.Event == NotifyBooked && task.OwnerEmail != "" {
		recipients = append(recipients, task.OwnerEmail)
	}
	return s.SendReservationNotification(task, recipients)
}
