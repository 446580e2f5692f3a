package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// EmailService handles sending emails via SMTP
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
	appURL   string
}

// NewEmailService creates a new email service instance
func NewEmailService() *EmailService {
	port := 587
	if p := os.Getenv("SMTP_PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}

	return &EmailService{
		host:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		port:     port,
		username: os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     getEnvOrDefault("SMTP_FROM", "noreply@ethicsfolio.app"),
		appURL:   getEnvOrDefault("APP_URL", "http://localhost:3000"),
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.username != "" && e.password != ""
}

// SendCredentials mails the generated temporary password to a newly created
// account. The caller treats a failure as non-fatal: the account exists
// either way and the response carries an emailSent flag.
func (e *EmailService) SendCredentials(toEmail, name, tempPassword, role string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Credentials for %s not sent", toEmail)
		return fmt.Errorf("SMTP not configured")
	}

	subject := "Your EthicsFolio Account"
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
    <h2>Welcome to EthicsFolio</h2>
    <p>Hello %s,</p>
    <p>An account has been created for you with the role <strong>%s</strong>.</p>
    <p>Sign in at <a href="%s">%s</a> with:</p>
    <ul>
        <li>Email: <strong>%s</strong></li>
        <li>Temporary password: <strong>%s</strong></li>
    </ul>
    <p>You will be asked to choose a new password on first login.</p>
</body>
</html>`, name, strings.ReplaceAll(role, "_", " "), e.appURL, e.appURL, toEmail, tempPassword)

	return e.sendEmail(toEmail, subject, body)
}

// SendPasswordResetOTP mails a one-time reset code. The code expires after
// ten minutes.
func (e *EmailService) SendPasswordResetOTP(toEmail, name, otp string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Reset code for %s not sent", toEmail)
		return fmt.Errorf("SMTP not configured")
	}

	if name == "" {
		name = "User"
	}

	subject := "Your EthicsFolio Password Reset Code"
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
    <h2>Password Reset</h2>
    <p>Hello %s,</p>
    <p>We received a request to reset your password. Your one-time code is:</p>
    <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
    <p>The code expires in 10 minutes. If you did not request a reset, you can safely ignore this email.</p>
</body>
</html>`, name, otp)

	return e.sendEmail(toEmail, subject, body)
}

// sendEmail sends an email using SMTP with TLS
func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	// Build the email message with proper headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("EthicsFolio <%s>", e.from)
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	tlsConfig := &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         e.host,
	}

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	_, err = w.Write([]byte(message.String()))
	if err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	conn.Quit()

	log.Printf("Email sent successfully to: %s", to)
	return nil
}
