// Package notify delivers account emails: registration, OTP resend and
// password reset. Delivery is best-effort and never fails the caller.
package notify

import (
	"context"
	"fmt"
	"html"
)

// Kind selects the email template
type Kind string

const (
	KindRegistration   Kind = "registration"
	KindOTPResend      Kind = "otp_resend"
	KindForgotPassword Kind = "forgot_password"
)

// Message is a single outbound email request
type Message struct {
	Kind      Kind
	Email     string
	FirstName string
	LastName  string
	OTP       string
}

// Sender delivers a message over some mail transport
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// render builds the subject and HTML body for a message
func render(msg Message) (string, string, error) {
	name := html.EscapeString(msg.FirstName + " " + msg.LastName)
	otp := html.EscapeString(msg.OTP)

	switch msg.Kind {
	case KindRegistration:
		return "Registration Successful", fmt.Sprintf(`
		<p>%s</p>
		<h2>Welcome!</h2>
		<p>Here is your verification code: <strong>%s</strong></p>
		<p>It expires in 5 minutes. We're excited to have you join us.</p>
		<hr>
		<p>Thank you,<br/>The Accounts Team</p>
	`, name, otp), nil
	case KindOTPResend:
		return "Your new verification code", fmt.Sprintf(`
		<h2>Verify your account</h2>
		<p>Here is your new verification code: <strong>%s</strong></p>
		<p>It expires in 5 minutes.</p>
		<hr>
		<p>Thank you,<br/>The Accounts Team</p>
	`, otp), nil
	case KindForgotPassword:
		return "Password reset request", fmt.Sprintf(`
		<p>%s</p>
		<h3>Password reset requested</h3>
		<p>Use the following code to reset your password: <strong>%s</strong></p>
		<p>It expires in 5 minutes. If you did not request this change, you can ignore this email.</p>
	`, name, otp), nil
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", msg.Kind)
	}
}
