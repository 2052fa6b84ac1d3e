package mail

import (
	"bytes"
	"html/template"
)

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; color: #1f2937;">
  <h2>Welcome to VoyageShield{{if .Name}}, {{.Name}}{{end}}!</h2>
  <p>Use the code below to verify your email address:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>The code expires in {{.ValidHours}} hours. If you did not create an account you can ignore this email.</p>
</body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; color: #1f2937;">
  <h2>You're verified{{if .Name}}, {{.Name}}{{end}}!</h2>
  <p>Your VoyageShield account is ready. Pick a plan, set your travel date and start saving towards your cover.</p>
  <p>Once your plan is fully paid your certificate becomes available on your dashboard.</p>
</body>
</html>`))

// VerificationEmail renders the email carrying a verification code.
func VerificationEmail(name, code string, validHours int) (string, string, error) {
	var buf bytes.Buffer
	err := verificationTemplate.Execute(&buf, struct {
		Name       string
		Code       string
		ValidHours int
	}{name, code, validHours})
	if err != nil {
		return "", "", err
	}
	return "Verify your VoyageShield email", buf.String(), nil
}

// WelcomeEmail renders the email sent after a successful verification.
func WelcomeEmail(name string) (string, string, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, struct{ Name string }{name}); err != nil {
		return "", "", err
	}
	return "Welcome to VoyageShield", buf.String(), nil
}
