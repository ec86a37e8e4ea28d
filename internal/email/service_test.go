package email

import (
	"strings"
	"testing"
)

func TestIsConfigured(t *testing.T) {
	cases := []struct {
		name   string
		config Config
		want   bool
	}{
		{"empty", Config{}, false},
		{"missing from", Config{Host: "smtp.example.com", Port: "587"}, false},
		{"complete", Config{Host: "smtp.example.com", Port: "587", From: "no-reply@example.com"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.config)
			if got := svc.IsConfigured(); got != tc.want {
				t.Fatalf("IsConfigured() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSendEmailUnconfiguredFails(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.SendEmail([]string{"owner@example.com"}, "Hello", "body"); err == nil {
		t.Fatal("expected error when unconfigured")
	}
}

func TestVerificationTemplateRenders(t *testing.T) {
	html, err := renderTemplate(verificationEmailTemplate, VerificationData{
		AppName:         "Tablecraft",
		UserName:        "Avery",
		VerificationURL: "https://tablecraft.example.com/verify-email?token=abc",
	})
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}
	if !strings.Contains(html, "Avery") {
		t.Fatal("user name missing from rendered email")
	}
	if !strings.Contains(html, "https://tablecraft.example.com/verify-email?token=abc") {
		t.Fatal("verification link missing from rendered email")
	}
}

func TestPasswordResetTemplateRenders(t *testing.T) {
	html, err := renderTemplate(passwordResetEmailTemplate, PasswordResetData{
		AppName:  "Tablecraft",
		UserName: "Avery",
		ResetURL: "https://tablecraft.example.com/reset-password?token=xyz",
	})
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}
	if !strings.Contains(html, "https://tablecraft.example.com/reset-password?token=xyz") {
		t.Fatal("reset link missing from rendered email")
	}
}
