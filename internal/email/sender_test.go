package email

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("smtp not configured").SendReport(context.Background(), Message{To: "a@b.c"})
	if !errors.Is(err, ErrSenderDisabled) {
		t.Fatalf("expected ErrSenderDisabled, got %v", err)
	}
	if !strings.Contains(err.Error(), "smtp not configured") {
		t.Fatalf("reason missing from error: %v", err)
	}
}

func TestNewSMTPSenderValidation(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{From: "from@x.io"}); err == nil {
		t.Fatalf("expected error for empty host")
	}
	if _, err := NewSMTPSender(SMTPConfig{Host: "smtp.x.io"}); err == nil {
		t.Fatalf("expected error for empty from")
	}
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.x.io", From: "from@x.io"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.cfg.Port != 587 || s.cfg.Timeout != defaultSMTPTimeout {
		t.Fatalf("unexpected defaults: %+v", s.cfg)
	}
	if err := s.SendReport(context.Background(), Message{To: " "}); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestComposeHeaders(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.x.io", From: "from@x.io", FromName: "PathForge"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) }

	msg := string(s.compose("to@y.io", "Your\nresult", "line one\nline two"))
	for _, want := range []string{
		"From: PathForge <from@x.io>\r\n",
		"To: to@y.io\r\n",
		"Subject: Your result\r\n",
		"Date: Thu, 01 Oct 2026 09:00:00 +0000\r\n",
		"Message-ID: <",
		"\r\n\r\nline one\r\nline two",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

// fakeSMTP atiende una sesion sin STARTTLS ni auth y publica el cuerpo recibido.
func fakeSMTP(conn net.Conn, got chan<- string) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	write := func(s string) { _, _ = conn.Write([]byte(s)) }
	write("220 fake ESMTP\r\n")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			write("250-fake\r\n250 HELP\r\n")
		case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
			write("250 ok\r\n")
		case cmd == "DATA":
			write("354 go ahead\r\n")
			var data strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				data.WriteString(l)
			}
			write("250 queued\r\n")
			got <- data.String()
		case cmd == "QUIT":
			write("221 bye\r\n")
			return
		default:
			write("502 not implemented\r\n")
		}
	}
}

func TestSMTPSenderDelivers(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.x.io", From: "from@x.io"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make(chan string, 1)
	s.dial = func(context.Context, string) (net.Conn, error) {
		client, server := net.Pipe()
		go fakeSMTP(server, got)
		return client, nil
	}

	if err := s.SendReport(context.Background(), Message{To: "to@y.io", Subject: "Result", Body: "Best domain: Research"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case data := <-got:
		if !strings.Contains(data, "Subject: Result\r\n") || !strings.Contains(data, "Best domain: Research") {
			t.Fatalf("unexpected message:\n%s", data)
		}
	case <-time.After(time.Second):
		t.Fatalf("server never received the message")
	}
}

func TestSMTPSenderDialFailure(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.x.io", From: "from@x.io"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.dial = func(context.Context, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}
	if err := s.SendReport(context.Background(), Message{To: "to@y.io"}); err == nil || !strings.Contains(err.Error(), "smtp dial") {
		t.Fatalf("expected dial error, got %v", err)
	}
}
