package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultSMTPTimeout = 15 * time.Second

// SMTPConfig describe el servidor de salida de reportes.
// ImplicitTLS abre TLS desde el primer byte (puerto 465); si no, se usa STARTTLS cuando el servidor lo ofrece.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FromName    string
	ImplicitTLS bool
	Timeout     time.Duration
}

// SMTPSender entrega reportes en texto plano.
type SMTPSender struct {
	cfg  SMTPConfig
	now  func() time.Time
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	s := &SMTPSender{cfg: cfg, now: time.Now}
	s.dial = s.dialServer
	return s, nil
}

func (s *SMTPSender) SendReport(ctx context.Context, m Message) error {
	to := strings.TrimSpace(m.To)
	if to == "" {
		return fmt.Errorf("to email is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	conn, err := s.dial(ctx, net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := s.secure(client); err != nil {
		return err
	}
	raw := s.compose(to, m.Subject, m.Body)
	if err := deliver(client, s.cfg.From, to, raw); err != nil {
		return err
	}
	return client.Quit()
}

func (s *SMTPSender) dialServer(ctx context.Context, addr string) (net.Conn, error) {
	d := &net.Dialer{}
	if !s.cfg.ImplicitTLS {
		return d.DialContext(ctx, "tcp", addr)
	}
	td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: s.cfg.Host}}
	return td.DialContext(ctx, "tcp", addr)
}

// secure sube a STARTTLS si hace falta y autentica cuando hay usuario.
func (s *SMTPSender) secure(client *smtp.Client) error {
	if !s.cfg.ImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if s.cfg.Username == "" {
		return nil
	}
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	return nil
}

func deliver(client *smtp.Client, from, to string, raw []byte) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt %s: %w", to, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}

// compose arma el mensaje con cabeceras RFC 5322 y el cuerpo con finales CRLF.
func (s *SMTPSender) compose(to, subject, body string) []byte {
	from := s.cfg.From
	if name := strings.TrimSpace(s.cfg.FromName); name != "" {
		from = fmt.Sprintf("%s <%s>", name, s.cfg.From)
	}
	domainPart := s.cfg.Host
	if i := strings.LastIndex(s.cfg.From, "@"); i >= 0 {
		domainPart = s.cfg.From[i+1:]
	}

	var b strings.Builder
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", from)
	header("To", to)
	header("Subject", singleLine(subject))
	header("Date", s.now().UTC().Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainPart))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="UTF-8"`)
	b.WriteString("\r\n")
	body = strings.ReplaceAll(body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
