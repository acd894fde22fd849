package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const smtpDialTimeout = 10 * time.Second

type emailNotifier struct {
	addr string
	host string
	from string
	to   []string
	auth smtp.Auth
}

func NewEmail(host string, port int, from, to, username, password string) (Notifier, error) {
	host = strings.TrimSpace(host)
	from = strings.TrimSpace(from)
	switch {
	case host == "":
		return nil, fmt.Errorf("config.smtp_host is required")
	case port <= 0:
		return nil, fmt.Errorf("config.smtp_port must be > 0")
	case from == "":
		return nil, fmt.Errorf("config.from is required")
	}

	recipients := splitRecipients(to)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("config.to must include at least one recipient")
	}

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if (username == "") != (password == "") {
		return nil, fmt.Errorf("config.username and config.password must be set together")
	}

	n := &emailNotifier{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		host: host,
		from: from,
		to:   recipients,
	}
	if username != "" {
		n.auth = smtp.PlainAuth("", username, password, host)
	}
	return n, nil
}

// Notify delivers one message per event. The dial honours ctx; the SMTP
// exchange itself is bounded by the connection deadline.
func (e *emailNotifier) Notify(ctx context.Context, event Event) error {
	d := net.Dialer{Timeout: smtpDialTimeout}
	conn, err := d.DialContext(ctx, "tcp", e.addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	c, err := smtp.NewClient(conn, e.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if e.auth != nil {
		if err := c.Auth(e.auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(e.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range e.to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(e.message(event, time.Now())); err != nil {
		_ = w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return c.Quit()
}

func (e *emailNotifier) message(event Event, at time.Time) []byte {
	subject := fmt.Sprintf("[duckdb-backup] %s: %s (%s)", event.Status, filepath.Base(event.DB), event.Method)
	return []byte(strings.Join([]string{
		"From: " + e.from,
		"To: " + strings.Join(e.to, ", "),
		"Subject: " + subject,
		"Date: " + at.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		buildEmailBody(event),
	}, "\r\n"))
}

func buildEmailBody(event Event) string {
	lines := []string{
		"DuckDB backup finished",
		"",
		"source: " + event.DB,
		"method: " + event.Method,
		"status: " + event.Status,
		fmt.Sprintf("bytes: %d", event.Bytes),
		"dest: " + event.Dest,
		"duration: " + event.Duration,
	}
	if event.Error != "" {
		lines = append(lines, "error: "+event.Error)
	}
	return strings.Join(lines, "\n")
}

func splitRecipients(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
