package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

type smtpMailer struct {
	host     string
	port     int
	user     string
	password string
	useTLS   bool
}

func (s *smtpMailer) Provider() string { return "smtp" }

func (s *smtpMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return nil
	}
	body, err := buildMessage(msg)
	if err != nil {
		return eris.Wrap(err, "smtp: build message")
	}
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return eris.Wrap(err, "smtp: dial")
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return eris.Wrap(err, "smtp: handshake")
	}
	defer client.Close()

	if s.useTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return eris.Wrap(err, "smtp: starttls")
		}
	}
	if s.user != "" {
		auth := smtp.PlainAuth("", s.user, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			return eris.Wrap(err, "smtp: auth")
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return eris.Wrap(err, "smtp: mail from")
	}
	if err := client.Rcpt(msg.To); err != nil {
		return eris.Wrap(err, "smtp: rcpt to")
	}
	w, err := client.Data()
	if err != nil {
		return eris.Wrap(err, "smtp: data")
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return eris.Wrap(err, "smtp: write body")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "smtp: close body")
	}
	return client.Quit()
}

func buildMessage(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	from := (&mail.Address{Name: msg.FromName, Address: msg.From}).String()
	headers := []string{
		"From: " + from,
		"To: " + msg.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
	}

	mixed := multipart.NewWriter(&buf)
	headers = append(headers, fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q", mixed.Boundary()))
	head := strings.Join(headers, "\r\n") + "\r\n\r\n"

	if err := writeBodyParts(mixed, msg); err != nil {
		return nil, err
	}
	for _, a := range msg.Attachments {
		if err := writeAttachment(mixed, a); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return append([]byte(head), buf.Bytes()...), nil
}

func writeBodyParts(mixed *multipart.Writer, msg Message) error {
	var inner bytes.Buffer
	alt := multipart.NewWriter(&inner)
	text := msg.Text
	if text == "" && msg.HTML == "" {
		text = " "
	}
	if text != "" {
		if err := writeTextPart(alt, "text/plain", text); err != nil {
			return err
		}
	}
	if msg.HTML != "" {
		if err := writeTextPart(alt, "text/html", msg.HTML); err != nil {
			return err
		}
	}
	if err := alt.Close(); err != nil {
		return err
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", alt.Boundary()))
	part, err := mixed.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(inner.Bytes())
	return err
}

func writeTextPart(w *multipart.Writer, contentType, content string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType+"; charset=\"UTF-8\"")
	header.Set("Content-Transfer-Encoding", "base64")
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(wrapBase64([]byte(content)))
	return err
}

func writeAttachment(w *multipart.Writer, a Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", fmt.Sprintf("%s; name=%q", contentType, a.Filename))
	header.Set("Content-Transfer-Encoding", "base64")
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(wrapBase64(a.Data))
	return err
}

// wrapBase64 encodes data with CRLF line breaks every 76 characters.
func wrapBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	for len(encoded) > 76 {
		out.WriteString(encoded[:76])
		out.WriteString("\r\n")
		encoded = encoded[76:]
	}
	out.WriteString(encoded)
	out.WriteString("\r\n")
	return out.Bytes()
}
