package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"
)

/*
buildRawMessage renders an RFC 5322 message:

	multipart/mixed
	├── multipart/alternative (text/plain, text/html)
	└── attachments, base64
*/
func buildRawMessage(sender string, recipients []string, subject, text, html string, attachments []Attachment, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mixed := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", sender)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed.Boundary())

	var body bytes.Buffer
	alternative := multipart.NewWriter(&body)
	for _, part := range []struct{ contentType, content string }{
		{"text/plain; charset=utf-8", text},
		{"text/html; charset=utf-8", html},
	} {
		if part.content == "" {
			continue
		}
		writer, err := alternative.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		writeBase64Lines(writer, []byte(part.content))
	}
	err := alternative.Close()
	if err != nil {
		return nil, err
	}

	writer, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", alternative.Boundary())},
	})
	if err != nil {
		return nil, err
	}
	_, err = writer.Write(body.Bytes())
	if err != nil {
		return nil, err
	}

	for _, attachment := range attachments {
		contentType := attachment.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		writer, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {contentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Filename})},
		})
		if err != nil {
			return nil, err
		}
		writeBase64Lines(writer, attachment.Data)
	}

	err = mixed.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64Lines wraps base64 output at 76 characters as MIME requires.
func writeBase64Lines(w io.Writer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		io.WriteString(w, encoded[:76]+"\r\n")
		encoded = encoded[76:]
	}
	io.WriteString(w, encoded+"\r\n")
}
