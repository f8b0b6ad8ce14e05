package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSMTPClient struct {
	from    string
	rcpts   []string
	body    bytes.Buffer
	quit    bool
	authErr error
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (f *fakeSMTPClient) Mail(from string) error { f.from = from; return nil }
func (f *fakeSMTPClient) Rcpt(rcpt string) error { f.rcpts = append(f.rcpts, rcpt); return nil }
func (f *fakeSMTPClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.body}, nil
}
func (f *fakeSMTPClient) Quit() error                      { f.quit = true; return nil }
func (f *fakeSMTPClient) Close() error                     { return nil }
func (f *fakeSMTPClient) StartTLS(*tls.Config) error       { return nil }
func (f *fakeSMTPClient) Auth(smtp.Auth) error             { return f.authErr }
func (f *fakeSMTPClient) Extension(string) (bool, string)  { return false, "" }

func fakeMailer(client *fakeSMTPClient) *smtpMailer {
	return &smtpMailer{
		cfg: SMTPSettings{
			Enabled: true,
			Host:    "mail.example.com",
			Port:    587,
			From:    "noreply@example.com",
			Timeout: time.Second,
		},
		dial: func(context.Context, SMTPSettings) (net.Conn, smtpClient, error) {
			server, conn := net.Pipe()
			go func() { _, _ = io.Copy(io.Discard, server) }()
			return conn, client, nil
		},
		auth: defaultAuth,
	}
}

func TestSendWritesMessage(t *testing.T) {
	client := &fakeSMTPClient{}
	mailer := fakeMailer(client)

	err := mailer.Send(context.Background(), Message{
		To:      []string{"owner@example.com", "owner@example.com", " "},
		Subject: "Invoice INV-0042 is overdue",
		Body:    "Payment for invoice INV-0042 is 7 days overdue.",
	})
	require.NoError(t, err)

	require.Equal(t, "noreply@example.com", client.from)
	require.Equal(t, []string{"owner@example.com"}, client.rcpts)
	require.Contains(t, client.body.String(), "Subject: Invoice INV-0042 is overdue")
	require.True(t, client.quit)
}

func TestSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{To: []string{"a@b.example"}})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestSendRejectsInvalidAddresses(t *testing.T) {
	mailer := fakeMailer(&fakeSMTPClient{})

	err := mailer.Send(context.Background(), Message{To: []string{"not-an-address"}})
	require.Error(t, err)

	err = mailer.Send(context.Background(), Message{})
	require.Error(t, err)
}

func TestNewSMTPMailerValidation(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "mail.example.com"})
	require.Error(t, err)
}
