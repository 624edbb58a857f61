package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/rumo-app/rumo/internal/jobs"
)

// SMTPSender delivers transactional emails through a plain SMTP relay.
type SMTPSender struct {
	addr    string
	from    string
	baseURL string
	logger  *slog.Logger
}

// NewSMTPSender constructs a sender targeting host:port.
func NewSMTPSender(host, port, from, baseURL string, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{
		addr:    net.JoinHostPort(host, port),
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// SendPasswordReset delivers the reset instructions for the given token.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/auth/redefinir-senha?token=%s", s.baseURL, token)
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	msg.WriteString("Subject: =?UTF-8?Q?Redefini=C3=A7=C3=A3o_de_senha?=\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString("Olá,\r\n\r\n")
	msg.WriteString("Recebemos um pedido de redefinição de senha para a sua conta.\r\n")
	fmt.Fprintf(&msg, "Acesse o link abaixo para escolher uma nova senha:\r\n\r\n%s\r\n\r\n", link)
	msg.WriteString("O link expira em 1 hora. Se você não fez este pedido, ignore esta mensagem.\r\n")

	if err := smtp.SendMail(s.addr, nil, s.from, []string{email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	s.logger.Info("reset email sent", slog.String("to", email))
	return nil
}

// HandleResetEmailTask processes jobs.TaskTypeResetEmail tasks.
func (s *SMTPSender) HandleResetEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.ResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return s.SendPasswordReset(ctx, payload.To, payload.Token)
}

// Enqueuer hands reset emails to the background worker instead of
// delivering inline.
type Enqueuer struct {
	client *jobs.Client
	logger *slog.Logger
}

// NewEnqueuer constructs an Enqueuer backed by the jobs client.
func NewEnqueuer(client *jobs.Client, logger *slog.Logger) *Enqueuer {
	return &Enqueuer{client: client, logger: logger}
}

// SendPasswordReset enqueues a reset email task.
func (e *Enqueuer) SendPasswordReset(ctx context.Context, email, token string) error {
	info, err := e.client.EnqueueResetEmail(ctx, jobs.ResetEmailPayload{To: email, Token: token})
	if err != nil {
		return fmt.Errorf("enqueue reset email: %w", err)
	}
	e.logger.Info("reset email queued", slog.String("task_id", info.ID))
	return nil
}
