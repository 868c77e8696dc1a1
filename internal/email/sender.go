package email

import (
	"context"
	"errors"
	"fmt"
)

var ErrSenderDisabled = errors.New("email sender disabled")

// Message es un correo de texto plano.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender envia el resumen de una evaluacion por correo.
type Sender interface {
	SendReport(ctx context.Context, msg Message) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendReport(_ context.Context, _ Message) error {
	if s.reason == "" {
		return ErrSenderDisabled
	}
	return fmt.Errorf("%w: %s", ErrSenderDisabled, s.reason)
}
