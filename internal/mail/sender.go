package mail

import (
	"bytes"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/ariefcatur/go-shop-api/internal/config"
)

// Dialer is the part of gomail.Dialer the sender needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	D    Dialer
	From string
	Log  *zap.Logger
}

func NewSender(cfg config.SMTP, log *zap.Logger) *Sender {
	return &Sender{
		D:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		From: cfg.From,
		Log:  log,
	}
}

type SummaryLine struct {
	Name  string
	Qty   int
	Price string
}

type OrderSummary struct {
	OrderID           int64
	Lines             []SummaryLine
	Total             string
	EstimatedDelivery time.Time
}

func (s *Sender) SendConfirmation(to, link string) error {
	return s.send(to, "Confirm your email", "confirm", map[string]string{"Link": link})
}

func (s *Sender) SendPasswordReset(to, link string) error {
	return s.send(to, "Reset your password", "reset", map[string]string{"Link": link})
}

func (s *Sender) SendOrderConfirmation(to string, sum OrderSummary) error {
	return s.send(to, fmt.Sprintf("Order #%d confirmed", sum.OrderID), "order", sum)
}

func (s *Sender) SendOrderStatus(to string, orderID int64, status string) error {
	return s.send(to, fmt.Sprintf("Order #%d is now %s", orderID, status), "status", map[string]any{
		"OrderID": orderID, "Status": status,
	})
}

func (s *Sender) send(to, subject, tmpl string, data any) error {
	body, err := render(tmpl, data)
	if err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	if err := s.D.DialAndSend(m); err != nil {
		return fmt.Errorf("send %s mail to %s: %w", tmpl, to, err)
	}
	if s.Log != nil {
		s.Log.Info("mail sent", zap.String("template", tmpl), zap.String("to", to))
	}
	return nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
