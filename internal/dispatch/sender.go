package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/doceeser/orders-dashboard/internal/orders/domain"
)

// Sender pushes the formatted message to the WhatsApp gateway that
// fronts the courier's chat. Delivery beyond the gateway is not our
// problem: one POST, no retries.
type Sender struct {
	log           *slog.Logger
	http          *resty.Client
	courierNumber string
	trackingBase  string
}

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Link string `json:"link"`
}

func NewSender(log *slog.Logger, gatewayURL, courierNumber, trackingBase string) *Sender {
	client := resty.New().
		SetBaseURL(gatewayURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &Sender{
		log:           log,
		http:          client,
		courierNumber: courierNumber,
		trackingBase:  trackingBase,
	}
}

func (s *Sender) Send(ctx context.Context, o domain.Order) error {
	body := sendRequest{
		To:   s.courierNumber,
		Text: FormatMessage(o, s.trackingBase),
		Link: DeepLink(o, s.courierNumber, s.trackingBase),
	}

	resp, err := s.http.R().SetContext(ctx).SetBody(body).Post("/messages")
	if err != nil {
		return fmt.Errorf("dispatch send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("dispatch send: gateway returned %s", resp.Status())
	}
	s.log.Info("dispatch message sent", "order_id", o.ID, "courier", s.courierNumber)
	return nil
}
