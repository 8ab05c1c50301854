// Package alerts turns a qualifying change-feed insert into the staff
// alert pipeline: system notification, sound cue, banner, and the
// optional automatic courier dispatch.
package alerts

import (
	"context"
	"log/slog"

	"github.com/doceeser/orders-dashboard/internal/dispatch"
	"github.com/doceeser/orders-dashboard/internal/orders/domain"
)

// Pusher delivers alert frames to attached dashboard clients.
type Pusher interface {
	Broadcast(f Frame)
}

// Dashboard is the slice of the controller the dispatcher needs:
// toggle reads and the banner.
type Dashboard interface {
	SoundEnabled() bool
	AutoDispatchEnabled() bool
	RaiseBanner()
}

type Sender interface {
	Send(ctx context.Context, o domain.Order) error
}

type Dispatcher struct {
	log   *slog.Logger
	push  Pusher
	board Dashboard
	send  Sender
}

func NewDispatcher(log *slog.Logger, push Pusher, board Dashboard, send Sender) *Dispatcher {
	return &Dispatcher{log: log, push: push, board: board, send: send}
}

// OnInsert runs the full alert pipeline for a freshly inserted order.
// Notification and sound are fire-and-forget; only auto-dispatch
// failures are worth a log line.
func (d *Dispatcher) OnInsert(ctx context.Context, o domain.Order) {
	d.push.Broadcast(Frame{
		Type:  FrameNotification,
		Title: "Novo pedido recebido!",
		Body:  "Pedido #" + o.ID + " — " + dispatch.FormatBRL(o.Total),
		Tag:   o.ID,
	})

	if d.board.SoundEnabled() {
		d.push.Broadcast(Frame{Type: FrameSound, Sound: "ding"})
	}

	d.board.RaiseBanner()

	if d.board.AutoDispatchEnabled() {
		if err := d.send.Send(ctx, o); err != nil {
			d.log.Error("auto dispatch failed", "order_id", o.ID, "err", err)
		}
	}
}
