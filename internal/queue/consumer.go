package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OrderLogFile is the file the consumer appends to inside its directory.
const OrderLogFile = "orders.log"

// OrderConsumer drains the order.confirmed queue into <Dir>/orders.log,
// one line per order.
type OrderConsumer struct {
	URL    string
	Dir    string
	Logger *slog.Logger
}

// StartOrderConsumer runs a reconnecting consumer until ctx is cancelled.
// Processing errors are logged and the offending message is rejected so
// the server keeps running.
func StartOrderConsumer(ctx context.Context, url, dir string, logger *slog.Logger) error {
	c := &OrderConsumer{URL: url, Dir: dir, Logger: logger}
	return c.Run(ctx)
}

// Run is the reconnect loop.
func (c *OrderConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warn("order consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn("order consumer: consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *OrderConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warn("order consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(OrderConfirmedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, OrderConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.Handle(d.Body); err != nil {
			c.Logger.Error("order consumer: handle message failed", "err", err)
			_ = d.Nack(false, false) // no requeue, avoids a poison loop
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle appends one delivery to the order log.
func (c *OrderConsumer) Handle(body []byte) error {
	var ev OrderConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.OrderID == "" {
		return errors.New("event without order id")
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.Dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.Dir, OrderLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatOrderLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatOrderLine renders ev as a single newline-terminated log line.
func FormatOrderLine(ev OrderConfirmedEvent) string {
	tickets := make([]string, 0, len(ev.Tickets))
	for _, t := range ev.Tickets {
		tickets = append(tickets, fmt.Sprintf("%s:%d", t.Code, t.Quantity))
	}
	return fmt.Sprintf("[%s] Order confirmed | order=%s | number=%s | show_id=%d | venue=%q | city=%q | tickets=[%s] | seats=[%s] | total=%d cents\n",
		ev.ConfirmedAt, ev.OrderID, ev.OrderNumber, ev.ShowID, ev.Venue, ev.City,
		strings.Join(tickets, ","), strings.Join(ev.Seats, ","), ev.TotalCents)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
