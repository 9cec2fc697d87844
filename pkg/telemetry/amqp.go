// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"github.com/streadway/amqp"
)

// DefaultExchange is the fanout exchange snapshots are published to.
const DefaultExchange = "gatewatch_events"

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes snapshots to a fanout exchange, routed by device name.
type AMQPPublisher struct {
	conn     io.Closer
	ch       amqpChannel
	exchange string
}

// DialAMQP connects to the server and declares the exchange.
func DialAMQP(serverURL, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(serverURL)
	if err != nil {
		return nil, fmt.Errorf("telemetry: AMQP dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("telemetry: AMQP channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("telemetry: declare exchange %s: %w", exchange, err)
	}
	glog.V(1).Infof("telemetry: publishing to AMQP exchange %s", exchange)
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish implements Publisher.
func (p *AMQPPublisher) Publish(ctx context.Context, s Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := s.Marshal()
	if err != nil {
		return err
	}
	return p.ch.Publish(p.exchange, s.Device, false, false, amqp.Publishing{
		ContentType: ContentType,
		AppId:       appID,
		Type:        "drv8305.snapshot",
		Timestamp:   time.UnixMilli(s.Timestamp),
		Body:        body,
	})
}

// Close implements Publisher.
func (p *AMQPPublisher) Close() error {
	return errors.Join(p.ch.Close(), p.conn.Close())
}
