package queue

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivery from one of the consumed queues.  A
// returned error rejects the message without requeueing it, so a poison
// payload cannot loop forever.
type Handler func(queueName string, body []byte) error

// Consume connects to RabbitMQ, declares the given queues (durable) and
// consumes them until the process exits.  Each delivery is handled on its
// own goroutine, so a slow online validation does not stall the queue.  The
// function runs a reconnect loop with exponential backoff and never returns
// under normal operation; it keeps running and logs any processing errors
// while rejecting the offending message so the service continues operating.
func Consume(url, tag string, queues []string, handle Handler) error {
	if len(queues) == 0 {
		return errors.New("no queues to consume")
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("%s: failed to dial broker: %v; retrying in %s", tag, err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, tag, queues, handle); err != nil {
			log.Printf("%s: consume loop ended: %v; reconnecting", tag, err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, tag string, queues []string, handle Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("%s: set QoS failed: %v", tag, err)
	}

	var wg sync.WaitGroup
	done := make(chan error, len(queues))

	for _, name := range queues {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, tag+"."+name, false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		log.Printf("%s: consuming %s", tag, name)

		wg.Add(1)
		go func(queueName string, deliveries <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range deliveries {
				go func(d amqp.Delivery) {
					if err := handle(queueName, d.Body); err != nil {
						log.Printf("%s: handle message failed: %v", tag, err)
						_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
						return
					}
					_ = d.Ack(false)
				}(d)
			}
			done <- fmt.Errorf("deliveries channel for %s closed", queueName)
		}(name, msgs)
	}

	err = <-done
	wg.Wait()
	return err
}
