package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartAuditConsumer connects to RabbitMQ and consumes the reservation
// and check-in queues, appending one line per event to logs/audit.log.
// Each queue gets its own connection loop so a poisoned queue cannot
// starve the other. The loops reconnect with capped exponential backoff
// and never return; failures only log and reject the offending message.
func StartAuditConsumer() {
	go runQueue(TicketReservedQueue, handleTicketReserved)
	go runQueue(CheckInQueue, handleCheckIn)
}

func runQueue(queueName string, handle func([]byte) error) {
	url := brokerURL()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("audit-consumer[%s]: failed to dial broker: %v; retrying in %s", queueName, err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, queueName, handle); err != nil {
			log.Printf("audit-consumer[%s]: consume loop ended: %v; reconnecting", queueName, err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, queueName string, handle func([]byte) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("audit-consumer[%s]: set QoS failed: %v", queueName, err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handle(d.Body); err != nil {
			log.Printf("audit-consumer[%s]: handle message failed: %v", queueName, err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleTicketReserved(body []byte) error {
	var ev TicketReservedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Ticket reserved | ticket_id=%d | code=%s | user_id=%d | round_id=%d\n",
		ev.ReservedAt, ev.TicketID, ev.TicketCode, ev.UserID, ev.RoundID)
	return appendAuditLine(line)
}

func handleCheckIn(body []byte) error {
	var ev CheckInEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Check-in | check_id=%d | activity_id=%d | user_id=%d | recorded_by=%d | duplicated=%t\n",
		ev.CheckedAt, ev.CheckID, ev.ActivityID, ev.UserID, ev.RecordedBy, ev.Duplicated)
	return appendAuditLine(line)
}

func appendAuditLine(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "audit.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
