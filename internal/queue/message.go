package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is a job delivered from RabbitMQ.
type Message struct {
	Job         *Job
	DeliveryTag uint64
	Channel     *amqp.Channel
}

func (m *Message) Ack() error {
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack rejects the message. Without requeue it goes to the dead letter queue.
func (m *Message) Nack(requeue bool) error {
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

func (m *Message) GetJob() *Job {
	return m.Job
}

var _ Delivery = (*Message)(nil)
