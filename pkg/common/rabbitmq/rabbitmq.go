package rabbitmq

import (
	"encoding/json"
	"time"

	"github.com/streadway/amqp"
	"k8s.io/klog/v2"
)

type VerbType string

const (
	VerbCreate VerbType = "create"
	VerbDelete VerbType = "delete"
)

// Msg tells downstream schedulers that a job was created or deleted. They are
// expected to poll the job status themselves.
type Msg struct {
	Verb      VerbType `bson:"verb" json:"verb"`
	JobName   string   `bson:"job_name" json:"job_name"`
	Namespace string   `bson:"namespace" json:"namespace"`
}

func ConnectRabbitMQ(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		klog.ErrorS(err, "Failed to connect to rabbit-mq")
		return nil, err
	}
	klog.InfoS("Connected to rabbit-mq")
	return conn, nil
}

func PublishToQueue(conn *amqp.Connection, queueName string, msg Msg) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queueName, // name
		false,     // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return ch.Publish(
		"",     // exchange
		q.Name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		})
}

// Publisher publishes every message to one queue.
type Publisher struct {
	conn  *amqp.Connection
	queue string
}

func NewPublisher(conn *amqp.Connection, queue string) *Publisher {
	return &Publisher{conn: conn, queue: queue}
}

func (p *Publisher) Publish(msg Msg) error {
	err := PublishToQueue(p.conn, p.queue, msg)
	if err != nil {
		klog.ErrorS(err, "Failed to publish message", "queue", p.queue, "verb", msg.Verb, "job", msg.JobName)
	}
	return err
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
