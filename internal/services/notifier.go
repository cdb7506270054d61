package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Mailer sends a single transactional email.
type Mailer interface {
	SendEmail(ctx context.Context, toEmail, subject, html string) error
}

const (
	notifierQueueSize   = 64
	notifierSendTimeout = 10 * time.Second
)

type emailTask struct {
	to      string
	subject string
	html    string
}

// Notifier is a bounded background dispatcher for best-effort email.
// Enqueued sends are handled by a single worker goroutine; a failed send
// is logged and never surfaces to the caller.
type Notifier struct {
	mailer Mailer
	log    *zap.SugaredLogger
	tasks  chan emailTask
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// NewNotifier creates a Notifier and starts its worker.
func NewNotifier(mailer Mailer, log *zap.SugaredLogger) *Notifier {
	n := &Notifier{
		mailer: mailer,
		log:    log,
		tasks:  make(chan emailTask, notifierQueueSize),
	}
	n.wg.Add(1)
	go n.worker()
	return n
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for task := range n.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), notifierSendTimeout)
		if err := n.mailer.SendEmail(ctx, task.to, task.subject, task.html); err != nil {
			n.log.Errorw("email dispatch failed", "to", task.to, "subject", task.subject, "error", err)
		} else {
			n.log.Infow("email dispatched", "to", task.to, "subject", task.subject)
		}
		cancel()
	}
}

// Enqueue hands an email to the dispatcher without blocking. When the
// queue is full the task is dropped and logged; the primary operation
// already succeeded at that point.
func (n *Notifier) Enqueue(to, subject, html string) {
	select {
	case n.tasks <- emailTask{to: to, subject: subject, html: html}:
	default:
		n.log.Warnw("notification queue full, dropping email", "to", to, "subject", subject)
	}
}

// Close drains the queue and stops the worker.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		close(n.tasks)
	})
	n.wg.Wait()
}

// OTPEmail builds the registration OTP message.
func OTPEmail(otp string, ttl time.Duration) (subject, html string) {
	subject = "Your OTP for Registration"
	html = fmt.Sprintf("<p>Your OTP is <strong>%s</strong>. It is valid for %d minutes.</p>", otp, int(ttl.Minutes()))
	return subject, html
}

// StatusUpdateEmail builds the order status change message.
func StatusUpdateEmail(username, orderID, status string) (subject, html string) {
	subject = "Order Status Update"
	html = fmt.Sprintf(
		"<h1>Order Status Update</h1>"+
			"<p>Dear %s,</p>"+
			"<p>Your order with ID <strong>%s</strong> has been updated to <strong>%s</strong>.</p>"+
			"<p>Thank you for shopping with us!</p>",
		username, orderID, status,
	)
	return subject, html
}
