package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"streetLearnAPI/internal/types/deadline"
	"streetLearnAPI/internal/types/notification"
	"streetLearnAPI/utils"
)

// scanHour is the IST hour of the daily reminder sweep.
const scanHour = 9

// reminderWindowDays bounds which deadlines get a daily reminder:
// everything due between today and this many days out, inclusive.
const reminderWindowDays = 7

// DeadlineNotifier runs the daily reminder sweep. Each morning it scans
// the registry and pushes one reminder per deadline due within the
// window. Reminder pushes reuse the deadline's tag, so today's reminder
// replaces yesterday's on the device instead of stacking.
type DeadlineNotifier struct {
	deadlines *DeadlineService
	notifier  *NotificationService
	jobQueue  chan notification.Push
	stopChan  chan struct{}
	wg        sync.WaitGroup
	now       func() time.Time
}

func NewDeadlineNotifier(deadlines *DeadlineService, notifier *NotificationService) *DeadlineNotifier {
	n := &DeadlineNotifier{
		deadlines: deadlines,
		notifier:  notifier,
		jobQueue:  make(chan notification.Push, 100),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}

	n.startWorkers(3)
	go n.runDailyScan()

	return n
}

func (n *DeadlineNotifier) startWorkers(count int) {
	for i := 0; i < count; i++ {
		n.wg.Add(1)
		go n.worker()
	}
}

func (n *DeadlineNotifier) worker() {
	defer n.wg.Done()
	for {
		select {
		case push := <-n.jobQueue:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			n.notifier.Broadcast(ctx, push, nil)
			cancel()
		case <-n.stopChan:
			return
		}
	}
}

// runDailyScan sleeps until the next 09:00 IST, sweeps, and repeats.
func (n *DeadlineNotifier) runDailyScan() {
	for {
		wait := time.Until(nextScanTime(n.now()))
		select {
		case <-time.After(wait):
			n.Sweep()
		case <-n.stopChan:
			return
		}
	}
}

// nextScanTime returns the next 09:00 IST strictly after now.
func nextScanTime(now time.Time) time.Time {
	ist := now.In(utils.IST)
	next := time.Date(ist.Year(), ist.Month(), ist.Day(), scanHour, 0, 0, 0, utils.IST)
	if !next.After(ist) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Sweep queues one reminder per incomplete deadline due within the
// window. Deadlines already overdue are skipped, the board shows them
// but nagging about them daily helps nobody.
func (n *DeadlineNotifier) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := n.now()
	horizon := now.AddDate(0, 0, reminderWindowDays)

	upcoming, err := n.deadlines.ListUpcoming(ctx, horizon)
	if err != nil {
		log.Printf("DeadlineNotifier: sweep failed: %v", err)
		return
	}

	queued := 0
	for _, d := range upcoming {
		days := utils.DaysRemaining(d.DueAt, now)
		if days < 0 || days > reminderWindowDays {
			continue
		}

		push := BuildReminder(d, days)
		select {
		case n.jobQueue <- push:
			queued++
		default:
			log.Printf("DeadlineNotifier: queue full, dropping reminder for %s", d.ID)
		}
	}

	if queued > 0 {
		log.Printf("DeadlineNotifier: queued %d reminders", queued)
	}
}

// BuildReminder renders the reminder push for a deadline. The tag pins
// one notification slot per deadline on the device.
func BuildReminder(d deadline.Deadline, daysRemaining int) notification.Push {
	return notification.Push{
		Title: ReminderTitle(daysRemaining),
		Body:  d.Title,
		Tag:   fmt.Sprintf("deadline_%s", d.ID),
		Data: map[string]string{
			"deadline_id": d.ID.String(),
			"type":        "deadline_reminder",
		},
	}
}

func ReminderTitle(daysRemaining int) string {
	switch daysRemaining {
	case 0:
		return "Deadline due today!"
	case 1:
		return "Deadline due tomorrow"
	default:
		return fmt.Sprintf("Deadline due in %d days", daysRemaining)
	}
}

// Stop drains the worker pool gracefully.
func (n *DeadlineNotifier) Stop() {
	log.Println("Stopping deadline notifier...")
	close(n.stopChan)
	n.wg.Wait()
	log.Println("Deadline notifier stopped")
}
