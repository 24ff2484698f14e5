package jobs

import (
	"context"
	"fmt"

	"github.com/gatherhall/server/internal/email"
	"github.com/riverqueue/river"
)

type WelcomeEmailArgs struct {
	To   string `json:"to"`
	Name string `json:"name"`
}

func (WelcomeEmailArgs) Kind() string { return JobKindWelcomeEmail }

type PasswordResetEmailArgs struct {
	To        string `json:"to"`
	Name      string `json:"name"`
	ResetLink string `json:"reset_link"`
}

func (PasswordResetEmailArgs) Kind() string { return JobKindPasswordReset }

type RegistrationEmailArgs struct {
	To         string `json:"to"`
	Name       string `json:"name"`
	EventTitle string `json:"event_title"`
	EventDate  string `json:"event_date"`
	Location   string `json:"location"`
}

func (RegistrationEmailArgs) Kind() string { return JobKindRegistrationEmail }

type WelcomeEmailWorker struct {
	river.WorkerDefaults[WelcomeEmailArgs]
	Emails *email.Service
}

func (WelcomeEmailWorker) Kind() string { return JobKindWelcomeEmail }

func (w WelcomeEmailWorker) Work(ctx context.Context, job *river.Job[WelcomeEmailArgs]) error {
	if w.Emails == nil {
		return fmt.Errorf("email service not configured")
	}
	return w.Emails.SendWelcome(ctx, job.Args.To, job.Args.Name)
}

type PasswordResetEmailWorker struct {
	river.WorkerDefaults[PasswordResetEmailArgs]
	Emails *email.Service
}

func (PasswordResetEmailWorker) Kind() string { return JobKindPasswordReset }

func (w PasswordResetEmailWorker) Work(ctx context.Context, job *river.Job[PasswordResetEmailArgs]) error {
	if w.Emails == nil {
		return fmt.Errorf("email service not configured")
	}
	return w.Emails.SendPasswordReset(ctx, job.Args.To, job.Args.Name, job.Args.ResetLink)
}

type RegistrationEmailWorker struct {
	river.WorkerDefaults[RegistrationEmailArgs]
	Emails *email.Service
}

func (RegistrationEmailWorker) Kind() string { return JobKindRegistrationEmail }

func (w RegistrationEmailWorker) Work(ctx context.Context, job *river.Job[RegistrationEmailArgs]) error {
	if w.Emails == nil {
		return fmt.Errorf("email service not configured")
	}
	return w.Emails.SendRegistrationConfirmation(ctx, job.Args.To, job.Args.Name, job.Args.EventTitle, job.Args.EventDate, job.Args.Location)
}

// NewWorkers registers every notification worker against the given email service.
func NewWorkers(emails *email.Service) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker[WelcomeEmailArgs](workers, WelcomeEmailWorker{Emails: emails})
	river.AddWorker[PasswordResetEmailArgs](workers, PasswordResetEmailWorker{Emails: emails})
	river.AddWorker[RegistrationEmailArgs](workers, RegistrationEmailWorker{Emails: emails})
	return workers
}
