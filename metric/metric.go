// Package metric exposes the service's Prometheus counters. Registration is
// done through promauto against the default registry; main mounts the
// promhttp handler on /metrics.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_registrations_accepted_total",
		Help: "Event registrations committed",
	})

	RegistrationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_registrations_rejected_total",
		Help: "Event registrations rejected, by reason",
	}, []string{"reason"})

	RegistrationsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_registrations_cancelled_total",
		Help: "Event registrations cancelled",
	})

	FeedbackRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_feedback_recorded_total",
		Help: "Feedback entries accepted",
	})

	MailAttempted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_mail_attempted_total",
		Help: "Notification mails attempted",
	})

	MailFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_mail_failed_total",
		Help: "Notification mails that failed to send",
	})
)
