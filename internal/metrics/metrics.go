package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cvisual"

// Registry holds every metric exported on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo exposes build metadata as labels; the value is always 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always 1, details in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// Content metrics
var (
	// ContentMutations counts admin writes by entity and action.
	ContentMutations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_mutations_total",
			Help:      "Admin create, update and delete operations on site content",
		},
		[]string{"entity", "action"},
	)

	BlogViews = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blog_post_views_total",
			Help:      "Blog post reads that incremented a view counter",
		},
	)

	ContactSubmissions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_submissions_total",
			Help:      "Contact form submissions by outcome",
		},
		[]string{"outcome"}, // stored|invalid|error
	)

	NewsletterSubscriptions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "newsletter_subscriptions_total",
			Help:      "Newsletter subscribe requests by outcome",
		},
		[]string{"outcome"}, // created|existing|invalid
	)

	MediaUploads = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_uploads_total",
			Help:      "Files sent to the asset host by outcome",
		},
		[]string{"outcome"}, // success|failed|rejected
	)

	LoginAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Admin login attempts by outcome",
		},
		[]string{"outcome"}, // success|failure
	)

	EmailNotifications = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_notifications_total",
			Help:      "Notification emails by outcome",
		},
		[]string{"outcome"}, // sent|failed|skipped
	)
)

var initOnce sync.Once

// Init registers runtime collectors and records build information. Calling
// it more than once is harmless.
func Init(version, commit, buildDate string) {
	initOnce.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	AppInfo.Reset()
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
