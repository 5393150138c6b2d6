package notification

// Config holds notification settings.
type Config struct {
	Brand      string `env:"NOTIFICATION_BRAND" envDefault:"Bookings"`
	AlertEmail string `env:"ALERT_EMAIL"`
}
