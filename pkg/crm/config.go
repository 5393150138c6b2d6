package crm

import "time"

// DefaultBaseURL is the CRM API root.
const DefaultBaseURL = "https://services.leadconnectorhq.com"

// DefaultMaxRetries is the number of retries after the first attempt when
// Config.MaxRetries is unset.
const DefaultMaxRetries = 3

// APIVersion is sent in the Version header on every request.
const APIVersion = "2021-07-28"

// Config holds CRM connection settings. A nil MaxRetries means the client
// default (3); zero means a single attempt.
type Config struct {
	BaseURL          string        `env:"CRM_BASE_URL" envDefault:"https://services.leadconnectorhq.com"`
	Token            string        `env:"CRM_TOKEN"`
	LocationID       string        `env:"CRM_LOCATION_ID"`
	CalendarID       string        `env:"CRM_CALENDAR_ID"`
	AssignedUserID   string        `env:"CRM_ASSIGNED_USER_ID"`
	MaxRetries       *int          `env:"CRM_MAX_RETRIES" envDefault:"3"`
	BaseDelay        time.Duration `env:"CRM_BASE_DELAY" envDefault:"1s"`
	MaxDelay         time.Duration `env:"CRM_MAX_DELAY" envDefault:"30s"`
	RequestTimeout   time.Duration `env:"CRM_REQUEST_TIMEOUT" envDefault:"10s"`
	AppointmentTitle string        `env:"CRM_APPOINTMENT_TITLE" envDefault:"Booking"`
}

// Enabled reports whether a token is configured.
func (c Config) Enabled() bool { return c.Token != "" }
