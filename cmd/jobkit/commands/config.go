package commands

// appConfig holds process-wide settings.
type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"jobkit"`
	Timezone string `env:"APP_TIMEZONE" envDefault:"UTC"`
}
