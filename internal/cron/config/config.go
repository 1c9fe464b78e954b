package cron_config

type Config struct {
	// Mailbox fetch, hourly
	CronScheduleFetch string `env:"CRON_SCHEDULE_FETCH" envDefault:"0 0 * * * *"`
}
