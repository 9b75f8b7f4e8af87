package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_SchedulerConfig(t *testing.T) {
	t.Setenv("SCHEDULER_NOSHOW_CUTOFF", "15:30")
	t.Setenv("SCHEDULER_REMINDER_LEAD", "48h")
	t.Setenv("SCHEDULER_REMINDER_INTERVAL", "5m")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "15:30", cfg.Scheduler.NoShowCutoff)
	assert.Equal(t, 48*time.Hour, cfg.Scheduler.ReminderLead)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.ReminderInterval)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 1, cfg.Scheduler.HorizonMonths)
	assert.Equal(t, "14:00", cfg.Scheduler.NoShowCutoff)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.ReminderLead)
	assert.Equal(t, time.Minute, cfg.Scheduler.ReminderInterval)
	assert.Equal(t, "clinic_scheduling", cfg.Database.Database)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "clinic",
		Password: "secret",
		Database: "scheduling",
		SSLMode:  "require",
	}
	assert.Equal(t, "host=db port=5433 user=clinic password=secret dbname=scheduling sslmode=require", cfg.DatabaseDSN())
}
