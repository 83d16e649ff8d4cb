// Package config loads engine settings: per-channel timing policy and daily
// limits plus scheduler tuning from a YAML file, with defaults mirroring the
// stock outreach setup.
package config

import (
    "fmt"
    "time"

    "github.com/spf13/viper"

    "github.com/designgaga/outreach-backend/internal/model"
    "github.com/designgaga/outreach-backend/internal/timing"
)

// ChannelSettings is the raw per-channel configuration as it appears in the
// config file.
type ChannelSettings struct {
    OptimalTimes      []string `mapstructure:"optimal_times"`
    QuietStart        string   `mapstructure:"quiet_start"`
    QuietEnd          string   `mapstructure:"quiet_end"`
    FrequencyCapHours int      `mapstructure:"frequency_cap_hours"`
    DailyLimit        int      `mapstructure:"daily_limit"`
}

// SchedulerSettings tunes the poll loop.
type SchedulerSettings struct {
    TickInterval    time.Duration `mapstructure:"tick_interval"`
    DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
    MaxConcurrent   int           `mapstructure:"max_concurrent"`
}

// Config is the full engine configuration.
type Config struct {
    Port      string                     `mapstructure:"port"`
    LogLevel  string                     `mapstructure:"log_level"`
    Scheduler SchedulerSettings          `mapstructure:"scheduler"`
    Channels  map[string]ChannelSettings `mapstructure:"channels"`
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("port", "8080")
    v.SetDefault("log_level", "info")

    v.SetDefault("scheduler.tick_interval", "60s")
    v.SetDefault("scheduler.dispatch_timeout", "30s")
    v.SetDefault("scheduler.max_concurrent", 8)

    v.SetDefault("channels.email.optimal_times", []string{"09:30", "11:00", "14:30", "16:00"})
    v.SetDefault("channels.email.quiet_start", "18:00")
    v.SetDefault("channels.email.quiet_end", "08:00")
    v.SetDefault("channels.email.frequency_cap_hours", 24)
    v.SetDefault("channels.email.daily_limit", 200)

    v.SetDefault("channels.whatsapp.optimal_times", []string{"10:00", "15:00"})
    v.SetDefault("channels.whatsapp.quiet_start", "19:00")
    v.SetDefault("channels.whatsapp.quiet_end", "09:00")
    v.SetDefault("channels.whatsapp.frequency_cap_hours", 48)
    v.SetDefault("channels.whatsapp.daily_limit", 50)

    v.SetDefault("channels.sms.optimal_times", []string{"10:00", "16:30"})
    v.SetDefault("channels.sms.quiet_start", "20:00")
    v.SetDefault("channels.sms.quiet_end", "09:00")
    v.SetDefault("channels.sms.frequency_cap_hours", 24)
    v.SetDefault("channels.sms.daily_limit", 100)
}

// Load reads the config file at path ("" means defaults only) and
// environment overrides prefixed OUTREACH_.
func Load(path string) (*Config, error) {
    v := viper.New()
    setDefaults(v)
    v.SetEnvPrefix("OUTREACH")
    v.AutomaticEnv()

    if path != "" {
        v.SetConfigFile(path)
        if err := v.ReadInConfig(); err != nil {
            return nil, fmt.Errorf("read config %s: %w", path, err)
        }
    }

    var cfg Config
    if err := v.Unmarshal(&cfg); err != nil {
        return nil, fmt.Errorf("unmarshal config: %w", err)
    }
    return &cfg, nil
}

// TimingPolicies converts the raw channel settings into parsed policies.
func (c *Config) TimingPolicies() (timing.Set, error) {
    set := make(timing.Set, len(c.Channels))
    for name, raw := range c.Channels {
        ch := model.Channel(name)
        if !ch.Valid() {
            return nil, fmt.Errorf("config: unsupported channel %q", name)
        }

        p := timing.Policy{FrequencyCap: time.Duration(raw.FrequencyCapHours) * time.Hour}
        for _, s := range raw.OptimalTimes {
            tod, err := timing.ParseTimeOfDay(s)
            if err != nil {
                return nil, fmt.Errorf("config: channel %s: %w", name, err)
            }
            p.OptimalTimes = append(p.OptimalTimes, tod)
        }
        if len(p.OptimalTimes) == 0 {
            return nil, fmt.Errorf("config: channel %s has no optimal_times", name)
        }

        if raw.QuietStart != "" || raw.QuietEnd != "" {
            start, err := timing.ParseTimeOfDay(raw.QuietStart)
            if err != nil {
                return nil, fmt.Errorf("config: channel %s: %w", name, err)
            }
            end, err := timing.ParseTimeOfDay(raw.QuietEnd)
            if err != nil {
                return nil, fmt.Errorf("config: channel %s: %w", name, err)
            }
            p.Quiet = timing.QuietWindow{Start: start, End: end}
        }

        set[ch] = p
    }
    return set, nil
}

// DailyLimits returns the per-channel daily send caps.
func (c *Config) DailyLimits() map[model.Channel]int {
    limits := make(map[model.Channel]int, len(c.Channels))
    for name, raw := range c.Channels {
        limits[model.Channel(name)] = raw.DailyLimit
    }
    return limits
}
