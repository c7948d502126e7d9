package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateStyle(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateJanitor(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateStartup checks the settings the bot cannot start without: the
// transport credential and a readable font file. CLI helpers that never talk
// to Telegram skip this.
func (c *Config) ValidateStartup() error {
	if c.Telegram.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/subburn/config.toml"
		}
		return fmt.Errorf("telegram.token is required. Set SUBBURN_BOT_TOKEN, telegram.token_file, or edit %s (create with 'subburn config init')", defaultPath)
	}
	if c.Style.FontFile == "" {
		return errors.New("style.font_file must be set")
	}
	info, err := os.Stat(c.Style.FontFile)
	if err != nil {
		return fmt.Errorf("style.font_file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("style.font_file: %s is a directory", c.Style.FontFile)
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.PollTimeout < 0 {
		return errors.New("telegram.poll_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateStyle() error {
	if c.Style.FontSize <= 0 {
		return errors.New("style.font_size must be positive")
	}
	if c.Style.Alignment < 1 || c.Style.Alignment > 9 {
		return errors.New("style.alignment must be between 1 and 9")
	}
	if c.Style.MarginV < 0 {
		return errors.New("style.margin_v must not be negative")
	}
	return nil
}

func (c *Config) validateDelivery() error {
	switch c.Delivery.Mode {
	case DeliveryInline:
		if c.Delivery.MaxInlineMB <= 0 {
			return errors.New("delivery.max_inline_mb must be positive")
		}
		return nil
	case DeliveryLink:
		return c.validateStorage()
	default:
		return fmt.Errorf("delivery.mode: unsupported value %q (want %q or %q)", c.Delivery.Mode, DeliveryInline, DeliveryLink)
	}
}

func (c *Config) validateStorage() error {
	missing := make([]string, 0, 4)
	if c.Storage.Endpoint == "" {
		missing = append(missing, "storage.endpoint")
	}
	if c.Storage.Bucket == "" {
		missing = append(missing, "storage.bucket")
	}
	if strings.TrimSpace(c.Storage.AccessKey) == "" {
		missing = append(missing, "storage.access_key")
	}
	if strings.TrimSpace(c.Storage.SecretKey) == "" {
		missing = append(missing, "storage.secret_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s must be set when delivery.mode is %q", strings.Join(missing, ", "), DeliveryLink)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateJanitor() error {
	if c.Janitor.StaleAfterMinutes <= 0 {
		return errors.New("janitor.stale_after_minutes must be positive")
	}
	if c.Janitor.IntervalMinutes <= 0 {
		return errors.New("janitor.interval_minutes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}
