package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTelegram(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeDelivery()
	c.normalizeStorage()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Style.FontFile, err = expandPath(strings.TrimSpace(c.Style.FontFile)); err != nil {
		return fmt.Errorf("style.font_file: %w", err)
	}
	return nil
}

// normalizeTelegram resolves the bot token. Precedence: telegram.token,
// SUBBURN_BOT_TOKEN, then the contents of telegram.token_file.
func (c *Config) normalizeTelegram() error {
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	if c.Telegram.Token == "" {
		if value, ok := os.LookupEnv("SUBBURN_BOT_TOKEN"); ok {
			c.Telegram.Token = strings.TrimSpace(value)
		}
	}
	c.Telegram.APIEndpoint = strings.TrimSpace(c.Telegram.APIEndpoint)

	tokenFile := strings.TrimSpace(c.Telegram.TokenFile)
	if tokenFile == "" {
		return nil
	}
	expanded, err := expandPath(tokenFile)
	if err != nil {
		return fmt.Errorf("telegram.token_file: %w", err)
	}
	c.Telegram.TokenFile = expanded
	if c.Telegram.Token != "" {
		return nil
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("telegram.token_file: read %s: %w", expanded, err)
	}
	c.Telegram.Token = strings.TrimSpace(string(data))
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.ProbeBinary = strings.TrimSpace(c.FFmpeg.ProbeBinary)
	if c.FFmpeg.ProbeBinary == "" {
		c.FFmpeg.ProbeBinary = defaultFFprobeBinary
	}
	c.FFmpeg.VideoCodec = strings.TrimSpace(c.FFmpeg.VideoCodec)
	if c.FFmpeg.VideoCodec == "" {
		c.FFmpeg.VideoCodec = defaultVideoCodec
	}
	c.FFmpeg.FCListBinary = strings.TrimSpace(c.FFmpeg.FCListBinary)
	if c.FFmpeg.FCListBinary == "" {
		c.FFmpeg.FCListBinary = defaultFCListBinary
	}
	c.FFmpeg.FCCacheBinary = strings.TrimSpace(c.FFmpeg.FCCacheBinary)
	if c.FFmpeg.FCCacheBinary == "" {
		c.FFmpeg.FCCacheBinary = defaultFCCacheBinary
	}
}

func (c *Config) normalizeDelivery() {
	c.Delivery.Mode = strings.ToLower(strings.TrimSpace(c.Delivery.Mode))
	if c.Delivery.Mode == "" {
		c.Delivery.Mode = DeliveryInline
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	c.Storage.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.PublicBaseURL), "/")
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	if c.Storage.AccessKey == "" {
		if value, ok := os.LookupEnv("SUBBURN_STORAGE_ACCESS_KEY"); ok {
			c.Storage.AccessKey = strings.TrimSpace(value)
		}
	}
	if c.Storage.SecretKey == "" {
		if value, ok := os.LookupEnv("SUBBURN_STORAGE_SECRET_KEY"); ok {
			c.Storage.SecretKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
