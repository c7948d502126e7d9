package render

import (
	"fmt"
	"strings"

	"subburn/internal/config"
)

// Style holds the process-wide subtitle styling forwarded to libass.
type Style struct {
	FontName  string
	FontSize  int
	Alignment int
	MarginV   int
}

// StyleFromConfig combines the configured sizes with the resolved font name.
func StyleFromConfig(cfg *config.Config, fontName string) Style {
	return Style{
		FontName:  strings.TrimSpace(fontName),
		FontSize:  cfg.Style.FontSize,
		Alignment: cfg.Style.Alignment,
		MarginV:   cfg.Style.MarginV,
	}
}

// Validate checks the numeric ranges libass accepts.
func (s Style) Validate() error {
	if strings.TrimSpace(s.FontName) == "" {
		return fmt.Errorf("style: font name empty")
	}
	if s.FontSize <= 0 {
		return fmt.Errorf("style: font size must be positive, got %d", s.FontSize)
	}
	if s.Alignment < 1 || s.Alignment > 9 {
		return fmt.Errorf("style: alignment must be 1-9, got %d", s.Alignment)
	}
	if s.MarginV < 0 {
		return fmt.Errorf("style: vertical margin must be non-negative, got %d", s.MarginV)
	}
	return nil
}

// ForceStyle renders the force_style value, without the surrounding quotes.
func (s Style) ForceStyle() string {
	return fmt.Sprintf("FontName=%s,FontSize=%d,Alignment=%d,MarginV=%d", s.FontName, s.FontSize, s.Alignment, s.MarginV)
}
