package fonts

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font/sfnt"

	"subburn/internal/services"
)

// ResolveName parses the font file at path and returns its family name, the
// value libass matches FontName= against.
func ResolveName(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Wrap(services.ErrFontResolution, "startup", "resolve font", "font path empty", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrFontResolution, "startup", "read font", path, err)
	}
	font, err := parseFirstFont(data)
	if err != nil {
		return "", services.Wrap(services.ErrFontResolution, "startup", "parse font", path, err)
	}

	var buf sfnt.Buffer
	for _, id := range []sfnt.NameID{sfnt.NameIDFamily, sfnt.NameIDTypographicFamily} {
		name, err := font.Name(&buf, id)
		if err != nil {
			if errors.Is(err, sfnt.ErrNotFound) {
				continue
			}
			return "", services.Wrap(services.ErrFontResolution, "startup", "read font name", path, err)
		}
		if name = strings.TrimSpace(name); name != "" {
			return name, nil
		}
	}
	return "", services.Wrap(services.ErrFontResolution, "startup", "read font name", fmt.Sprintf("%s has no family name", path), nil)
}

// parseFirstFont accepts single fonts and collections; collections yield
// their first face.
func parseFirstFont(data []byte) (*sfnt.Font, error) {
	font, err := sfnt.Parse(data)
	if err == nil {
		return font, nil
	}
	collection, collErr := sfnt.ParseCollection(data)
	if collErr != nil || collection.NumFonts() == 0 {
		return nil, err
	}
	return collection.Font(0)
}
