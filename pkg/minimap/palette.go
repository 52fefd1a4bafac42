package minimap

import (
	"fmt"
	"image/color"

	"github.com/chenBenjamin97/pool-analyzer/pkg/balls"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette holds every color the minimap is drawn with.
type Palette struct {
	Felt    color.RGBA
	Border  color.RGBA
	Pocket  color.RGBA
	Trail   color.RGBA
	White   color.RGBA
	Black   color.RGBA
	Solid   color.RGBA
	Striped color.RGBA
}

// DefaultPalette returns the standard minimap colors: white cue, black eight, red solids and blue stripes.
func DefaultPalette() Palette {
	return Palette{
		Felt:    color.RGBA{34, 110, 60, 0},
		Border:  color.RGBA{92, 58, 30, 0},
		Pocket:  color.RGBA{10, 10, 10, 0},
		Trail:   color.RGBA{200, 200, 120, 0},
		White:   color.RGBA{255, 255, 255, 0},
		Black:   color.RGBA{0, 0, 0, 0},
		Solid:   color.RGBA{255, 0, 0, 0},
		Striped: color.RGBA{0, 0, 255, 0},
	}
}

// ParsePalette overrides the default palette with hex colors ("#rrggbb") keyed by field name
// ("felt", "border", "pocket", "trail", "white", "black", "solid", "striped").
func ParsePalette(hex map[string]string) (Palette, error) {
	p := DefaultPalette()
	fields := map[string]*color.RGBA{
		"felt":    &p.Felt,
		"border":  &p.Border,
		"pocket":  &p.Pocket,
		"trail":   &p.Trail,
		"white":   &p.White,
		"black":   &p.Black,
		"solid":   &p.Solid,
		"striped": &p.Striped,
	}

	for name, value := range hex {
		field, ok := fields[name]
		if !ok {
			return p, fmt.Errorf("ParsePalette: unknown color '%s'", name)
		}

		c, err := colorful.Hex(value)
		if err != nil {
			return p, fmt.Errorf("ParsePalette: color '%s', got '%v'", name, err)
		}

		r, g, b := c.RGB255()
		*field = color.RGBA{r, g, b, 0}
	}

	return p, nil
}

// ClassColors maps every drawable class to its color.
func (p Palette) ClassColors() map[balls.Class]color.RGBA {
	return map[balls.Class]color.RGBA{
		balls.White:   p.White,
		balls.Black:   p.Black,
		balls.Solid:   p.Solid,
		balls.Striped: p.Striped,
	}
}
