// ABOUTME: Interactive crop selection with a huh form
// ABOUTME: Offered when the service cannot identify the crop in a photo

package croppicker

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/agrisense/leafdoctor/cli/internal/client"
)

// ErrNoSupportedCrops is returned when the service reports no diagnosable crops
var ErrNoSupportedCrops = errors.New("service has no supported crops")

// Options returns one select option per supported crop
func Options(crops []client.CropInfo) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, c := range crops {
		if !c.Supported {
			continue
		}
		label := c.Name
		if label == "" {
			label = c.Crop
		}
		opts = append(opts, huh.NewOption(label, c.Crop))
	}
	return opts
}

// NewForm builds the crop select bound to value
func NewForm(crops []client.CropInfo, value *string) (*huh.Form, error) {
	opts := Options(crops)
	if len(opts) == 0 {
		return nil, ErrNoSupportedCrops
	}
	*value = opts[0].Value
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which crop is this?").
				Description("The crop could not be identified from the photo.").
				Options(opts...).
				Value(value),
		),
	).WithTheme(theme()), nil
}

// Pick asks the user to choose a crop and returns its name
func Pick(crops []client.CropInfo) (string, error) {
	var crop string
	form, err := NewForm(crops, &crop)
	if err != nil {
		return "", err
	}
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("crop selection: %w", err)
	}
	return crop, nil
}

func theme() *huh.Theme {
	t := huh.ThemeBase()

	green := lipgloss.Color("#16A34A")
	greenLight := lipgloss.Color("#4ADE80")
	gray := lipgloss.Color("#9CA3AF")
	grayLight := lipgloss.Color("#E5E7EB")

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(green)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(greenLight).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(green).
		SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().
		Foreground(grayLight)
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(green).
		Bold(true)
	return t
}
