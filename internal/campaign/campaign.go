// Package campaign loads the campaign brief that fills the
// [CAMPAIGN DATA] slot of every prompt.
package campaign

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Brief is the YAML campaign brief shared by every run in a batch.
type Brief struct {
	Brand      string `yaml:"brand"`
	Campaign   string `yaml:"campaign"`
	Info       string `yaml:"info"`
	Directions string `yaml:"directions"`
}

func Load(path string) (Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Brief{}, fmt.Errorf("read campaign brief: %w", err)
	}

	var b Brief
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Brief{}, fmt.Errorf("parse campaign brief: %w", err)
	}

	if strings.TrimSpace(b.Info) == "" {
		return Brief{}, errors.New("campaign brief: info is required")
	}
	return b, nil
}

// PromptText renders the brief as the campaign-data block fed to the
// prompt builder.
func (b Brief) PromptText() string {
	var sb strings.Builder

	if name := strings.TrimSpace(b.Brand); name != "" {
		sb.WriteString("Brand: ")
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	if name := strings.TrimSpace(b.Campaign); name != "" {
		sb.WriteString("Campaign: ")
		sb.WriteString(name)
		sb.WriteString("\n")
	}

	sb.WriteString(strings.TrimSpace(b.Info))

	if dir := strings.TrimSpace(b.Directions); dir != "" {
		sb.WriteString("\n\nDirections:\n")
		sb.WriteString(dir)
	}

	return sb.String()
}
