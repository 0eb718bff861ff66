// Package data provides static data definitions for the application.
// These data are maintained manually alongside the command handlers.
package data

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed commands.yaml
var commandsYAML []byte

// CommandInfo documents one command of the help catalog.
type CommandInfo struct {
	Usage       string `yaml:"usage"`
	Description string `yaml:"description"`
	Admin       bool   `yaml:"admin"`
}

// Name returns the command name without the slash and arguments,
// e.g. "apostar" for "/apostar <evento> [opção] [valor]".
func (c CommandInfo) Name() string {
	name, _, _ := strings.Cut(strings.TrimPrefix(c.Usage, "/"), " ")
	return name
}

// Section groups related commands under a title.
type Section struct {
	Title    string        `yaml:"title"`
	Commands []CommandInfo `yaml:"commands"`
}

// Catalog is the help catalog.
type Catalog struct {
	Sections []Section `yaml:"sections"`
	Tips     []string  `yaml:"tips"`
}

// ParseCatalog decodes a catalog document. Every command needs a usage
// starting with "/" and a description.
func ParseCatalog(doc []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(doc, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse command catalog: %w", err)
	}
	if len(c.Sections) == 0 {
		return Catalog{}, fmt.Errorf("parse command catalog: no sections")
	}
	for _, s := range c.Sections {
		for _, cmd := range s.Commands {
			if !strings.HasPrefix(cmd.Usage, "/") || cmd.Description == "" {
				return Catalog{}, fmt.Errorf("parse command catalog: invalid entry %q in %q", cmd.Usage, s.Title)
			}
		}
	}
	return c, nil
}

var loadCatalog = sync.OnceValues(func() (Catalog, error) {
	return ParseCatalog(commandsYAML)
})

// Commands returns the embedded help catalog. It panics when the embedded
// document is invalid, which the package tests rule out.
func Commands() Catalog {
	c, err := loadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}
