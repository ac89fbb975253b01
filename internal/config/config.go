// Package config loads seatwatch settings from the environment and an optional
// venue layout file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/seatwatch/internal/scraper"
	"github.com/pfrederiksen/seatwatch/internal/seat"
)

// Environment variables read by seatwatch
const (
	EnvTelegramToken  = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
	EnvBaseURL        = "SEATWATCH_BASE_URL"
)

// Env holds settings taken from environment variables
type Env struct {
	TelegramToken  string
	TelegramChatID string
	BaseURL        string
}

// LoadEnv loads variables from the given .env files, if they exist, and
// returns the seatwatch settings. Variables already set in the process
// environment win over the files.
func LoadEnv(files ...string) (Env, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Env{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	env := Env{
		TelegramToken:  os.Getenv(EnvTelegramToken),
		TelegramChatID: os.Getenv(EnvTelegramChatID),
		BaseURL:        os.Getenv(EnvBaseURL),
	}
	if env.BaseURL == "" {
		env.BaseURL = scraper.DefaultBaseURL
	}
	return env, nil
}

// Venue describes the seat map layout of a theatre
type Venue struct {
	seat.Layout `yaml:",inline"`
	Selector    string `yaml:"selector"`
}

// DefaultVenue returns the layout of the AMC seat map
func DefaultVenue() Venue {
	return Venue{
		Layout:   seat.DefaultLayout(),
		Selector: scraper.DefaultSelector,
	}
}

// LoadVenue reads a venue YAML file. Fields missing from the file keep their defaults.
//
//	row_capacity: 24
//	row_letters: ABCDEFGHJKLMN
//	selector: '[class*="mx-1"]'
func LoadVenue(path string) (Venue, error) {
	venue := DefaultVenue()
	if path == "" {
		return venue, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Venue{}, fmt.Errorf("reading venue file: %w", err)
	}

	if err := yaml.Unmarshal(data, &venue); err != nil {
		return Venue{}, fmt.Errorf("parsing venue file: %w", err)
	}

	if err := venue.Layout.Validate(); err != nil {
		return Venue{}, err
	}
	if venue.Selector == "" {
		venue.Selector = scraper.DefaultSelector
	}

	return venue, nil
}
