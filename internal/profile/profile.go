// Package profile stores named answer-checking option maps. Maps are kept
// raw and resolved into an answerset.Options bundle on every read, so later
// changes to defaults reach old profiles.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/answerset/internal/answerset"
)

// DefaultName is the profile used when a request names none.
const DefaultName = "default"

var (
	ErrNotFound    = errors.New("profile not found")
	ErrInvalidName = errors.New("invalid profile name")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

type Profile struct {
	Name      string                 `json:"name"`
	Raw       map[string]interface{} `json:"options"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Limits caps the work done per comparison.
type Limits struct {
	MaxChoices int
	MaxUnits   int
}

// Options resolves the raw map. Zero limits keep the package defaults.
func (p Profile) Options(l Limits, extra ...answerset.Option) *answerset.Options {
	if l.MaxChoices <= 0 {
		l.MaxChoices = answerset.DefaultMaxChoices
	}
	if l.MaxUnits <= 0 {
		l.MaxUnits = answerset.DefaultMaxUnits
	}
	opts := append([]answerset.Option{answerset.WithLimits(l.MaxChoices, l.MaxUnits)}, extra...)
	return answerset.FromMap(p.Raw, opts...)
}

type Store interface {
	Get(ctx context.Context, name string) (Profile, error)
	Put(ctx context.Context, p Profile) (Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Delete(ctx context.Context, name string) error
}

func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// LoadYAML reads an option map such as
//
//	Ignore Case: false
//	Separators: ";,/"
//	Equivalent Strings:
//	  - [colour, color]
func LoadYAML(r io.Reader) (map[string]interface{}, error) {
	raw := map[string]interface{}{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return raw, nil
}

// Seed makes sure the default profile exists. With a path, the file's map
// replaces whatever is stored; without one an existing default is kept.
func Seed(ctx context.Context, s Store, path string) (Profile, error) {
	if path == "" {
		p, err := s.Get(ctx, DefaultName)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Profile{}, err
		}
		return s.Put(ctx, Profile{Name: DefaultName})
	}
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("open options file: %w", err)
	}
	defer f.Close()
	raw, err := LoadYAML(f)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return s.Put(ctx, Profile{Name: DefaultName, Raw: raw})
}
