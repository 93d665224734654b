package roster

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

// MaxTraitValue is the upper bound of every reference trait value.
const MaxTraitValue = 10.0

var (
	ErrEmptyRoster      = errors.New("roster is empty")
	ErrDuplicateProfile = errors.New("duplicate profile id")
	ErrUnknownProfile   = errors.New("unknown profile id")
	ErrInvalidProfile   = errors.New("invalid profile")
)

//go:embed profiles.yaml
var defaultRoster []byte

type Category string

const (
	CategorySorcerer Category = "sorcerer"
	CategoryCurse    Category = "curse"
)

// Profile is one selectable entry. Affinity and Opposition refer to other
// profiles by id.
type Profile struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Category    Category      `json:"category" yaml:"category"`
	Hidden      bool          `json:"hidden" yaml:"hidden"`
	Traits      traits.Vector `json:"traits" yaml:"traits"`
	Affinity    string        `json:"affinity,omitempty" yaml:"affinity"`
	Opposition  string        `json:"opposition,omitempty" yaml:"opposition"`
	Description string        `json:"description,omitempty" yaml:"description"`
}

// Roster is the ordered, read-only profile list. Order matters: it breaks
// ties during selection, and Version identifies it.
type Roster struct {
	version  string
	profiles []Profile
	index    map[string]int
}

type document struct {
	Version  string    `yaml:"version"`
	Profiles []Profile `yaml:"profiles"`
}

// New validates profiles and builds a Roster. The slice is copied.
func New(version string, profiles []Profile) (*Roster, error) {
	if len(profiles) == 0 {
		return nil, ErrEmptyRoster
	}

	r := &Roster{
		version:  version,
		profiles: make([]Profile, len(profiles)),
		index:    make(map[string]int, len(profiles)),
	}
	copy(r.profiles, profiles)

	for i, p := range r.profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: profile at position %d has no id", ErrInvalidProfile, i)
		}
		if _, dup := r.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, p.ID)
		}
		switch p.Category {
		case CategorySorcerer, CategoryCurse:
		case "":
			r.profiles[i].Category = CategorySorcerer
		default:
			return nil, fmt.Errorf("%w: %s has category %q", ErrInvalidProfile, p.ID, p.Category)
		}
		if err := p.Traits.CheckRange(MaxTraitValue); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.ID, err)
		}
		r.index[p.ID] = i
	}

	for _, p := range r.profiles {
		for _, link := range []string{p.Affinity, p.Opposition} {
			if link == "" {
				continue
			}
			if _, ok := r.index[link]; !ok {
				return nil, fmt.Errorf("%w: %s links to %s", ErrUnknownProfile, p.ID, link)
			}
		}
	}

	return r, nil
}

// Parse decodes a YAML roster document.
func Parse(data []byte) (*Roster, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	return New(doc.Version, doc.Profiles)
}

// Default returns the embedded roster.
func Default() (*Roster, error) {
	return Parse(defaultRoster)
}

// Marshal encodes the roster back into its YAML document form.
func (r *Roster) Marshal() ([]byte, error) {
	return yaml.Marshal(document{Version: r.version, Profiles: r.profiles})
}

func (r *Roster) Version() string { return r.version }

func (r *Roster) Len() int { return len(r.profiles) }

// All returns a copy of every profile in roster order.
func (r *Roster) All() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Visible returns the profiles that are not hidden, in roster order.
func (r *Roster) Visible() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if !p.Hidden {
			out = append(out, p)
		}
	}
	return out
}

func (r *Roster) ByID(id string) (Profile, bool) {
	i, ok := r.index[id]
	if !ok {
		return Profile{}, false
	}
	return r.profiles[i], true
}

func (r *Roster) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Affinity resolves the profile linked as id's best counterpart.
func (r *Roster) Affinity(id string) (Profile, bool) {
	p, ok := r.ByID(id)
	if !ok || p.Affinity == "" {
		return Profile{}, false
	}
	return r.ByID(p.Affinity)
}

// Opposition resolves the profile linked as id's rival.
func (r *Roster) Opposition(id string) (Profile, bool) {
	p, ok := r.ByID(id)
	if !ok || p.Opposition == "" {
		return Profile{}, false
	}
	return r.ByID(p.Opposition)
}
