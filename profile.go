package folio

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile wraps every validation failure reported by LoadProfile.
var ErrInvalidProfile = errors.New("invalid profile")

// LoadProfile decodes a YAML site profile and validates it. Unknown keys
// are rejected so typos in the file surface at startup.
func LoadProfile(data []byte) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadProfileFile reads and decodes the profile at path.
func LoadProfileFile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return LoadProfile(data)
}

func (p *Profile) validate() error {
	if strings.TrimSpace(p.Company.Name) == "" {
		return fmt.Errorf("%w: company name is required", ErrInvalidProfile)
	}
	if err := validateSocial("company", p.Company.Social); err != nil {
		return err
	}
	for _, person := range p.People {
		if strings.TrimSpace(person.Name) == "" {
			return fmt.Errorf("%w: person %q has no name", ErrInvalidProfile, person.ID)
		}
		if err := validateSocial("person "+person.Name, person.Social); err != nil {
			return err
		}
	}
	seen := make(map[uuid.UUID]struct{}, len(p.Projects))
	for i := range p.Projects {
		proj := &p.Projects[i]
		id, err := uuid.Parse(proj.RawID)
		if err != nil {
			return fmt.Errorf("%w: project %q: uuid: %v", ErrInvalidProfile, proj.Name, err)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate project uuid %s", ErrInvalidProfile, id)
		}
		seen[id] = struct{}{}
		proj.ID = id
		if proj.DemoURL != "" && !isHTTPURL(proj.DemoURL) {
			return fmt.Errorf("%w: project %q: demo url must be http(s)", ErrInvalidProfile, proj.Name)
		}
	}
	return nil
}

func validateSocial(owner string, links []Social) error {
	for _, s := range links {
		switch s.Platform {
		case PlatformLinkedIn, PlatformYouTube, PlatformTwitter, PlatformGitHub:
		default:
			return fmt.Errorf("%w: %s: unknown social platform %q", ErrInvalidProfile, owner, s.Platform)
		}
		if !isHTTPURL(s.URL) {
			return fmt.Errorf("%w: %s: %s url must be http(s)", ErrInvalidProfile, owner, s.Platform)
		}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Project returns the project with the given id.
func (p Profile) Project(id uuid.UUID) (Project, bool) {
	for _, proj := range p.Projects {
		if proj.ID == id {
			return proj, true
		}
	}
	return Project{}, false
}
