package interview

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/usecase/retrieval"
	"gopkg.in/yaml.v3"
)

// Profile configures the interviewer for a deployment: who it speaks as, who
// it interviews, and how much grounding context each reply gets.
type Profile struct {
	Persona string `yaml:"persona"`
	Subject string `yaml:"subject"`
	TopK    int    `yaml:"top_k"`
}

func (p Profile) withDefaults() Profile {
	if p.Persona == "" {
		p.Persona = "Memoria"
	}
	if p.TopK <= 0 {
		p.TopK = retrieval.DefaultLimit
	}
	return p
}

// LoadProfile reads a profile from a YAML file
func LoadProfile(path string) (Profile, error) {
	var profile Profile

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, goerr.Wrap(err, "failed to read profile", goerr.V("path", path))
	}

	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, goerr.Wrap(err, "failed to parse profile", goerr.V("path", path))
	}

	return profile, nil
}
