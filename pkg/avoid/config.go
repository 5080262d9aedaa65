package avoid

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

const (
	DefaultConfigFile = "/cfg/avoid.yaml"
	InUseConfigFile   = "/cfg/avoid-in-use.yaml"
)

// ParseProfile reads a profile from YAML.  The "preset" key picks the starting point
// (DefaultPreset if absent) and every other key present overrides it.
func ParseProfile(data []byte) (Profile, error) {
	var header struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return Profile{}, errors.Wrap(err, "failed to parse profile")
	}
	if header.Preset == "" {
		header.Preset = DefaultPreset
	}
	p, err := Preset(header.Preset)
	if err != nil {
		return Profile{}, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, errors.Wrap(err, "failed to parse profile")
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func LoadProfile(path string) (Profile, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Profile{}, errors.Wrap(err, "failed to read profile")
	}
	p, err := ParseProfile(data)
	if err != nil {
		return Profile{}, errors.Wrapf(err, "bad profile %s", path)
	}
	return p, nil
}

// LoadProfileOrDefault falls back to the default preset if there is no config file.  Any
// other failure is returned so the caller can refuse to drive.
func LoadProfileOrDefault(path string) (Profile, error) {
	p, err := LoadProfile(path)
	if os.IsNotExist(errors.Cause(err)) {
		fmt.Println("Avoid: no config at", path, "using preset", DefaultPreset)
		return Preset(DefaultPreset)
	}
	return p, err
}

// WriteProfile records the profile actually in use.
func WriteProfile(path string, p Profile) error {
	data, err := yaml.Marshal(&p)
	if err != nil {
		return errors.Wrap(err, "failed to marshal profile")
	}
	return errors.Wrap(ioutil.WriteFile(path, data, 0666), "failed to write profile")
}
