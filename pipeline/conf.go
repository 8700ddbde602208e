/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package pipeline

import (
	"encoding/hex"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/Comcast/sutra/world"
)

// Conf configures an Engine.
type Conf struct {
	// MaxEvalDepth bounds nested evaluation.
	MaxEvalDepth int `json:"maxEvalDepth,omitempty" yaml:"maxEvalDepth,omitempty"`

	// MaxExpandDepth bounds macro re-expansion.
	MaxExpandDepth int `json:"maxExpandDepth,omitempty" yaml:"maxExpandDepth,omitempty"`

	// Seed, if not empty, is the hex representation of a PRNG
	// seed (at most 32 bytes) for new Worlds.  Otherwise new
	// Worlds get entropy.
	Seed string `json:"seed,omitempty" yaml:"seed,omitempty"`

	// MacroFiles are loaded (in order) after the standard
	// macros.
	MacroFiles []string `json:"macroFiles,omitempty" yaml:"macroFiles,omitempty"`

	// Scripts are ECMAScript files that define atoms.
	Scripts []string `json:"scripts,omitempty" yaml:"scripts,omitempty"`

	// Validate enables checking expanded programs before
	// evaluation.
	Validate bool `json:"validate" yaml:"validate"`

	// CacheTTL is how long a compiled program stays cached.  Zero
	// disables caching.
	CacheTTL time.Duration `json:"cacheTTL,omitempty" yaml:"cacheTTL,omitempty"`
}

// DefaultConf returns a new Conf with the default values.
func DefaultConf() *Conf {
	return &Conf{
		MaxEvalDepth:   512,
		MaxExpandDepth: 64,
		Validate:       true,
		CacheTTL:       5 * time.Minute,
	}
}

// ParseConf reads YAML.  Values that the YAML doesn't mention keep
// their defaults.
func ParseConf(bs []byte) (*Conf, error) {
	c := DefaultConf()
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, errors.Wrap(err, "parsing conf")
	}
	if _, _, err := c.ParseSeed(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadConf reads a YAML file.
func LoadConf(filename string) (*Conf, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading conf %s", filename)
	}
	c, err := ParseConf(bs)
	if err != nil {
		return nil, errors.Wrapf(err, "conf %s", filename)
	}
	return c, nil
}

// ParseSeed decodes the Seed.  The second result is false if there's
// no seed.
func (c *Conf) ParseSeed() (world.Seed, bool, error) {
	var seed world.Seed
	if c.Seed == "" {
		return seed, false, nil
	}
	bs, err := hex.DecodeString(c.Seed)
	if err != nil {
		return seed, false, errors.Wrap(err, "seed")
	}
	if world.SeedSize < len(bs) {
		return seed, false, errors.Errorf("seed has %d bytes (max %d)", len(bs), world.SeedSize)
	}
	copy(seed[:], bs)
	return seed, true, nil
}

// NewWorld makes an empty World seeded according to the Conf.
func (c *Conf) NewWorld() (*world.World, error) {
	seed, have, err := c.ParseSeed()
	if err != nil {
		return nil, err
	}
	if have {
		return world.NewSeeded(seed), nil
	}
	return world.New(), nil
}
