package absa

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var builtinProfiles embed.FS

// Profile is the per-domain configuration of the inference pipeline: the category taxonomy, the
// few-shot examples injected into the prompt, and the default file names.
type Profile struct {
	Name string `yaml:"name"`

	// Domain names the review domain inside the prompt (e.g. 餐廳).
	Domain string `yaml:"domain"`

	InputFile  string `yaml:"input_file"`
	OutputFile string `yaml:"output_file"`

	EntityLabels    []string `yaml:"entity_labels"`
	AttributeLabels []string `yaml:"attribute_labels"`

	// ArousalExamples and ValenceExamples are annotated JSON lines copied into the prompt verbatim.
	ArousalExamples []string `yaml:"arousal_examples"`
	ValenceExamples []string `yaml:"valence_examples"`
}

// BuiltinProfileNames lists the embedded profiles in name order.
func BuiltinProfileNames() []string {
	entries, err := builtinProfiles.ReadDir("profiles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// LoadProfile returns the built-in profile called nameOrPath, or else reads nameOrPath as a YAML file.
func LoadProfile(nameOrPath string) (Profile, error) {
	nameOrPath = strings.TrimSpace(nameOrPath)
	if nameOrPath == "" {
		return Profile{}, errors.New("LoadProfile: name is empty")
	}

	b, err := builtinProfiles.ReadFile("profiles/" + strings.ToLower(nameOrPath) + ".yaml")
	if err != nil {
		b, err = os.ReadFile(nameOrPath)
		if err != nil {
			return Profile{}, fmt.Errorf("LoadProfile: %q is not a built-in profile (%s) and could not be read: %w",
				nameOrPath, strings.Join(BuiltinProfileNames(), ", "), err)
		}
	}
	p, err := ParseProfile(b)
	if err != nil {
		return Profile{}, fmt.Errorf("LoadProfile: %s: %w", nameOrPath, err)
	}
	return p, nil
}

// ParseProfile decodes and validates a YAML profile. Unknown keys are rejected.
func ParseProfile(b []byte) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode yaml: %w", err)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Domain = strings.TrimSpace(p.Domain)
	p.EntityLabels = dedupeLabels(p.EntityLabels)
	p.AttributeLabels = dedupeLabels(p.AttributeLabels)
	p.ArousalExamples = nonEmpty(p.ArousalExamples)
	p.ValenceExamples = nonEmpty(p.ValenceExamples)
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p Profile) Validate() error {
	if p.Name == "" {
		return errors.New("profile name is empty")
	}
	if p.Domain == "" {
		return errors.New("profile domain is empty")
	}
	if len(p.EntityLabels) == 0 {
		return errors.New("profile has no entity labels")
	}
	if len(p.AttributeLabels) == 0 {
		return errors.New("profile has no attribute labels")
	}
	if p.OutputFile == "" {
		return errors.New("profile output_file is empty")
	}
	return nil
}

// Categories returns the label list injected into the prompt: entity labels followed by attribute
// labels.
func (p Profile) Categories() []string {
	out := make([]string, 0, len(p.EntityLabels)+len(p.AttributeLabels))
	out = append(out, p.EntityLabels...)
	out = append(out, p.AttributeLabels...)
	return out
}

// CategoryIndex maps each label in Categories to its position. A label present in both halves keeps
// its later position.
func (p Profile) CategoryIndex() map[string]int {
	cats := p.Categories()
	idx := make(map[string]int, len(cats))
	for i, c := range cats {
		idx[c] = i
	}
	return idx
}

// InTaxonomy reports whether category is ENTITY#ATTRIBUTE with both halves drawn from the profile.
func (p Profile) InTaxonomy(category string) bool {
	entity, attribute, ok := strings.Cut(category, "#")
	if !ok {
		return false
	}
	return containsLabel(p.EntityLabels, entity) && containsLabel(p.AttributeLabels, attribute)
}

func containsLabel(labels []string, s string) bool {
	for _, l := range labels {
		if l == s {
			return true
		}
	}
	return false
}

func dedupeLabels(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToUpper(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func nonEmpty(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
