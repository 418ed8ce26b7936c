package absa

import (
	"strings"
	"testing"
)

func TestBuildPrompt_IncludesTextCategoriesAndExamples(t *testing.T) {
	t.Parallel()

	for _, name := range BuiltinProfileNames() {
		p, err := LoadProfile(name)
		if err != nil {
			t.Fatalf("LoadProfile(%s): %v", name, err)
		}
		text := "這家店的滷肉飯超級好吃，但是排隊太久。"
		prompt := BuildPrompt(p, text)

		if !strings.Contains(prompt, `"`+text+`"`) {
			t.Fatalf("%s: prompt missing quoted review text", name)
		}
		if !strings.Contains(prompt, "中文"+p.Domain+"評論") {
			t.Fatalf("%s: prompt missing domain", name)
		}
		if !strings.Contains(prompt, strings.Join(p.Categories(), ", ")) {
			t.Fatalf("%s: prompt missing category list", name)
		}
		for _, ex := range append(append([]string{}, p.ArousalExamples...), p.ValenceExamples...) {
			if !strings.Contains(prompt, ex) {
				t.Fatalf("%s: prompt missing example %q", name, ex)
			}
		}
		arousal := strings.Index(prompt, "golden arousal example")
		valence := strings.Index(prompt, "golden valence example")
		footer := strings.Index(prompt, "回應格式 (JSON Array)")
		if arousal < 0 || valence < arousal || footer < valence {
			t.Fatalf("%s: sections out of order (arousal=%d valence=%d footer=%d)", name, arousal, valence, footer)
		}
	}
}

func TestBuildPrompt_NoExamples(t *testing.T) {
	t.Parallel()

	p := Profile{Name: "x", Domain: "飯店", OutputFile: "o", EntityLabels: []string{"ROOM"}, AttributeLabels: []string{"GENERAL"}}
	prompt := BuildPrompt(p, "房間乾淨")
	if strings.Contains(prompt, "golden") {
		t.Fatalf("prompt should not carry example headings without examples")
	}
	if !strings.Contains(prompt, "ROOM, GENERAL") {
		t.Fatalf("prompt missing category list")
	}
}
