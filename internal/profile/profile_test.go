package profile

import (
	"encoding/json"
	"testing"
)

func TestParseExperienceLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect ExperienceLevel
	}{
		{"Fresher", ExperienceFresher},
		{"  junior ", ExperienceJunior},
		{"MID", ExperienceMid},
		{"middle", ExperienceMid},
		{"Senior", ExperienceSenior},
		{"lead", ExperienceSenior},
		{"", ExperienceUnknown},
		{"wizard", ExperienceUnknown},
	}

	for _, tt := range tests {
		if got := ParseExperienceLevel(tt.input); got != tt.expect {
			t.Fatalf("ParseExperienceLevel(%q): expected %v, got %v", tt.input, tt.expect, got)
		}
	}
}

func TestExperienceLevelOrdering(t *testing.T) {
	if !(ExperienceFresher < ExperienceJunior && ExperienceJunior < ExperienceMid && ExperienceMid < ExperienceSenior) {
		t.Fatalf("experience levels are not ordered")
	}
	if ExperienceUnknown.Known() {
		t.Fatalf("unknown level must not be known")
	}
}

func TestExperienceLevelJSON(t *testing.T) {
	var c Candidate
	if err := json.Unmarshal([]byte(`{"id":"c1","experience":"Mid"}`), &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Experience != ExperienceMid {
		t.Fatalf("expected Mid, got %v", c.Experience)
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"id":"c1","experience":"Mid"}` {
		t.Fatalf("unexpected json: %s", data)
	}
}

func TestCanonicalSet(t *testing.T) {
	got := CanonicalSet([]string{" React", "react", "", "  ", "JS", "Redux "})
	expect := []string{"react", "js", "redux"}
	if len(got) != len(expect) {
		t.Fatalf("expected %v, got %v", expect, got)
	}
	for i := range expect {
		if got[i] != expect[i] {
			t.Fatalf("expected %v, got %v", expect, got)
		}
	}
}

func TestSameTrack(t *testing.T) {
	if !SameTrack("Frontend ", "frontend") {
		t.Fatalf("expected tracks to match")
	}
	if SameTrack("", "") {
		t.Fatalf("blank tracks must not match")
	}
	if SameTrack("frontend", "backend") {
		t.Fatalf("different tracks must not match")
	}
}

func TestCandidateText(t *testing.T) {
	c := &Candidate{
		ID:         "c1",
		Skills:     []string{"Go", " SQL "},
		Experience: ExperienceJunior,
		Track:      "Backend",
	}

	expect := "Skills: Go, SQL\nExperience: Junior\nTrack: Backend\nInterests: None\nEducation: None"
	if got := c.Text(); got != expect {
		t.Fatalf("unexpected text:\n%s", got)
	}

	if c.Text() != c.Text() {
		t.Fatalf("text must be deterministic")
	}
}

func TestJobText(t *testing.T) {
	j := &Job{
		ID:             "j1",
		Title:          "Go Developer",
		RequiredSkills: []string{"Go"},
		Location:       "Remote",
	}

	expect := "Title: Go Developer\nCompany: None\nSkills: Go\nExperience: None\nTrack: None\nType: None\nLocation: Remote"
	if got := j.Text(); got != expect {
		t.Fatalf("unexpected text:\n%s", got)
	}
}
