package profile

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/fakeyudi/oximon/internal/session"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if Exists() {
		t.Fatal("expected no profile in a fresh home")
	}
	want := &Profile{Name: "Dana", Users: []string{"Grandma"}, DefaultUser: "Grandma"}
	if err := Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("expected profile to exist after Save")
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch: want %+v, got %+v", want, got)
	}
}

func TestLoadMissingProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "oximon setup") {
		t.Fatalf("expected setup hint, got %v", err)
	}
}

func TestRosterMergesAndDedupes(t *testing.T) {
	prof := &Profile{Users: []string{"user 2", "Grandma", " ", "grandma"}}
	got := Roster([]string{"User 1", "User 2"}, prof)
	want := []string{"User 1", "User 2", "Grandma"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Roster: want %v, got %v", want, got)
	}
	if got := Roster([]string{"User 1"}, nil); len(got) != 1 {
		t.Errorf("Roster with nil profile: got %v", got)
	}
}

func TestRosterEntriesGetSeparateLogs(t *testing.T) {
	got := Roster([]string{"User 1", "User-1", "user 1"}, nil)
	want := []string{"User 1", "User-1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Roster = %v, want %v", got, want)
	}
	seen := map[string]string{}
	for _, u := range got {
		name := session.FileName(u)
		if prev, ok := seen[name]; ok {
			t.Errorf("%q and %q share log file %s", prev, u, name)
		}
		seen[name] = u
	}
}

func TestAddUser(t *testing.T) {
	p := &Profile{}
	if !p.AddUser("Alice") {
		t.Error("expected first add to change the profile")
	}
	if p.AddUser("ALICE") {
		t.Error("expected case-insensitive duplicate to be ignored")
	}
	if p.AddUser("  ") {
		t.Error("expected blank name to be ignored")
	}
	if len(p.Users) != 1 {
		t.Errorf("Users: got %v", p.Users)
	}
}

func TestRunSetupUsesAnswersAndDefaults(t *testing.T) {
	in := strings.NewReader("Dana\nGrandma, Uncle Bob\n\n")
	var out bytes.Buffer

	prof, err := RunSetup(in, &out, nil, []string{"User 1", "User 2"})
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if prof.Name != "Dana" {
		t.Errorf("Name: got %q", prof.Name)
	}
	if !reflect.DeepEqual(prof.Users, []string{"Grandma", "Uncle Bob"}) {
		t.Errorf("Users: got %v", prof.Users)
	}
	if prof.DefaultUser != "User 1" {
		t.Errorf("DefaultUser: want roster default, got %q", prof.DefaultUser)
	}
	if !strings.Contains(out.String(), "first-time setup") {
		t.Error("expected the setup banner to be printed")
	}
}

func TestRunSetupEditKeepsExisting(t *testing.T) {
	existing := &Profile{Name: "Dana", Users: []string{"Grandma"}, DefaultUser: "Grandma"}
	prof, err := RunSetup(strings.NewReader("\n\n\n"), &bytes.Buffer{}, existing, nil)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if !reflect.DeepEqual(prof, existing) {
		t.Errorf("want %+v, got %+v", existing, prof)
	}
}
