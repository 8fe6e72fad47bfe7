// Package profile manages the operator's persistent oximon profile.
// The profile is stored at ~/.config/oximon/profile.json and is created
// once via the interactive setup flow, then referenced on every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Profile holds operator-level preferences set during first-run setup.
type Profile struct {
	Name        string   `json:"name"`
	Users       []string `json:"users"`        // monitored people beyond the config roster
	DefaultUser string   `json:"default_user"` // selected when monitor starts without --user
}

func profilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "oximon", "profile.json"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'oximon setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// AddUser appends name unless an equal name (case-insensitive) is present.
// It reports whether the profile changed.
func (p *Profile) AddUser(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || contains(p.Users, name) {
		return false
	}
	p.Users = append(p.Users, name)
	return true
}

// Roster merges the configured users with the profile's extra users,
// dropping blanks and case-insensitive duplicates. Order is preserved.
func Roster(configured []string, prof *Profile) []string {
	var out []string
	add := func(names []string) {
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n != "" && !contains(out, n) {
				out = append(out, n)
			}
		}
	}
	add(configured)
	if prof != nil {
		add(prof.Users)
	}
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// RunSetup runs the interactive setup wizard and returns the resulting profile.
// If existing is non-nil, it is used as the default for each prompt (edit mode).
// roster supplies the default user when none is set yet.
func RunSetup(in io.Reader, out io.Writer, existing *Profile, roster []string) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	prof := &Profile{}
	if existing != nil {
		*prof = *existing
		prof.Users = append([]string(nil), existing.Users...)
	}
	if prof.DefaultUser == "" && len(roster) > 0 {
		prof.DefaultUser = roster[0]
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   oximon: first-time setup      │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error

	prof.Name, err = ask("  Your name (shown in reports)", prof.Name)
	if err != nil {
		return nil, err
	}

	extra, err := ask("  Additional people to monitor (comma separated)", strings.Join(prof.Users, ", "))
	if err != nil {
		return nil, err
	}
	prof.Users = nil
	for _, name := range strings.Split(extra, ",") {
		prof.AddUser(name)
	}

	prof.DefaultUser, err = ask("  Default user", prof.DefaultUser)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(out)
	return prof, nil
}
