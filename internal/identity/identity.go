// Package identity stores staff identities under <home>/members and maps roles to the agent
// types their dashboard shows.
package identity

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"gopkg.in/yaml.v3"
)

// ErrUnknownStaff is returned when no member file exists for a username.
var ErrUnknownStaff = errors.New("unknown staff member")

type staffFile struct {
	Name  string      `yaml:"name"`
	Role  models.Role `yaml:"role"`
	Email string      `yaml:"email,omitempty"`
}

// DetectFromGit reads `git config user.name` and `git config user.email` (global if repoDir is
// empty). Fields whose command fails are left empty; Role is never set.
func DetectFromGit(repoDir string) models.Staff {
	var s models.Staff
	if name, err := gitConfig(repoDir, "user.name"); err == nil {
		s.Name = name
	}
	if email, err := gitConfig(repoDir, "user.email"); err == nil {
		s.Email = email
	}
	return s
}

func gitConfig(repoDir, key string) (string, error) {
	cmd := exec.Command("git", "config", "--get", key)
	if repoDir != "" {
		cmd.Dir = repoDir
	}
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// MembersDir returns the path to the members directory: <home>/members/.
func MembersDir(home string) string {
	return filepath.Join(home, "members")
}

// Username normalizes a display name or username for use as a file name.
func Username(name string) string {
	safe := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	if safe == "" {
		return "default"
	}
	return safe
}

// MemberPath returns <home>/members/<username>.yaml.
func MemberPath(home, username string) string {
	return filepath.Join(MembersDir(home), Username(username)+".yaml")
}

// LoadStaff loads <home>/members/<username>.yaml. Returns nil, nil if the file is missing.
func LoadStaff(home, username string) (*models.Staff, error) {
	data, err := os.ReadFile(MemberPath(home, username))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var f staffFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if !f.Role.Valid() {
		return nil, fmt.Errorf("member %s: invalid role %q", username, f.Role)
	}
	return &models.Staff{Name: f.Name, Role: f.Role, Email: f.Email}, nil
}

// SaveStaff writes s to <home>/members/<username>.yaml, where username is derived from s.Name.
func SaveStaff(home string, s models.Staff) error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("staff name required")
	}
	if !s.Role.Valid() {
		return fmt.Errorf("invalid role %q", s.Role)
	}
	if err := os.MkdirAll(MembersDir(home), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(staffFile{Name: s.Name, Role: s.Role, Email: s.Email})
	if err != nil {
		return err
	}
	return os.WriteFile(MemberPath(home, s.Name), data, 0o644)
}

// ListStaff returns every readable member file, sorted by name. Invalid files are skipped.
func ListStaff(home string) ([]models.Staff, error) {
	entries, err := os.ReadDir(MembersDir(home))
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Staff{}, nil
		}
		return nil, err
	}
	out := []models.Staff{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		s, err := LoadStaff(home, strings.TrimSuffix(e.Name(), ".yaml"))
		if err != nil || s == nil {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Resolve returns the staff member for username, or ErrUnknownStaff.
func Resolve(home, username string) (models.Staff, error) {
	s, err := LoadStaff(home, username)
	if err != nil {
		return models.Staff{}, err
	}
	if s == nil {
		return models.Staff{}, fmt.Errorf("%w: %s", ErrUnknownStaff, username)
	}
	return *s, nil
}

var roleAgentTypes = map[models.Role][]models.AgentType{
	models.RoleDoctor:        {models.AgentClinical, models.AgentDiagnostic, models.AgentPredictive},
	models.RoleNurse:         {models.AgentClinical, models.AgentOperational},
	models.RoleReceptionist:  {models.AgentAdministrative, models.AgentOperational},
	models.RoleDiagnostician: {models.AgentDiagnostic, models.AgentClinical},
}

// RoleAgentTypes returns the agent types shown on a role's dashboard. Admin sees every type.
func RoleAgentTypes(role models.Role) []models.AgentType {
	if role == models.RoleAdmin {
		return models.AgentTypes()
	}
	return append([]models.AgentType(nil), roleAgentTypes[role]...)
}
