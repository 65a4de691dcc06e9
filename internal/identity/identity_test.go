package identity

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

func TestMembersDir(t *testing.T) {
	t.Parallel()
	got := MembersDir("/home")
	if got != filepath.Join("/home", "members") {
		t.Fatalf("MembersDir: got %q", got)
	}
}

func TestMemberPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		home       string
		username   string
		wantSuffix string
	}{
		{"/home", "alice", "alice.yaml"},
		{"/home", "Dr Amal Haddad", "dr_amal_haddad.yaml"},
		{"/home", "  default  ", "default.yaml"},
		{"/home", "", "default.yaml"},
	}
	for _, tt := range tests {
		got := MemberPath(tt.home, tt.username)
		if filepath.Base(got) != tt.wantSuffix {
			t.Errorf("MemberPath(%q, %q) base = %q, want %q", tt.home, tt.username, filepath.Base(got), tt.wantSuffix)
		}
	}
}

func TestSaveStaff_LoadStaff(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := models.Staff{Name: "Sara Nurse", Role: models.RoleNurse, Email: "sara@example.com"}
	if err := SaveStaff(dir, s); err != nil {
		t.Fatalf("SaveStaff: %v", err)
	}
	loaded, err := LoadStaff(dir, "Sara Nurse")
	if err != nil {
		t.Fatalf("LoadStaff: %v", err)
	}
	if loaded == nil || *loaded != s {
		t.Fatalf("LoadStaff: got %+v", loaded)
	}
	if got, err := Resolve(dir, "sara_nurse"); err != nil || got != s {
		t.Fatalf("Resolve: %+v, %v", got, err)
	}
}

func TestSaveStaff_validation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := SaveStaff(dir, models.Staff{Role: models.RoleDoctor}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := SaveStaff(dir, models.Staff{Name: "x", Role: "janitor"}); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestLoadStaff_missingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	loaded, err := LoadStaff(dir, "nonexistent")
	if err != nil || loaded != nil {
		t.Fatalf("LoadStaff missing file: %+v, %v", loaded, err)
	}
	if _, err := Resolve(dir, "nonexistent"); !errors.Is(err, ErrUnknownStaff) {
		t.Fatalf("Resolve: got %v, want ErrUnknownStaff", err)
	}
}

func TestLoadStaff_invalidYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	membersDir := filepath.Join(dir, "members")
	if err := os.MkdirAll(membersDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(membersDir, "bad.yaml"), []byte("not: valid: yaml: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStaff(dir, "bad"); err == nil {
		t.Fatal("LoadStaff: expected error for invalid YAML")
	}
	if err := os.WriteFile(filepath.Join(membersDir, "role.yaml"), []byte("name: x\nrole: janitor\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStaff(dir, "role"); err == nil {
		t.Fatal("LoadStaff: expected error for invalid role")
	}
}

func TestListStaff(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if got, err := ListStaff(dir); err != nil || len(got) != 0 {
		t.Fatalf("ListStaff on empty home: %v, %v", got, err)
	}
	_ = SaveStaff(dir, models.Staff{Name: "Zed", Role: models.RoleReceptionist})
	_ = SaveStaff(dir, models.Staff{Name: "Amal", Role: models.RoleDoctor})
	got, err := ListStaff(dir)
	if err != nil {
		t.Fatalf("ListStaff: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Amal" || got[1].Name != "Zed" {
		t.Fatalf("ListStaff: %+v", got)
	}
}

func TestRoleAgentTypes(t *testing.T) {
	t.Parallel()
	if got := RoleAgentTypes(models.RoleAdmin); !reflect.DeepEqual(got, models.AgentTypes()) {
		t.Fatalf("admin: %v", got)
	}
	for _, r := range models.Roles() {
		if len(RoleAgentTypes(r)) == 0 {
			t.Fatalf("role %s sees no agent types", r)
		}
	}
	if got := RoleAgentTypes("janitor"); len(got) != 0 {
		t.Fatalf("unknown role: %v", got)
	}
	types := RoleAgentTypes(models.RoleDoctor)
	types[0] = "mutated"
	if RoleAgentTypes(models.RoleDoctor)[0] == "mutated" {
		t.Fatal("RoleAgentTypes must return a copy")
	}
}

func TestDetectFromGit_noRole(t *testing.T) {
	t.Parallel()
	if s := DetectFromGit(t.TempDir()); s.Role != "" {
		t.Fatalf("DetectFromGit set role %q", s.Role)
	}
}
