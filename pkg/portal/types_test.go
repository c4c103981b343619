package portal

import "testing"

func TestRole(t *testing.T) {
	tests := []struct {
		role      Role
		valid     bool
		authority string
	}{
		{RoleStudent, true, "ROLE_STUDENT"},
		{RoleFacultyMember, true, "ROLE_FACULTY_MEMBER"},
		{RoleAdministrator, true, "ROLE_ADMINISTRATOR"},
		{Role("JANITOR"), false, "ROLE_JANITOR"},
	}

	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.valid {
			t.Errorf("%s.Valid() = %v, want %v", tt.role, got, tt.valid)
		}
		if got := tt.role.Authority(); got != tt.authority {
			t.Errorf("%s.Authority() = %q, want %q", tt.role, got, tt.authority)
		}
	}
}

func TestProfilesShareAccountKey(t *testing.T) {
	account := &Account{ID: 7, Email: "grace@example.edu"}
	profiles := []Profile{
		&StudentProfile{UserID: 7},
		&FacultyProfile{UserID: 7},
		&AdministratorProfile{UserID: 7},
	}

	for _, p := range profiles {
		if p.OwnerID() != account.ID {
			t.Errorf("%T.OwnerID() = %d, want %d", p, p.OwnerID(), account.ID)
		}
		p.AttachAccount(account)
	}

	if profiles[0].(*StudentProfile).Account != account {
		t.Error("AttachAccount did not set the account")
	}
	if key := StudentProfileDescriptor.Key(profiles[0].(*StudentProfile)); key != 7 {
		t.Errorf("StudentProfileDescriptor.Key() = %d, want 7", key)
	}
}
