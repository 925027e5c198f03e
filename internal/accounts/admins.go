package accounts

import "strings"

// AdminList is the configured permanent-admin allow-list. Emails on it are
// treated as role admin by every authorization decision, regardless of the
// stored role.
type AdminList struct {
	emails map[string]struct{}
}

func NewAdminList(emails []string) *AdminList {
	m := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			m[e] = struct{}{}
		}
	}
	return &AdminList{emails: m}
}

// IsElevated reports whether email belongs to a permanent admin.
func (l *AdminList) IsElevated(email string) bool {
	if l == nil || email == "" {
		return false
	}
	_, ok := l.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
