package reminder

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/osr-alliance/backend-lib-leadflow/store"
)

var (
	errNoRecipient        = errors.New("no recipient")
	errMalformedRecipient = errors.New("malformed recipient")
)

// NormalizeAddress returns the bare, lower cased address of raw. A value without an @ (a username left over from
// older data) gets domain appended when one is configured.
func NormalizeAddress(raw, domain string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", errNoRecipient
	}

	if !strings.Contains(v, "@") {
		domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
		if domain == "" {
			return "", fmt.Errorf("%w: %q has no domain", errMalformedRecipient, v)
		}
		v = v + "@" + domain
	}

	a, err := mail.ParseAddress(v)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", errMalformedRecipient, v, err)
	}
	return strings.ToLower(a.Address), nil
}

type recipients struct {
	to []string
	cc []string
}

func (r recipients) all() []string {
	return append(append([]string{}, r.to...), r.cc...)
}

// leadRecipients sends to the assignee with every admin on cc; an admin who is also the assignee is only on to
func leadRecipients(lead store.Lead, admins []string, domain string) (recipients, error) {
	to, err := NormalizeAddress(lead.AssigneeOrEmpty(), domain)
	if err != nil {
		return recipients{}, err
	}

	seen := map[string]struct{}{to: {}}
	cc := []string{}
	for _, a := range admins {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		cc = append(cc, a)
	}

	return recipients{to: []string{to}, cc: cc}, nil
}

func noteRecipients(note store.StickyNote, domain string) (recipients, error) {
	to, err := NormalizeAddress(note.Email, domain)
	if err != nil {
		return recipients{}, err
	}
	return recipients{to: []string{to}}, nil
}
