package token

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/JaimeStill/docriver/pkg/submission"
)

// Permissions are the claims a docriver server checks before accepting a
// transaction, such as txType, tx and documentCount.
type Permissions map[string]string

// ParsePermissions reads "key:value" entries. The value may itself contain
// colons.
func ParsePermissions(entries []string) (Permissions, error) {
	perms := make(Permissions, len(entries))
	for _, e := range entries {
		key, value, ok := strings.Cut(e, ":")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPermission, e)
		}
		perms[key] = value
	}
	return perms, nil
}

// ForSubmit scopes base to the submission carried by req.
func ForSubmit(base Permissions, req submission.Request) Permissions {
	perms := maps.Clone(base)
	if perms == nil {
		perms = make(Permissions)
	}

	perms["txType"] = "submit"
	perms["documentCount"] = strconv.Itoa(len(req.Attachments()))

	if tx, ok := req.Get(submission.FieldTx); ok && tx != "" {
		perms["tx"] = tx
	}
	if v, ok := req.Get(submission.FieldRefResourceType); ok && v != "" {
		perms["resourceType"] = v
	}
	if v, ok := req.Get(submission.FieldRefResourceID); ok && v != "" {
		perms["resourceId"] = v
	}
	return perms
}

// ForDocument scopes base to reading the named document.
func ForDocument(base Permissions, name string) Permissions {
	return scoped(base, Permissions{"txType": "get-document", "document": name})
}

// ForEvents scopes base to listing the realm's transaction events.
func ForEvents(base Permissions) Permissions {
	return scoped(base, Permissions{"txType": "get-events"})
}

func scoped(base, scope Permissions) Permissions {
	perms := make(Permissions, len(base)+len(scope))
	maps.Copy(perms, base)
	maps.Copy(perms, scope)
	return perms
}
