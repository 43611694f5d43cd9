package capability

import (
	"encoding/json"
	"io/ioutil"
	"strings"

	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrParseGrantFile is given when a grant file is malformed.
	ErrParseGrantFile = errors.NewKind("capability: error parsing grant file")
	// ErrUnknownPermission happens when a grant names an undefined
	// permission.
	ErrUnknownPermission = errors.NewKind("capability: unknown permission %q")
	// ErrDuplicateToken happens when a token appears more than once in a
	// grant file.
	ErrDuplicateToken = errors.NewKind("capability: duplicate token %q")
)

// grantEntry is one token's on-disk grant: the relations it may touch
// (a single "*" entry means every relation) and the permissions it holds
// on each of them.
type grantEntry struct {
	Token           string   `json:"Token"`
	Relations       []string `json:"Relations"`
	JSONPermissions []string `json:"Permissions"`
	permissions     Permission
}

func (g grantEntry) coversRelation(rel string) bool {
	for _, r := range g.Relations {
		if r == "*" || r == rel {
			return true
		}
	}
	return false
}

// Native is a Gate backed by a fixed, in-memory table of token grants,
// the capability analogue of the teacher's auth.Native (a static user
// file instead of a live directory service).
type Native struct {
	grants map[string]grantEntry
}

// NewNativeSingle builds a Native with a single token granted perm on
// every relation.
func NewNativeSingle(token string, perm Permission) *Native {
	return &Native{grants: map[string]grantEntry{
		token: {Token: token, Relations: []string{"*"}, permissions: perm},
	}}
}

// NewNativeFile builds a Native by loading a JSON array of grant entries
// from file, mirroring auth.NewNativeFile's user-file format.
func NewNativeFile(file string) (*Native, error) {
	var entries []grantEntry

	raw, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, ErrParseGrantFile.New(err)
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, ErrParseGrantFile.New(err)
	}

	grants := make(map[string]grantEntry, len(entries))
	for _, g := range entries {
		if _, ok := grants[g.Token]; ok {
			return nil, ErrParseGrantFile.Wrap(ErrDuplicateToken.New(g.Token))
		}
		if len(g.JSONPermissions) == 0 {
			g.permissions = DefaultPermissions
		}
		for _, p := range g.JSONPermissions {
			bit, ok := PermissionNames[strings.ToLower(p)]
			if !ok {
				return nil, ErrParseGrantFile.Wrap(ErrUnknownPermission.New(p))
			}
			g.permissions |= bit
		}
		grants[g.Token] = g
	}

	return &Native{grants: grants}, nil
}

// Allowed implements Gate.
func (n *Native) Allowed(token, rel string, p Permission) error {
	g, ok := n.grants[token]
	if !ok || !g.coversRelation(rel) {
		return ErrNotAuthorized.Wrap(ErrNoPermission.New(token, p.String(), rel))
	}
	if g.permissions&p == p {
		return nil
	}
	missing := (^g.permissions) & p
	return ErrNotAuthorized.Wrap(ErrNoPermission.New(token, missing.String(), rel))
}
