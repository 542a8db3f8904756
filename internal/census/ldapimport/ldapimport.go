// Package ldapimport reads group membership from an LDAP directory so a
// group can be enrolled in a census by username.
package ldapimport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"decide/internal/platform/config"
	platformstrings "decide/pkg/platform/strings"
)

// ErrGroupNotFound is returned when no group matches the requested name.
var ErrGroupNotFound = errors.New("ldap group not found")

var memberAttributes = []string{"member", "uniqueMember", "memberUid"}

// Conn is the part of *ldap.Conn used by the importer.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
}

// Dialer opens a directory connection and returns a function that closes it.
type Dialer func(ctx context.Context, url string) (Conn, func(), error)

// Importer resolves LDAP groups into usernames.
type Importer struct {
	cfg  config.LDAPConfig
	dial Dialer
}

type Option func(*Importer)

// WithDialer replaces the network dialer, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(i *Importer) {
		i.dial = d
	}
}

func New(cfg config.LDAPConfig, opts ...Option) *Importer {
	i := &Importer{cfg: cfg, dial: dialURL}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func dialURL(_ context.Context, url string) (Conn, func(), error) {
	conn, err := ldap.DialURL(url)
	if err != nil {
		return nil, nil, err
	}
	return conn, func() { conn.Close() }, nil
}

// Members returns the usernames of the group's members, deduplicated, in
// directory order. Member DNs contribute their uid (or cn) RDN value.
func (i *Importer) Members(ctx context.Context, group string) ([]string, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return nil, errors.New("group is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, closeConn, err := i.dial(ctx, i.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial ldap: %w", err)
	}
	defer closeConn()

	if i.cfg.BindDN != "" {
		if err := conn.Bind(i.cfg.BindDN, i.cfg.BindPassword); err != nil {
			return nil, fmt.Errorf("bind ldap: %w", err)
		}
	}

	filter := fmt.Sprintf(
		"(&(|(objectClass=groupOfNames)(objectClass=groupOfUniqueNames)(objectClass=posixGroup))(cn=%s))",
		ldap.EscapeFilter(group),
	)
	res, err := conn.Search(ldap.NewSearchRequest(
		i.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		1, 0, false,
		filter,
		memberAttributes,
		nil,
	))
	if err != nil {
		return nil, fmt.Errorf("search ldap group %q: %w", group, err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, group)
	}

	entry := res.Entries[0]
	var usernames []string
	for _, dn := range append(entry.GetAttributeValues("member"), entry.GetAttributeValues("uniqueMember")...) {
		name, err := usernameFromDN(dn)
		if err != nil {
			return nil, err
		}
		usernames = append(usernames, name)
	}
	usernames = append(usernames, entry.GetAttributeValues("memberUid")...)
	return platformstrings.DedupeAndTrim(usernames), nil
}

func usernameFromDN(dn string) (string, error) {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("parse member dn %q: %w", dn, err)
	}
	if len(parsed.RDNs) == 0 {
		return "", fmt.Errorf("empty member dn")
	}
	var cn string
	for _, attr := range parsed.RDNs[0].Attributes {
		switch strings.ToLower(attr.Type) {
		case "uid":
			return attr.Value, nil
		case "cn":
			cn = attr.Value
		}
	}
	if cn == "" {
		return "", fmt.Errorf("member dn %q has no uid or cn", dn)
	}
	return cn, nil
}
