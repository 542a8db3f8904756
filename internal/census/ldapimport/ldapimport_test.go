package ldapimport

import (
	"context"
	"errors"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decide/internal/platform/config"
)

type fakeConn struct {
	bound   []string
	request *ldap.SearchRequest
	result  *ldap.SearchResult
	bindErr error
	closed  bool
}

func (f *fakeConn) Bind(username, password string) error {
	f.bound = []string{username, password}
	return f.bindErr
}

func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.request = req
	return f.result, nil
}

func importerFor(conn *fakeConn) *Importer {
	cfg := config.LDAPConfig{URL: "ldap://directory:389", BindDN: "cn=admin,dc=decide,dc=org", BindPassword: "secret", BaseDN: "dc=decide,dc=org"}
	return New(cfg, WithDialer(func(_ context.Context, url string) (Conn, func(), error) {
		return conn, func() { conn.closed = true }, nil
	}))
}

func TestMembers(t *testing.T) {
	entry := ldap.NewEntry("cn=board,ou=groups,dc=decide,dc=org", map[string][]string{
		"member": {
			"uid=ana,ou=people,dc=decide,dc=org",
			"cn=bea,ou=people,dc=decide,dc=org",
		},
		"memberUid": {"carla", "ana"},
	})
	conn := &fakeConn{result: &ldap.SearchResult{Entries: []*ldap.Entry{entry}}}

	members, err := importerFor(conn).Members(context.Background(), "board")
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "bea", "carla"}, members)
	assert.Equal(t, []string{"cn=admin,dc=decide,dc=org", "secret"}, conn.bound)
	assert.Equal(t, "dc=decide,dc=org", conn.request.BaseDN)
	assert.Contains(t, conn.request.Filter, "(cn=board)")
	assert.True(t, conn.closed)
}

func TestMembers_EscapesGroupName(t *testing.T) {
	conn := &fakeConn{result: &ldap.SearchResult{Entries: []*ldap.Entry{ldap.NewEntry("cn=x", nil)}}}
	_, err := importerFor(conn).Members(context.Background(), "a*)(uid=*")
	require.NoError(t, err)
	assert.NotContains(t, conn.request.Filter, "a*)(uid=*")
}

func TestMembers_GroupNotFound(t *testing.T) {
	conn := &fakeConn{result: &ldap.SearchResult{}}
	_, err := importerFor(conn).Members(context.Background(), "ghosts")
	assert.True(t, errors.Is(err, ErrGroupNotFound))
}

func TestMembers_BindFailure(t *testing.T) {
	conn := &fakeConn{bindErr: errors.New("invalid credentials")}
	_, err := importerFor(conn).Members(context.Background(), "board")
	assert.ErrorContains(t, err, "bind ldap")
}

func TestMembers_EmptyGroup(t *testing.T) {
	_, err := importerFor(&fakeConn{}).Members(context.Background(), " ")
	assert.Error(t, err)
}

func TestUsernameFromDN(t *testing.T) {
	name, err := usernameFromDN("uid=dani,ou=people,dc=decide,dc=org")
	require.NoError(t, err)
	assert.Equal(t, "dani", name)

	_, err = usernameFromDN("ou=people,dc=decide,dc=org")
	assert.Error(t, err)

	_, err = usernameFromDN("not a dn")
	assert.Error(t, err)
}
