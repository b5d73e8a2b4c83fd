package rbac

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/db"
	"github.com/legaldesk/legaldesk/internal/db/models"
)

var testVocabulary = map[string][]string{
	"cases":     {"read", "create", "update"},
	"questions": {"read", "answer"},
	"ledger":    {"read", "write", "repair"},
	"rbac":      {"read", "manage"},
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(&config.Config{DB: config.DB{GormEngine: config.EngineSQLite, Name: ":memory:"}})
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, db.Migrate(gdb), "failed to migrate test database")

	return gdb
}

func setupTestEngine(t *testing.T) (*Engine, *gorm.DB, *testClock) {
	t.Helper()

	gdb := setupTestDB(t)

	vocab, err := NewVocabulary(testVocabulary)
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	engine, err := NewEngine(gdb, vocab, WithClock(clock.Now))
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, engine.SeedRoles(ctx, []config.RoleSeed{
		{Name: "client", Level: 10, Permissions: []string{"cases.read", "cases.create", "questions.read"}},
		{Name: "lawyer", Level: 50, Permissions: []string{"cases.read", "questions.answer", "ledger.read"}},
		{Name: "admin", Level: 100, Permissions: []string{"rbac.read", "rbac.manage", "ledger.repair"}},
	}))

	return engine, gdb, clock
}

func createUser(t *testing.T, gdb *gorm.DB, id uint64) Principal {
	t.Helper()

	require.NoError(t, gdb.Create(&models.User{ID: id, Active: true, Email: fmt.Sprintf("user%d@example.com", id)}).Error)

	return User(id)
}

func createLawyer(t *testing.T, gdb *gorm.DB, id uint64) Principal {
	t.Helper()

	require.NoError(t, gdb.Create(&models.Lawyer{ID: id, Active: true, Email: fmt.Sprintf("lawyer%d@example.com", id)}).Error)

	return Lawyer(id)
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	vocab, err := NewVocabulary(testVocabulary)
	require.NoError(t, err)

	_, err = NewEngine(nil, vocab)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = NewEngine(setupTestDB(t), nil)
	require.ErrorIs(t, err, ErrVocabularyRequired)
}

func TestAuthorize(t *testing.T) {
	engine, gdb, _ := setupTestEngine(t)
	ctx := context.Background()

	client := createUser(t, gdb, 1)
	_, err := engine.Assign(ctx, client, "client", AssignOptions{})
	require.NoError(t, err)

	tests := []struct {
		name       string
		capability string
		allowed    bool
		reason     Reason
	}{
		{"granted through role", "cases.read", true, ReasonGranted},
		{"second grant of same role", "cases.create", true, ReasonGranted},
		{"not granted", "cases.update", false, ReasonNoGrant},
		{"granted to other role only", "ledger.read", false, ReasonNoGrant},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := engine.Authorize(ctx, client, MustCapability(tc.capability))
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, d.Allowed)
			assert.Equal(t, tc.reason, d.Reason)

			if tc.allowed {
				assert.Equal(t, "client", d.Role)
			}
		})
	}
}

func TestAuthorizeIdentityIncludesType(t *testing.T) {
	engine, gdb, _ := setupTestEngine(t)
	ctx := context.Background()

	user := createUser(t, gdb, 7)
	lawyer := createLawyer(t, gdb, 7)

	_, err := engine.Assign(ctx, lawyer, "lawyer", AssignOptions{})
	require.NoError(t, err)

	d, err := engine.Authorize(ctx, lawyer, PermLedgerRead)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = engine.Authorize(ctx, user, PermLedgerRead)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "user 7 must not inherit lawyer 7's roles")
	assert.Equal(t, ReasonNoAssignment, d.Reason)
}

func TestAuthorizeInvalidPrincipal(t *testing.T) {
	engine, gdb, _ := setupTestEngine(t)
	createUser(t, gdb, 1)

	tests := []struct {
		name      string
		principal Principal
		wantErr   error
	}{
		{"missing type", Principal{ID: 1}, ErrMissingType},
		{"unknown type", Principal{ID: 1, Type: "admin"}, ErrInvalidPrincipalType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := engine.Authorize(context.Background(), tc.principal, MustCapability("cases.read"))
			require.ErrorIs(t, err, tc.wantErr)
			assert.False(t, d.Allowed)
			assert.Equal(t, ReasonInvalidPrincipal, d.Reason)
		})
	}
}

func TestAuthorizePrincipalNotFoundDenies(t *testing.T) {
	engine, _, _ := setupTestEngine(t)

	d, err := engine.Authorize(context.Background(), Lawyer(404), PermLedgerRead)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPrincipalNotFound, d.Reason)
}

func TestAuthorizeUnknownCapability(t *testing.T) {
	engine, gdb, _ := setupTestEngine(t)
	p := createUser(t, gdb, 1)

	d, err := engine.Authorize(context.Background(), p, MustCapability("payments.refund"))
	require.ErrorIs(t, err, ErrUnknownCapability)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonUnknownCapability, d.Reason)
}

func TestAuthorizeSkipsExpiredAssignments(t *testing.T) {
	engine, gdb, clock := setupTestEngine(t)
	ctx := context.Background()

	p := createUser(t, gdb, 1)
	expires := clock.now.Add(time.Hour)

	_, err := engine.Assign(ctx, p, "admin", AssignOptions{ExpiresAt: &expires})
	require.NoError(t, err)

	assert.True(t, engine.Can(ctx, p, PermRBACManage))

	clock.now = expires

	d, err := engine.Authorize(ctx, p, PermRBACManage)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "assignment expiring now is inert")
	assert.Equal(t, ReasonNoAssignment, d.Reason)
}

func TestAuthorizeInstanceScope(t *testing.T) {
	engine, gdb, _ := setupTestEngine(t)
	ctx := context.Background()

	p := createLawyer(t, gdb, 7)

	_, err := engine.Assign(ctx, p, "lawyer", AssignOptions{Context: &AssignmentContext{
		Scopes: []Scope{{Resource: "ledger", Instances: []string{"7"}}},
	}})
	require.NoError(t, err)

	tests := []struct {
		name       string
		capability Capability
		opts       []CheckOption
		allowed    bool
		reason     Reason
	}{
		{"listed instance", PermLedgerRead, []CheckOption{WithInstance("7")}, true, ReasonGranted},
		{"other instance", PermLedgerRead, []CheckOption{WithInstance("8")}, false, ReasonOutOfScope},
		{"no instance", PermLedgerRead, nil, true, ReasonGranted},
		{"unscoped resource", MustCapability("cases.read"), []CheckOption{WithInstance("8")}, true, ReasonGranted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := engine.Authorize(ctx, p, tc.capability, tc.opts...)
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, d.Allowed)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestAuthorizeUnionAcrossAssignments(t *testing.T) {
	engine, gdb, _ := setupTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Grant(ctx, "admin", PermLedgerRead))

	p := createUser(t, gdb, 3)

	_, err := engine.Assign(ctx, p, "lawyer", AssignOptions{Context: &AssignmentContext{
		Scopes: []Scope{{Resource: "ledger", Instances: []string{"7"}}},
	}})
	require.NoError(t, err)

	_, err = engine.Assign(ctx, p, "admin", AssignOptions{})
	require.NoError(t, err)

	d, err := engine.Authorize(ctx, p, PermLedgerRead, WithInstance("8"))
	require.NoError(t, err)
	assert.True(t, d.Allowed, "the unscoped admin assignment covers every instance")
	assert.Equal(t, "admin", d.Role)
}

func TestAuthorizeStoreErrorFailsClosed(t *testing.T) {
	engine, gdb, _ := setupTestEngine(t)
	p := createUser(t, gdb, 1)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	d, err := engine.Authorize(context.Background(), p, MustCapability("cases.read"))
	require.Error(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonStoreError, d.Reason)
	assert.False(t, engine.Can(context.Background(), p, MustCapability("cases.read")))
}

func TestRequestCacheReusesGrants(t *testing.T) {
	engine, gdb, _ := setupTestEngine(t)

	p := createUser(t, gdb, 1)
	_, err := engine.Assign(context.Background(), p, "client", AssignOptions{})
	require.NoError(t, err)

	reqCtx := WithRequestCache(context.Background())
	assert.Same(t, cacheFrom(reqCtx), cacheFrom(WithRequestCache(reqCtx)))
	assert.True(t, engine.Can(reqCtx, p, MustCapability("cases.read")))

	// a change made outside the request is not seen until the next request
	require.NoError(t, engine.Unassign(context.Background(), p, "client"))
	assert.True(t, engine.Can(reqCtx, p, MustCapability("cases.read")))
	assert.False(t, engine.Can(WithRequestCache(context.Background()), p, MustCapability("cases.read")))

	// a change made through the request context drops its cache
	_, err = engine.Assign(reqCtx, p, "lawyer", AssignOptions{})
	require.NoError(t, err)
	assert.False(t, engine.Can(reqCtx, p, MustCapability("cases.create")))
	assert.True(t, engine.Can(reqCtx, p, MustCapability("questions.answer")))
}

func TestAuthorizeAnyAll(t *testing.T) {
	engine, gdb, _ := setupTestEngine(t)
	ctx := context.Background()

	p := createUser(t, gdb, 1)
	_, err := engine.Assign(ctx, p, "client", AssignOptions{})
	require.NoError(t, err)

	read := MustCapability("cases.read")
	update := MustCapability("cases.update")

	tests := []struct {
		name    string
		caps    []Capability
		wantAny bool
		wantAll bool
	}{
		{"empty", nil, false, true},
		{"all granted", []Capability{read, MustCapability("cases.create")}, true, true},
		{"one granted", []Capability{update, read}, true, false},
		{"none granted", []Capability{update, PermLedgerRead}, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			anyOK, err := engine.AuthorizeAny(ctx, p, tc.caps)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAny, anyOK)

			allOK, err := engine.AuthorizeAll(ctx, p, tc.caps)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAll, allOK)
		})
	}
}

func TestEnforce(t *testing.T) {
	engine, gdb, _ := setupTestEngine(t)
	ctx := context.Background()

	p := createUser(t, gdb, 1)
	_, err := engine.Assign(ctx, p, "client", AssignOptions{})
	require.NoError(t, err)

	require.NoError(t, engine.Enforce(ctx, p, MustCapability("cases.read")))

	err = engine.Enforce(ctx, p, PermLedgerRepair)
	require.ErrorIs(t, err, ErrAccessDenied)
	assert.Contains(t, err.Error(), string(ReasonNoGrant))
}

func TestListPermissions(t *testing.T) {
	engine, gdb, clock := setupTestEngine(t)
	ctx := context.Background()

	p := createLawyer(t, gdb, 7)

	_, err := engine.Assign(ctx, p, "lawyer", AssignOptions{Context: &AssignmentContext{
		Scopes: []Scope{{Resource: "ledger", Instances: []string{"7"}}},
	}})
	require.NoError(t, err)

	expired := clock.now.Add(-time.Minute)
	_, err = engine.Assign(ctx, p, "admin", AssignOptions{ExpiresAt: &expired})
	require.NoError(t, err)

	perms, err := engine.ListPermissions(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []Capability{
		MustCapability("cases.read"),
		MustCapability("ledger.read"),
		MustCapability("questions.answer"),
	}, perms)

	perms, err = engine.ListPermissions(ctx, Lawyer(99))
	require.NoError(t, err)
	assert.Empty(t, perms)

	_, err = engine.ListPermissions(ctx, Principal{ID: 7})
	require.ErrorIs(t, err, ErrMissingType)
}
