package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/churnguard-cli/internal/table"
)

func TestResolveScenarioA(t *testing.T) {
	headers := []table.HeaderSet{
		{"customer_id", "monthly_login_count", "last_active_date"},
		{"cust_id", "ticket_count"},
	}
	m := Resolve(headers, ResolveExclusive)

	assert.Equal(t, ColumnRef{Column: "customer_id", FileIndex: 0}, m[RoleID])
	assert.Equal(t, ColumnRef{Column: "monthly_login_count", FileIndex: 0}, m[RoleLogins])
	assert.Equal(t, ColumnRef{Column: "last_active_date", FileIndex: 0}, m[RoleActivityDays])
	assert.Equal(t, ColumnRef{Column: "ticket_count", FileIndex: 1}, m[RoleTickets])
	// monthly_login_count is already claimed by feature_logins
	_, ok := m[RoleMonthlySpend]
	assert.False(t, ok)
	require.NoError(t, Validate(m))
}

func TestResolveIsStable(t *testing.T) {
	headers := []table.HeaderSet{
		{"customer_id", "monthly_login_count", "last_active_date", "plan_type"},
		{"cust_id", "ticket_count", "lifetime_value"},
	}
	want := Mapping{
		RoleID:             {Column: "customer_id", FileIndex: 0},
		RoleLogins:         {Column: "monthly_login_count", FileIndex: 0},
		RoleTickets:        {Column: "ticket_count", FileIndex: 1},
		RoleActivityDays:   {Column: "last_active_date", FileIndex: 0},
		RoleLTV:            {Column: "lifetime_value", FileIndex: 1},
		RoleContractLength: {Column: "plan_type", FileIndex: 0},
	}
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(want, Resolve(headers, ResolveExclusive)); diff != "" {
			t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestResolveIndependentAllowsReclaim(t *testing.T) {
	headers := []table.HeaderSet{{"customer_id", "monthly_login_count", "last_active_date", "tickets"}}
	m := Resolve(headers, ResolveIndependent)
	assert.Equal(t, "monthly_login_count", m[RoleMonthlySpend].Column)
	assert.Equal(t, "monthly_login_count", m[RoleLogins].Column)
}

func TestResolveOrderHeaderBeforeKeyword(t *testing.T) {
	// the first header wins even if it only matches a later keyword
	headers := []table.HeaderSet{{"Customer", "ID"}}
	m := Resolve(headers, ResolveExclusive)
	assert.Equal(t, "Customer", m[RoleID].Column)
}

func TestResolveFileOrder(t *testing.T) {
	headers := []table.HeaderSet{{}, {"SESSION_COUNT"}, {"logins"}}
	m := Resolve(headers, ResolveExclusive)
	assert.Equal(t, ColumnRef{Column: "SESSION_COUNT", FileIndex: 1}, m[RoleLogins])
}

func TestKeywordMatchingProperty(t *testing.T) {
	for _, r := range AllRoles() {
		for _, kw := range r.Keywords() {
			header := "X_" + strings.ToUpper(kw) + "_y"
			ref, ok := findColumn([]table.HeaderSet{{header}}, r.Keywords(), func(claim) bool { return false })
			require.True(t, ok, "%s should match %s", r, header)
			assert.Equal(t, header, ref.Column)
		}
		_, ok := findColumn([]table.HeaderSet{{"zzz"}}, r.Keywords(), func(claim) bool { return false })
		assert.False(t, ok, r.String())
	}
}

func TestValidate(t *testing.T) {
	full := Mapping{
		RoleID:           {Column: "id", FileIndex: 0},
		RoleLogins:       {Column: "logins", FileIndex: 0},
		RoleTickets:      {Column: "tickets", FileIndex: 0},
		RoleActivityDays: {Column: "last_active", FileIndex: 0},
	}
	require.NoError(t, Validate(full))

	for _, r := range RequiredRoles() {
		m := Mapping{}
		for k, v := range full {
			m[k] = v
		}
		delete(m, r)
		err := Validate(m)
		var mre *MissingRolesError
		require.True(t, errors.As(err, &mre), r.String())
		assert.Equal(t, []Role{r}, mre.Missing)
		assert.Contains(t, err.Error(), r.String())
	}

	err := Validate(Mapping{})
	var mre *MissingRolesError
	require.True(t, errors.As(err, &mre))
	assert.Len(t, mre.Missing, 4)
}

func TestMappingRoundTrip(t *testing.T) {
	m := Mapping{
		RoleID:      {Column: "customer_id", FileIndex: 0},
		RoleTickets: {Column: "ticket_count", FileIndex: 1},
	}
	s, err := m.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id_column":{"column":"customer_id","file_index":0},"feature_tickets":{"column":"ticket_count","file_index":1}}`, s)

	back, err := ParseMapping([]byte(s), 2)
	require.NoError(t, err)
	assert.Equal(t, m, back)

	var generic map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &generic))
	assert.Len(t, generic, 2)
}

func TestParseMappingErrors(t *testing.T) {
	cases := map[string]string{
		"bad json":      `{"id_column":`,
		"unknown role":  `{"favorite_color":{"column":"x","file_index":0}}`,
		"out of range":  `{"id_column":{"column":"x","file_index":3}}`,
		"negative":      `{"id_column":{"column":"x","file_index":-1}}`,
		"no column":     `{"id_column":{"file_index":0}}`,
		"no file index": `{"id_column":{"column":"x"}}`,
		"null":          `null`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMapping([]byte(in), 2)
			var me *MappingError
			assert.True(t, errors.As(err, &me), "got %v", err)
		})
	}
}

func TestFeatureColumnsDedupes(t *testing.T) {
	m := Mapping{
		RoleID:           {Column: "id", FileIndex: 0},
		RoleLogins:       {Column: "monthly_logins", FileIndex: 0},
		RoleMonthlySpend: {Column: "monthly_logins", FileIndex: 0},
		RoleTickets:      {Column: "tickets", FileIndex: 1},
	}
	assert.Equal(t, []string{"monthly_logins", "tickets"}, m.FeatureColumns())
	assert.Equal(t, []Role{RoleID, RoleLogins, RoleTickets, RoleMonthlySpend}, m.Roles())
}

func TestRoleText(t *testing.T) {
	for _, r := range AllRoles() {
		b, err := r.MarshalText()
		require.NoError(t, err)
		var back Role
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, r, back)
		assert.Equal(t, r != RoleID, r.IsFeature())
	}
	_, err := ParseRole("nope")
	assert.Error(t, err)
}
