package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/churnguard-cli/internal/table"
)

// ColumnRef identifies a resolved column by name and input file index.
type ColumnRef struct {
	Column    string `json:"column"`
	FileIndex int    `json:"file_index"`
}

// Mapping holds at most one ColumnRef per resolved Role.
type Mapping map[Role]ColumnRef

// Roles returns the resolved roles in enumeration order.
func (m Mapping) Roles() []Role {
	out := make([]Role, 0, len(m))
	for _, r := range AllRoles() {
		if _, ok := m[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// FeatureColumns returns the distinct column names of resolved feature roles,
// in role order.
func (m Mapping) FeatureColumns() []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range m.Roles() {
		if !r.IsFeature() {
			continue
		}
		c := m[r].Column
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// JSON renders the mapping artifact.
func (m Mapping) JSON() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal mapping: %w", err)
	}
	return string(b), nil
}

// MappingError reports an invalid mapping artifact.
type MappingError struct {
	Reason string
	Err    error
}

func (e *MappingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid column map: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid column map: %s", e.Reason)
}

func (e *MappingError) Unwrap() error { return e.Err }

// ParseMapping decodes a mapping artifact and checks every file index against
// the number of input files.
func ParseMapping(data []byte, nFiles int) (Mapping, error) {
	var raw map[Role]struct {
		Column    *string `json:"column"`
		FileIndex *int    `json:"file_index"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MappingError{Reason: "invalid JSON string", Err: err}
	}
	if raw == nil {
		return nil, &MappingError{Reason: "expected a JSON object"}
	}
	m := make(Mapping, len(raw))
	for r, v := range raw {
		if v.Column == nil || strings.TrimSpace(*v.Column) == "" {
			return nil, &MappingError{Reason: fmt.Sprintf("%s: missing column", r)}
		}
		if v.FileIndex == nil {
			return nil, &MappingError{Reason: fmt.Sprintf("%s: missing file_index", r)}
		}
		if *v.FileIndex < 0 || *v.FileIndex >= nFiles {
			return nil, &MappingError{Reason: fmt.Sprintf("%s: file_index %d out of range for %d file(s)", r, *v.FileIndex, nFiles)}
		}
		m[r] = ColumnRef{Column: *v.Column, FileIndex: *v.FileIndex}
	}
	return m, nil
}

// ResolveMode selects how roles compete for columns.
type ResolveMode string

const (
	// ResolveExclusive skips columns already claimed by an earlier role.
	ResolveExclusive ResolveMode = "exclusive"
	// ResolveIndependent scans every role without regard to earlier claims.
	ResolveIndependent ResolveMode = "independent"
)

// ParseResolveMode accepts "exclusive" (default for empty) or "independent".
func ParseResolveMode(s string) (ResolveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ResolveExclusive):
		return ResolveExclusive, nil
	case string(ResolveIndependent):
		return ResolveIndependent, nil
	default:
		return "", fmt.Errorf("invalid resolve_mode: %s (use exclusive or independent)", s)
	}
}

type claim struct {
	file   int
	column string
}

// Resolve assigns at most one column per role. For each role, files are scanned
// in order, headers in order, then keywords in order; the first header containing
// a keyword (case-insensitive) wins.
func Resolve(headers []table.HeaderSet, mode ResolveMode) Mapping {
	m := Mapping{}
	claimed := map[claim]bool{}
	for _, r := range AllRoles() {
		ref, ok := findColumn(headers, r.Keywords(), func(c claim) bool {
			return mode != ResolveIndependent && claimed[c]
		})
		if !ok {
			continue
		}
		m[r] = ref
		claimed[claim{file: ref.FileIndex, column: ref.Column}] = true
	}
	return m
}

func findColumn(headers []table.HeaderSet, keywords []string, skip func(claim) bool) (ColumnRef, bool) {
	for i, hs := range headers {
		for _, h := range hs {
			if skip(claim{file: i, column: h}) {
				continue
			}
			lower := strings.ToLower(h)
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					return ColumnRef{Column: h, FileIndex: i}, true
				}
			}
		}
	}
	return ColumnRef{}, false
}

// MissingRolesError lists required roles that did not resolve.
type MissingRolesError struct {
	Missing []Role
}

func (e *MissingRolesError) Error() string {
	names := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		names[i] = "'" + r.String() + "'"
	}
	return fmt.Sprintf("could not find a column for required key %s", strings.Join(names, ", "))
}

// ErrNoIDColumn is returned when a mapping lacks the id column.
var ErrNoIDColumn = errors.New("mapping has no id_column")

// Validate checks that every required role resolved.
func Validate(m Mapping) error {
	var missing []Role
	for _, r := range RequiredRoles() {
		if _, ok := m[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return &MissingRolesError{Missing: missing}
	}
	return nil
}
