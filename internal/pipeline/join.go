package pipeline

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/churnguard-cli/internal/schema"
	"github.com/KaramelBytes/churnguard-cli/internal/table"
)

// Assembler turns a resolved mapping into a dense feature matrix. Recoverable
// problems are logged and collected in Warnings.
type Assembler struct {
	Log      *zap.Logger
	Warnings []string
}

// NewAssembler returns an Assembler logging to log (a no-op logger if nil).
func NewAssembler(log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{Log: log}
}

func (a *Assembler) logger() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

func (a *Assembler) warn(msg string, fields ...zap.Field) {
	a.logger().Warn(msg, fields...)
	a.Warnings = append(a.Warnings, msg)
}

// Join builds the base table from the id column's file and left-joins every
// other resolved role column into it. Roles whose column or ID-like key cannot
// be found are skipped with a warning.
func (a *Assembler) Join(src Source, m schema.Mapping) (*table.Table, error) {
	idRef, ok := m[schema.RoleID]
	if !ok {
		return nil, schema.ErrNoIDColumn
	}
	idFile, err := src.Load(idRef.FileIndex)
	if err != nil {
		return nil, &FileError{Index: idRef.FileIndex, Path: src.Path(idRef.FileIndex), Err: err}
	}
	if !idFile.Has(idRef.Column) {
		return nil, fmt.Errorf("id column %q not found in file %d", idRef.Column, idRef.FileIndex)
	}
	base, err := idFile.Select(idRef.Column)
	if err != nil {
		return nil, err
	}

	for _, r := range m.Roles() {
		if r == schema.RoleID {
			continue
		}
		ref := m[r]
		if base.Has(ref.Column) {
			continue
		}
		if next, ok := a.mergeColumn(src, base, idRef.Column, ref, r.String()); ok {
			base = next
		}
	}
	return base, nil
}

// mergeColumn left-joins ref.Column from its file into base keyed on idName.
func (a *Assembler) mergeColumn(src Source, base *table.Table, idName string, ref schema.ColumnRef, what string) (*table.Table, bool) {
	f, err := src.Load(ref.FileIndex)
	if err != nil {
		a.warn(fmt.Sprintf("Could not read file %d for merging column '%s', skipping...", ref.FileIndex, ref.Column),
			zap.String("role", what), zap.String("path", src.Path(ref.FileIndex)), zap.Error(err))
		return base, false
	}
	if !f.Has(ref.Column) {
		a.warn(fmt.Sprintf("Column '%s' not found in file %d, skipping...", ref.Column, ref.FileIndex),
			zap.String("role", what), zap.Int("file_index", ref.FileIndex))
		return base, false
	}
	key := idLikeColumn(f.Columns())
	if key == "" || key == ref.Column {
		a.warn(fmt.Sprintf("Could not find ID column in file %d for merging column '%s', skipping...", ref.FileIndex, ref.Column),
			zap.String("role", what), zap.Int("file_index", ref.FileIndex))
		return base, false
	}
	a.logger().Debug("merging column",
		zap.String("role", what), zap.String("column", ref.Column),
		zap.String("foreign_key", key), zap.String("key", idName))
	return leftJoin(base, idName, f, key, ref.Column), true
}

// idLikeColumn returns the first header containing "id" or "customer".
func idLikeColumn(headers []string) string {
	for _, h := range headers {
		l := strings.ToLower(h)
		if strings.Contains(l, "id") || strings.Contains(l, "customer") {
			return h
		}
	}
	return ""
}

// leftJoin keeps every base row in order. A base row matching several foreign
// rows is repeated once per match; an unmatched row gets a missing value.
func leftJoin(base *table.Table, baseKey string, foreign *table.Table, foreignKey, col string) *table.Table {
	fk, _ := foreign.Column(foreignKey)
	fc, _ := foreign.Column(col)
	bk, _ := base.Column(baseKey)

	lookup := make(map[string][]int, foreign.Len())
	for j := 0; j < foreign.Len(); j++ {
		if k, ok := fk.Key(j); ok {
			lookup[k] = append(lookup[k], j)
		}
	}
	left := make([]int, 0, base.Len())
	right := make([]int, 0, base.Len())
	for i := 0; i < base.Len(); i++ {
		var matches []int
		if k, ok := bk.Key(i); ok {
			matches = lookup[k]
		}
		if len(matches) == 0 {
			left = append(left, i)
			right = append(right, -1)
			continue
		}
		for _, j := range matches {
			left = append(left, i)
			right = append(right, j)
		}
	}
	out := base.Take(left)
	// lengths match by construction
	_ = out.Add(fc.Take(right))
	return out
}
