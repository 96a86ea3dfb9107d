package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult contains the structural analysis of a query.
type ValidationResult struct {
	// IsValid is true when the query can be compiled by a backend.
	IsValid bool

	// Problems lists every structural defect found. Empty when IsValid.
	Problems []string
}

// Err returns the problems as a single error, or nil when valid.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return fmt.Errorf("invalid query: %s", strings.Join(r.Problems, "; "))
}

// Validate checks that a query is well formed:
//  1. CollectionID is set
//  2. Aliases are unique and every join/exists names a known value table
//  3. Every column reference resolves to an alias in scope
//  4. Operators, literals and sort direction are known
//
// Validate is a pure function with no side effects.
func Validate(q EntrySelect) ValidationResult {
	v := &validator{
		problems: []string{},
		scope:    map[string]bool{EntryAlias: true},
		declared: map[string]bool{EntryAlias: true},
	}
	v.validateSelect(q)

	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
	scope    map[string]bool // aliases visible at the current point
	declared map[string]bool // every alias declared anywhere in the query
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) declare(alias string) {
	if alias == "" {
		v.addProblem("empty alias")
		return
	}
	if v.declared[alias] {
		v.addProblem("duplicate alias %q", alias)
	}
	v.declared[alias] = true
}

func (v *validator) validateSelect(q EntrySelect) {
	if q.CollectionID == "" {
		v.addProblem("collection id is required")
	}

	switch q.Order {
	case SortAsc, SortDesc:
	default:
		v.addProblem("unknown sort direction %q", q.Order)
	}

	for _, join := range q.Joins {
		v.declare(join.Alias)
		if !IsValueTable(join.Table) {
			v.addProblem("join %q references unknown table %q", join.Alias, join.Table.Name)
		}
		if join.FieldID == "" {
			v.addProblem("join %q has no field id", join.Alias)
		}
		v.scope[join.Alias] = true
	}

	if q.Filter != nil {
		v.validatePredicate(q.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		// nil predicates are valid (no filter)
	case Compare:
		v.validateColumn(pred.Column)
		if !pred.Op.Valid() {
			v.addProblem("unknown operator %q on %s", pred.Op, pred.Column)
		}
		if pred.Value == nil {
			v.addProblem("nil literal compared with %s", pred.Column)
		}
	case Like:
		v.validateColumn(pred.Column)
	case IsNull:
		v.validateColumn(pred.Column)
	case Exists:
		v.validateExists(pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateExists(ex Exists) {
	v.declare(ex.Alias)
	if !IsValueTable(ex.Table) {
		v.addProblem("exists %q references unknown table %q", ex.Alias, ex.Table.Name)
	}
	if ex.FieldID == "" {
		v.addProblem("exists %q has no field id", ex.Alias)
	}

	// The subquery alias is only visible inside its own filter.
	v.scope[ex.Alias] = true
	v.validatePredicate(ex.Filter)
	delete(v.scope, ex.Alias)
}

func (v *validator) validateColumn(c ColumnRef) {
	if c.Column == "" {
		v.addProblem("empty column on alias %q", c.Alias)
	}
	if !v.scope[c.Alias] {
		v.addProblem("column %s references alias %q that is not in scope", c, c.Alias)
	}
}
