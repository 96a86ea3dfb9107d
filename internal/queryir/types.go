package queryir

import "fmt"

// EntryAlias is the alias of the entries table in every EntrySelect.
const EntryAlias = "e"

// SortDirection orders entries by creation time.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// EntrySelect reads the entries of one collection.
//
// Semantics:
//
//	SELECT e.* FROM entries e
//	  INNER JOIN <join.Table> <join.Alias>
//	    ON <join.Alias>.<entry column> = e.id AND <join.Alias>.field_id = <join.FieldID>
//	  ...
//	WHERE e.collection_id = <CollectionID> AND <Filter>
//	ORDER BY e.created_at <Order>, e.rowid <Order>
type EntrySelect struct {
	CollectionID string
	Joins        []ValueJoin
	Filter       Predicate // nil = no filter
	Order        SortDirection
}

// ValueJoin is an inner join from entries to one value table, restricted to
// rows of a single field.
type ValueJoin struct {
	Alias   string
	Table   Table
	FieldID string
}

// ColumnRef names a column on an alias (a join alias, an Exists alias, or
// EntryAlias).
type ColumnRef struct {
	Alias  string
	Column string
}

func (c ColumnRef) String() string {
	return c.Alias + "." + c.Column
}

// Col is shorthand for building a ColumnRef.
func Col(alias, column string) ColumnRef {
	return ColumnRef{Alias: alias, Column: column}
}

// Predicate represents a filter condition. Sealed to this package.
type Predicate interface {
	predicateNode()
}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq  CompareOp = "="
	OpNeq CompareOp = "<>"
	OpGt  CompareOp = ">"
	OpGte CompareOp = ">="
	OpLt  CompareOp = "<"
	OpLte CompareOp = "<="
)

// Valid reports whether op is a known operator.
func (op CompareOp) Valid() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// Compare is <column> <op> <literal>. A NULL column never satisfies it.
type Compare struct {
	Column ColumnRef
	Op     CompareOp
	Value  Literal
}

func (Compare) predicateNode() {}

// Like is <column> LIKE <pattern>. The pattern is used verbatim: wildcard
// characters already present in user input are not escaped.
type Like struct {
	Column  ColumnRef
	Pattern string
}

func (Like) predicateNode() {}

// IsNull is <column> IS NULL, or IS NOT NULL when Negated.
type IsNull struct {
	Column  ColumnRef
	Negated bool
}

func (IsNull) predicateNode() {}

// Exists is an EXISTS (or NOT EXISTS when Negated) subquery over rows of one
// value table belonging to the outer entry and one field.
//
// Semantics:
//
//	[NOT] EXISTS (SELECT 1 FROM <Table> <Alias>
//	  WHERE <Alias>.<entry column> = e.id AND <Alias>.field_id = <FieldID> [AND <Filter>])
type Exists struct {
	Alias   string
	Table   Table
	FieldID string
	Filter  Predicate // may reference Alias; nil = any row
	Negated bool
}

func (Exists) predicateNode() {}

// And is a conjunction. Empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Literal is a typed comparison operand. Sealed to this package.
type Literal interface {
	literalNode()
	// Any returns the Go value bound as a query parameter.
	Any() any
}

// String is a text literal.
type String string

func (String) literalNode() {}
func (s String) Any() any  { return string(s) }

// Number is a 64-bit float literal.
type Number float64

func (Number) literalNode() {}
func (n Number) Any() any  { return float64(n) }

// Bool is a boolean literal.
type Bool bool

func (Bool) literalNode() {}
func (b Bool) Any() any    { return bool(b) }

// Table describes one physical table addressed by the IR.
type Table struct {
	Name        string
	EntryColumn string // column holding the owning entry id
	ValueColumn string // payload column compared by filters
}

func (t Table) String() string {
	return t.Name
}

// Value tables, one per data kind.
var (
	TextValues       = Table{Name: "entry_text_values", EntryColumn: "entry_id", ValueColumn: "value"}
	TypstTextValues  = Table{Name: "entry_typst_text_values", EntryColumn: "entry_id", ValueColumn: "raw"}
	BooleanValues    = Table{Name: "entry_boolean_values", EntryColumn: "entry_id", ValueColumn: "value"}
	NumberValues     = Table{Name: "entry_number_values", EntryColumn: "entry_id", ValueColumn: "value"}
	DateTimeValues   = Table{Name: "entry_date_time_values", EntryColumn: "entry_id", ValueColumn: "value"}
	TextListValues   = Table{Name: "entry_text_list_values", EntryColumn: "entry_id", ValueColumn: "value"}
	NumberListValues = Table{Name: "entry_number_list_values", EntryColumn: "entry_id", ValueColumn: "value"}
	RelationValues   = Table{Name: "entry_relation_values", EntryColumn: "from_entry_id", ValueColumn: "to_entry_id"}
	ObjectValues     = Table{Name: "entry_object_values", EntryColumn: "entry_id", ValueColumn: "value"}
)

// ValueTables lists every value table.
var ValueTables = []Table{
	TextValues, TypstTextValues, BooleanValues, NumberValues, DateTimeValues,
	TextListValues, NumberListValues, RelationValues, ObjectValues,
}

// IsValueTable reports whether t is one of the known value tables.
func IsValueTable(t Table) bool {
	for _, known := range ValueTables {
		if known == t {
			return true
		}
	}
	return false
}

// JoinAlias returns the alias for the n-th value join of a query.
func JoinAlias(n int) string {
	return fmt.Sprintf("v%d", n)
}

// ExistsAlias returns the alias for the n-th EXISTS subquery of a query.
func ExistsAlias(n int) string {
	return fmt.Sprintf("x%d", n)
}
