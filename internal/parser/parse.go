package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// parseIdent validates an identifier (db/table/column name).
// Rules (simple):
//   - must be exactly one token (no spaces)
//   - first char: letter or '_'
//   - rest: letter/digit/'_'
func parseIdent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("missing identifier")
	}

	parts := strings.Fields(s)
	if len(parts) != 1 {
		return "", fmt.Errorf("invalid identifier %q", s)
	}
	id := parts[0]

	for i, r := range id {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return "", fmt.Errorf("invalid identifier %q", id)
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", fmt.Errorf("invalid identifier %q", id)
		}
	}

	return id, nil
}

// parseTableIdent accepts "table" or "db.table".
func parseTableIdent(s string) (string, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("invalid table name %q", s)
	}
	for _, p := range parts {
		if _, err := parseIdent(p); err != nil {
			return "", fmt.Errorf("invalid table name %q: %w", s, err)
		}
	}
	return s, nil
}

// Parse parses a single SQL statement into an AST. A trailing ';' is
// accepted and stripped.
func Parse(sql string) (Statement, error) {
	s := strings.TrimSpace(sql)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return nil, fmt.Errorf("empty statement")
	}

	up := strings.ToUpper(s)

	switch {
	// database
	case strings.HasPrefix(up, "CREATE DATABASE"):
		return parseCreateDatabase(s)
	case strings.HasPrefix(up, "DROP DATABASE"):
		return parseDropDatabase(s)
	case strings.HasPrefix(up, "USE "):
		return parseUseDatabase(s)

	// table
	case strings.HasPrefix(up, "CREATE TABLE"):
		return parseCreateTable(s)
	case strings.HasPrefix(up, "DROP TABLE"):
		return parseDropTable(s)

	case strings.HasPrefix(up, "INSERT "):
		return parseInsert(s)
	case strings.HasPrefix(up, "SELECT"):
		return parseSelect(s)
	case strings.HasPrefix(up, "UPDATE"):
		return parseUpdate(s)
	case strings.HasPrefix(up, "DELETE FROM"):
		return parseDelete(s)

	default:
		return nil, fmt.Errorf("unsupported statement: %q", sql)
	}
}

func parseCreateDatabase(sql string) (Statement, error) {
	rest := strings.TrimSpace(sql[len("CREATE DATABASE"):])
	name, err := parseIdent(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE DATABASE syntax: %w", err)
	}
	return &CreateDatabaseStmt{Name: name}, nil
}

func parseDropDatabase(sql string) (Statement, error) {
	rest := strings.TrimSpace(sql[len("DROP DATABASE"):])
	name, err := parseIdent(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid DROP DATABASE syntax: %w", err)
	}
	return &DropDatabaseStmt{Name: name}, nil
}

func parseUseDatabase(sql string) (Statement, error) {
	rest := strings.TrimSpace(sql[len("USE "):])
	name, err := parseIdent(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid USE syntax: %w", err)
	}
	return &UseDatabaseStmt{Name: name}, nil
}

func parseCreateTable(sql string) (Statement, error) {
	// "CREATE TABLE users (id INT, email TEXT,
	//  PRIMARY KEY (id), UNIQUE KEY email (email), KEY by_name (name))"
	withoutPrefix := strings.TrimSpace(sql[len("CREATE TABLE"):])
	parts := strings.SplitN(withoutPrefix, "(", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax")
	}

	tableName, err := parseTableIdent(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: %w", err)
	}

	defPart := strings.TrimSpace(parts[1])
	if !strings.HasSuffix(defPart, ")") {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: missing ')'")
	}
	defPart = strings.TrimSpace(defPart[:len(defPart)-1])
	if defPart == "" {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: empty column list")
	}

	var cols []ColumnDef
	var indexes []IndexDef
	for _, def := range splitList(defPart) {
		def = strings.TrimSpace(def)
		up := strings.ToUpper(def)

		switch {
		case strings.HasPrefix(up, "PRIMARY KEY"):
			fields, err := parseParenIdentList(def[len("PRIMARY KEY"):])
			if err != nil {
				return nil, fmt.Errorf("invalid PRIMARY KEY def: %w", err)
			}
			indexes = append(indexes, IndexDef{Name: "PRIMARY", Kind: "PRIMARY", Columns: fields})

		case strings.HasPrefix(up, "UNIQUE KEY"):
			name, fields, err := parseNamedKey(def[len("UNIQUE KEY"):])
			if err != nil {
				return nil, fmt.Errorf("invalid UNIQUE KEY def: %w", err)
			}
			indexes = append(indexes, IndexDef{Name: name, Kind: "UNIQUE", Columns: fields})

		case strings.HasPrefix(up, "KEY "):
			name, fields, err := parseNamedKey(def[len("KEY "):])
			if err != nil {
				return nil, fmt.Errorf("invalid KEY def: %w", err)
			}
			indexes = append(indexes, IndexDef{Name: name, Kind: "KEY", Columns: fields})

		default:
			toks := strings.Fields(def)
			if len(toks) < 2 {
				return nil, fmt.Errorf("invalid column def: %q", def)
			}
			colName, err := parseIdent(toks[0])
			if err != nil {
				return nil, fmt.Errorf("invalid column name: %w", err)
			}
			cols = append(cols, ColumnDef{
				Name: colName,
				Type: strings.ToUpper(toks[1]),
			})
		}
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: no columns")
	}

	return &CreateTableStmt{
		TableName: tableName,
		Columns:   cols,
		Indexes:   indexes,
	}, nil
}

// parseNamedKey parses "name (col, col)".
func parseNamedKey(s string) (string, []string, error) {
	s = strings.TrimSpace(s)
	open := strings.Index(s, "(")
	if open < 0 {
		return "", nil, fmt.Errorf("missing column list in %q", s)
	}
	name, err := parseIdent(s[:open])
	if err != nil {
		return "", nil, err
	}
	fields, err := parseParenIdentList(s[open:])
	if err != nil {
		return "", nil, err
	}
	return name, fields, nil
}

// parseParenIdentList parses "(a, b, c)".
func parseParenIdentList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("expected parenthesized list, got %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, fmt.Errorf("empty column list")
	}
	var out []string
	for _, p := range splitList(inner) {
		id, err := parseIdent(p)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func parseDropTable(sql string) (Statement, error) {
	rest := strings.TrimSpace(sql[len("DROP TABLE"):])
	name, err := parseTableIdent(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid DROP TABLE syntax: %w", err)
	}
	return &DropTableStmt{TableName: name}, nil
}

func parseInsert(sql string) (Statement, error) {
	// "INSERT [IGNORE] INTO t [(a, b)] VALUES (1, 'x'), (2, 'y')
	//  [ON DUPLICATE KEY UPDATE a = VALUES(a)]"
	rest := strings.TrimSpace(sql[len("INSERT"):])
	ignore := false
	if up := strings.ToUpper(rest); strings.HasPrefix(up, "IGNORE ") {
		ignore = true
		rest = strings.TrimSpace(rest[len("IGNORE"):])
	}
	up := strings.ToUpper(rest)
	if !strings.HasPrefix(up, "INTO ") {
		return nil, fmt.Errorf("invalid INSERT syntax: missing INTO")
	}
	rest = strings.TrimSpace(rest[len("INTO"):])

	rest, dupPart := splitKeyword(rest, "ON DUPLICATE KEY UPDATE")
	head, valPart := splitKeyword(rest, "VALUES")
	if strings.TrimSpace(valPart) == "" {
		return nil, fmt.Errorf("invalid INSERT syntax: missing VALUES")
	}

	head = strings.TrimSpace(head)
	var columns []string
	tablePart := head
	if open := strings.Index(head, "("); open >= 0 {
		tablePart = head[:open]
		cols, err := parseParenIdentList(head[open:])
		if err != nil {
			return nil, fmt.Errorf("invalid INSERT column list: %w", err)
		}
		columns = cols
	}
	tableName, err := parseTableIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid INSERT syntax: %w", err)
	}

	var rows [][]Expr
	for _, rawRow := range splitList(valPart) {
		rawRow = strings.TrimSpace(rawRow)
		if !strings.HasPrefix(rawRow, "(") || !strings.HasSuffix(rawRow, ")") {
			return nil, fmt.Errorf("invalid INSERT values syntax: %q", rawRow)
		}
		inner := strings.TrimSpace(rawRow[1 : len(rawRow)-1])
		var exprs []Expr
		for _, rv := range splitList(inner) {
			e, err := ParseExpr(strings.TrimSpace(rv))
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
		rows = append(rows, exprs)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("invalid INSERT syntax: no value rows")
	}

	var onDup []Assignment
	if strings.TrimSpace(dupPart) != "" {
		as, err := parseAssignments(dupPart)
		if err != nil {
			return nil, fmt.Errorf("invalid ON DUPLICATE KEY UPDATE: %w", err)
		}
		onDup = as
	}

	return &InsertStmt{
		TableName:   tableName,
		Columns:     columns,
		Rows:        rows,
		Ignore:      ignore,
		OnDupUpdate: onDup,
	}, nil
}

func parseSelect(sql string) (Statement, error) {
	// "SELECT <proj> FROM t [WHERE ...] [ORDER BY ...] [LIMIT ...]"
	rest := strings.TrimSpace(sql[len("SELECT"):])
	projPart, rest := splitKeyword(rest, "FROM")
	if strings.TrimSpace(rest) == "" {
		return nil, fmt.Errorf("invalid SELECT syntax: missing FROM")
	}

	var projection []string
	projPart = strings.TrimSpace(projPart)
	if projPart != "*" {
		for _, p := range splitList(projPart) {
			id, err := parseIdent(p)
			if err != nil {
				return nil, fmt.Errorf("invalid SELECT projection: %w", err)
			}
			projection = append(projection, id)
		}
	}

	rest, limitPart := splitKeyword(rest, "LIMIT")
	rest, orderPart := splitKeyword(rest, "ORDER BY")
	tablePart, wherePart := splitKeyword(rest, "WHERE")

	tableName, err := parseTableIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid SELECT syntax: %w", err)
	}

	where, orderBy, limit, err := parseTailClauses(wherePart, orderPart, limitPart)
	if err != nil {
		return nil, err
	}

	return &SelectStmt{
		TableName:  tableName,
		Projection: projection,
		Where:      where,
		OrderBy:    orderBy,
		Limit:      limit,
	}, nil
}

func parseUpdate(sql string) (Statement, error) {
	// "UPDATE [IGNORE] t SET a = 1, b = b + 1 [WHERE ...] [ORDER BY ...] [LIMIT ...]"
	rest := strings.TrimSpace(sql[len("UPDATE"):])
	ignore := false
	if up := strings.ToUpper(rest); strings.HasPrefix(up, "IGNORE ") {
		ignore = true
		rest = strings.TrimSpace(rest[len("IGNORE"):])
	}

	tablePart, afterTable := splitKeyword(rest, "SET")
	tableName, err := parseTableIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid UPDATE syntax: %w", err)
	}

	afterTable, limitPart := splitKeyword(afterTable, "LIMIT")
	afterTable, orderPart := splitKeyword(afterTable, "ORDER BY")
	setPart, wherePart := splitKeyword(afterTable, "WHERE")

	setPart = strings.TrimSpace(setPart)
	if setPart == "" {
		return nil, fmt.Errorf("invalid UPDATE syntax: missing SET")
	}
	assigns, err := parseAssignments(setPart)
	if err != nil {
		return nil, fmt.Errorf("invalid UPDATE syntax: %w", err)
	}

	where, orderBy, limit, err := parseTailClauses(wherePart, orderPart, limitPart)
	if err != nil {
		return nil, err
	}

	return &UpdateStmt{
		TableName: tableName,
		Ignore:    ignore,
		Set:       assigns,
		Where:     where,
		OrderBy:   orderBy,
		Limit:     limit,
	}, nil
}

func parseDelete(sql string) (Statement, error) {
	// "DELETE FROM t [WHERE ...] [ORDER BY ...] [LIMIT ...]"
	rest := strings.TrimSpace(sql[len("DELETE FROM"):])

	rest, limitPart := splitKeyword(rest, "LIMIT")
	rest, orderPart := splitKeyword(rest, "ORDER BY")
	tablePart, wherePart := splitKeyword(rest, "WHERE")

	tableName, err := parseTableIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid DELETE syntax: %w", err)
	}

	where, orderBy, limit, err := parseTailClauses(wherePart, orderPart, limitPart)
	if err != nil {
		return nil, err
	}

	return &DeleteStmt{
		TableName: tableName,
		Where:     where,
		OrderBy:   orderBy,
		Limit:     limit,
	}, nil
}

func parseTailClauses(wherePart, orderPart, limitPart string) (Expr, []OrderBy, *Limit, error) {
	var where Expr
	if strings.TrimSpace(wherePart) != "" {
		w, err := ParseExpr(wherePart)
		if err != nil {
			return nil, nil, nil, err
		}
		where = w
	}

	var orderBy []OrderBy
	if strings.TrimSpace(orderPart) != "" {
		o, err := parseOrderList(orderPart)
		if err != nil {
			return nil, nil, nil, err
		}
		orderBy = o
	}

	var limit *Limit
	if strings.TrimSpace(limitPart) != "" {
		l, err := parseLimit(limitPart)
		if err != nil {
			return nil, nil, nil, err
		}
		limit = l
	}

	return where, orderBy, limit, nil
}

func parseOrderList(s string) ([]OrderBy, error) {
	var out []OrderBy
	for _, part := range splitList(s) {
		part = strings.TrimSpace(part)
		desc := false
		up := strings.ToUpper(part)
		switch {
		case strings.HasSuffix(up, " DESC"):
			desc = true
			part = strings.TrimSpace(part[:len(part)-len(" DESC")])
		case strings.HasSuffix(up, " ASC"):
			part = strings.TrimSpace(part[:len(part)-len(" ASC")])
		}
		e, err := ParseExpr(part)
		if err != nil {
			return nil, fmt.Errorf("invalid ORDER BY: %w", err)
		}
		out = append(out, OrderBy{Expr: e, Desc: desc})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("invalid ORDER BY: empty")
	}
	return out, nil
}

// parseLimit accepts "N", "OFFSET, N" (MySQL comma form) and
// "N OFFSET M".
func parseLimit(s string) (*Limit, error) {
	s = strings.TrimSpace(s)

	if parts := splitList(s); len(parts) == 2 {
		off, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LIMIT offset %q", parts[0])
		}
		n, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LIMIT count %q", parts[1])
		}
		return &Limit{Offset: off, RowCount: n}, nil
	}

	countPart, offPart := splitKeyword(s, "OFFSET")
	n, err := strconv.ParseInt(strings.TrimSpace(countPart), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LIMIT count %q", countPart)
	}
	var off int64
	if strings.TrimSpace(offPart) != "" {
		off, err = strconv.ParseInt(strings.TrimSpace(offPart), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LIMIT offset %q", offPart)
		}
	}
	if n < 0 || off < 0 {
		return nil, fmt.Errorf("negative LIMIT")
	}
	return &Limit{Offset: off, RowCount: n}, nil
}

func parseAssignments(s string) ([]Assignment, error) {
	parts := splitList(s)
	assigns := make([]Assignment, 0, len(parts))
	for _, a := range parts {
		a = strings.TrimSpace(a)
		idx := topLevelAssignIndex(a)
		if idx < 0 {
			return nil, fmt.Errorf("invalid assignment: %q", a)
		}

		col, err := parseIdent(a[:idx])
		if err != nil {
			return nil, fmt.Errorf("invalid assignment column: %w", err)
		}

		e, err := ParseExpr(a[idx+1:])
		if err != nil {
			return nil, err
		}

		assigns = append(assigns, Assignment{Column: col, Value: e})
	}
	return assigns, nil
}

// topLevelAssignIndex finds the '=' separating column from value,
// skipping quoted regions and parenthesized expressions.
func topLevelAssignIndex(s string) int {
	depth := 0
	inQuote := false
	for i, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case inQuote:
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == '=' && depth == 0:
			return i
		}
	}
	return -1
}

// splitKeyword splits "X <keyword> Y" case-insensitively, ignoring
// occurrences inside string literals. Returns (X, Y); if the keyword
// is not present, (s, ""). The keyword must be surrounded by spaces.
func splitKeyword(s, keyword string) (string, string) {
	masked := maskQuoted(s)
	k := " " + strings.ToUpper(keyword) + " "
	idx := strings.Index(masked, k)
	if idx < 0 {
		return s, ""
	}
	left := strings.TrimSpace(s[:idx])
	right := strings.TrimSpace(s[idx+len(k):])
	return left, right
}

// maskQuoted uppercases s with every quoted character blanked out, so
// keyword searches never match inside string literals.
func maskQuoted(s string) string {
	out := []rune(strings.ToUpper(s))
	inQuote := false
	for i, r := range s {
		if r == '\'' {
			inQuote = !inQuote
			out[i] = ' '
			continue
		}
		if inQuote {
			out[i] = '\x00'
		}
	}
	return string(out)
}

// splitList splits a comma-separated list at paren depth zero,
// ignoring commas inside quotes.
func splitList(s string) []string {
	parts := []string{}
	cur := strings.Builder{}
	depth := 0
	inQuote := false
	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case inQuote:
			cur.WriteRune(r)
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			depth--
			cur.WriteRune(r)
		case r == ',' && depth == 0:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	return parts
}
