package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyStatement(t *testing.T) {
	_, err := Parse("   ;  ")
	require.Error(t, err)
}

func TestParse_TrailingSemicolonOptional(t *testing.T) {
	for _, sql := range []string{"USE testdb", "USE testdb;"} {
		stmt, err := Parse(sql)
		require.NoError(t, err)
		s, ok := stmt.(*UseDatabaseStmt)
		require.True(t, ok, "want *UseDatabaseStmt, got %T", stmt)
		assert.Equal(t, "testdb", s.Name)
	}
}

func TestParse_CreateDatabase(t *testing.T) {
	stmt, err := Parse("CREATE DATABASE testdb;")
	require.NoError(t, err)

	s, ok := stmt.(*CreateDatabaseStmt)
	require.True(t, ok, "want *CreateDatabaseStmt, got %T", stmt)
	assert.Equal(t, "testdb", s.Name)
}

func TestParse_CreateDatabase_RejectExtraTokens(t *testing.T) {
	_, err := Parse("CREATE DATABASE testdb ok;")
	require.Error(t, err)
}

func TestParse_DropDatabase(t *testing.T) {
	stmt, err := Parse("DROP DATABASE testdb;")
	require.NoError(t, err)

	s, ok := stmt.(*DropDatabaseStmt)
	require.True(t, ok, "want *DropDatabaseStmt, got %T", stmt)
	assert.Equal(t, "testdb", s.Name)
}

func TestParse_UseDatabase_InvalidIdent(t *testing.T) {
	_, err := Parse("USE 123abc;")
	require.Error(t, err)
}

func TestParse_CreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE users (id INT, name TEXT, active BOOL)")
	require.NoError(t, err)

	s, ok := stmt.(*CreateTableStmt)
	require.True(t, ok, "want *CreateTableStmt, got %T", stmt)

	require.Equal(t, "users", s.TableName)
	require.Len(t, s.Columns, 3)

	assert.Equal(t, ColumnDef{Name: "id", Type: "INT"}, s.Columns[0])
	assert.Equal(t, ColumnDef{Name: "name", Type: "TEXT"}, s.Columns[1])
	assert.Equal(t, ColumnDef{Name: "active", Type: "BOOL"}, s.Columns[2])
	assert.Empty(t, s.Indexes)
}

func TestParse_CreateTable_Keys(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE users (
		id INT, email TEXT, name TEXT,
		PRIMARY KEY (id),
		UNIQUE KEY email (email),
		KEY by_name (name, id))`)
	require.NoError(t, err)

	s := stmt.(*CreateTableStmt)
	require.Len(t, s.Columns, 3)
	require.Len(t, s.Indexes, 3)

	assert.Equal(t, IndexDef{Name: "PRIMARY", Kind: "PRIMARY", Columns: []string{"id"}}, s.Indexes[0])
	assert.Equal(t, IndexDef{Name: "email", Kind: "UNIQUE", Columns: []string{"email"}}, s.Indexes[1])
	assert.Equal(t, IndexDef{Name: "by_name", Kind: "KEY", Columns: []string{"name", "id"}}, s.Indexes[2])
}

func TestParse_CreateTable_Invalid(t *testing.T) {
	_, err := Parse("CREATE TABLE users id INT, name TEXT;")
	require.Error(t, err)

	_, err = Parse("CREATE TABLE users ();")
	require.Error(t, err)
}

func TestParse_DropTable(t *testing.T) {
	stmt, err := Parse("DROP TABLE users;")
	require.NoError(t, err)

	s, ok := stmt.(*DropTableStmt)
	require.True(t, ok, "want *DropTableStmt, got %T", stmt)
	assert.Equal(t, "users", s.TableName)
}

func TestParse_Select_Star(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users")
	require.NoError(t, err)

	s, ok := stmt.(*SelectStmt)
	require.True(t, ok, "want *SelectStmt, got %T", stmt)
	assert.Equal(t, "users", s.TableName)
	assert.Empty(t, s.Projection)
	assert.Nil(t, s.Where)
	assert.Nil(t, s.Limit)
}

func TestParse_Select_Full(t *testing.T) {
	stmt, err := Parse(
		"SELECT id, name FROM other.users WHERE active = 1 AND name != 'bob' ORDER BY name DESC, id LIMIT 5, 10")
	require.NoError(t, err)

	s := stmt.(*SelectStmt)
	assert.Equal(t, "other.users", s.TableName)
	assert.Equal(t, []string{"id", "name"}, s.Projection)

	w, ok := s.Where.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "AND", w.Op)

	require.Len(t, s.OrderBy, 2)
	assert.True(t, s.OrderBy[0].Desc)
	assert.False(t, s.OrderBy[1].Desc)
	assert.Equal(t, &ColumnRefExpr{Name: "name"}, s.OrderBy[0].Expr)

	require.NotNil(t, s.Limit)
	assert.Equal(t, int64(5), s.Limit.Offset)
	assert.Equal(t, int64(10), s.Limit.RowCount)
}

func TestParse_Select_LimitOffsetKeyword(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users LIMIT 10 OFFSET 5")
	require.NoError(t, err)

	s := stmt.(*SelectStmt)
	require.NotNil(t, s.Limit)
	assert.Equal(t, int64(5), s.Limit.Offset)
	assert.Equal(t, int64(10), s.Limit.RowCount)
}

func TestParse_Select_KeywordInsideString(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users WHERE name = ' ORDER BY x '")
	require.NoError(t, err)

	s := stmt.(*SelectStmt)
	assert.Empty(t, s.OrderBy)
	w := s.Where.(*BinaryExpr)
	assert.Equal(t, &LiteralExpr{Value: " ORDER BY x "}, w.Right)
}

func TestParse_Insert_Simple(t *testing.T) {
	stmt, err := Parse("INSERT INTO users (id, name) VALUES (1, 'ann'), (2, 'bob')")
	require.NoError(t, err)

	s, ok := stmt.(*InsertStmt)
	require.True(t, ok, "want *InsertStmt, got %T", stmt)
	assert.Equal(t, "users", s.TableName)
	assert.Equal(t, []string{"id", "name"}, s.Columns)
	assert.False(t, s.Ignore)
	assert.Empty(t, s.OnDupUpdate)

	require.Len(t, s.Rows, 2)
	assert.Equal(t, &LiteralExpr{Value: int64(1)}, s.Rows[0][0])
	assert.Equal(t, &LiteralExpr{Value: "ann"}, s.Rows[0][1])
	assert.Equal(t, &LiteralExpr{Value: int64(2)}, s.Rows[1][0])
}

func TestParse_Insert_NoColumnList(t *testing.T) {
	stmt, err := Parse("INSERT INTO users VALUES (1, 'ann', true, null)")
	require.NoError(t, err)

	s := stmt.(*InsertStmt)
	assert.Empty(t, s.Columns)
	require.Len(t, s.Rows, 1)
	require.Len(t, s.Rows[0], 4)
	assert.Equal(t, &LiteralExpr{Value: true}, s.Rows[0][2])
	assert.Equal(t, &LiteralExpr{Value: nil}, s.Rows[0][3])
}

func TestParse_Insert_Ignore(t *testing.T) {
	stmt, err := Parse("INSERT IGNORE INTO users (id) VALUES (1)")
	require.NoError(t, err)
	assert.True(t, stmt.(*InsertStmt).Ignore)
}

func TestParse_Insert_OnDuplicateKeyUpdate(t *testing.T) {
	stmt, err := Parse(
		"INSERT INTO users (id, count) VALUES (1, 3) ON DUPLICATE KEY UPDATE count = count + VALUES(count)")
	require.NoError(t, err)

	s := stmt.(*InsertStmt)
	require.Len(t, s.OnDupUpdate, 1)
	assert.Equal(t, "count", s.OnDupUpdate[0].Column)

	sum, ok := s.OnDupUpdate[0].Value.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", sum.Op)
	assert.Equal(t, &ColumnRefExpr{Name: "count"}, sum.Left)
	assert.Equal(t, &ValuesFuncExpr{Column: "count"}, sum.Right)
}

func TestParse_Insert_ValueCountMismatchIsLeftToExecution(t *testing.T) {
	// The parser keeps ragged rows; the executor rejects them.
	stmt, err := Parse("INSERT INTO users (id, name) VALUES (1)")
	require.NoError(t, err)
	require.Len(t, stmt.(*InsertStmt).Rows[0], 1)
}

func TestParse_Update(t *testing.T) {
	stmt, err := Parse(
		"UPDATE users SET name = 'ann', count = count + 1 WHERE id = 1 ORDER BY id LIMIT 1")
	require.NoError(t, err)

	s, ok := stmt.(*UpdateStmt)
	require.True(t, ok, "want *UpdateStmt, got %T", stmt)
	assert.Equal(t, "users", s.TableName)
	assert.False(t, s.Ignore)

	require.Len(t, s.Set, 2)
	assert.Equal(t, "name", s.Set[0].Column)
	assert.Equal(t, &LiteralExpr{Value: "ann"}, s.Set[0].Value)
	assert.Equal(t, "count", s.Set[1].Column)

	require.NotNil(t, s.Where)
	require.Len(t, s.OrderBy, 1)
	require.NotNil(t, s.Limit)
	assert.Equal(t, int64(1), s.Limit.RowCount)
}

func TestParse_Update_Ignore(t *testing.T) {
	stmt, err := Parse("UPDATE IGNORE users SET id = 1")
	require.NoError(t, err)
	assert.True(t, stmt.(*UpdateStmt).Ignore)
}

func TestParse_Update_MissingSet(t *testing.T) {
	_, err := Parse("UPDATE users WHERE id = 1")
	require.Error(t, err)
}

func TestParse_Delete(t *testing.T) {
	stmt, err := Parse("DELETE FROM users WHERE active = 0 ORDER BY id DESC LIMIT 3")
	require.NoError(t, err)

	s, ok := stmt.(*DeleteStmt)
	require.True(t, ok, "want *DeleteStmt, got %T", stmt)
	assert.Equal(t, "users", s.TableName)
	require.NotNil(t, s.Where)
	require.Len(t, s.OrderBy, 1)
	assert.True(t, s.OrderBy[0].Desc)
	require.NotNil(t, s.Limit)
	assert.Equal(t, int64(3), s.Limit.RowCount)
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse("TRUNCATE TABLE users;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported statement")
}
