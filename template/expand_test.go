package template

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPassthroughWithoutTemplates(t *testing.T) {
	stmt, err := Expand(Query{
		SQL:    "SELECT * FROM users WHERE id = :id",
		Params: map[string]any{"id": 7},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE id = :id", stmt.SQL)
	assert.Equal(t, map[string]any{"id": 7}, stmt.Params)
}

func TestExpandInList(t *testing.T) {
	stmt, err := Expand(Query{
		SQL:       "SELECT * FROM users WHERE {in__name}",
		Templates: map[string]Input{"in__name": In("bob", "tom", "chic")},
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM users WHERE name IN (:name_0, :name_1, :name_2)", stmt.SQL)
	assert.Equal(t, map[string]any{
		"name_0": "bob",
		"name_1": "tom",
		"name_2": "chic",
	}, stmt.Params)
}

func TestExpandInListBindsOneParamPerValueInOrder(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		values := make([]any, n)
		for i := range values {
			values[i] = i * 10
		}
		stmt, err := Expand(Query{
			SQL:       "SELECT 1 FROM t WHERE {in__v}",
			Templates: map[string]Input{"in__v": In(values...)},
		})
		require.NoError(t, err)
		require.Len(t, stmt.Params, n)
		for i := range values {
			assert.Equal(t, i*10, stmt.Params[fmt.Sprintf("v_%d", i)])
		}
	}
}

func TestExpandNotInList(t *testing.T) {
	stmt, err := Expand(Query{
		SQL:       "SELECT * FROM users WHERE {not_in__status}",
		Templates: map[string]Input{"not_in__status": NotIn("deleted", "banned")},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE status NOT IN (:status_0, :status_1)", stmt.SQL)
}

func TestExpandQualifiedColumn(t *testing.T) {
	stmt, err := Expand(Query{
		SQL:       "SELECT * FROM actors a WHERE {in__a.name}",
		Templates: map[string]Input{"in__a.name": In("bob")},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM actors a WHERE a.name IN (:a_name_0)", stmt.SQL)
	assert.Equal(t, "bob", stmt.Params["a_name_0"])
}

func TestExpandEmptyInListFails(t *testing.T) {
	_, err := Expand(Query{
		SQL:       "SELECT * FROM users WHERE {in__name}",
		Templates: map[string]Input{"in__name": In()},
	})
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "in__name", te.Placeholder)
}

func TestExpandEmptyNotInListFails(t *testing.T) {
	_, err := Expand(Query{
		SQL:       "SELECT * FROM users WHERE {not_in__name}",
		Templates: map[string]Input{"not_in__name": NotIn()},
	})
	var te *Error
	require.ErrorAs(t, err, &te)
}

func TestExpandValues(t *testing.T) {
	stmt, err := Expand(Query{
		SQL: "INSERT INTO users {values__users}",
		Templates: map[string]Input{"values__users": Values(
			RowOf("name", "alice", "email", "a@example.com"),
			RowOf("name", "bob", "email", "b@example.com"),
		)},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO users (name, email) VALUES (:users_0_name, :users_0_email), (:users_1_name, :users_1_email)",
		stmt.SQL)
	assert.Equal(t, map[string]any{
		"users_0_name":  "alice",
		"users_0_email": "a@example.com",
		"users_1_name":  "bob",
		"users_1_email": "b@example.com",
	}, stmt.Params)
}

func TestExpandValuesUsesFirstRowColumnOrder(t *testing.T) {
	stmt, err := Expand(Query{
		SQL: "INSERT INTO t {values__t}",
		Templates: map[string]Input{"values__t": Values(
			RowOf("b", 2, "a", 1),
			RowOf("a", 3, "b", 4), // same set, different order
		)},
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (b, a) VALUES (:t_0_b, :t_0_a), (:t_1_b, :t_1_a)", stmt.SQL)
	assert.Equal(t, 4, stmt.Params["t_1_b"])
	assert.Equal(t, 3, stmt.Params["t_1_a"])
}

func TestExpandValuesParamCount(t *testing.T) {
	rows := make([]Row, 7)
	for i := range rows {
		rows[i] = RowOf("a", i, "b", i, "c", i)
	}
	stmt, err := Expand(Query{
		SQL:       "INSERT INTO t {values__t}",
		Templates: map[string]Input{"values__t": Values(rows...)},
	})
	require.NoError(t, err)
	assert.Len(t, stmt.Params, 7*3)
}

func TestExpandValuesColumnMismatchFails(t *testing.T) {
	_, err := Expand(Query{
		SQL: "INSERT INTO t {values__t}",
		Templates: map[string]Input{"values__t": Values(
			RowOf("a", 1, "b", 2),
			RowOf("a", 1, "c", 2),
		)},
	})
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Error(), "column set")
}

func TestExpandValuesEmptyFails(t *testing.T) {
	_, err := Expand(Query{
		SQL:       "INSERT INTO t {values__t}",
		Templates: map[string]Input{"values__t": Values()},
	})
	var te *Error
	require.ErrorAs(t, err, &te)
}

func TestExpandMissingTemplateParamFails(t *testing.T) {
	_, err := Expand(Query{
		SQL: "SELECT * FROM t WHERE {in__name}",
	})
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "in__name", te.Placeholder)
}

func TestExpandKindMismatchFails(t *testing.T) {
	_, err := Expand(Query{
		SQL:       "SELECT * FROM t WHERE {in__name}",
		Templates: map[string]Input{"in__name": Values(RowOf("a", 1))},
	})
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Error(), "kind")
}

func TestExpandUnusedTemplateParamFails(t *testing.T) {
	_, err := Expand(Query{
		SQL:       "SELECT * FROM t",
		Templates: map[string]Input{"in__name": In(1)},
	})
	var te *Error
	require.ErrorAs(t, err, &te)
}

func TestExpandRepeatedPlaceholderSharesBindings(t *testing.T) {
	stmt, err := Expand(Query{
		SQL:       "SELECT * FROM t WHERE {in__id} OR (archived AND {in__id})",
		Templates: map[string]Input{"in__id": In(1, 2)},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM t WHERE id IN (:id_0, :id_1) OR (archived AND id IN (:id_0, :id_1))",
		stmt.SQL)
	assert.Equal(t, map[string]any{"id_0": 1, "id_1": 2}, stmt.Params)
}

func TestExpandParamCollisionFails(t *testing.T) {
	_, err := Expand(Query{
		SQL:       "SELECT * FROM t WHERE x = :name_0 AND {in__name}",
		Params:    map[string]any{"name_0": "caller"},
		Templates: map[string]Input{"in__name": In("generated")},
	})
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Error(), "collides")
}

func TestExpandIsDeterministic(t *testing.T) {
	q := Query{
		SQL:    "SELECT * FROM t WHERE {in__id} AND {not_in__state} AND owner = :owner",
		Params: map[string]any{"owner": uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		Templates: map[string]Input{
			"in__id":        In(1, 2, 3),
			"not_in__state": NotIn("x"),
		},
	}

	first, err := Expand(q)
	require.NoError(t, err)
	second, err := Expand(q)
	require.NoError(t, err)

	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, first.Params, second.Params)
}

func TestExpandMultipleTemplatesInOneQuery(t *testing.T) {
	stmt, err := Expand(Query{
		SQL:    "SELECT * FROM t WHERE {in__a} AND {not_in__b} AND c = :c",
		Params: map[string]any{"c": 9},
		Templates: map[string]Input{
			"in__a":     In(1, 2),
			"not_in__b": NotIn("x", "y"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM t WHERE a IN (:a_0, :a_1) AND b NOT IN (:b_0, :b_1) AND c = :c",
		stmt.SQL)
	assert.Len(t, stmt.Params, 5)
}

func TestExpandDoesNotMutateQueryParams(t *testing.T) {
	params := map[string]any{"c": 1}
	_, err := Expand(Query{
		SQL:       "SELECT * FROM t WHERE {in__a} AND c = :c",
		Params:    params,
		Templates: map[string]Input{"in__a": In(5)},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"c": 1}, params)
}

func TestScanTokensCacheHitMatchesMiss(t *testing.T) {
	sql := "SELECT * FROM cache_probe WHERE {in__k}"
	parseCache.Remove(sql)

	miss := scanTokens(sql)
	hit := scanTokens(sql)
	assert.Equal(t, miss, hit)

	cached, ok := parseCache.Get(sql)
	require.True(t, ok)
	assert.Equal(t, miss, cached)
}
