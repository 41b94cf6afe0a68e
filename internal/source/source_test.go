package source

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/query"
)

func people() []Record {
	return []Record{
		{"_id": 1, "name": "alice", "age": 34, "city": "Boston"},
		{"_id": 2, "name": "bob", "age": 27, "city": "Denver"},
		{"_id": 3, "name": "carol", "age": 41, "city": "boston"},
		{"_id": 4, "name": "dave", "age": 27, "city": "Austin"},
	}
}

func names(t *testing.T, src Source, expr query.Expr, opts FindOptions) []string {
	t.Helper()
	seq, err := src.Find(context.Background(), expr, opts)
	require.NoError(t, err)
	records, err := Collect(seq)
	require.NoError(t, err)
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r["name"].(string))
	}
	return out
}

func filterBy(term string, keys ...string) query.Expr {
	fs := make([]field.Field, len(keys))
	for i, k := range keys {
		fs[i] = field.Plain(k)
	}
	return query.Build([]string{term}, fs)
}

func TestCollectionFind(t *testing.T) {
	c, err := NewCollection(people(), WithName("people"))
	require.NoError(t, err)
	assert.Equal(t, "people", c.Name())

	t.Run("all in source order", func(t *testing.T) {
		assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, names(t, c, query.All{}, FindOptions{}))
	})
	t.Run("filter", func(t *testing.T) {
		assert.Equal(t, []string{"alice", "carol"}, names(t, c, filterBy("BOSTON", "city"), FindOptions{}))
	})
	t.Run("sort ascending is stable", func(t *testing.T) {
		got := names(t, c, nil, FindOptions{Sort: Sort{Key: "age", Direction: 1}})
		assert.Equal(t, []string{"bob", "dave", "alice", "carol"}, got)
	})
	t.Run("sort descending", func(t *testing.T) {
		got := names(t, c, nil, FindOptions{Sort: Sort{Key: "name", Direction: -1}})
		assert.Equal(t, []string{"dave", "carol", "bob", "alice"}, got)
	})
	t.Run("window", func(t *testing.T) {
		got := names(t, c, nil, FindOptions{Sort: Sort{Key: "name", Direction: 1}, Skip: 1, Limit: 2})
		assert.Equal(t, []string{"bob", "carol"}, got)
	})
	t.Run("past the end", func(t *testing.T) {
		assert.Empty(t, names(t, c, nil, FindOptions{Skip: 10, Limit: 2}))
	})
	t.Run("count", func(t *testing.T) {
		n, err := c.Count(context.Background(), filterBy("o", "name"))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestCollectionSequenceIsRestartable(t *testing.T) {
	c, err := NewCollection(people()[:1])
	require.NoError(t, err)
	seq, err := c.Find(context.Background(), nil, FindOptions{})
	require.NoError(t, err)

	first, err := Collect(seq)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	c.Insert(Record{"name": "erin"})
	second, err := Collect(seq)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestCollectionWhere(t *testing.T) {
	c, err := NewCollection(people(), WithWhere(`_.age > 30`))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, names(t, c, nil, FindOptions{}))
	assert.Equal(t, []string{"carol"}, names(t, c, filterBy("car", "name"), FindOptions{}))

	_, err = NewCollection(people(), WithWhere(`_.age >`))
	require.Error(t, err)
}

func TestCollectionWhereHeterogeneousRecords(t *testing.T) {
	var logged []string
	log := funcr.New(func(_, args string) { logged = append(logged, args) }, funcr.Options{Verbosity: 1})
	records := append(people(), Record{"_id": 5, "name": "erin"})
	c, err := NewCollection(records, WithWhere(`_.age > 30`), WithLogger(log))
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "carol"}, names(t, c, nil, FindOptions{}))
	n, err := c.Count(context.Background(), query.All{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NotEmpty(t, logged)
	assert.Contains(t, logged[0], `"index"=4`)
}

func TestCollectionKeepsLastPredicate(t *testing.T) {
	c, err := NewCollection(people())
	require.NoError(t, err)

	alice := filterBy("ali", "name")
	first, err := c.predicate(alice)
	require.NoError(t, err)
	again, err := c.predicate(alice)
	require.NoError(t, err)
	assert.Same(t, first, again)

	other, err := c.predicate(filterBy("bo", "name"))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Same(t, other, c.last)

	p, err := c.predicate(query.All{})
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, []string{"alice"}, names(t, c, alice, FindOptions{}))
}

func TestCollectionMutations(t *testing.T) {
	c, err := NewCollection(people())
	require.NoError(t, err)
	calls := 0
	cancel := c.Subscribe(func() { calls++ })

	c.Insert(Record{"name": "erin"})
	require.NoError(t, c.Update(0, Record{"name": "alicia"}))
	require.NoError(t, c.Remove(1))
	require.Error(t, c.Remove(99))
	require.Error(t, c.Update(-1, Record{}))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 4, c.Len())

	first, ok := c.First()
	require.True(t, ok)
	assert.Equal(t, "alicia", first["name"])

	cancel()
	c.Replace(nil)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, c.Len())
	_, ok = c.First()
	assert.False(t, ok)
}

func TestCollectionCancelledContext(t *testing.T) {
	c, err := NewCollection(people())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Count(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompareValues(t *testing.T) {
	records := []Record{
		{"v": "b"},
		{"v": true},
		{"v": 2.5},
		{},
		{"v": nil},
		{"v": "a"},
		{"v": int64(1)},
		{"v": false},
		{"v": []any{1}},
	}
	c, err := NewCollection(records)
	require.NoError(t, err)
	seq, err := c.Find(context.Background(), nil, FindOptions{Sort: Sort{Key: "v", Direction: 1}})
	require.NoError(t, err)
	got, err := Collect(seq)
	require.NoError(t, err)

	var order []any
	for _, r := range got {
		v, ok := r["v"]
		if !ok {
			v = "<missing>"
		}
		order = append(order, v)
	}
	assert.Equal(t, []any{"<missing>", nil, int64(1), 2.5, "a", "b", false, true, []any{1}}, order)

	assert.Equal(t, -1, compareValues(math.NaN(), true, 1, true))
}

type fetcher struct {
	records []Record
	err     error
}

func (f fetcher) Fetch() ([]Record, error) { return f.records, f.err }

func TestFrom(t *testing.T) {
	c, err := NewCollection(nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    any
		wantLen int
		wantErr error
	}{
		{name: "source", data: c, wantLen: 0},
		{name: "records", data: people(), wantLen: 4},
		{name: "any of maps", data: []any{map[string]any{"a": 1}}, wantLen: 1},
		{name: "fetcher", data: fetcher{records: people()[:2]}, wantLen: 2},
		{name: "nil", data: nil, wantErr: ErrUnsupported},
		{name: "string", data: "people", wantErr: ErrUnsupported},
		{name: "mixed slice", data: []any{map[string]any{}, 3}, wantErr: ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := From(tt.data)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			n, err := src.Count(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, n)
		})
	}

	t.Run("fetch error", func(t *testing.T) {
		_, err := From(fetcher{err: errors.New("boom")})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnsupported)
	})
}

func newSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE people (name TEXT, age INTEGER, city TEXT)`)
	require.NoError(t, err)
	for _, p := range people() {
		_, err = db.Exec(`INSERT INTO people (name, age, city) VALUES (?, ?, ?)`, p["name"], p["age"], p["city"])
		require.NoError(t, err)
	}
	return db
}

func TestSQLSource(t *testing.T) {
	src := NewSQL(newSQLite(t), query.SQLite, "people")
	ctx := context.Background()

	t.Run("filter and count", func(t *testing.T) {
		expr := filterBy("boston", "city", "name")
		n, err := src.Count(ctx, expr)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.ElementsMatch(t, []string{"alice", "carol"}, names(t, src, expr, FindOptions{}))
	})
	t.Run("numbers match as text", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"bob", "dave"}, names(t, src, filterBy("27", "age"), FindOptions{}))
	})
	t.Run("like wildcards are literal", func(t *testing.T) {
		n, err := src.Count(ctx, filterBy("%", "name"))
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
	t.Run("sort and window", func(t *testing.T) {
		got := names(t, src, nil, FindOptions{Sort: Sort{Key: "name", Direction: -1}, Skip: 1, Limit: 2})
		assert.Equal(t, []string{"carol", "bob"}, got)
	})
	t.Run("skip without limit", func(t *testing.T) {
		got := names(t, src, nil, FindOptions{Sort: Sort{Key: "name", Direction: 1}, Skip: 3})
		assert.Equal(t, []string{"dave"}, got)
	})
	t.Run("scanned types", func(t *testing.T) {
		seq, err := src.Find(ctx, filterBy("alice", "name"), FindOptions{})
		require.NoError(t, err)
		got, err := Collect(seq)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, Record{"name": "alice", "age": int64(34), "city": "Boston"}, got[0])
	})
	t.Run("notify", func(t *testing.T) {
		calls := 0
		cancel := src.Subscribe(func() { calls++ })
		src.Notify()
		cancel()
		src.Notify()
		assert.Equal(t, 1, calls)
	})
	t.Run("missing table", func(t *testing.T) {
		bad := NewSQL(src.DB(), query.SQLite, "nope")
		_, err := bad.Count(ctx, nil)
		require.Error(t, err)
		seq, err := bad.Find(ctx, nil, FindOptions{})
		require.NoError(t, err)
		_, err = Collect(seq)
		require.Error(t, err)
	})
}

func TestOpen(t *testing.T) {
	src, err := Open(":memory:", "items")
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	_, err = src.DB().Exec(`CREATE TABLE items (name TEXT)`)
	require.NoError(t, err)
	_, err = src.DB().Exec(`INSERT INTO items (name) VALUES ('x'), ('y')`)
	require.NoError(t, err)

	n, err := src.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "items", src.Name())

	_, err = Open(":memory:", "")
	require.Error(t, err)
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		dsn     string
		dialect string
		driver  string
		conn    string
	}{
		{dsn: "postgres://u@localhost/db", dialect: "postgres", driver: "postgres", conn: "postgres://u@localhost/db"},
		{dsn: "host=localhost dbname=app sslmode=disable", dialect: "postgres", driver: "postgres", conn: "host=localhost dbname=app sslmode=disable"},
		{dsn: "mysql://root:pw@tcp(127.0.0.1:3306)/app", dialect: "mysql", driver: "mysql", conn: "root:pw@tcp(127.0.0.1:3306)/app"},
		{dsn: "root@tcp(db:3306)/app", dialect: "mysql", driver: "mysql", conn: "root@tcp(db:3306)/app"},
		{dsn: "sqlite://data.db", dialect: "sqlite", driver: "sqlite", conn: "data.db"},
		{dsn: "people.sqlite", dialect: "sqlite", driver: "sqlite", conn: "people.sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			d, driver, conn := DetectDialect(tt.dsn)
			assert.Equal(t, tt.dialect, d.Name)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.conn, conn)
		})
	}
}
