package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/coregx/wee"
)

type Item struct{ wee.Model }

var itemSchema = wee.NewSchema("Item", wee.Fillable("name", "price"), wee.WithoutTimestamps())

func (*Item) Schema() *wee.Schema { return itemSchema }

func setup(b *testing.B) *wee.Conn {
	b.Helper()
	conn, err := wee.Open("sqlite", ":memory:", wee.WithMaxOpenConns(1))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	if _, err := conn.Execute(ctx, `CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT, price INTEGER)`); err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		if _, err := conn.Table("items").Insert(map[string]any{"name": fmt.Sprintf("item %d", i), "price": i}); err != nil {
			b.Fatal(err)
		}
	}
	return conn
}

func BenchmarkRender(b *testing.B) {
	conn, err := wee.Open("pgsql", "")
	if err != nil {
		b.Fatal(err)
	}
	defer conn.Close()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, _ = conn.Table("items").
			Select("id", "name").
			Where("price", 10).
			WhereOp("name", "LIKE", "item%").
			OrderBy("id", "desc").
			Limit(10).
			ToSQL()
	}
}

func BenchmarkSelect(b *testing.B) {
	conn := setup(b)

	b.Run("Builder", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := conn.Table("items").Where("price", i%100).Get(); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Find", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := wee.Find[Item](conn, i%100+1); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.ReportMetric(conn.CacheStats().HitRate(), "cache-hit-rate")
}

func BenchmarkCreate(b *testing.B) {
	conn := setup(b)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := wee.Create[Item](conn, map[string]any{"name": "bench", "price": i}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTransactional(b *testing.B) {
	conn := setup(b)
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		err := conn.Transactional(ctx, func(tx *wee.Conn) error {
			item, err := wee.Create[Item](tx, map[string]any{"name": "tx", "price": i})
			if err != nil {
				return err
			}
			return item.Update(map[string]any{"price": i + 1})
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}
