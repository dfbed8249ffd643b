package vector

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/ticketrag/internal/chunkid"
	"github.com/hyperjump/ticketrag/internal/models"
)

// backends returns a fresh instance of every local Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	mem, err := NewMemoryStore(3)
	if err != nil {
		t.Fatal(err)
	}
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "vectors.db"), "tickets", 3)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{"memory": mem, "sqlite": sq}
}

func meta(user, ticket string) models.Metadata {
	return models.Metadata{models.MetaUserID: user, models.MetaTicketID: ticket, models.MetaChunkIndex: 0}
}

func seed(t *testing.T, s Store) {
	t.Helper()
	err := s.Upsert(context.Background(),
		[]string{chunkid.New("t1", 0, 0, "alice"), chunkid.New("t1", 0, 1, "alice"), chunkid.New("t2", 0, 0, "bob")},
		[]string{"printer jammed", "printer fixed", "vpn down"},
		[]models.Metadata{meta("alice", "t1"), meta("alice", "t1"), meta("bob", "t2")},
		[][]float32{{1, 0, 0}, {0.8, 0.6, 0}, {1, 0, 0}},
	)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestStore_QueryIsScoped(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			res, err := s.Query(context.Background(), [][]float32{{1, 0, 0}}, 10, map[string]string{models.MetaUserID: "alice"})
			if err != nil {
				t.Fatal(err)
			}
			if len(res.IDs) != 1 || len(res.IDs[0]) != 2 {
				t.Fatalf("ids = %v", res.IDs)
			}
			for _, m := range res.Metadatas[0] {
				if m.String(models.MetaUserID) != "alice" {
					t.Errorf("leaked chunk of %q", m.String(models.MetaUserID))
				}
			}
			if res.Documents[0][0] != "printer jammed" {
				t.Errorf("closest = %q", res.Documents[0][0])
			}
			if res.Distances[0][0] > res.Distances[0][1] {
				t.Errorf("distances not ascending: %v", res.Distances[0])
			}
			if res.Distances[0][0] > 1e-6 {
				t.Errorf("identical vector distance = %v", res.Distances[0][0])
			}
		})
	}
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			seed(t, s)
			n, err := s.Count(context.Background(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if n != 3 {
				t.Errorf("Count = %d, want 3", n)
			}
			n, _ = s.Count(context.Background(), map[string]string{models.MetaUserID: "alice"})
			if n != 2 {
				t.Errorf("alice count = %d, want 2", n)
			}
		})
	}
}

func TestStore_nResultsPerQuery(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			res, err := s.Query(context.Background(), [][]float32{{1, 0, 0}, {0, 1, 0}}, 1, nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.IDs) != 2 || len(res.IDs[0]) != 1 || len(res.IDs[1]) != 1 {
				t.Fatalf("ids = %v", res.IDs)
			}
			if res.Documents[1][0] != "printer fixed" {
				t.Errorf("second query closest = %q", res.Documents[1][0])
			}
		})
	}
}

func TestStore_DeleteAndIDs(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			ctx := context.Background()
			if err := s.Delete(ctx, []string{chunkid.New("t2", 0, 0, "bob"), "unknown"}); err != nil {
				t.Fatal(err)
			}
			ids, err := s.IDs(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(ids) != 2 || ids[0] != chunkid.New("t1", 0, 0, "alice") {
				t.Errorf("ids = %v", ids)
			}
		})
	}
}

func TestStore_dimensionMismatch(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Upsert(context.Background(), []string{"x"}, []string{"d"}, []models.Metadata{{}}, [][]float32{{1, 0}})
			var se *models.StoreError
			if !errors.As(err, &se) {
				t.Errorf("err = %v, want StoreError", err)
			}
		})
	}
}

// idOnly hides any native WhereDeleter so DeleteWhere takes the id-convention path.
type idOnly struct{ Store }

func TestDeleteWhere(t *testing.T) {
	for name, s := range backends(t) {
		for _, wrap := range []struct {
			label string
			store Store
		}{{"native", s}, {"id-convention", idOnly{s}}} {
			t.Run(name+"/"+wrap.label, func(t *testing.T) {
				ctx := context.Background()
				seed(t, s)
				_ = s.Upsert(ctx, []string{chunkid.New("t3", 1, 0, "alice")}, []string{"other"},
					[]models.Metadata{meta("alice", "t3")}, [][]float32{{0, 0, 1}})

				n, err := DeleteWhere(ctx, wrap.store, map[string]string{models.MetaUserID: "alice", models.MetaTicketID: "t1"})
				if err != nil {
					t.Fatal(err)
				}
				if n != 2 {
					t.Errorf("deleted %d, want 2", n)
				}
				n, err = DeleteWhere(ctx, wrap.store, map[string]string{models.MetaUserID: "alice"})
				if err != nil {
					t.Fatal(err)
				}
				if n != 1 {
					t.Errorf("deleted %d, want 1", n)
				}
				left, _ := s.Count(ctx, nil)
				if left != 1 {
					t.Errorf("left %d, want bob's 1", left)
				}
			})
		}
	}
}

func TestDeleteWhere_scopeContainingMarker(t *testing.T) {
	ctx := context.Background()
	mem, _ := NewMemoryStore(3)
	ids := []string{chunkid.New("t1", 0, 0, "b"), chunkid.New("t2", 0, 0, "a:u:b")}
	metas := []models.Metadata{meta("b", "t1"), meta("a:u:b", "t2")}
	if err := mem.Upsert(ctx, ids, []string{"one", "two"}, metas, [][]float32{{1, 0, 0}, {0, 1, 0}}); err != nil {
		t.Fatal(err)
	}
	for name, s := range map[string]Store{"id-convention": idOnly{mem}, "native": mem} {
		t.Run(name, func(t *testing.T) {
			n, err := DeleteWhere(ctx, s, map[string]string{models.MetaUserID: "b"})
			if err != nil {
				t.Fatal(err)
			}
			if n > 1 {
				t.Errorf("deleted %d, want at most 1", n)
			}
			left, _ := mem.Count(ctx, map[string]string{models.MetaUserID: "a:u:b"})
			if left != 1 {
				t.Errorf("chunks left for a:u:b = %d, want 1", left)
			}
		})
	}
}

func TestDeleteWhere_shimRejectsUnknownKeys(t *testing.T) {
	mem, _ := NewMemoryStore(3)
	if _, err := DeleteWhere(context.Background(), idOnly{mem}, map[string]string{models.MetaProject: "tickets"}); err == nil {
		t.Error("expected error without userId")
	}
	_, err := DeleteWhere(context.Background(), idOnly{mem}, map[string]string{models.MetaUserID: "a", models.MetaURL: "x"})
	if err == nil {
		t.Error("expected error for key not in id convention")
	}
}
