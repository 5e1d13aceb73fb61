package world

import "testing"

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 7

	a := Generate(cfg).All()
	b := Generate(cfg).All()
	if len(a) != len(townPlan) {
		t.Fatalf("expected %d locations, got %d", len(townPlan), len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("location %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
		if a[i].Danger < 0 || a[i].Danger > 1 {
			t.Fatalf("danger out of range for %s: %f", a[i].ID, a[i].Danger)
		}
	}
}

func TestCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]Location{{ID: "a"}, {ID: "a"}})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
	if _, err := NewCatalog([]Location{{ID: ""}}); err == nil {
		t.Fatal("expected empty id error")
	}
}

func TestNearest(t *testing.T) {
	c, err := NewCatalog([]Location{
		{ID: "home", Position: HexCoord{0, 0}, Affordances: AffordRest},
		{ID: "far-work", Position: HexCoord{5, 0}, Affordances: AffordWork},
		{ID: "near-work", Position: HexCoord{1, 0}, Affordances: AffordWork | AffordTrade},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	got, ok := c.Nearest("home", AffordWork)
	if !ok || got.ID != "near-work" {
		t.Fatalf("expected near-work, got %q (ok=%v)", got.ID, ok)
	}
	if _, ok := c.Nearest("home", AffordPatrol); ok {
		t.Fatal("expected no patrol location")
	}
	if _, ok := c.Nearest("nowhere", AffordWork); ok {
		t.Fatal("expected unknown origin to fail")
	}
}

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b HexCoord
		want int
	}{
		{HexCoord{0, 0}, HexCoord{0, 0}, 0},
		{HexCoord{0, 0}, HexCoord{3, 0}, 3},
		{HexCoord{0, 0}, HexCoord{2, -1}, 2},
		{HexCoord{-1, 2}, HexCoord{1, -1}, 3},
	}
	for _, tc := range cases {
		if got := Distance(tc.a, tc.b); got != tc.want {
			t.Fatalf("Distance(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
