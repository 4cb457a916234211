package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"barkeep/internal/domain"
	"barkeep/internal/repository"
)

func setupDS(t *testing.T) *DrinkService {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewDrinkService(store)
}

func TestDrink_Create_Valid(t *testing.T) {
	ctx := context.Background()
	ds := setupDS(t)
	d, err := ds.Create(ctx, domain.Drink{Name: "Negroni", Description: "bitter", Recipe: "# Stir"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.ID == 0 {
		t.Fatalf("expected id assigned")
	}
	if !d.InStock {
		t.Fatalf("new drink must be in stock by default")
	}
}

func TestDrink_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	ds := setupDS(t)
	if _, err := ds.Create(ctx, domain.Drink{Name: "", Description: "d", Recipe: "r"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := ds.Create(ctx, domain.Drink{Name: "N", Description: "", Recipe: "r"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := ds.Create(ctx, domain.Drink{Name: "N", Description: "d", Recipe: ""}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDrink_Update_Get_Delete(t *testing.T) {
	ctx := context.Background()
	ds := setupDS(t)
	d, _ := ds.Create(ctx, domain.Drink{Name: "Negroni", Description: "bitter", Recipe: "stir"})

	// get
	got, err := ds.GetByID(ctx, d.ID)
	if err != nil || got.ID != d.ID {
		t.Fatalf("get failed: %v", err)
	}

	// full replace of mutable fields
	up, err := ds.Update(ctx, domain.Drink{
		ID:          d.ID,
		Name:        "Negroni Sbagliato",
		Description: "with prosecco",
		Recipe:      "stir, top up",
		InStock:     false,
	})
	if err != nil {
		t.Fatalf("update err: %v", err)
	}
	if up.Name != "Negroni Sbagliato" || up.InStock {
		t.Fatalf("not updated: %+v", up)
	}
	if !up.CreatedAt.Equal(d.CreatedAt) {
		t.Fatalf("createdAt changed on update")
	}

	// delete
	if err := ds.Delete(ctx, d.ID); err != nil {
		t.Fatalf("delete err: %v", err)
	}
	if _, err := ds.GetByID(ctx, d.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDrink_MissingRowsExplicit(t *testing.T) {
	ctx := context.Background()
	ds := setupDS(t)

	// update и delete несуществующего напитка — явный NotFound, не тихий no-op
	if _, err := ds.Update(ctx, domain.Drink{ID: 99, Name: "X", Description: "x", Recipe: "x"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update: %v", err)
	}
	if err := ds.Delete(ctx, 99); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("delete: %v", err)
	}
}

func TestDrink_RenderRecipe(t *testing.T) {
	ctx := context.Background()
	ds := setupDS(t)
	d, _ := ds.Create(ctx, domain.Drink{Name: "Negroni", Description: "bitter", Recipe: "# Negroni\n\n- gin\n- campari"})

	html, err := ds.RenderRecipe(ctx, d.ID)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "<li>gin</li>") {
		t.Fatalf("unexpected html: %s", out)
	}

	if _, err := ds.RenderRecipe(ctx, 999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDrink_SetImage(t *testing.T) {
	ctx := context.Background()
	ds := setupDS(t)
	d, _ := ds.Create(ctx, domain.Drink{Name: "Negroni", Description: "bitter", Recipe: "stir"})

	up, err := ds.SetImage(ctx, d.ID, "/uploads/drink-1.png")
	if err != nil {
		t.Fatalf("set image: %v", err)
	}
	if up.ImageURL != "/uploads/drink-1.png" {
		t.Fatalf("image not set: %+v", up)
	}
	if up.Name != d.Name || !up.InStock {
		t.Fatalf("other fields must not change: %+v", up)
	}

	if _, err := ds.SetImage(ctx, 999, "/uploads/x.png"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
