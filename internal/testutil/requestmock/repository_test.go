package requestmock

import (
	"context"
	"errors"
	"testing"

	domain "municipal-portal/internal/domain/request"
)

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}

	if err := m.Create(ctx, &domain.Request{}); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
	if err := m.Update(ctx, 1, domain.Patch{}); err != nil {
		t.Fatalf("Update default: want nil, got %v", err)
	}
	if got, err := m.GetByID(ctx, 1); err != context.Canceled || got != nil {
		t.Fatalf("GetByID default: want (nil, context.Canceled), got (%v, %v)", got, err)
	}
	if got, err := m.GetByIDForUpdate(ctx, 1); err != context.Canceled || got != nil {
		t.Fatalf("GetByIDForUpdate default: want (nil, context.Canceled), got (%v, %v)", got, err)
	}
}

func TestRepo_ForwardsToFuncs(t *testing.T) {
	ctx := context.Background()
	want := &domain.Request{ID: 9}
	wantErr := errors.New("boom")
	var patched domain.Patch

	m := &Repo{
		GetByIDFn: func(gotCtx context.Context, id uint64) (*domain.Request, error) {
			if gotCtx != ctx || id != 9 {
				t.Fatalf("GetByID args mismatch: %d", id)
			}
			return want, nil
		},
		UpdateFn: func(_ context.Context, id uint64, p domain.Patch) error {
			patched = p
			return wantErr
		},
	}

	got, err := m.GetByID(ctx, 9)
	if err != nil || got != want {
		t.Fatalf("GetByID: got (%v, %v)", got, err)
	}
	folder := "x"
	if err := m.Update(ctx, 9, domain.Patch{FolderPath: &folder}); !errors.Is(err, wantErr) {
		t.Fatalf("Update: want %v, got %v", wantErr, err)
	}
	if patched.FolderPath == nil || *patched.FolderPath != "x" {
		t.Fatalf("Update: patch not forwarded: %+v", patched)
	}
}
