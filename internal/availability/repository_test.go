package availability

import (
	"context"
	"testing"

	"taxibooking/internal/testutil"
	"taxibooking/pkg/db"
)

func TestRepository_AdjustBookedNeverNegative(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	date := testutil.Date("2031-01-15")

	d, err := repo.AdjustBooked(ctx, date, -1)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if d.CarsBooked != 0 {
		t.Fatalf("expected 0, got %d", d.CarsBooked)
	}
	for i := 0; i < 2; i++ {
		if d, err = repo.AdjustBooked(ctx, date, 1); err != nil {
			t.Fatalf("adjust: %v", err)
		}
	}
	if d, _ = repo.AdjustBooked(ctx, date, -5); d.CarsBooked != 0 {
		t.Fatalf("expected clamp at 0, got %d", d.CarsBooked)
	}
}

func TestRepository_SyncUpsertsByDate(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	booked := 3
	blocked := true
	if _, err := repo.Save(ctx, Day{Date: testutil.Date("2031-02-01"), CarsBooked: 3, Source: "admin"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var res SyncResult
	err := db.RunInTx(ctx, pool, func(ctx context.Context) error {
		var err error
		res, err = repo.Sync(ctx, []Patch{
			{Date: "2031-02-01", CarsBooked: &booked},
			{Date: "2031-02-02", IsBlocked: &blocked},
		})
		return err
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Inserted != 1 || res.Unchanged != 1 || res.Updated != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	days, err := repo.Range(ctx, testutil.Date("2031-02-01"), testutil.Date("2031-02-02"))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(days) != 2 || !days[1].IsBlocked || days[1].Source != "sync" || days[0].Source != "admin" {
		t.Fatalf("unexpected days %+v", days)
	}
}
