package insights

import (
	"context"
	"sync"

	"github.com/cadencio-app/cadencio/internal/domain"
)

// Watch runs query once immediately and again after every commit that
// writes one of collections, handing each result to deliver. Commits that
// land while a query is running coalesce into one rerun. Every run reads
// through its own View, so a result never mixes pre- and post-commit state.
//
// The returned stop func unsubscribes and waits for the loop to exit.
func Watch[T any](
	ctx context.Context,
	store domain.Store,
	collections []domain.Collection,
	query func(context.Context, domain.Tx) (T, error),
	deliver func(T, error),
) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	signal := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(collections, func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		run := func() {
			var out T
			err := store.View(ctx, func(tx domain.Tx) error {
				var err error
				out, err = query(ctx, tx)
				return err
			})
			if ctx.Err() != nil {
				return
			}
			deliver(out, err)
		}

		run()
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				run()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			cancel()
			wg.Wait()
		})
	}
}

// WatchDashboard recomputes the dashboard on every relevant commit.
func WatchDashboard(ctx context.Context, store domain.Store, opt func() Options, deliver func(Dashboard, error)) (stop func()) {
	return Watch(ctx, store, domain.AllCollections,
		func(_ context.Context, tx domain.Tx) (Dashboard, error) {
			o := opt()
			snap, err := ReadSnapshot(tx, o.RecentLimit, o.Timezone)
			if err != nil {
				return Dashboard{}, err
			}
			return Compute(snap, o), nil
		},
		deliver,
	)
}
