// Package refresh provides a Loadable decorator that reloads the wrapped
// value on a schedule.
//
// The schedule is either a fixed interval or a standard five-field cron
// expression. On each activation the decorator resets the wrapped
// Loadable and loads it again, so subscribers see a fresh
// loading -> loaded cycle per refresh. The refresher starts with the
// first Load and stops on Cancel, Reset, or Close.
//
// Basic usage:
//
//	loader, err := refresh.NewWithConfig[Quote](base, refresh.Config{
//		Schedule: "*/5 * * * *",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	loader.Load(ctx) // initial load; refreshes every five minutes after
//
// For sub-minute cadences use an interval instead:
//
//	loader, err := refresh.New[Quote](base, 10*time.Second)
package refresh
