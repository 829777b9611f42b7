package git

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// FetchAll refreshes the configured remote of every available repository
// in parallel. It fetches even when automatic refresh is disabled.
func (s *Service) FetchAll(ctx context.Context) FetchReport {
	slots, skipped, err := s.resolver.Expand(BothRepositories)
	report := FetchReport{Fetched: []string{}, Errors: []string{}}
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
	}
	for key, err := range skipped {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", key, err))
	}

	var mu sync.Mutex
	p := pool.New().WithContext(ctx)
	for _, slot := range slots {
		p.Go(func(ctx context.Context) error {
			b, err := s.backendFor(slot)
			if err == nil {
				err = s.fetchSlot(ctx, slot, b)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors = append(report.Errors, err.Error())
				return nil
			}
			report.Fetched = append(report.Fetched, slot.Key)
			return nil
		})
	}
	_ = p.Wait()

	slices.Sort(report.Fetched)
	slices.Sort(report.Errors)
	report.Success = len(report.Errors) == 0
	if report.Success {
		report.Message = fmt.Sprintf("Fetched %s", strings.Join(report.Fetched, ", "))
	} else {
		report.Message = fmt.Sprintf("%d of %d repositories failed to fetch", len(report.Errors), len(report.Errors)+len(report.Fetched))
	}
	return report
}
