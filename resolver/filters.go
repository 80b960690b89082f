package resolver

import "sync"

// URLTemplateFilter rewrites a URL right before it is fetched.
type URLTemplateFilter func(url string) string

type urlFilters struct {
	mu      sync.RWMutex
	filters []URLTemplateFilter
}

func (f *urlFilters) push(filter URLTemplateFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
}

func (f *urlFilters) pop() URLTemplateFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.filters) == 0 {
		return nil
	}
	last := f.filters[len(f.filters)-1]
	f.filters = f.filters[:len(f.filters)-1]
	return last
}

func (f *urlFilters) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = nil
}

func (f *urlFilters) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.filters)
}

// apply runs every filter in registration order.
func (f *urlFilters) apply(url string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, filter := range f.filters {
		url = filter(url)
	}
	return url
}
