package corpcode

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Searcher answers name and code lookups over an in-memory company list.
// It is read-only after construction and safe for concurrent use.
type Searcher struct {
	companies []Company
	byCode    map[string]int
}

// NewSearcher builds a searcher over the given companies.
func NewSearcher(companies []Company) *Searcher {
	byCode := make(map[string]int, len(companies))
	for i, c := range companies {
		byCode[c.CorpCode] = i
	}
	return &Searcher{companies: companies, byCode: byCode}
}

// LoadSearcher loads the main index file, falling back to the sample file
// when the main one is missing — the sample ships with deployments that
// have not yet downloaded the full archive.
func LoadSearcher(indexPath, samplePath string) (*Searcher, error) {
	path := indexPath
	if _, err := os.Stat(path); err != nil {
		if _, err := os.Stat(samplePath); err != nil {
			return nil, fmt.Errorf("corpcode: no index file found (tried %s, %s)", indexPath, samplePath)
		}
		log.Printf("corpcode: %s missing, using sample index %s", indexPath, samplePath)
		path = samplePath
	}

	idx, err := LoadIndex(path)
	if err != nil {
		return nil, err
	}
	log.Printf("corpcode: loaded %d companies from %s", len(idx.Companies), path)
	return NewSearcher(idx.Companies), nil
}

// Len returns the number of indexed companies.
func (s *Searcher) Len() int { return len(s.companies) }

// SearchByName finds companies whose Korean or English name contains the
// query, case-insensitively, up to limit results in index order.
func (s *Searcher) SearchByName(query string, limit int) []Company {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var results []Company
	for _, c := range s.companies {
		if strings.Contains(strings.ToLower(c.CorpName), query) ||
			(c.CorpEngName != "" && strings.Contains(strings.ToLower(c.CorpEngName), query)) {
			results = append(results, c)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results
}

// SearchExact finds the company whose Korean name matches exactly.
func (s *Searcher) SearchExact(name string) (Company, bool) {
	name = strings.TrimSpace(name)
	for _, c := range s.companies {
		if c.CorpName == name {
			return c, true
		}
	}
	return Company{}, false
}

// ByCorpCode looks a company up by its 8-digit corp code.
func (s *Searcher) ByCorpCode(code string) (Company, bool) {
	i, ok := s.byCode[code]
	if !ok {
		return Company{}, false
	}
	return s.companies[i], true
}

// SearchListed finds listed companies (stock code present) matching the
// query; an empty query returns listed companies in index order.
func (s *Searcher) SearchListed(query string, limit int) []Company {
	query = strings.ToLower(strings.TrimSpace(query))

	var results []Company
	for _, c := range s.companies {
		if !c.Listed() {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.CorpName), query) {
			continue
		}
		results = append(results, c)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// SearchMerged runs the listed-first merged search the web UI uses:
// listed matches first, then any other name matches, de-duplicated by
// corp code, up to limit.
func (s *Searcher) SearchMerged(query string, limit int) []Company {
	listed := s.SearchListed(query, limit/2)
	all := s.SearchByName(query, limit)

	seen := make(map[string]bool, limit)
	var merged []Company
	for _, c := range append(listed, all...) {
		if seen[c.CorpCode] {
			continue
		}
		seen[c.CorpCode] = true
		merged = append(merged, c)
		if len(merged) >= limit {
			break
		}
	}
	return merged
}
