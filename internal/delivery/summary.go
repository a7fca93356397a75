package delivery

import (
	"sort"

	"github.com/forest-guardian/global-mining-labels/internal/metadata"
)

// SiteSummary is one line of the per-site image count table.
type SiteSummary struct {
	BaseSite   string `csv:"base_site"`
	ImageCount int    `csv:"image_count"`
	Country    string `csv:"country"`
	Continent  string `csv:"continent"`
	Split      string `csv:"split"`
}

// GroupTotal aggregates sites by continent, country or split.
type GroupTotal struct {
	Key    string
	Sites  int
	Images int
}

type Summary struct {
	Sites       []SiteSummary
	Images      int
	ByContinent []GroupTotal
	ByCountry   []GroupTotal
	BySplit     []GroupTotal
}

// Summarize counts images per base site, sorted by continent, country and
// descending image count.
func Summarize(records []metadata.Record) Summary {
	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		key := rec.BaseSiteKey()
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}

	sites := make([]SiteSummary, 0, len(order))
	for _, key := range order {
		country, continent := metadata.Location(key)
		sites = append(sites, SiteSummary{
			BaseSite:   key,
			ImageCount: counts[key],
			Country:    country,
			Continent:  continent,
			Split:      metadata.Split(key),
		})
	}
	sort.SliceStable(sites, func(i, j int) bool {
		a, b := sites[i], sites[j]
		if a.Continent != b.Continent {
			return a.Continent < b.Continent
		}
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		return a.ImageCount > b.ImageCount
	})

	return Summary{
		Sites:       sites,
		Images:      len(records),
		ByContinent: groupBy(sites, func(s SiteSummary) string { return s.Continent }),
		ByCountry:   groupBy(sites, func(s SiteSummary) string { return s.Continent + " / " + s.Country }),
		BySplit:     groupBy(sites, func(s SiteSummary) string { return s.Split }),
	}
}

func groupBy(sites []SiteSummary, key func(SiteSummary) string) []GroupTotal {
	idx := make(map[string]int)
	var out []GroupTotal
	for _, s := range sites {
		k := key(s)
		if k == "" {
			continue
		}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, GroupTotal{Key: k})
		}
		out[i].Sites++
		out[i].Images += s.ImageCount
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func WriteSummary(path string, s Summary) error {
	return writeCSV(path, &s.Sites)
}
