package delivery

import (
	"path/filepath"
	"testing"

	"github.com/forest-guardian/global-mining-labels/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	records := []metadata.Record{
		{ImageID: "a", SiteNo: "peru_rio_quimiri_downstream_1"},
		{ImageID: "b", SiteNo: "mali_faleme_upper_1"},
		{ImageID: "c", SiteNo: "peru_la_pampa_south_agm_region_1"},
		{ImageID: "d", SiteNo: "peru_la_pampa_south_agm_region_2"},
		{ImageID: "e", SiteNo: "peru_la_pampa_south_agm_region_2"},
		{ImageID: "f", SiteNo: "atlantis_1"},
	}
	s := Summarize(records)

	assert.Equal(t, 6, s.Images)
	require.Len(t, s.Sites, 4)
	assert.Equal(t, SiteSummary{BaseSite: "mali_faleme_upper", ImageCount: 1, Country: "Mali", Continent: "Africa", Split: "train"}, s.Sites[0])
	assert.Equal(t, "peru_la_pampa_south_agm_region", s.Sites[1].BaseSite)
	assert.Equal(t, 3, s.Sites[1].ImageCount)
	assert.Equal(t, "peru_rio_quimiri_downstream", s.Sites[2].BaseSite)
	assert.Equal(t, "atlantis", s.Sites[3].BaseSite)
	assert.Equal(t, metadata.Unknown, s.Sites[3].Continent)

	assert.Equal(t, []GroupTotal{
		{Key: "Africa", Sites: 1, Images: 1},
		{Key: "South America", Sites: 2, Images: 4},
		{Key: metadata.Unknown, Sites: 1, Images: 1},
	}, s.ByContinent)
	assert.Equal(t, []GroupTotal{
		{Key: "train", Sites: 2, Images: 4},
		{Key: "val", Sites: 1, Images: 1},
	}, s.BySplit)

	path := filepath.Join(t.TempDir(), "misc", "base_site_counts.csv")
	require.NoError(t, WriteSummary(path, s))
}
