package metadata

import "strings"

type location struct {
	prefix    string
	country   string
	continent string
}

// locations is searched in order; the first prefix contained in the site
// name wins, so "russia_mongolia_border" is Russian.
var locations = []location{
	{"nicaragua", "Nicaragua", "North America"},
	{"peru", "Peru", "South America"},
	{"russia", "Russia", "Asia"},
	{"mozambique", "Mozambique", "Africa"},
	{"french_guiana", "French Guiana", "South America"},
	{"cameroon", "Cameroon", "Africa"},
	{"myanmar", "Myanmar", "Asia"},
	{"drc", "Democratic Republic of the Congo", "Africa"},
	{"mali", "Mali", "Africa"},
	{"mongolia", "Mongolia", "Asia"},
	{"nigeria", "Nigeria", "Africa"},
	{"senegal", "Senegal", "Africa"},
	{"indonesia", "Indonesia", "Asia"},
	{"sierra_leone", "Sierra Leone", "Africa"},
	{"venezuela", "Venezuela", "South America"},
	{"phillipines", "Philippines", "Asia"},
}

const Unknown = "Unknown"

// Location returns the country and continent of a base site.
func Location(baseSite string) (country, continent string) {
	lower := strings.ToLower(baseSite)
	for _, l := range locations {
		if strings.Contains(lower, l.prefix) {
			return l.country, l.continent
		}
	}
	return Unknown, Unknown
}

var splits = map[string]string{
	"cameroon_kadei_river_batouri_agm_region":            "train",
	"drc_lindi_river_upper_agm_region":                   "val",
	"mali_faleme_upper":                                  "train",
	"mozambique_manica_TSTM":                             "train",
	"nigeria_ijesa_agm_region_TSTM":                      "val",
	"senegal_river_gambie_agm_region_TSTM":               "test",
	"sierra_leone_pampan_river_gold_diamond_region":      "test",
	"indonesia_madreng_agm_region":                       "train",
	"indonesia_kulu_agm_region":                          "val",
	"indonesia_batang_hari_bedaro_agm_region":            "train",
	"indonesia_west_kalimantan_selimbau_agm_region_TSTM": "train",
	"mongolia_gatsuurt_agm_region":                       "test",
	"myanmar_chindwin_river_hkamti_agm_region":           "train",
	"myanmar_chindwin_river_ningbyen_agm_region":         "train",
	"myanmar_namsi_awng_agm_region":                      "train",
	"myanmar_theinkun_agm_region":                        "train",
	"myanmar_kawbyin_agm_region_TSTM":                    "train",
	"myanmar_maw_luu_agm_region":                         "val",
	"phillipines_quiniput_downstream_agm_region_TSTM":    "test",
	"russia_mongolia_border_agm_region":                  "val",
	"russia_novotroitsk_agm_region_TSTM":                 "train",
	"russia_tumnin_agm_region_TSTM":                      "train",
	"russia_koryak_plateau":                              "train",
	"russia_tumnin_tributary_agm_region_TSTM":            "train",
	"russia_edakuy_agm_region_TSTM":                      "train",
	"nicaragua_somotillo_agm_region":                     "test",
	"french_guiana_deux_branches_agm_region_TSTM":        "test",
	"peru_la_pampa_south_agm_region":                     "train",
	"peru_rio_quimiri_downstream":                        "val",
	"peru_la_pampa_north_agm_region":                     "train",
	"peru_rio_inambari_channel_agm_region":               "train",
	"peru_tournavista_agm_region_TSTM":                   "train",
	"venezuela_yapacana_south_agm_region_TSTM":           "test",
}

// Split returns the dataset split a base site belongs to, or "" when the
// site is not assigned.
func Split(baseSite string) string {
	return splits[baseSite]
}

// Splits returns a copy of the site split table.
func Splits() map[string]string {
	out := make(map[string]string, len(splits))
	for k, v := range splits {
		out[k] = v
	}
	return out
}
