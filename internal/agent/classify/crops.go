package classify

import "strings"

// cropAlias maps surface forms to the canonical Vietnamese crop name.
// Ordered so compound names ("khoai lang", "hồ tiêu") match before their
// shorter substrings.
type cropAlias struct {
	name string
	keys []string
}

var cropAliases = []cropAlias{
	{"cà phê", []string{"cà phê", "cafe", "coffee"}},
	{"khoai lang", []string{"khoai lang"}},
	{"khoai tây", []string{"khoai tây", "khoai"}},
	{"hồ tiêu", []string{"hồ tiêu", "hạt tiêu", "tiêu"}},
	{"lúa", []string{"lúa", "gạo"}},
	{"ngô", []string{"ngô", "bắp"}},
	{"cao su", []string{"cao su"}},
	{"điều", []string{"hạt điều", "cây điều"}},
	{"dừa", []string{"dừa"}},
	{"chuối", []string{"chuối"}},
	{"xoài", []string{"xoài"}},
	{"bưởi", []string{"bưởi"}},
	{"cam", []string{"cây cam", "trồng cam"}},
	{"chanh", []string{"chanh"}},
	{"đậu", []string{"đậu"}},
	{"rau", []string{"trồng rau", "rau màu"}},
}

// ExtractCrop finds a crop named in the lower-cased utterance.
// Returns "" when none is mentioned.
func ExtractCrop(lower string) string {
	for _, c := range cropAliases {
		for _, key := range c.keys {
			if strings.Contains(lower, key) {
				return c.name
			}
		}
	}
	return ""
}
