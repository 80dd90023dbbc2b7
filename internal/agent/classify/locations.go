package classify

import (
	"regexp"
	"strings"
)

// locationAlias maps surface forms to a canonical place name the weather
// provider resolves. Aliases for a province point at its main city, since
// the provider keys on cities. Ordering matters: district-level entries
// come before their province so the most specific mention wins.
type locationAlias struct {
	keys  []string
	place string
}

var locationAliases = []locationAlias{
	// District / town level
	{[]string{"buôn ma thuột", "buon ma thuot"}, "Buôn Ma Thuột"},
	{[]string{"thị xã buôn hồ", "buôn hồ", "buon ho"}, "Buôn Hồ"},
	{[]string{"bảo lộc", "bao loc"}, "Bảo Lộc"},
	{[]string{"an khê", "an khe"}, "An Khê"},
	{[]string{"quận 1", "district 1"}, "Quận 1, Hồ Chí Minh"},
	{[]string{"quận bình thạnh", "binh thanh"}, "Bình Thạnh, Hồ Chí Minh"},
	{[]string{"thủ đức", "thu duc"}, "Thủ Đức, Hồ Chí Minh"},

	// Provinces mapped to their main city
	{[]string{"đà lạt", "da lat", "lâm đồng", "lam dong"}, "Đà Lạt"},
	{[]string{"pleiku", "gia lai"}, "Pleiku"},
	{[]string{"đắk lắk", "đăk lăk", "dak lak"}, "Buôn Ma Thuột"},
	{[]string{"gia nghĩa", "đắk nông", "dak nong"}, "Gia Nghĩa"},
	{[]string{"kon tum"}, "Kon Tum"},
	{[]string{"nha trang", "khánh hòa", "khanh hoa"}, "Nha Trang"},
	{[]string{"quy nhơn", "quy nhon", "bình định", "binh dinh"}, "Quy Nhơn"},
	{[]string{"tuy hòa", "tuy hoa", "phú yên", "phu yen"}, "Tuy Hòa"},
	{[]string{"hội an", "hoi an", "quảng nam", "quang nam"}, "Hội An"},
	{[]string{"huế", "hue", "thừa thiên"}, "Huế"},
	{[]string{"vinh", "nghệ an", "nghe an"}, "Vinh"},

	// Major cities
	{[]string{"hồ chí minh", "sài gòn", "saigon", "tp hcm", "tphcm"}, "Hồ Chí Minh"},
	{[]string{"hà nội", "hanoi", "thủ đô"}, "Hà Nội"},
	{[]string{"đà nẵng", "da nang"}, "Đà Nẵng"},
	{[]string{"cần thơ", "can tho"}, "Cần Thơ"},
	{[]string{"hải phòng", "hai phong"}, "Hải Phòng"},

	// North
	{[]string{"thái nguyên", "thai nguyen"}, "Thái Nguyên"},
	{[]string{"lạng sơn", "lang son"}, "Lạng Sơn"},
	{[]string{"hạ long", "ha long", "quảng ninh", "quang ninh"}, "Hạ Long"},
	{[]string{"sa pa", "sapa", "lào cai", "lao cai"}, "Sa Pa"},
	{[]string{"điện biên", "dien bien"}, "Điện Biên Phủ"},
	{[]string{"hà giang", "ha giang"}, "Hà Giang"},
	{[]string{"cao bằng", "cao bang"}, "Cao Bằng"},

	// South and Mekong delta
	{[]string{"vũng tàu", "vung tau", "bà rịa", "ba ria"}, "Vũng Tàu"},
	{[]string{"biên hòa", "bien hoa", "đồng nai", "dong nai"}, "Biên Hòa"},
	{[]string{"thủ dầu một", "bình dương", "binh duong"}, "Thủ Dầu Một"},
	{[]string{"tây ninh", "tay ninh"}, "Tây Ninh"},
	{[]string{"phú quốc", "phu quoc"}, "Phú Quốc"},
	{[]string{"cà mau", "ca mau"}, "Cà Mau"},
	{[]string{"long xuyên", "long xuyen", "an giang"}, "Long Xuyên"},
	{[]string{"rạch giá", "rach gia", "kiên giang", "kien giang"}, "Rạch Giá"},
	{[]string{"sóc trăng", "soc trang"}, "Sóc Trăng"},
	{[]string{"vĩnh long", "vinh long"}, "Vĩnh Long"},
	{[]string{"bến tre", "ben tre"}, "Bến Tre"},
	{[]string{"trà vinh", "tra vinh"}, "Trà Vinh"},
}

// adminUnitPattern captures an explicitly named administrative unit
// ("xã Ea Kao", "huyện Đức Trọng", ...) when the alias table misses.
var adminUnitPattern = regexp.MustCompile(
	`(?:xã|phường|thị trấn|thị xã|huyện|quận|thành phố|tp)\s+([\p{L}\d]+(?:\s+[\p{L}\d]+){0,2})`)

// Trailing tokens that are part of the question, not the place name.
var adminTrailing = []string{
	"hôm", "nay", "thì", "thế", "nào", "ra", "sao", "có", "như",
}

// ExtractLocation finds the most specific place named in the utterance.
// Returns "" when nothing matches; callers resolve from carried context.
func ExtractLocation(utterance string) string {
	lower := strings.ToLower(utterance)

	for _, a := range locationAliases {
		for _, key := range a.keys {
			if strings.Contains(lower, key) {
				return a.place
			}
		}
	}

	if m := adminUnitPattern.FindStringSubmatch(utterance); m != nil {
		return trimTrailing(strings.TrimSpace(m[1]))
	}

	return ""
}

func trimTrailing(place string) string {
	words := strings.Fields(place)
	for len(words) > 0 {
		last := strings.ToLower(words[len(words)-1])
		keep := true
		for _, t := range adminTrailing {
			if last == t {
				words = words[:len(words)-1]
				keep = false
				break
			}
		}
		if keep {
			break
		}
	}
	return strings.Join(words, " ")
}
