package route

import "strings"

// Read-time district keys. Taipei rows are split between two authorities.
const (
	KeyTaipeiDistrict = "taipei_district"
	KeyTaipeiCity     = "taipei_city"
)

// UnknownAuthority names rows whose district is NULL.
const UnknownAuthority = "未知"

// Authority display names.
const (
	AuthTaipeiDistrict = "臺北區監理所"
	AuthTaipeiCity     = "臺北市區監理所"
	AuthHsinchu        = "新竹區監理所"
	AuthTaichung       = "台中區監理所"
	AuthChiayi         = "嘉義區監理所"
	AuthKaohsiung      = "高雄區監理所"
)

// AuthorityOrder is the display order used by exports.
var AuthorityOrder = []string{
	AuthTaipeiDistrict,
	AuthTaipeiCity,
	AuthHsinchu,
	AuthTaichung,
	AuthChiayi,
	AuthKaohsiung,
}

var authorityByKey = map[string]string{
	KeyTaipeiDistrict: AuthTaipeiDistrict,
	KeyTaipeiCity:     AuthTaipeiCity,
	string(Hsinchu):   AuthHsinchu,
	string(Taichung):  AuthTaichung,
	string(Chiayi):    AuthChiayi,
	string(Kaohsiung): AuthKaohsiung,
}

// DistrictKey resolves the read-time district key for a stored row. The
// authority named in the source file wins over the stored code; remaining
// taipei rows go to the city office when the file says 臺北市區 and to the
// district office otherwise.
func DistrictKey(district *string, sourceFile string) string {
	switch {
	case strings.Contains(sourceFile, AuthTaipeiDistrict):
		return KeyTaipeiDistrict
	case strings.Contains(sourceFile, AuthTaipeiCity):
		return KeyTaipeiCity
	}
	if district == nil {
		return ""
	}
	if *district == string(Taipei) {
		name := SpaceFree(sourceFile)
		if strings.Contains(name, "臺北市區") || strings.Contains(name, "台北市區") {
			return KeyTaipeiCity
		}
		return KeyTaipeiDistrict
	}
	return *district
}

// AuthorityName maps a district key to its authority display name. Empty keys
// become 未知; unrecognized keys pass through.
func AuthorityName(key string) string {
	if key == "" {
		return UnknownAuthority
	}
	if name, ok := authorityByKey[key]; ok {
		return name
	}
	return key
}

// ResolveAuthority combines DistrictKey and AuthorityName.
func ResolveAuthority(district *string, sourceFile string) string {
	return AuthorityName(DistrictKey(district, sourceFile))
}
