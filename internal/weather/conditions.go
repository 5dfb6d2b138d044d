package weather

// Condition codes follow the OpenWeatherMap condition id space; sources with
// their own code tables translate into it.

// exact icon entries; anything not listed falls back to its code group.
var iconByCode = map[int]string{
	200: "wi-thunderstorm",
	201: "wi-thunderstorm",
	202: "wi-thunderstorm",
	210: "wi-lightning",
	211: "wi-lightning",
	212: "wi-lightning",
	221: "wi-lightning",
	230: "wi-storm-showers",
	231: "wi-storm-showers",
	232: "wi-storm-showers",

	500: "wi-rain",
	501: "wi-rain",
	502: "wi-rain-wind",
	503: "wi-rain-wind",
	504: "wi-rain-wind",
	511: "wi-rain-mix",
	520: "wi-showers",
	521: "wi-showers",
	522: "wi-showers",
	531: "wi-showers",

	611: "wi-sleet",
	612: "wi-sleet",
	613: "wi-sleet",
	615: "wi-rain-mix",
	616: "wi-rain-mix",

	701: "wi-fog",
	711: "wi-smoke",
	721: "wi-day-haze",
	731: "wi-dust",
	741: "wi-fog",
	751: "wi-sandstorm",
	761: "wi-dust",
	762: "wi-volcano",
	771: "wi-strong-wind",
	781: "wi-tornado",

	800: "wi-day-sunny",
	801: "wi-day-cloudy",
	802: "wi-cloud",
	803: "wi-cloudy",
	804: "wi-cloudy",
}

// IconUnknown is returned for codes outside every known group.
const IconUnknown = "wi-na"

// IconFor maps a condition code to a weather-icons class name.
func IconFor(code int) string {
	if icon, ok := iconByCode[code]; ok {
		return icon
	}
	switch {
	case code >= 200 && code < 300:
		return "wi-thunderstorm"
	case code >= 300 && code < 400:
		return "wi-sprinkle"
	case code >= 500 && code < 600:
		return "wi-rain"
	case code >= 600 && code < 700:
		return "wi-snow"
	case code >= 700 && code < 800:
		return "wi-fog"
	case code > 800 && code < 900:
		return "wi-cloudy"
	default:
		return IconUnknown
	}
}

// ConditionFromCode maps a condition code to its normalized category.
func ConditionFromCode(code int) Condition {
	switch {
	case code >= 200 && code < 300:
		return ConditionThunderstorm
	case code >= 300 && code < 400:
		return ConditionDrizzle
	case code >= 500 && code < 600:
		return ConditionRain
	case code >= 600 && code < 700:
		return ConditionSnow
	case code == 741:
		return ConditionFog
	case code >= 700 && code < 800:
		return ConditionMist
	case code == 800:
		return ConditionClear
	case code > 800 && code < 900:
		return ConditionClouds
	default:
		return ConditionUnknown
	}
}

// CodeFor returns a representative condition code for a category.
func CodeFor(c Condition) int {
	switch c {
	case ConditionThunderstorm:
		return 200
	case ConditionDrizzle:
		return 300
	case ConditionRain:
		return 500
	case ConditionSnow:
		return 600
	case ConditionMist:
		return 701
	case ConditionFog:
		return 741
	case ConditionClear:
		return 800
	case ConditionClouds:
		return 803
	default:
		return 0
	}
}

// DefaultBackground is the page gradient when no condition applies.
const DefaultBackground = "linear-gradient(135deg, #f4f4f4, #eaeaea)"

// BackgroundFor returns the page background gradient for a condition.
func BackgroundFor(c Condition) string {
	switch c {
	case ConditionClear:
		return "linear-gradient(135deg, #8EC5FC, #E0C3FC)"
	case ConditionClouds:
		return "linear-gradient(135deg, #B0BEC5, #78909C)"
	case ConditionRain, ConditionDrizzle:
		return "linear-gradient(135deg, #74EBD5, #ACB6E5)"
	case ConditionSnow:
		return "linear-gradient(135deg, #ECE9E6, #FFFFFF)"
	case ConditionThunderstorm:
		return "linear-gradient(135deg, #141E30, #243B55)"
	case ConditionMist, ConditionFog:
		return "linear-gradient(135deg, #D3D3D3, #ECECEC)"
	default:
		return DefaultBackground
	}
}
